package services

import (
	"context"
	"encoding/json"
	"log"

	"shelftrack/internal/adapters/persistence/models"
	"shelftrack/internal/adapters/persistence/repositories"
)

// AuditService writes append-only audit entries after successful
// mutations. Writes are best-effort: a failed audit write is logged
// and never rolls back the primary mutation.
type AuditService struct {
	auditRepo repositories.AuditRepository
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo repositories.AuditRepository) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

// Record appends an audit entry with a JSON snapshot of the new data
func (s *AuditService) Record(ctx context.Context, action, table string, recordID, userID uint, newData interface{}) {
	snapshot := ""
	if newData != nil {
		if raw, err := json.Marshal(newData); err == nil {
			snapshot = string(raw)
		}
	}

	entry := &models.AuditLog{
		Action:   action,
		Table:    table,
		RecordID: recordID,
		UserID:   userID,
		NewData:  snapshot,
	}

	if err := s.auditRepo.Append(ctx, entry); err != nil {
		log.Printf("⚠️ Audit write failed [%s %s #%d]: %v", action, table, recordID, err)
	}
}

// History lists audit entries for a table
func (s *AuditService) History(ctx context.Context, table string, offset, limit int) ([]*models.AuditLog, int64, error) {
	return s.auditRepo.ListByTable(ctx, table, offset, limit)
}
