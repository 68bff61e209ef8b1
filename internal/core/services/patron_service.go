package services

import (
	"context"
	"errors"

	"shelftrack/internal/adapters/persistence/models"
	"shelftrack/internal/adapters/persistence/repositories"
	"shelftrack/internal/core/domain"
	"shelftrack/internal/pkg/validate"

	"gorm.io/gorm"
)

// PatronService handles patron record business logic
type PatronService struct {
	patronRepo repositories.PatronRepository
	loanRepo   repositories.LoanRepository
	audit      *AuditService
	feed       *ChangeFeed
}

// NewPatronService creates a new patron service
func NewPatronService(
	patronRepo repositories.PatronRepository,
	loanRepo repositories.LoanRepository,
	audit *AuditService,
	feed *ChangeFeed,
) *PatronService {
	return &PatronService{
		patronRepo: patronRepo,
		loanRepo:   loanRepo,
		audit:      audit,
		feed:       feed,
	}
}

// CreatePatronInput represents create patron input
type CreatePatronInput struct {
	FullName string  `json:"full_name" validate:"required,max=100"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    *string `json:"phone,omitempty"`
}

// UpdatePatronInput represents update patron input
type UpdatePatronInput struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Status   *string `json:"status"`
}

// Create registers a new patron after email format and duplicate checks
func (s *PatronService) Create(ctx context.Context, input *CreatePatronInput, actorID uint) (*models.Patron, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	exists, err := s.patronRepo.ExistsByEmail(ctx, input.Email, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateEmail
	}

	patron := &models.Patron{
		FullName: input.FullName,
		Email:    input.Email,
		Phone:    input.Phone,
		Status:   string(domain.PatronActive),
	}

	if err := s.patronRepo.Create(ctx, patron); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, err
	}

	s.audit.Record(ctx, models.AuditActionCreate, models.Patron{}.TableName(), patron.ID, actorID, patron)
	s.feed.Notify(models.Patron{}.TableName())

	return patron, nil
}

// GetByID gets a patron by ID
func (s *PatronService) GetByID(ctx context.Context, id uint) (*models.Patron, error) {
	patron, err := s.patronRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPatronNotFound
		}
		return nil, err
	}
	return patron, nil
}

// ListPatronsOutput represents list output
type ListPatronsOutput struct {
	Patrons    []*models.Patron `json:"patrons"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
}

// List lists patrons, excluding archived ones unless requested
func (s *PatronService) List(ctx context.Context, page, limit int, includeArchived bool) (*ListPatronsOutput, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	offset := (page - 1) * limit
	patrons, total, err := s.patronRepo.List(ctx, offset, limit, includeArchived)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}

	return &ListPatronsOutput{
		Patrons:    patrons,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// Update modifies a patron, re-running the email duplicate check
// against other records when the email changes.
func (s *PatronService) Update(ctx context.Context, id uint, input *UpdatePatronInput, actorID uint) (*models.Patron, error) {
	patron, err := s.patronRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPatronNotFound
		}
		return nil, err
	}

	if input.Email != nil && *input.Email != patron.Email {
		if !validate.Email(*input.Email) {
			return nil, domain.ErrInvalidInput
		}
		exists, err := s.patronRepo.ExistsByEmail(ctx, *input.Email, patron.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, domain.ErrDuplicateEmail
		}
		patron.Email = *input.Email
	}

	if input.FullName != nil {
		if *input.FullName == "" {
			return nil, domain.ErrInvalidInput
		}
		patron.FullName = *input.FullName
	}
	if input.Phone != nil {
		patron.Phone = input.Phone
	}
	if input.Status != nil {
		switch domain.PatronStatus(*input.Status) {
		case domain.PatronActive, domain.PatronInactive, domain.PatronArchived:
			patron.Status = *input.Status
		default:
			return nil, domain.ErrInvalidInput
		}
	}

	if err := s.patronRepo.Update(ctx, patron); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, err
	}

	s.audit.Record(ctx, models.AuditActionUpdate, models.Patron{}.TableName(), patron.ID, actorID, patron)
	s.feed.Notify(models.Patron{}.TableName())

	return patron, nil
}

// Archive soft-archives a patron. A patron with open loans keeps their
// record active until the loans are closed.
func (s *PatronService) Archive(ctx context.Context, id uint, actorID uint) error {
	patron, err := s.patronRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrPatronNotFound
		}
		return err
	}

	loans, err := s.loanRepo.ListByPatronID(ctx, id)
	if err != nil {
		return err
	}
	for _, loan := range loans {
		if loan.IsOpen() {
			return domain.ErrRecordReferenced
		}
	}

	patron.Status = string(domain.PatronArchived)
	if err := s.patronRepo.Update(ctx, patron); err != nil {
		return err
	}

	s.audit.Record(ctx, models.AuditActionArchive, models.Patron{}.TableName(), patron.ID, actorID, nil)
	s.feed.Notify(models.Patron{}.TableName())

	return nil
}

// Delete removes a patron record, translating FK violations into a
// domain message.
func (s *PatronService) Delete(ctx context.Context, id uint, actorID uint) error {
	if _, err := s.patronRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrPatronNotFound
		}
		return err
	}

	loans, err := s.loanRepo.ListByPatronID(ctx, id)
	if err != nil {
		return err
	}
	if len(loans) > 0 {
		return domain.ErrRecordReferenced
	}

	if err := s.patronRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return domain.ErrRecordReferenced
		}
		return err
	}

	s.audit.Record(ctx, models.AuditActionDelete, models.Patron{}.TableName(), id, actorID, nil)
	s.feed.Notify(models.Patron{}.TableName())

	return nil
}
