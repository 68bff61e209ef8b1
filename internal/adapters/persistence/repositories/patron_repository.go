package repositories

import (
	"context"

	"shelftrack/internal/adapters/persistence/models"
	"shelftrack/internal/core/domain"

	"gorm.io/gorm"
)

// patronRepository implements PatronRepository interface
type patronRepository struct {
	db *gorm.DB
}

// NewPatronRepository creates a new patron repository
func NewPatronRepository(db *gorm.DB) PatronRepository {
	return &patronRepository{db: db}
}

// Create creates a new patron
func (r *patronRepository) Create(ctx context.Context, patron *models.Patron) error {
	return r.db.WithContext(ctx).Create(patron).Error
}

// GetByID gets a patron by ID
func (r *patronRepository) GetByID(ctx context.Context, id uint) (*models.Patron, error) {
	var patron models.Patron
	err := r.db.WithContext(ctx).First(&patron, id).Error
	if err != nil {
		return nil, err
	}
	return &patron, nil
}


// List lists patrons with pagination, excluding archived ones by default
func (r *patronRepository) List(ctx context.Context, offset, limit int, includeArchived bool) ([]*models.Patron, int64, error) {
	var patrons []*models.Patron
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Patron{})
	if !includeArchived {
		query = query.Where("status <> ?", string(domain.PatronArchived))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("full_name ASC").
		Offset(offset).
		Limit(limit).
		Find(&patrons).Error

	return patrons, total, err
}

// Update updates a patron
func (r *patronRepository) Update(ctx context.Context, patron *models.Patron) error {
	return r.db.WithContext(ctx).Save(patron).Error
}

// Delete soft deletes a patron
func (r *patronRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Patron{}, id).Error
}

// ExistsByEmail checks for another patron with the same email,
// excluding the given record on update (excludeID 0 means no exclusion).
func (r *patronRepository) ExistsByEmail(ctx context.Context, email string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Patron{}).Where("email = ?", email)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// CountByStatus counts patrons with the given status
// CountByStatus counts patrons with the given status; an empty
// status counts all patrons.
func (r *patronRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Patron{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Count(&count).Error
	return count, err
}
