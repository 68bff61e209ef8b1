package repositories

import (
	"context"
	"time"

	"shelftrack/internal/adapters/persistence/models"
	"shelftrack/internal/core/domain"

	"gorm.io/gorm"
)

// openStatuses are the non-terminal loan states
var openStatuses = []string{
	string(domain.LoanBorrowed),
	string(domain.LoanActive),
}

// loanRepository implements LoanRepository interface
type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

// Create creates a new loan
func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

// GetByID gets a loan by ID with relations
func (r *loanRepository) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Preload("Book").
		Preload("Patron").
		First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// GetLoansWithRelations lists loans with their book and patron rows
// preloaded. This is the single join contract; there is no call-site
// fallback stitching.
func (r *loanRepository) GetLoansWithRelations(ctx context.Context, offset, limit int) ([]*models.Loan, int64, error) {
	var loans []*models.Loan
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Loan{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Preload("Book").
		Preload("Patron").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&loans).Error

	return loans, total, err
}

// ListOpen lists all loans in a non-terminal state
func (r *loanRepository) ListOpen(ctx context.Context) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Preload("Book").
		Preload("Patron").
		Where("status IN ?", openStatuses).
		Find(&loans).Error
	return loans, err
}

// ListOpenByBookID lists non-terminal loans referencing a book
func (r *loanRepository) ListOpenByBookID(ctx context.Context, bookID uint) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Where("status IN ?", openStatuses).
		Find(&loans).Error
	return loans, err
}

// ListByPatronID lists all loans for a patron
func (r *loanRepository) ListByPatronID(ctx context.Context, patronID uint) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Preload("Book").
		Where("patron_id = ?", patronID).
		Order("created_at DESC").
		Find(&loans).Error
	return loans, err
}

// Update updates a loan
func (r *loanRepository) Update(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Save(loan).Error
}

// ReturnLoan marks a loan returned and flips its book back to available
// inside one transaction. A returned loan with a still-borrowed book is
// an inconsistent state, so both writes succeed or neither does.
func (r *loanRepository) ReturnLoan(ctx context.Context, loan *models.Loan, book *models.Book) error {
	now := time.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Loan{}).
			Where("id = ?", loan.ID).
			Updates(map[string]interface{}{
				"status":        string(domain.LoanReturned),
				"returned_date": now,
			}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Book{}).
			Where("id = ?", book.ID).
			Update("status", string(domain.BookAvailable)).Error; err != nil {
			return err
		}

		loan.Status = string(domain.LoanReturned)
		loan.ReturnedDate = &now
		book.Status = string(domain.BookAvailable)
		return nil
	})
}

