package services

import (
	"context"
	"errors"
	"time"

	"shelftrack/internal/adapters/persistence/models"
	"shelftrack/internal/adapters/persistence/repositories"
	"shelftrack/internal/core/domain"

	"gorm.io/gorm"
)

// LoanService governs the loan lifecycle: borrowed → active → returned,
// with returned reachable from either open state and terminal.
type LoanService struct {
	loanRepo   repositories.LoanRepository
	bookRepo   repositories.BookRepository
	patronRepo repositories.PatronRepository
	inventory  *InventoryService
	audit      *AuditService
	feed       *ChangeFeed
	notify     *NotificationService
}

// NewLoanService creates a new loan service
func NewLoanService(
	loanRepo repositories.LoanRepository,
	bookRepo repositories.BookRepository,
	patronRepo repositories.PatronRepository,
	inventory *InventoryService,
	audit *AuditService,
	feed *ChangeFeed,
	notify *NotificationService,
) *LoanService {
	return &LoanService{
		loanRepo:   loanRepo,
		bookRepo:   bookRepo,
		patronRepo: patronRepo,
		inventory:  inventory,
		audit:      audit,
		feed:       feed,
		notify:     notify,
	}
}

// CreateLoanInput represents create loan input
type CreateLoanInput struct {
	BookID   uint       `json:"book_id" validate:"required"`
	PatronID uint       `json:"patron_id" validate:"required"`
	DueDate  *time.Time `json:"due_date,omitempty"`
}

// Create checks out an available book to an active patron. The loan
// starts in borrowed state and the book's stored status is flipped to
// borrowed. Precondition failures are validation errors, never coerced.
func (s *LoanService) Create(ctx context.Context, input *CreateLoanInput, actorID uint) (*models.Loan, error) {
	book, err := s.bookRepo.GetByID(ctx, input.BookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}

	effective, err := s.inventory.EffectiveStatus(ctx, book)
	if err != nil {
		return nil, err
	}
	if effective != domain.BookAvailable {
		return nil, domain.ErrBookNotAvailable
	}

	patron, err := s.patronRepo.GetByID(ctx, input.PatronID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPatronNotFound
		}
		return nil, err
	}
	if !patron.IsActive() {
		return nil, domain.ErrPatronNotActive
	}

	now := time.Now()
	dueDate := input.DueDate
	if dueDate == nil {
		due := now.AddDate(0, 0, domain.DefaultLoanPeriodDays)
		dueDate = &due
	}

	loan := &models.Loan{
		BookID:   book.ID,
		PatronID: patron.ID,
		LoanDate: now,
		DueDate:  dueDate,
		Status:   string(domain.LoanBorrowed),
	}

	if err := s.loanRepo.Create(ctx, loan); err != nil {
		return nil, err
	}

	if err := s.bookRepo.UpdateStatus(ctx, book.ID, string(domain.BookBorrowed)); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.AuditActionCreate, models.Loan{}.TableName(), loan.ID, actorID, loan)
	s.feed.Notify(models.Loan{}.TableName())
	s.feed.Notify(models.Book{}.TableName())

	loan.Book = book
	loan.Patron = patron
	s.notify.NotifyLoanCreated(loan)

	return loan, nil
}

// Activate moves a borrowed loan to active. No book side effect: the
// book is already borrowed.
func (s *LoanService) Activate(ctx context.Context, loanID uint, actorID uint) (*models.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}

	if loan.Status != string(domain.LoanBorrowed) {
		return nil, domain.ErrInvalidLoanTransition
	}

	loan.Status = string(domain.LoanActive)
	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.AuditActionUpdate, models.Loan{}.TableName(), loan.ID, actorID, loan)
	s.feed.Notify(models.Loan{}.TableName())

	return loan, nil
}

// Return closes an open loan: stamps returned_date, marks the loan
// returned and the book available. Both writes happen in one
// transaction so a half-returned loan can never be observed.
func (s *LoanService) Return(ctx context.Context, loanID uint, actorID uint) (*models.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}

	if loan.Status == string(domain.LoanReturned) {
		return nil, domain.ErrLoanAlreadyReturned
	}
	if !loan.IsOpen() {
		return nil, domain.ErrInvalidLoanTransition
	}

	book, err := s.bookRepo.GetByID(ctx, loan.BookID)
	if err != nil {
		return nil, err
	}

	if err := s.loanRepo.ReturnLoan(ctx, loan, book); err != nil {
		return nil, domain.ErrInconsistentReturn
	}

	s.audit.Record(ctx, models.AuditActionReturn, models.Loan{}.TableName(), loan.ID, actorID, loan)
	s.feed.Notify(models.Loan{}.TableName())
	s.feed.Notify(models.Book{}.TableName())

	return loan, nil
}

// GetByID gets a loan by ID
func (s *LoanService) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

// ListInput represents list input
type ListInput struct {
	Page  int
	Limit int
}

// ListOutput represents list output with derived overdue fields
type ListOutput struct {
	Loans      []*models.LoanResponse `json:"loans"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int                    `json:"total_pages"`
}

// List lists loans with relations and derived overdue classification
func (s *LoanService) List(ctx context.Context, input *ListInput) (*ListOutput, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 {
		input.Limit = 10
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	offset := (input.Page - 1) * input.Limit
	loans, total, err := s.loanRepo.GetLoansWithRelations(ctx, offset, input.Limit)
	if err != nil {
		return nil, err
	}

	today := time.Now()
	responses := make([]*models.LoanResponse, len(loans))
	for i, loan := range loans {
		responses[i] = classifyLoan(loan, today)
	}

	totalPages := int(total) / input.Limit
	if int(total)%input.Limit > 0 {
		totalPages++
	}

	return &ListOutput{
		Loans:      responses,
		Total:      total,
		Page:       input.Page,
		Limit:      input.Limit,
		TotalPages: totalPages,
	}, nil
}

// ListOverdue lists open loans that are overdue as of today
func (s *LoanService) ListOverdue(ctx context.Context, today time.Time) ([]*models.LoanResponse, error) {
	open, err := s.loanRepo.ListOpen(ctx)
	if err != nil {
		return nil, err
	}

	var overdue []*models.LoanResponse
	for _, loan := range open {
		if IsOverdue(loan, today) {
			overdue = append(overdue, classifyLoan(loan, today))
		}
	}

	return overdue, nil
}

// ListByPatron lists all loans for one patron
func (s *LoanService) ListByPatron(ctx context.Context, patronID uint) ([]*models.LoanResponse, error) {
	loans, err := s.loanRepo.ListByPatronID(ctx, patronID)
	if err != nil {
		return nil, err
	}

	today := time.Now()
	responses := make([]*models.LoanResponse, len(loans))
	for i, loan := range loans {
		responses[i] = classifyLoan(loan, today)
	}
	return responses, nil
}

// classifyLoan fills the derived overdue fields on a loan response
func classifyLoan(loan *models.Loan, today time.Time) *models.LoanResponse {
	resp := loan.ToResponse()
	if IsOverdue(loan, today) {
		resp.IsOverdue = true
		resp.DaysOverdue = DaysOverdue(loan, today)
		resp.Severity = string(Severity(resp.DaysOverdue))
	}
	return resp
}
