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

// BookService handles book catalog business logic
type BookService struct {
	bookRepo  repositories.BookRepository
	loanRepo  repositories.LoanRepository
	inventory *InventoryService
	audit     *AuditService
	feed      *ChangeFeed
}

// NewBookService creates a new book service
func NewBookService(
	bookRepo repositories.BookRepository,
	loanRepo repositories.LoanRepository,
	inventory *InventoryService,
	audit *AuditService,
	feed *ChangeFeed,
) *BookService {
	return &BookService{
		bookRepo:  bookRepo,
		loanRepo:  loanRepo,
		inventory: inventory,
		audit:     audit,
		feed:      feed,
	}
}

// CreateBookInput represents create book input
type CreateBookInput struct {
	Title    string `json:"title" validate:"required,max=255"`
	Author   string `json:"author" validate:"required,max=255"`
	ISBN     string `json:"isbn" validate:"required,isbn_format"`
	Category string `json:"category" validate:"required,max=100"`
}

// UpdateBookInput represents update book input
type UpdateBookInput struct {
	Title    *string `json:"title"`
	Author   *string `json:"author"`
	ISBN     *string `json:"isbn"`
	Category *string `json:"category"`
	Status   *string `json:"status"`
}

// Create adds a book to the catalog after ISBN format and duplicate checks
func (s *BookService) Create(ctx context.Context, input *CreateBookInput, actorID uint) (*models.Book, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	exists, err := s.bookRepo.ExistsByISBN(ctx, input.ISBN, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateISBN
	}

	book := &models.Book{
		Title:    input.Title,
		Author:   input.Author,
		ISBN:     input.ISBN,
		Category: input.Category,
		Status:   string(domain.BookAvailable),
		AddedBy:  actorID,
	}

	if err := s.bookRepo.Create(ctx, book); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrDuplicateISBN
		}
		return nil, err
	}

	s.audit.Record(ctx, models.AuditActionCreate, models.Book{}.TableName(), book.ID, actorID, book)
	s.feed.Notify(models.Book{}.TableName())

	return book, nil
}

// GetByID gets a book with its effective status derived from open loans
func (s *BookService) GetByID(ctx context.Context, id uint) (*models.BookResponse, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}

	resp := book.ToResponse()
	effective, err := s.inventory.EffectiveStatus(ctx, book)
	if err == nil {
		resp.EffectiveStatus = string(effective)
	}
	return resp, nil
}

// ListBooksOutput represents list output
type ListBooksOutput struct {
	Books      []*models.BookResponse `json:"books"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int                    `json:"total_pages"`
}

// List lists books with effective statuses reconciled against open loans
func (s *BookService) List(ctx context.Context, page, limit int, includeArchived bool) (*ListBooksOutput, error) {
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
	books, total, err := s.bookRepo.List(ctx, offset, limit, includeArchived)
	if err != nil {
		return nil, err
	}

	// reconcile this page against open loans; fail open on loan errors
	openLoans, loansErr := s.loanRepo.ListOpen(ctx)
	var responses []*models.BookResponse
	if loansErr != nil {
		responses = make([]*models.BookResponse, 0, len(books))
		for _, book := range books {
			responses = append(responses, book.ToResponse())
		}
	} else {
		responses = Reconcile(books, openLoans)
	}

	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}

	return &ListBooksOutput{
		Books:      responses,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// Update modifies a book, re-running the ISBN duplicate check against
// other records when the ISBN changes.
func (s *BookService) Update(ctx context.Context, id uint, input *UpdateBookInput, actorID uint) (*models.Book, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}

	if input.ISBN != nil && *input.ISBN != book.ISBN {
		if !validate.ISBN(*input.ISBN) {
			return nil, domain.ErrInvalidISBN
		}
		exists, err := s.bookRepo.ExistsByISBN(ctx, *input.ISBN, book.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, domain.ErrDuplicateISBN
		}
		book.ISBN = *input.ISBN
	}

	if input.Title != nil {
		book.Title = *input.Title
	}
	if input.Author != nil {
		book.Author = *input.Author
	}
	if input.Category != nil {
		if *input.Category == "" {
			return nil, domain.ErrInvalidInput
		}
		book.Category = *input.Category
	}
	if input.Status != nil {
		switch domain.BookStatus(*input.Status) {
		case domain.BookAvailable, domain.BookBorrowed, domain.BookReserved, domain.BookArchived:
			book.Status = *input.Status
		default:
			return nil, domain.ErrInvalidInput
		}
	}

	if err := s.bookRepo.Update(ctx, book); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrDuplicateISBN
		}
		return nil, err
	}

	s.audit.Record(ctx, models.AuditActionUpdate, models.Book{}.TableName(), book.ID, actorID, book)
	s.feed.Notify(models.Book{}.TableName())

	return book, nil
}

// Archive soft-archives a book: the row stays, the status flips to
// archived and the book drops out of active listings.
func (s *BookService) Archive(ctx context.Context, id uint, actorID uint) error {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrBookNotFound
		}
		return err
	}

	open, err := s.loanRepo.ListOpenByBookID(ctx, id)
	if err != nil {
		return err
	}
	if len(open) > 0 {
		return domain.ErrRecordReferenced
	}

	if err := s.bookRepo.UpdateStatus(ctx, id, string(domain.BookArchived)); err != nil {
		return err
	}

	s.audit.Record(ctx, models.AuditActionArchive, models.Book{}.TableName(), book.ID, actorID, nil)
	s.feed.Notify(models.Book{}.TableName())

	return nil
}

// Delete removes a book. A book referenced by loans cannot be deleted;
// the constraint violation surfaces as a domain message, not a raw code.
func (s *BookService) Delete(ctx context.Context, id uint, actorID uint) error {
	if _, err := s.bookRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrBookNotFound
		}
		return err
	}

	open, err := s.loanRepo.ListOpenByBookID(ctx, id)
	if err != nil {
		return err
	}
	if len(open) > 0 {
		return domain.ErrRecordReferenced
	}

	if err := s.bookRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return domain.ErrRecordReferenced
		}
		return err
	}

	s.audit.Record(ctx, models.AuditActionDelete, models.Book{}.TableName(), id, actorID, nil)
	s.feed.Notify(models.Book{}.TableName())

	return nil
}
