package services

import (
	"context"
	"testing"

	"shelftrack/internal/adapters/persistence/models"
	"shelftrack/internal/adapters/persistence/repositories"
	"shelftrack/internal/core/domain"
	"shelftrack/internal/pkg/validate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newBookService(t *testing.T, db *gorm.DB) *BookService {
	bookRepo := repositories.NewBookRepository(db)
	loanRepo := repositories.NewLoanRepository(db)
	inventory := NewInventoryService(bookRepo, loanRepo)
	audit := NewAuditService(repositories.NewAuditRepository(db))
	feed := NewChangeFeed()

	return NewBookService(bookRepo, loanRepo, inventory, audit, feed)
}

func TestBookService_Create(t *testing.T) {
	t.Run("creates an available book", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newBookService(t, db)

		book, err := svc.Create(context.Background(), &CreateBookInput{
			Title:    "Dune",
			Author:   "Frank Herbert",
			ISBN:     "978-0-441-01359-3",
			Category: "Science Fiction",
		}, 1)
		require.NoError(t, err)
		assert.NotZero(t, book.ID)
		assert.Equal(t, string(domain.BookAvailable), book.Status)
		assert.Equal(t, uint(1), book.AddedBy)
	})

	t.Run("rejects malformed ISBN", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newBookService(t, db)

		_, err := svc.Create(context.Background(), &CreateBookInput{
			Title:    "Dune",
			Author:   "Frank Herbert",
			ISBN:     "not-an-isbn",
			Category: "Science Fiction",
		}, 1)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("rejects duplicate ISBN", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newBookService(t, db)

		input := &CreateBookInput{
			Title:    "Dune",
			Author:   "Frank Herbert",
			ISBN:     "978-0-441-01359-3",
			Category: "Science Fiction",
		}
		_, err := svc.Create(context.Background(), input, 1)
		require.NoError(t, err)

		_, err = svc.Create(context.Background(), input, 1)
		assert.ErrorIs(t, err, domain.ErrDuplicateISBN)
	})
}

func TestISBNValidation(t *testing.T) {
	valid := []string{
		"978-0-441-01359-3",
		"9780441013593",
		"0-441-01359-7",
	}
	for _, isbn := range valid {
		assert.True(t, validate.ISBN(isbn), "expected valid: %s", isbn)
	}

	invalid := []string{
		"",
		"abc",
		"978_0_441_01359_3",
		"12345",
	}
	for _, isbn := range invalid {
		assert.False(t, validate.ISBN(isbn), "expected invalid: %s", isbn)
	}
}

func TestBookService_GetByID(t *testing.T) {
	db := setupTestDB(t)
	svc := newBookService(t, db)
	b := seedBook(t, db, "Dune", "978-0-441-01359-3", string(domain.BookAvailable))
	p := seedPatron(t, db, "Paula Reader", "paula@example.com", string(domain.PatronActive))

	resp, err := svc.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.BookAvailable), resp.EffectiveStatus)

	seedLoan(t, db, b.ID, p.ID, string(domain.LoanBorrowed))

	resp, err = svc.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.BookBorrowed), resp.EffectiveStatus)
	assert.Equal(t, string(domain.BookAvailable), resp.Status)

	_, err = svc.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrBookNotFound)
}

func TestBookService_List(t *testing.T) {
	db := setupTestDB(t)
	svc := newBookService(t, db)
	b1 := seedBook(t, db, "Dune", "978-0-441-01359-3", string(domain.BookAvailable))
	seedBook(t, db, "Hyperion", "978-0-553-28368-8", string(domain.BookBorrowed))
	archived := seedBook(t, db, "Foundation", "978-0-553-29335-0", string(domain.BookArchived))
	p := seedPatron(t, db, "Paula Reader", "paula@example.com", string(domain.PatronActive))
	seedLoan(t, db, b1.ID, p.ID, string(domain.LoanBorrowed))

	out, err := svc.List(context.Background(), 1, 10, false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Total)

	statuses := make(map[uint]string)
	for _, resp := range out.Books {
		statuses[resp.ID] = resp.EffectiveStatus
		assert.NotEqual(t, archived.ID, resp.ID)
	}
	// b1 has an open loan, Hyperion's stored borrowed is stale
	assert.Equal(t, string(domain.BookBorrowed), statuses[b1.ID])

	withArchived, err := svc.List(context.Background(), 1, 10, true)
	require.NoError(t, err)
	assert.Equal(t, int64(3), withArchived.Total)
}

func TestBookService_Update(t *testing.T) {
	db := setupTestDB(t)
	svc := newBookService(t, db)
	b := seedBook(t, db, "Dune", "978-0-441-01359-3", string(domain.BookAvailable))
	seedBook(t, db, "Hyperion", "978-0-553-28368-8", string(domain.BookAvailable))

	t.Run("updates fields", func(t *testing.T) {
		title := "Dune Messiah"
		updated, err := svc.Update(context.Background(), b.ID, &UpdateBookInput{Title: &title}, 1)
		require.NoError(t, err)
		assert.Equal(t, "Dune Messiah", updated.Title)
	})

	t.Run("rejects invalid ISBN on update", func(t *testing.T) {
		bad := "garbage"
		_, err := svc.Update(context.Background(), b.ID, &UpdateBookInput{ISBN: &bad}, 1)
		assert.ErrorIs(t, err, domain.ErrInvalidISBN)
	})

	t.Run("rejects ISBN already used by another book", func(t *testing.T) {
		taken := "978-0-553-28368-8"
		_, err := svc.Update(context.Background(), b.ID, &UpdateBookInput{ISBN: &taken}, 1)
		assert.ErrorIs(t, err, domain.ErrDuplicateISBN)
	})

	t.Run("rejects unknown status value", func(t *testing.T) {
		bogus := "lost"
		_, err := svc.Update(context.Background(), b.ID, &UpdateBookInput{Status: &bogus}, 1)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("rejects empty category", func(t *testing.T) {
		empty := ""
		_, err := svc.Update(context.Background(), b.ID, &UpdateBookInput{Category: &empty}, 1)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestBookService_Archive(t *testing.T) {
	db := setupTestDB(t)
	svc := newBookService(t, db)
	b := seedBook(t, db, "Dune", "978-0-441-01359-3", string(domain.BookAvailable))
	p := seedPatron(t, db, "Paula Reader", "paula@example.com", string(domain.PatronActive))
	loan := seedLoan(t, db, b.ID, p.ID, string(domain.LoanBorrowed))

	err := svc.Archive(context.Background(), b.ID, 1)
	assert.ErrorIs(t, err, domain.ErrRecordReferenced)

	require.NoError(t, db.Model(loan).Update("status", string(domain.LoanReturned)).Error)

	require.NoError(t, svc.Archive(context.Background(), b.ID, 1))

	var stored models.Book
	require.NoError(t, db.First(&stored, b.ID).Error)
	assert.Equal(t, string(domain.BookArchived), stored.Status)
}

func TestBookService_Delete(t *testing.T) {
	db := setupTestDB(t)
	svc := newBookService(t, db)
	b := seedBook(t, db, "Dune", "978-0-441-01359-3", string(domain.BookAvailable))
	p := seedPatron(t, db, "Paula Reader", "paula@example.com", string(domain.PatronActive))
	seedLoan(t, db, b.ID, p.ID, string(domain.LoanBorrowed))

	err := svc.Delete(context.Background(), b.ID, 1)
	assert.ErrorIs(t, err, domain.ErrRecordReferenced)

	free := seedBook(t, db, "Hyperion", "978-0-553-28368-8", string(domain.BookAvailable))
	require.NoError(t, svc.Delete(context.Background(), free.ID, 1))

	err = db.First(&models.Book{}, free.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
