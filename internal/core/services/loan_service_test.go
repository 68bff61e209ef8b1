package services

import (
	"context"
	"testing"
	"time"

	"shelftrack/internal/adapters/persistence/models"
	"shelftrack/internal/adapters/persistence/repositories"
	"shelftrack/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newLoanService(t *testing.T, db *gorm.DB) *LoanService {
	bookRepo := repositories.NewBookRepository(db)
	loanRepo := repositories.NewLoanRepository(db)
	patronRepo := repositories.NewPatronRepository(db)
	inventory := NewInventoryService(bookRepo, loanRepo)
	audit := NewAuditService(repositories.NewAuditRepository(db))
	feed := NewChangeFeed()
	notify := NewNotificationService(testConfig()) // no API key, sends are no-ops

	return NewLoanService(loanRepo, bookRepo, patronRepo, inventory, audit, feed, notify)
}

func TestLoanService_Create(t *testing.T) {
	t.Run("checkout flips book to borrowed", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newLoanService(t, db)
		b := seedBook(t, db, "Dune", "978-0-441-01359-3", string(domain.BookAvailable))
		p := seedPatron(t, db, "Paula Reader", "paula@example.com", string(domain.PatronActive))

		loan, err := svc.Create(context.Background(), &CreateLoanInput{BookID: b.ID, PatronID: p.ID}, 1)
		require.NoError(t, err)
		assert.Equal(t, string(domain.LoanBorrowed), loan.Status)

		var stored models.Book
		require.NoError(t, db.First(&stored, b.ID).Error)
		assert.Equal(t, string(domain.BookBorrowed), stored.Status)
	})

	t.Run("default due date is loan date plus loan period", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newLoanService(t, db)
		b := seedBook(t, db, "Dune", "978-0-441-01359-3", string(domain.BookAvailable))
		p := seedPatron(t, db, "Paula Reader", "paula@example.com", string(domain.PatronActive))

		loan, err := svc.Create(context.Background(), &CreateLoanInput{BookID: b.ID, PatronID: p.ID}, 1)
		require.NoError(t, err)
		require.NotNil(t, loan.DueDate)

		expected := loan.LoanDate.AddDate(0, 0, domain.DefaultLoanPeriodDays)
		assert.WithinDuration(t, expected, *loan.DueDate, time.Second)
	})

	t.Run("explicit due date is kept", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newLoanService(t, db)
		b := seedBook(t, db, "Dune", "978-0-441-01359-3", string(domain.BookAvailable))
		p := seedPatron(t, db, "Paula Reader", "paula@example.com", string(domain.PatronActive))

		due := time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC)
		loan, err := svc.Create(context.Background(), &CreateLoanInput{BookID: b.ID, PatronID: p.ID, DueDate: &due}, 1)
		require.NoError(t, err)
		require.NotNil(t, loan.DueDate)
		assert.True(t, loan.DueDate.Equal(due))
	})

	t.Run("borrowed book cannot be checked out again", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newLoanService(t, db)
		b := seedBook(t, db, "Dune", "978-0-441-01359-3", string(domain.BookAvailable))
		p := seedPatron(t, db, "Paula Reader", "paula@example.com", string(domain.PatronActive))
		p2 := seedPatron(t, db, "Quinn Reader", "quinn@example.com", string(domain.PatronActive))

		_, err := svc.Create(context.Background(), &CreateLoanInput{BookID: b.ID, PatronID: p.ID}, 1)
		require.NoError(t, err)

		_, err = svc.Create(context.Background(), &CreateLoanInput{BookID: b.ID, PatronID: p2.ID}, 1)
		assert.ErrorIs(t, err, domain.ErrBookNotAvailable)
	})

	t.Run("availability is judged by open loans not the stored column", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newLoanService(t, db)
		// Stale stored borrowed with no open loan backing it
		b := seedBook(t, db, "Dune", "978-0-441-01359-3", string(domain.BookBorrowed))
		p := seedPatron(t, db, "Paula Reader", "paula@example.com", string(domain.PatronActive))

		_, err := svc.Create(context.Background(), &CreateLoanInput{BookID: b.ID, PatronID: p.ID}, 1)
		assert.NoError(t, err)
	})

	t.Run("archived book cannot be checked out", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newLoanService(t, db)
		b := seedBook(t, db, "Dune", "978-0-441-01359-3", string(domain.BookArchived))
		p := seedPatron(t, db, "Paula Reader", "paula@example.com", string(domain.PatronActive))

		_, err := svc.Create(context.Background(), &CreateLoanInput{BookID: b.ID, PatronID: p.ID}, 1)
		assert.ErrorIs(t, err, domain.ErrBookNotAvailable)
	})

	t.Run("inactive patron is rejected", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newLoanService(t, db)
		b := seedBook(t, db, "Dune", "978-0-441-01359-3", string(domain.BookAvailable))
		p := seedPatron(t, db, "Paula Reader", "paula@example.com", string(domain.PatronInactive))

		_, err := svc.Create(context.Background(), &CreateLoanInput{BookID: b.ID, PatronID: p.ID}, 1)
		assert.ErrorIs(t, err, domain.ErrPatronNotActive)
	})

	t.Run("missing book and patron", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newLoanService(t, db)
		b := seedBook(t, db, "Dune", "978-0-441-01359-3", string(domain.BookAvailable))

		_, err := svc.Create(context.Background(), &CreateLoanInput{BookID: 999, PatronID: 1}, 1)
		assert.ErrorIs(t, err, domain.ErrBookNotFound)

		_, err = svc.Create(context.Background(), &CreateLoanInput{BookID: b.ID, PatronID: 999}, 1)
		assert.ErrorIs(t, err, domain.ErrPatronNotFound)
	})
}

func TestLoanService_Activate(t *testing.T) {
	db := setupTestDB(t)
	svc := newLoanService(t, db)
	b := seedBook(t, db, "Dune", "978-0-441-01359-3", string(domain.BookAvailable))
	p := seedPatron(t, db, "Paula Reader", "paula@example.com", string(domain.PatronActive))

	loan, err := svc.Create(context.Background(), &CreateLoanInput{BookID: b.ID, PatronID: p.ID}, 1)
	require.NoError(t, err)

	activated, err := svc.Activate(context.Background(), loan.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, string(domain.LoanActive), activated.Status)

	// Only borrowed loans can be activated
	_, err = svc.Activate(context.Background(), loan.ID, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidLoanTransition)

	_, err = svc.Activate(context.Background(), 999, 1)
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)
}

func TestLoanService_Return(t *testing.T) {
	t.Run("return closes the loan and frees the book", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newLoanService(t, db)
		b := seedBook(t, db, "Dune", "978-0-441-01359-3", string(domain.BookAvailable))
		p := seedPatron(t, db, "Paula Reader", "paula@example.com", string(domain.PatronActive))

		loan, err := svc.Create(context.Background(), &CreateLoanInput{BookID: b.ID, PatronID: p.ID}, 1)
		require.NoError(t, err)

		returned, err := svc.Return(context.Background(), loan.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, string(domain.LoanReturned), returned.Status)
		assert.NotNil(t, returned.ReturnedDate)

		var stored models.Book
		require.NoError(t, db.First(&stored, b.ID).Error)
		assert.Equal(t, string(domain.BookAvailable), stored.Status)
	})

	t.Run("return works from active state too", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newLoanService(t, db)
		b := seedBook(t, db, "Dune", "978-0-441-01359-3", string(domain.BookAvailable))
		p := seedPatron(t, db, "Paula Reader", "paula@example.com", string(domain.PatronActive))

		loan, err := svc.Create(context.Background(), &CreateLoanInput{BookID: b.ID, PatronID: p.ID}, 1)
		require.NoError(t, err)
		_, err = svc.Activate(context.Background(), loan.ID, 1)
		require.NoError(t, err)

		returned, err := svc.Return(context.Background(), loan.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, string(domain.LoanReturned), returned.Status)
	})

	t.Run("double return is rejected", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newLoanService(t, db)
		b := seedBook(t, db, "Dune", "978-0-441-01359-3", string(domain.BookAvailable))
		p := seedPatron(t, db, "Paula Reader", "paula@example.com", string(domain.PatronActive))

		loan, err := svc.Create(context.Background(), &CreateLoanInput{BookID: b.ID, PatronID: p.ID}, 1)
		require.NoError(t, err)

		_, err = svc.Return(context.Background(), loan.ID, 1)
		require.NoError(t, err)

		_, err = svc.Return(context.Background(), loan.ID, 1)
		assert.ErrorIs(t, err, domain.ErrLoanAlreadyReturned)
	})
}

func TestLoanService_ListOverdue(t *testing.T) {
	db := setupTestDB(t)
	svc := newLoanService(t, db)
	b1 := seedBook(t, db, "Dune", "978-0-441-01359-3", string(domain.BookAvailable))
	b2 := seedBook(t, db, "Hyperion", "978-0-553-28368-8", string(domain.BookAvailable))
	b3 := seedBook(t, db, "Foundation", "978-0-553-29335-0", string(domain.BookAvailable))
	p := seedPatron(t, db, "Paula Reader", "paula@example.com", string(domain.PatronActive))

	today := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	// One loan 3 days overdue, one 10 days overdue, one not due yet
	due1 := today.AddDate(0, 0, -3)
	due2 := today.AddDate(0, 0, -10)
	due3 := today.AddDate(0, 0, 5)

	mustLoan := func(bookID uint, due time.Time) {
		_, err := svc.Create(context.Background(), &CreateLoanInput{BookID: bookID, PatronID: p.ID, DueDate: &due}, 1)
		require.NoError(t, err)
	}
	mustLoan(b1.ID, due1)
	mustLoan(b2.ID, due2)
	mustLoan(b3.ID, due3)

	overdue, err := svc.ListOverdue(context.Background(), today)
	require.NoError(t, err)
	require.Len(t, overdue, 2)

	bySeverity := make(map[string]int)
	for _, resp := range overdue {
		assert.True(t, resp.IsOverdue)
		bySeverity[resp.Severity]++
	}
	assert.Equal(t, 1, bySeverity[string(domain.SeverityWarning)])
	assert.Equal(t, 1, bySeverity[string(domain.SeverityCritical)])
}

func TestLoanService_List(t *testing.T) {
	db := setupTestDB(t)
	svc := newLoanService(t, db)
	b := seedBook(t, db, "Dune", "978-0-441-01359-3", string(domain.BookAvailable))
	p := seedPatron(t, db, "Paula Reader", "paula@example.com", string(domain.PatronActive))

	due := time.Now().AddDate(0, 0, -2)
	_, err := svc.Create(context.Background(), &CreateLoanInput{BookID: b.ID, PatronID: p.ID, DueDate: &due}, 1)
	require.NoError(t, err)

	out, err := svc.List(context.Background(), &ListInput{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
	require.Len(t, out.Loans, 1)

	resp := out.Loans[0]
	assert.Equal(t, "Dune", resp.BookTitle)
	assert.Equal(t, "Paula Reader", resp.PatronName)
	assert.True(t, resp.IsOverdue)
	assert.Equal(t, 2, resp.DaysOverdue)
}

func TestLoanService_ListByPatron(t *testing.T) {
	db := setupTestDB(t)
	svc := newLoanService(t, db)
	b1 := seedBook(t, db, "Dune", "978-0-441-01359-3", string(domain.BookAvailable))
	b2 := seedBook(t, db, "Hyperion", "978-0-553-28368-8", string(domain.BookAvailable))
	p1 := seedPatron(t, db, "Paula Reader", "paula@example.com", string(domain.PatronActive))
	p2 := seedPatron(t, db, "Quinn Reader", "quinn@example.com", string(domain.PatronActive))

	_, err := svc.Create(context.Background(), &CreateLoanInput{BookID: b1.ID, PatronID: p1.ID}, 1)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), &CreateLoanInput{BookID: b2.ID, PatronID: p2.ID}, 1)
	require.NoError(t, err)

	loans, err := svc.ListByPatron(context.Background(), p1.ID)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, b1.ID, loans[0].BookID)
}

func TestLoanService_CreateWritesAudit(t *testing.T) {
	db := setupTestDB(t)
	svc := newLoanService(t, db)
	b := seedBook(t, db, "Dune", "978-0-441-01359-3", string(domain.BookAvailable))
	p := seedPatron(t, db, "Paula Reader", "paula@example.com", string(domain.PatronActive))

	loan, err := svc.Create(context.Background(), &CreateLoanInput{BookID: b.ID, PatronID: p.ID}, 42)
	require.NoError(t, err)

	var logs []models.AuditLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionCreate, logs[0].Action)
	assert.Equal(t, "loans", logs[0].Table)
	assert.Equal(t, loan.ID, logs[0].RecordID)
	assert.Equal(t, uint(42), logs[0].UserID)
}
