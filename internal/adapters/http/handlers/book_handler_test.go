package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shelftrack/internal/adapters/persistence/models"
	"shelftrack/internal/adapters/persistence/repositories"
	"shelftrack/internal/core/domain"
	"shelftrack/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupHandlerDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

func newBookTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	bookRepo := repositories.NewBookRepository(db)
	loanRepo := repositories.NewLoanRepository(db)
	inventory := services.NewInventoryService(bookRepo, loanRepo)
	audit := services.NewAuditService(repositories.NewAuditRepository(db))
	feed := services.NewChangeFeed()
	handler := NewBookHandler(services.NewBookService(bookRepo, loanRepo, inventory, audit, feed))

	app := fiber.New()
	app.Post("/books", handler.Create)
	app.Post("/books/:id/archive", handler.Archive)
	app.Delete("/books/:id", handler.Delete)
	return app
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func handlerSeedBook(t *testing.T, db *gorm.DB, isbn, status string) *models.Book {
	book := &models.Book{
		Title:    "Dune",
		Author:   "Frank Herbert",
		ISBN:     isbn,
		Category: "Science Fiction",
		Status:   status,
	}
	require.NoError(t, db.Create(book).Error)
	return book
}

func handlerSeedPatron(t *testing.T, db *gorm.DB, email string) *models.Patron {
	patron := &models.Patron{
		FullName: "Paula Reader",
		Email:    email,
		Status:   string(domain.PatronActive),
	}
	require.NoError(t, db.Create(patron).Error)
	return patron
}

func handlerSeedLoan(t *testing.T, db *gorm.DB, bookID, patronID uint, status string) *models.Loan {
	loan := &models.Loan{
		BookID:   bookID,
		PatronID: patronID,
		LoanDate: time.Now(),
		Status:   status,
	}
	require.NoError(t, db.Create(loan).Error)
	return loan
}

func TestBookHandler_CreateValidation(t *testing.T) {
	db := setupHandlerDB(t)
	app := newBookTestApp(t, db)

	t.Run("malformed isbn returns 400", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, "POST", "/books", fiber.Map{
			"title":    "Dune",
			"author":   "Frank Herbert",
			"isbn":     "abc",
			"category": "Science Fiction",
		}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing required field returns 400", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, "POST", "/books", fiber.Map{
			"author":   "Frank Herbert",
			"isbn":     "978-0-441-01359-3",
			"category": "Science Fiction",
		}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("valid book returns 201 then duplicate isbn 409", func(t *testing.T) {
		body := fiber.Map{
			"title":    "Dune",
			"author":   "Frank Herbert",
			"isbn":     "978-0-441-01359-3",
			"category": "Science Fiction",
		}
		resp, err := app.Test(jsonRequest(t, "POST", "/books", body))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

		resp, err = app.Test(jsonRequest(t, "POST", "/books", body))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	})
}

func TestBookHandler_ArchiveOpenLoanConflict(t *testing.T) {
	db := setupHandlerDB(t)
	app := newBookTestApp(t, db)

	b := handlerSeedBook(t, db, "978-0-441-01359-3", string(domain.BookAvailable))
	p := handlerSeedPatron(t, db, "paula@example.com")
	loan := handlerSeedLoan(t, db, b.ID, p.ID, string(domain.LoanBorrowed))

	resp, err := app.Test(jsonRequest(t, "POST", "/books/1/archive", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	require.NoError(t, db.Model(loan).Update("status", string(domain.LoanReturned)).Error)

	resp, err = app.Test(jsonRequest(t, "POST", "/books/1/archive", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestBookHandler_DeleteReferencedConflict(t *testing.T) {
	db := setupHandlerDB(t)
	app := newBookTestApp(t, db)

	b := handlerSeedBook(t, db, "978-0-441-01359-3", string(domain.BookAvailable))
	p := handlerSeedPatron(t, db, "paula@example.com")
	handlerSeedLoan(t, db, b.ID, p.ID, string(domain.LoanBorrowed))

	resp, err := app.Test(jsonRequest(t, "DELETE", "/books/1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, "DELETE", "/books/999", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
