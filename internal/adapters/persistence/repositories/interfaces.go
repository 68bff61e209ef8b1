package repositories

import (
	"context"

	"shelftrack/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) error
}

// BookRepository defines book repository interface
type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	GetByID(ctx context.Context, id uint) (*models.Book, error)
	List(ctx context.Context, offset, limit int, includeArchived bool) ([]*models.Book, int64, error)
	ListAll(ctx context.Context) ([]*models.Book, error)
	Update(ctx context.Context, book *models.Book) error
	UpdateStatus(ctx context.Context, id uint, status string) error
	Delete(ctx context.Context, id uint) error
	ExistsByISBN(ctx context.Context, isbn string, excludeID uint) (bool, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

// PatronRepository defines patron repository interface
type PatronRepository interface {
	Create(ctx context.Context, patron *models.Patron) error
	GetByID(ctx context.Context, id uint) (*models.Patron, error)
	List(ctx context.Context, offset, limit int, includeArchived bool) ([]*models.Patron, int64, error)
	Update(ctx context.Context, patron *models.Patron) error
	Delete(ctx context.Context, id uint) error
	ExistsByEmail(ctx context.Context, email string, excludeID uint) (bool, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

// LoanRepository defines loan repository interface.
// GetLoansWithRelations is the single contract for loans joined with their
// book and patron rows; callers never stitch relations themselves.
type LoanRepository interface {
	Create(ctx context.Context, loan *models.Loan) error
	GetByID(ctx context.Context, id uint) (*models.Loan, error)
	GetLoansWithRelations(ctx context.Context, offset, limit int) ([]*models.Loan, int64, error)
	ListOpen(ctx context.Context) ([]*models.Loan, error)
	ListOpenByBookID(ctx context.Context, bookID uint) ([]*models.Loan, error)
	ListByPatronID(ctx context.Context, patronID uint) ([]*models.Loan, error)
	Update(ctx context.Context, loan *models.Loan) error
	ReturnLoan(ctx context.Context, loan *models.Loan, book *models.Book) error
}

// AuditRepository defines the append-only audit log interface
type AuditRepository interface {
	Append(ctx context.Context, entry *models.AuditLog) error
	ListByTable(ctx context.Context, table string, offset, limit int) ([]*models.AuditLog, int64, error)
}
