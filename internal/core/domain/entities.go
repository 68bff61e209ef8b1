package domain

import "time"

// Role represents user role in the system
type Role string

const (
	RoleUser      Role = "USER"
	RoleLibrarian Role = "LIBRARIAN"
	RoleAdmin     Role = "ADMIN"
)

// BookStatus represents a book's availability status.
// "borrowed" is the canonical value shared with Loan status.
type BookStatus string

const (
	BookAvailable BookStatus = "available"
	BookBorrowed  BookStatus = "borrowed"
	BookReserved  BookStatus = "reserved"
	BookArchived  BookStatus = "archived"
)

// PatronStatus represents a patron's membership status
type PatronStatus string

const (
	PatronActive   PatronStatus = "active"
	PatronInactive PatronStatus = "inactive"
	PatronArchived PatronStatus = "archived"
)

// LoanStatus represents a loan's lifecycle state.
// Overdue is derived from dates, never stored.
type LoanStatus string

const (
	LoanBorrowed LoanStatus = "borrowed"
	LoanActive   LoanStatus = "active"
	LoanReturned LoanStatus = "returned"
)

// IsOpen reports whether the status counts as a non-terminal loan state.
func (s LoanStatus) IsOpen() bool {
	return s == LoanBorrowed || s == LoanActive
}

// OverdueSeverity classifies how late an overdue loan is
type OverdueSeverity string

const (
	SeverityWarning  OverdueSeverity = "warning"
	SeverityCritical OverdueSeverity = "critical"
)

// DefaultLoanPeriodDays is the fallback loan period applied when a loan
// carries no due date of its own.
const DefaultLoanPeriodDays = 14

// OverdueWarningDays is the policy threshold separating warning from
// critical overdue loans.
const OverdueWarningDays = 7

// User represents a staff or member account in the domain layer
type User struct {
	ID        uint
	Username  string
	Email     string
	Password  string // Hashed
	FullName  string
	Role      Role
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RefreshToken represents a refresh token in the domain
type RefreshToken struct {
	ID        uint
	UserID    uint
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
