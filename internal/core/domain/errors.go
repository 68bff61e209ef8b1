package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternalServer     = errors.New("internal server error")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
)

// Book errors
var (
	ErrBookNotFound     = errors.New("book not found")
	ErrInvalidISBN      = errors.New("isbn must be 10-17 characters, digits and hyphens only")
	ErrDuplicateISBN    = errors.New("a book with this isbn already exists")
	ErrBookNotAvailable = errors.New("book is not available for loan")
)

// ErrRecordReferenced signals that a delete or archive is blocked
// because other records still reference this one.
var ErrRecordReferenced = errors.New("record is referenced by other records")

// Patron errors
var (
	ErrPatronNotFound  = errors.New("patron not found")
	ErrDuplicateEmail  = errors.New("a patron with this email already exists")
	ErrPatronNotActive = errors.New("patron is not active")
)

// Loan errors
var (
	ErrLoanNotFound          = errors.New("loan not found")
	ErrLoanAlreadyReturned   = errors.New("loan is already returned")
	ErrInvalidLoanTransition = errors.New("invalid loan status transition")
	ErrInconsistentReturn    = errors.New("loan return could not update both loan and book")
)

// User errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidPassword   = errors.New("invalid password")
)
