package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"shelftrack/internal/core/domain"

	"github.com/go-playground/validator/v10"
)

// isbnPattern matches 10-17 characters of digits and hyphens
var isbnPattern = regexp.MustCompile(`^[0-9-]{10,17}$`)

var v *validator.Validate

func init() {
	v = validator.New()
	// custom rule matching the catalog's ISBN format
	_ = v.RegisterValidation("isbn_format", func(fl validator.FieldLevel) bool {
		return isbnPattern.MatchString(fl.Field().String())
	})
}

// Struct validates a struct based on its `validate` tags.
// Field failures wrap domain.ErrInvalidInput so callers can map them
// with errors.Is; the message names the first failed field.
func Struct(s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, messageFor(verrs[0]))
	}
	return err
}

// ISBN validates an ISBN string directly
func ISBN(isbn string) bool {
	return isbnPattern.MatchString(isbn)
}

// Email validates an email address format
func Email(email string) bool {
	return v.Var(email, "required,email") == nil
}

// messageFor maps a field error to a readable message
func messageFor(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "isbn_format":
		return field + " must be 10-17 characters, digits and hyphens only"
	case "min":
		return field + " is too short"
	case "max":
		return field + " is too long"
	case "gt":
		return field + " must be greater than " + fe.Param()
	default:
		return field + " is invalid"
	}
}
