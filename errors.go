package accounts

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
)

// ErrNotAuthenticated is the single opaque result for every failed credential
// or token check. Unknown identifier, wrong password, inactive account, and
// missing or expired tokens all collapse to it so callers cannot tell the
// conditions apart.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrNoEmptyString guards hashing inputs
var ErrNoEmptyString = errors.New("value should not be an empty string")

// ErrNilAccount is returned when an operation receives a nil account
var ErrNilAccount = errors.New("account must not be nil")

// FieldError builds a single field-scoped validation error.
func FieldError(field, message string) validation.Errors {
	return validation.Errors{field: errors.New(message)}
}

// FieldErrorf is FieldError with a format string.
func FieldErrorf(field, format string, args ...any) validation.Errors {
	return validation.Errors{field: fmt.Errorf(format, args...)}
}

// IsValidationError reports whether err carries field-scoped violations.
func IsValidationError(err error) bool {
	var verrs validation.Errors
	return errors.As(err, &verrs)
}

// ErrorOn returns the violation message recorded for field, or the empty
// string when err carries none.
func ErrorOn(err error, field string) string {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return ""
	}
	if ferr, ok := verrs[field]; ok && ferr != nil {
		return ferr.Error()
	}
	return ""
}
