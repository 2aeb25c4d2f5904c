package accounts

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	// LoginMinLength is the shortest allowed login handle
	LoginMinLength = 3
	// LoginMaxLength is the longest allowed login handle
	LoginMaxLength = 40
	// PasswordMinLength is the shortest allowed password
	PasswordMinLength = 4
	// PasswordMaxLength is the longest allowed password
	PasswordMaxLength = 40
)

// Validate checks the account against the signup/update rules. Violations
// come back as validation.Errors keyed by field name, so callers can render
// them next to the offending input. Password rules apply only while a
// plaintext is staged or the account has never been encrypted; saving an
// existing record does not require a password.
func (a Account) Validate() error {
	rules := []*validation.FieldRules{
		validation.Field(&a.Login,
			validation.Required,
			validation.Length(LoginMinLength, LoginMaxLength),
		),
		validation.Field(&a.Email, validation.Required, is.Email),
	}

	if a.PasswordRequired() {
		rules = append(rules,
			validation.Field(&a.Password,
				validation.Required,
				validation.Length(PasswordMinLength, PasswordMaxLength),
			),
			validation.Field(&a.PasswordConfirmation,
				validation.Required,
				validation.By(ValidateStringEquals(a.Password)),
			),
		)
	}

	return validation.ValidateStruct(&a, rules...)
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}
