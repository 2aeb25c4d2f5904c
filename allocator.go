package accounts

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// maxLoginSuffix bounds the zero-padded candidate scheme: base, base000
// through base999. Exhausting every candidate is a validation failure on
// login, not an unbounded loop.
const maxLoginSuffix = 1000

var loginCharset = regexp.MustCompile(`[^a-z0-9_.-]+`)

// LoginAllocator derives unique, case-insensitively free login handles from
// email addresses, and reserves explicitly supplied handles.
type LoginAllocator struct {
	store  RecordStore
	logger Logger
}

// NewLoginAllocator will create a new LoginAllocator
func NewLoginAllocator(store RecordStore) *LoginAllocator {
	return &LoginAllocator{
		store:  store,
		logger: defLogger{},
	}
}

func (l *LoginAllocator) WithLogger(logger Logger) *LoginAllocator {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// Allocate derives a login from the email local part and returns the first
// free candidate in order: base, base000, base001, ... base999.
func (l *LoginAllocator) Allocate(ctx context.Context, email string) (string, error) {
	base := LoginBase(email)
	if len(base) < LoginMinLength {
		return "", FieldErrorf("login", "the length must be between %d and %d", LoginMinLength, LoginMaxLength)
	}

	for i := -1; i < maxLoginSuffix; i++ {
		candidate := base
		if i >= 0 {
			candidate = fmt.Sprintf("%s%03d", base, i)
		}

		free, err := l.store.IsUnique(ctx, "login", candidate)
		if err != nil {
			return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check login uniqueness")
		}

		if free {
			return candidate, nil
		}
	}

	l.logger.Error("login candidates exhausted", "base", base)
	return "", FieldErrorf("login", "no free login could be derived from %q", base)
}

// Claim lower-cases and reserves an explicitly supplied login, subject to the
// same length and uniqueness checks as derived handles.
func (l *LoginAllocator) Claim(ctx context.Context, login string) (string, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	if n := len(login); n < LoginMinLength || n > LoginMaxLength {
		return "", FieldErrorf("login", "the length must be between %d and %d", LoginMinLength, LoginMaxLength)
	}

	free, err := l.store.IsUnique(ctx, "login", login)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check login uniqueness")
	}

	if !free {
		return "", FieldError("login", "has already been taken")
	}

	return login, nil
}

// LoginBase returns the candidate stem for an email address: the local part,
// lower-cased, stripped of characters outside the login charset, and clipped
// so every suffixed candidate still fits the length limit.
func LoginBase(email string) string {
	local := email
	if at := strings.Index(email, "@"); at >= 0 {
		local = email[:at]
	}

	local = loginCharset.ReplaceAllString(strings.ToLower(local), "")

	// leave room for the 3 digit suffix
	if len(local) > LoginMaxLength-3 {
		local = local[:LoginMaxLength-3]
	}

	return local
}
