package accounts

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds account options. It is read once at construction and never
// mutated by the core.
type Config interface {
	GetRequireActivation() bool
	GetPasswordSecret() string
	GetRememberDuration() int // hours
	GetAuthCookieName() string
	GetMailFrom() string
	GetSignupSubject() string
	GetActivationSubject() string
}

// RecordStore is the persistence contract the core operates through. Lookups
// by login and email are case-insensitive. A missing record is reported as a
// not-found error (goliatone/go-errors category), never as a nil account.
// The store is also the authoritative guard for login uniqueness: a
// constraint violation from Save must surface as the same field-scoped
// validation error a pre-check would have produced.
type RecordStore interface {
	FindByLogin(ctx context.Context, login string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByToken(ctx context.Context, token string) (*Account, error)
	Save(ctx context.Context, account *Account) error
	IsUnique(ctx context.Context, field, value string) (bool, error)
}

// Notifier delivers account notifications. Dispatch is fire-and-forget from
// the core's perspective: errors are logged by the caller, never propagated.
type Notifier interface {
	Dispatch(ctx context.Context, kind NotificationKind, mail MailParams, account *Account) error
}

// SessionStore is the web session/cookie collaborator. The core produces and
// validates the values stored here but does not implement the layer itself.
type SessionStore interface {
	SetSessionUser(userID string)
	ClearSession()
	SetCookie(name, value string, expires time.Time)
	ClearCookie(name string)
}

// Authenticator holds methods to deal with account authentication
type Authenticator interface {
	Authenticate(ctx context.Context, identifier, password string) (*Account, error)
	AuthenticateByToken(ctx context.Context, token string) (*Account, error)
	LoginWith(ctx context.Context, account *Account, session SessionStore, rememberMe bool) error
	Logout(ctx context.Context, account *Account, session SessionStore) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ACCOUNTS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
