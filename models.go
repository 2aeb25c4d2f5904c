package accounts

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the credential record. Storage owns the persisted fields; the
// core reads and writes them through the RecordStore contract.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`

	ID                     uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Login                  string     `bun:"login,notnull,unique" json:"login,omitempty"`
	Email                  string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash           string     `bun:"password_hash" json:"password_hash,omitempty"`
	Salt                   string     `bun:"salt" json:"salt,omitempty"`
	ActivationCode         string     `bun:"activation_code,nullzero" json:"activation_code,omitempty"`
	Activated              bool       `bun:"activated" json:"activated,omitempty"`
	ActivatedAt            *time.Time `bun:"activated_at,nullzero" json:"activated_at,omitempty"`
	RememberToken          string     `bun:"remember_token,nullzero" json:"remember_token,omitempty"`
	RememberTokenExpiresAt *time.Time `bun:"remember_token_expires_at,nullzero" json:"remember_token_expires_at,omitempty"`
	CreatedAt              *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt              *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt              *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`

	// Plaintext credentials travel with the record during signup only, they
	// are never persisted.
	Password             string `bun:"-" json:"password,omitempty"`
	PasswordConfirmation string `bun:"-" json:"password_confirmation,omitempty"`

	// true only on the instance that performed the activation, never stored
	recentlyActivated bool
}

// SetLogin stores the login handle lower-cased.
func (a *Account) SetLogin(login string) *Account {
	a.Login = strings.ToLower(strings.TrimSpace(login))
	return a
}

// IsNew reports whether the record has been persisted yet.
func (a *Account) IsNew() bool {
	return a.ID == uuid.Nil
}

// IsActivated reports whether the account completed activation.
func (a *Account) IsActivated() bool {
	return a.Activated
}

// RecentlyActivated is true only immediately after a same-instance Activate
// call. A fresh copy loaded from the store always reports false, even when
// the account is active.
func (a *Account) RecentlyActivated() bool {
	return a.recentlyActivated
}

// PasswordRequired reports whether validation must enforce the password
// rules: on first encryption, or whenever a new plaintext is staged.
func (a *Account) PasswordRequired() bool {
	return a.PasswordHash == "" || a.Password != ""
}

// HasRememberToken reports whether a non-expired remember token is set. An
// expired token is treated as absent.
func (a *Account) HasRememberToken() bool {
	if a.RememberToken == "" || a.RememberTokenExpiresAt == nil {
		return false
	}
	return a.RememberTokenExpiresAt.After(time.Now())
}

// ClearCredentials drops the transient plaintext after encryption.
func (a *Account) ClearCredentials() *Account {
	a.Password = ""
	a.PasswordConfirmation = ""
	return a
}
