package accounts

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// DefaultRememberDuration is the issue horizon for remember tokens.
const DefaultRememberDuration = 14 * 24 * time.Hour

const tokenBytes = 32

// RememberTokenIssuer mints, validates, and revokes the opaque tokens behind
// persistent "remember me" logins. Every operation persists through the
// record store; re-issuing replaces the previous token.
type RememberTokenIssuer struct {
	store   RecordStore
	horizon time.Duration
	logger  Logger
	now     func() time.Time
}

// IssuerOption customizes issuer construction.
type IssuerOption func(*RememberTokenIssuer)

// WithIssuerClock injects a custom clock (useful for tests).
func WithIssuerClock(clock func() time.Time) IssuerOption {
	return func(i *RememberTokenIssuer) {
		if clock != nil {
			i.now = clock
		}
	}
}

// WithIssuerLogger overrides the issuer logger.
func WithIssuerLogger(logger Logger) IssuerOption {
	return func(i *RememberTokenIssuer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewRememberTokenIssuer returns an issuer over the given store. The horizon
// comes from cfg (hours); a zero or negative value falls back to
// DefaultRememberDuration.
func NewRememberTokenIssuer(store RecordStore, cfg Config, opts ...IssuerOption) *RememberTokenIssuer {
	horizon := DefaultRememberDuration
	if cfg != nil && cfg.GetRememberDuration() > 0 {
		horizon = time.Duration(cfg.GetRememberDuration()) * time.Hour
	}

	issuer := &RememberTokenIssuer{
		store:   store,
		horizon: horizon,
		logger:  defLogger{},
		now:     time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(issuer)
		}
	}

	return issuer
}

// Issue mints a fresh opaque token, persists it on the account together with
// its expiry, and returns both for the caller to store in a browser cookie.
func (i *RememberTokenIssuer) Issue(ctx context.Context, account *Account) (string, time.Time, error) {
	if account == nil {
		return "", time.Time{}, goerrors.New("cannot issue a token for a nil account", goerrors.CategoryBadInput)
	}

	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", time.Time{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate remember token")
	}

	prevToken, prevExpiry := account.RememberToken, account.RememberTokenExpiresAt

	token := hex.EncodeToString(buf)
	expires := i.now().Add(i.horizon)
	account.RememberToken = token
	account.RememberTokenExpiresAt = &expires

	if err := i.store.Save(ctx, account); err != nil {
		account.RememberToken = prevToken
		account.RememberTokenExpiresAt = prevExpiry
		return "", time.Time{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist remember token")
	}

	return token, expires, nil
}

// Validate resolves a token to its account. Unknown tokens and tokens whose
// expiry is not in the future both come back as ErrNotAuthenticated.
func (i *RememberTokenIssuer) Validate(ctx context.Context, token string) (*Account, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	account, err := i.store.FindByToken(ctx, token)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrNotAuthenticated
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up remember token")
	}

	if account == nil || account.RememberTokenExpiresAt == nil || !account.RememberTokenExpiresAt.After(i.now()) {
		return nil, ErrNotAuthenticated
	}

	return account, nil
}

// Revoke clears the remember token pair and persists the change; subsequent
// Validate calls for the old token return ErrNotAuthenticated.
func (i *RememberTokenIssuer) Revoke(ctx context.Context, account *Account) error {
	if account == nil {
		return goerrors.New("cannot revoke tokens for a nil account", goerrors.CategoryBadInput)
	}

	if account.RememberToken == "" && account.RememberTokenExpiresAt == nil {
		return nil
	}

	prevToken, prevExpiry := account.RememberToken, account.RememberTokenExpiresAt
	account.RememberToken = ""
	account.RememberTokenExpiresAt = nil

	if err := i.store.Save(ctx, account); err != nil {
		account.RememberToken = prevToken
		account.RememberTokenExpiresAt = prevExpiry
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear remember token")
	}

	return nil
}
