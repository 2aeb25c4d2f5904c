package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Auther is the default Authenticator. It orchestrates the password cipher,
// the activation gate, and the remember-token issuer against the record
// store. Every negative outcome is the same ErrNotAuthenticated: the service
// never reveals whether the identifier, the password, or the activation state
// was at fault.
type Auther struct {
	store        RecordStore
	cfg          Config
	cipher       *PasswordCipher
	tokens       *RememberTokenIssuer
	workflow     *ActivationWorkflow
	logger       Logger
	activitySink ActivitySink
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator over the given store.
func NewAuthenticator(store RecordStore, cfg Config) *Auther {
	return &Auther{
		store:        store,
		cfg:          cfg,
		cipher:       NewPasswordCipher(cfg.GetPasswordSecret()),
		tokens:       NewRememberTokenIssuer(store, cfg),
		workflow:     NewActivationWorkflow(store, cfg),
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithTokenIssuer overrides the remember-token issuer.
func (s *Auther) WithTokenIssuer(issuer *RememberTokenIssuer) *Auther {
	if issuer != nil {
		s.tokens = issuer
	}
	return s
}

// WithWorkflow overrides the activation workflow.
func (s *Auther) WithWorkflow(workflow *ActivationWorkflow) *Auther {
	if workflow != nil {
		s.workflow = workflow
	}
	return s
}

// TokenIssuer returns the RememberTokenIssuer instance used by this Authenticator
func (s *Auther) TokenIssuer() *RememberTokenIssuer {
	return s.tokens
}

// Authenticate resolves identifier (login or email, case-insensitive) and
// verifies password against the stored hash. When activation is required the
// account must be active. All three failure modes return ErrNotAuthenticated.
func (s *Auther) Authenticate(ctx context.Context, identifier, password string) (*Account, error) {
	account, err := s.lookup(ctx, identifier)
	if err != nil {
		if goerrors.IsNotFound(err) {
			s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
				"identifier": identifier,
			})
			return nil, ErrNotAuthenticated
		}
		s.logger.Error("Authenticate lookup error", "error", err)
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up account")
	}

	if s.cfg.GetRequireActivation() && !account.IsActivated() {
		// indistinguishable from a bad password on purpose
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, s.actorFromAccount(account), account.ID.String(), map[string]any{
			"identifier": identifier,
		})
		return nil, ErrNotAuthenticated
	}

	if !s.cipher.Verify(password, account.Salt, account.PasswordHash) {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, s.actorFromAccount(account), account.ID.String(), map[string]any{
			"identifier": identifier,
		})
		return nil, ErrNotAuthenticated
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, s.actorFromAccount(account), account.ID.String(), map[string]any{
		"identifier": identifier,
	})

	return account, nil
}

// AuthenticateByToken resolves a remember token to its account without
// requiring a password.
func (s *Auther) AuthenticateByToken(ctx context.Context, token string) (*Account, error) {
	account, err := s.tokens.Validate(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotAuthenticated) {
			s.emitAuthEvent(ctx, ActivityEventTokenLoginFailure, ActorRef{Type: "unknown"}, "", nil)
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventTokenLoginSuccess, s.actorFromAccount(account), account.ID.String(), nil)

	return account, nil
}

// LoginWith establishes the session association for account. With rememberMe
// a fresh remember token is issued and written to the auth cookie; without
// it any stale token is revoked and the cookie cleared.
func (s *Auther) LoginWith(ctx context.Context, account *Account, session SessionStore, rememberMe bool) error {
	if account == nil {
		return goerrors.New("cannot log in a nil account", goerrors.CategoryBadInput)
	}

	session.SetSessionUser(account.ID.String())

	cookie := s.cookieName()

	if rememberMe {
		token, expires, err := s.tokens.Issue(ctx, account)
		if err != nil {
			return err
		}
		session.SetCookie(cookie, token, expires)
		return nil
	}

	if account.RememberToken != "" {
		if err := s.tokens.Revoke(ctx, account); err != nil {
			return err
		}
	}
	session.ClearCookie(cookie)

	return nil
}

// Logout clears the session association, drops the auth cookie, and revokes
// the account's remember token.
func (s *Auther) Logout(ctx context.Context, account *Account, session SessionStore) error {
	session.ClearSession()
	session.ClearCookie(s.cookieName())

	if account == nil {
		return nil
	}

	if err := s.tokens.Revoke(ctx, account); err != nil {
		return err
	}

	s.emitAuthEvent(ctx, ActivityEventLogout, s.actorFromAccount(account), account.ID.String(), nil)

	return nil
}

func (s *Auther) lookup(ctx context.Context, identifier string) (*Account, error) {
	identifier = strings.TrimSpace(identifier)

	account, err := s.store.FindByLogin(ctx, strings.ToLower(identifier))
	if err == nil && account != nil {
		return account, nil
	}
	if err != nil && !goerrors.IsNotFound(err) {
		return nil, err
	}

	return s.store.FindByEmail(ctx, identifier)
}

func (s *Auther) cookieName() string {
	if name := s.cfg.GetAuthCookieName(); name != "" {
		return name
	}
	return DefaultAuthCookieName
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, accountID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		AccountID: accountID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Error("activity sink record error: %v", err)
	}
}

func (s *Auther) actorFromAccount(account *Account) ActorRef {
	if account == nil {
		return ActorRef{Type: "unknown"}
	}

	return ActorRef{
		ID:   account.ID.String(),
		Type: "account",
	}
}
