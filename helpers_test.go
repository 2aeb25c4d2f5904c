package accounts_test

import (
	"context"
	"strings"
	"sync"
	"time"

	accounts "github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// testConfig is a plain Config for tests.
type testConfig struct {
	requireActivation bool
	passwordSecret    string
	rememberDuration  int
	authCookieName    string
	mailFrom          string
	signupSubject     string
	activationSubject string
}

func newTestConfig(requireActivation bool) *testConfig {
	return &testConfig{
		requireActivation: requireActivation,
		passwordSecret:    "test-site-secret",
		mailFrom:          "noreply@example.com",
		signupSubject:     "Please activate your account",
		activationSubject: "Your account is active",
	}
}

func (c *testConfig) GetRequireActivation() bool   { return c.requireActivation }
func (c *testConfig) GetPasswordSecret() string    { return c.passwordSecret }
func (c *testConfig) GetRememberDuration() int     { return c.rememberDuration }
func (c *testConfig) GetAuthCookieName() string    { return c.authCookieName }
func (c *testConfig) GetMailFrom() string          { return c.mailFrom }
func (c *testConfig) GetSignupSubject() string     { return c.signupSubject }
func (c *testConfig) GetActivationSubject() string { return c.activationSubject }

func validAccount() *accounts.Account {
	return &accounts.Account{
		Login:                "quentin",
		Email:                "quentin@example.com",
		Password:             "test",
		PasswordConfirmation: "test",
	}
}

// memStore is an in-memory RecordStore. It snapshots only persisted fields,
// so records loaded back behave like fresh copies from a database: no staged
// plaintext and no transient flags. It also enforces login/email uniqueness
// as the storage-level backstop.
type memStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*accounts.Account
	saves   int
}

func newMemStore() *memStore {
	return &memStore{records: map[uuid.UUID]*accounts.Account{}}
}

func notFoundErr() error {
	return goerrors.New("account not found", goerrors.CategoryNotFound)
}

// persistedCopy clones the stored representation of an account: transient
// plaintext and instance flags are dropped.
func persistedCopy(a *accounts.Account) *accounts.Account {
	return &accounts.Account{
		ID:                     a.ID,
		Login:                  a.Login,
		Email:                  a.Email,
		PasswordHash:           a.PasswordHash,
		Salt:                   a.Salt,
		ActivationCode:         a.ActivationCode,
		Activated:              a.Activated,
		ActivatedAt:            a.ActivatedAt,
		RememberToken:          a.RememberToken,
		RememberTokenExpiresAt: a.RememberTokenExpiresAt,
		CreatedAt:              a.CreatedAt,
		UpdatedAt:              a.UpdatedAt,
	}
}

func (s *memStore) Save(_ context.Context, account *accounts.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.records {
		if id == account.ID {
			continue
		}
		if strings.EqualFold(existing.Login, account.Login) {
			return accounts.FieldError("login", "has already been taken")
		}
		if strings.EqualFold(existing.Email, account.Email) {
			return accounts.FieldError("email", "has already been taken")
		}
	}

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}

	s.records[account.ID] = persistedCopy(account)
	s.saves++

	return nil
}

func (s *memStore) FindByLogin(_ context.Context, login string) (*accounts.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.records {
		if strings.EqualFold(a.Login, login) {
			return persistedCopy(a), nil
		}
	}
	return nil, notFoundErr()
}

func (s *memStore) FindByEmail(_ context.Context, email string) (*accounts.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.records {
		if strings.EqualFold(a.Email, email) {
			return persistedCopy(a), nil
		}
	}
	return nil, notFoundErr()
}

func (s *memStore) FindByToken(_ context.Context, token string) (*accounts.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.records {
		if a.RememberToken != "" && a.RememberToken == token {
			return persistedCopy(a), nil
		}
	}
	return nil, notFoundErr()
}

func (s *memStore) IsUnique(_ context.Context, field, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.records {
		var current string
		switch field {
		case "login":
			current = a.Login
		case "email":
			current = a.Email
		case "remember_token":
			current = a.RememberToken
		case "activation_code":
			current = a.ActivationCode
		}
		if current != "" && strings.EqualFold(current, value) {
			return false, nil
		}
	}
	return true, nil
}

// recordingSession captures SessionStore calls for assertions.
type recordingSession struct {
	userID         string
	sessionCleared bool
	cookies        map[string]string
	cleared        []string
}

func newRecordingSession() *recordingSession {
	return &recordingSession{cookies: map[string]string{}}
}

func (r *recordingSession) SetSessionUser(userID string) {
	r.userID = userID
}

func (r *recordingSession) ClearSession() {
	r.userID = ""
	r.sessionCleared = true
}

func (r *recordingSession) SetCookie(name, value string, _ time.Time) {
	r.cookies[name] = value
}

func (r *recordingSession) ClearCookie(name string) {
	delete(r.cookies, name)
	r.cleared = append(r.cleared, name)
}

// countingNotifier records every dispatched notification.
type countingNotifier struct {
	mu    sync.Mutex
	calls []notifierCall
	err   error
}

type notifierCall struct {
	kind    accounts.NotificationKind
	mail    accounts.MailParams
	account *accounts.Account
}

func (n *countingNotifier) Dispatch(_ context.Context, kind accounts.NotificationKind, mail accounts.MailParams, account *accounts.Account) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifierCall{kind: kind, mail: mail, account: account})
	return n.err
}

func (n *countingNotifier) count(kind accounts.NotificationKind) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, call := range n.calls {
		if call.kind == kind {
			c++
		}
	}
	return c
}

// capturingSink collects activity events.
type capturingSink struct {
	events []accounts.ActivityEvent
}

func (c *capturingSink) Record(_ context.Context, evt accounts.ActivityEvent) error {
	c.events = append(c.events, evt)
	return nil
}
