package accounts

import (
	"time"

	"github.com/goliatone/go-router"
)

// DefaultAuthCookieName is the browser cookie holding the remember token.
const DefaultAuthCookieName = "auth_token"

// DefaultSessionCookieName is the browser cookie holding the session user.
const DefaultSessionCookieName = "session_user"

// defaultSessionDuration bounds the plain (non remember-me) session cookie.
const defaultSessionDuration = 24 * time.Hour

// RouterSession adapts a go-router request context to the SessionStore
// collaborator. It is constructed per request; the core keeps depending only
// on the interface.
type RouterSession struct {
	ctx        router.Context
	sessionKey string
	duration   time.Duration
	logger     Logger
}

// NewRouterSession wraps the given request context.
func NewRouterSession(ctx router.Context) *RouterSession {
	return &RouterSession{
		ctx:        ctx,
		sessionKey: DefaultSessionCookieName,
		duration:   defaultSessionDuration,
		logger:     defLogger{},
	}
}

// WithSessionKey overrides the session cookie name.
func (s *RouterSession) WithSessionKey(key string) *RouterSession {
	if key != "" {
		s.sessionKey = key
	}
	return s
}

// WithSessionDuration overrides the session cookie lifetime.
func (s *RouterSession) WithSessionDuration(d time.Duration) *RouterSession {
	if d > 0 {
		s.duration = d
	}
	return s
}

func (s *RouterSession) WithLogger(logger Logger) *RouterSession {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// SessionUser returns the user identifier currently bound to the session.
func (s *RouterSession) SessionUser() string {
	return s.ctx.Cookies(s.sessionKey)
}

// SetSessionUser implements SessionStore.
func (s *RouterSession) SetSessionUser(userID string) {
	s.setCookie(s.sessionKey, userID, time.Now().Add(s.duration))
}

// ClearSession implements SessionStore.
func (s *RouterSession) ClearSession() {
	s.cookieDel(s.sessionKey)
}

// SetCookie implements SessionStore.
func (s *RouterSession) SetCookie(name, value string, expires time.Time) {
	s.setCookie(name, value, expires)
}

// ClearCookie implements SessionStore.
func (s *RouterSession) ClearCookie(name string) {
	s.cookieDel(name)
}

func (s *RouterSession) setCookie(name, value string, expires time.Time) {
	s.ctx.Cookie(&router.Cookie{
		Name:     name,
		Value:    value,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (s *RouterSession) cookieDel(name string) {
	s.ctx.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

var _ SessionStore = (*RouterSession)(nil)
