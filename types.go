package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Session holds attributes that are part of an authenticated session
type Session interface {
	GetToken() string
	GetUserID() string
	GetUserUUID() (uuid.UUID, error)
	GetUsername() string
	GetIssuedAt() *time.Time
	GetExpiresAt() *time.Time
	GetData() map[string]any
}

// SessionStore is the server side session record store. Sessions are
// keyed by an opaque token held by the client in a cookie; the store owns
// expiry. Destroying a token that does not exist is a no-op.
type SessionStore interface {
	Create(ctx context.Context, session *SessionObject, ttl time.Duration) (string, error)
	Lookup(ctx context.Context, token string) (*SessionObject, error)
	Destroy(ctx context.Context, token string) error
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, identifier, password string, extended bool) (string, error)
	SessionFromToken(ctx context.Context, token string) (Session, error)
	Logout(ctx context.Context, token string) error
	IdentityFromSession(ctx context.Context, session Session) (Identity, error)
}

type LoginPayload interface {
	GetIdentifier() string
	GetPassword() string
	GetExtendedSession() bool
}

type HTTPAuthenticator interface {
	Middleware
	Login(c router.Context, payload LoginPayload) error
	Logout(c router.Context) error
	CurrentSession(c router.Context) (Session, error)
	RememberUsername(c router.Context, username string, remember bool)
	RememberedUsername(c router.Context) string
	RedirectTarget(c router.Context, def string) string
}

type Middleware interface {
	ProtectedRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc
}

// Identity holds the attributes of an identity
type Identity interface {
	ID() string
	Username() string
	Email() string
	IsActive() bool
}

// Config holds account service options
type Config interface {
	GetSigningKey() string
	GetActivationTokenTTL() int
	GetSessionDuration() int
	GetExtendedSessionDuration() int
	GetSessionCookieName() string
	GetRememberCookieName() string
	GetRememberCookieDuration() int
	GetActivationBaseURL() string
	GetLoginRoute() string
}

// IdentityProvider ensure we have a store to retrieve auth identity
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error)
	FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// Mailer delivers account emails. Handlers dispatch sends asynchronously
// and never wait on the outcome.
type Mailer interface {
	SendActivationEmail(ctx context.Context, to, username, link string) error
}

// BrowseHistory tracks the products a user viewed, most recent first.
type BrowseHistory interface {
	Push(ctx context.Context, userID uuid.UUID, productID uuid.UUID) error
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]uuid.UUID, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ACCOUNTS "+newline(format), args...)
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
