package accounts

import (
	"context"
	"reflect"
	"time"
)

type Auther struct {
	provider        IdentityProvider
	sessions        SessionStore
	sessionDuration time.Duration
	extendedSession time.Duration
	activity        ActivitySink
	logger          Logger
}

// NewAuthenticator returns a new Authenticator backed by the given
// identity provider and session store.
func NewAuthenticator(provider IdentityProvider, sessions SessionStore, opts Config) *Auther {
	sessionDuration := 24 * time.Hour
	if opts.GetSessionDuration() > 0 {
		sessionDuration = time.Duration(opts.GetSessionDuration()) * time.Hour
	}

	extendedSession := sessionDuration
	if opts.GetExtendedSessionDuration() > 0 {
		extendedSession = time.Duration(opts.GetExtendedSessionDuration()) * time.Hour
	}

	return &Auther{
		provider:        provider,
		sessions:        sessions,
		sessionDuration: sessionDuration,
		extendedSession: extendedSession,
		activity:        noopActivitySink{},
		logger:          defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// WithActivitySink registers an audit sink for login and logout events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activity = normalizeActivitySink(sink)
	return s
}

func (s *Auther) recordActivity(ctx context.Context, event ActivityEvent) {
	event.OccurredAt = time.Now()
	if err := s.activity.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error", "error", err, "event", string(event.EventType))
	}
}

// Login verifies the credentials and, when they check out and the account
// is active, creates a server side session and returns its opaque token.
func (s *Auther) Login(ctx context.Context, identifier, password string, extended bool) (string, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		s.recordActivity(ctx, ActivityEvent{
			EventType:  ActivityEventLoginFailure,
			Identifier: identifier,
		})
		return "", err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return "", ErrMismatchedHashAndPassword
	}

	duration := s.sessionDuration
	if extended {
		duration = s.extendedSession
	}

	token, err := s.sessions.Create(ctx, NewSessionObject(identity), duration)
	if err != nil {
		s.logger.Error("Login session create error", "error", err)
		return "", err
	}

	s.recordActivity(ctx, ActivityEvent{
		EventType:  ActivityEventLoginSuccess,
		UserID:     identity.ID(),
		Identifier: identifier,
	})

	return token, nil
}

// SessionFromToken resolves the opaque token against the session store.
func (s *Auther) SessionFromToken(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return nil, ErrUnableToFindSession
	}

	session, err := s.sessions.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}

	return session, nil
}

// Logout destroys the session record. Unknown tokens are a no-op.
func (s *Auther) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	if err := s.sessions.Destroy(ctx, token); err != nil {
		return err
	}

	s.recordActivity(ctx, ActivityEvent{EventType: ActivityEventLogout})

	return nil
}

func (s *Auther) IdentityFromSession(ctx context.Context, session Session) (Identity, error) {
	identity, err := s.provider.FindIdentityByIdentifier(ctx, session.GetUserID())
	if err != nil {
		s.logger.Error("IdentityFromSession find identity by identifier: %s", err)
		return nil, err
	}

	return identity, nil
}

var _ Authenticator = (*Auther)(nil)
