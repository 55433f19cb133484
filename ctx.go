package accounts

import (
	"context"

	"github.com/goliatone/go-router"
)

var userCtxKey = &contextKey{"user"}
var sessionCtxKey = &contextKey{"session"}

type contextKey struct {
	name string
}

// WithContext sets the User in the given context
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// WithSessionContext sets the Session in the given context
func WithSessionContext(r context.Context, session Session) context.Context {
	return context.WithValue(r, sessionCtxKey, session)
}

// GetSession extracts the Session from the standard context
func GetSession(ctx context.Context) (Session, bool) {
	raw, ok := ctx.Value(sessionCtxKey).(Session)
	return raw, ok
}

// GetRouterSession extracts the Session the auth middleware parked in the
// router locals.
func GetRouterSession(ctx router.Context, key string) (Session, error) {
	if key == "" {
		key = SessionContextKey
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, ErrUnableToFindSession
	}
	session, ok := raw.(Session)
	if !ok {
		return nil, ErrUnableToDecodeSession
	}
	return session, nil
}
