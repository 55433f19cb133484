package accounts_test

import (
	"context"
	"testing"
	"time"

	"github.com/freshmart/accounts"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserTracker struct {
	user              *User
	attemptedTracked  int
	successfulTracked int
}

type User = accounts.User

func (f *fakeUserTracker) GetByIdentifier(_ context.Context, identifier string) (*User, error) {
	if f.user == nil {
		return nil, repository.NewRecordNotFound()
	}
	return f.user, nil
}

func (f *fakeUserTracker) TrackAttemptedLogin(_ context.Context, user *User) error {
	f.attemptedTracked++
	user.LoginAttempts++
	now := time.Now()
	user.LoginAttemptAt = &now
	return nil
}

func (f *fakeUserTracker) TrackSuccessfulLogin(_ context.Context, user *User) error {
	f.successfulTracked++
	user.LoginAttempts = 0
	user.LoginAttemptAt = nil
	return nil
}

func activeUser(t *testing.T, password string) *User {
	t.Helper()
	hash, err := accounts.HashPassword(password)
	require.NoError(t, err)
	return &User{
		ID:           uuid.New(),
		Username:     "peppa",
		Email:        "peppa@example.com",
		PasswordHash: hash,
		Active:       true,
	}
}

func TestVerifyIdentityHappyPath(t *testing.T) {
	store := &fakeUserTracker{user: activeUser(t, "correct-horse")}
	provider := accounts.NewUserProvider(store)

	identity, err := provider.VerifyIdentity(context.Background(), "peppa", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "peppa", identity.Username())
	assert.True(t, identity.IsActive())
	assert.Equal(t, 1, store.successfulTracked)
}

func TestVerifyIdentityWrongPassword(t *testing.T) {
	store := &fakeUserTracker{user: activeUser(t, "correct-horse")}
	provider := accounts.NewUserProvider(store)

	_, err := provider.VerifyIdentity(context.Background(), "peppa", "wrong")
	require.Error(t, err)
	assert.True(t, errors.Is(err, accounts.ErrMismatchedHashAndPassword))
	assert.Equal(t, 1, store.attemptedTracked)
}

func TestVerifyIdentityUnknownUser(t *testing.T) {
	provider := accounts.NewUserProvider(&fakeUserTracker{})

	_, err := provider.VerifyIdentity(context.Background(), "ghost", "whatever")
	require.Error(t, err)
	// unknown user and wrong password are indistinguishable to the caller
	assert.True(t, errors.Is(err, accounts.ErrMismatchedHashAndPassword))
}

func TestVerifyIdentityInactiveAccount(t *testing.T) {
	user := activeUser(t, "correct-horse")
	user.Active = false
	store := &fakeUserTracker{user: user}
	provider := accounts.NewUserProvider(store)

	// wrong password on an inactive account reports bad credentials, not
	// the activation state
	_, err := provider.VerifyIdentity(context.Background(), "peppa", "wrong")
	assert.True(t, errors.Is(err, accounts.ErrMismatchedHashAndPassword))

	_, err = provider.VerifyIdentity(context.Background(), "peppa", "correct-horse")
	require.Error(t, err)
	assert.True(t, errors.Is(err, accounts.ErrAccountNotActive))
	assert.Equal(t, 0, store.successfulTracked)
}

func TestVerifyIdentityTooManyAttempts(t *testing.T) {
	user := activeUser(t, "correct-horse")
	now := time.Now()
	user.LoginAttempts = accounts.MaxLoginAttempts + 1
	user.LoginAttemptAt = &now
	provider := accounts.NewUserProvider(&fakeUserTracker{user: user})

	_, err := provider.VerifyIdentity(context.Background(), "peppa", "correct-horse")
	require.Error(t, err)
	assert.True(t, errors.Is(err, accounts.ErrTooManyLoginAttempts))
}

func TestVerifyIdentityCooldownReset(t *testing.T) {
	user := activeUser(t, "correct-horse")
	stale := time.Now().Add(-48 * time.Hour)
	user.LoginAttempts = accounts.MaxLoginAttempts + 1
	user.LoginAttemptAt = &stale
	provider := accounts.NewUserProvider(&fakeUserTracker{user: user})

	identity, err := provider.VerifyIdentity(context.Background(), "peppa", "correct-horse")
	require.NoError(t, err)
	assert.True(t, identity.IsActive())
}
