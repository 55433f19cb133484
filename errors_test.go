package accounts_test

import (
	"fmt"
	"testing"

	"github.com/freshmart/accounts"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestIsConflictError(t *testing.T) {
	assert.True(t, accounts.IsConflictError(accounts.ErrUsernameTaken))
	assert.True(t, accounts.IsConflictError(errors.New("already there", errors.CategoryConflict)))
	assert.True(t, accounts.IsConflictError(
		errors.Wrap(fmt.Errorf("UNIQUE constraint failed: users.username"), errors.CategoryConflict, "username already exists"),
	))

	assert.False(t, accounts.IsConflictError(nil))
	assert.False(t, accounts.IsConflictError(fmt.Errorf("connection refused")))
	// raw driver text is never classified, the repository re-reads instead
	assert.False(t, accounts.IsConflictError(fmt.Errorf("UNIQUE constraint failed: users.username")))
	assert.False(t, accounts.IsConflictError(accounts.ErrAccountNotActive))
}

func TestActivationErrorClassifiers(t *testing.T) {
	assert.True(t, accounts.IsActivationExpiredError(accounts.ErrActivationExpired))
	assert.True(t, accounts.IsActivationExpiredError(jwt.ErrTokenExpired))
	assert.False(t, accounts.IsActivationExpiredError(accounts.ErrActivationInvalid))
	assert.False(t, accounts.IsActivationExpiredError(nil))

	assert.True(t, accounts.IsActivationInvalidError(accounts.ErrActivationInvalid))
	assert.True(t, accounts.IsActivationInvalidError(jwt.ErrTokenMalformed))
	assert.True(t, accounts.IsActivationInvalidError(jwt.ErrTokenSignatureInvalid))
	assert.False(t, accounts.IsActivationInvalidError(accounts.ErrActivationExpired))
	assert.False(t, accounts.IsActivationInvalidError(nil))
}

func TestLoginErrorsCarryUserFacingMessages(t *testing.T) {
	assert.Equal(t, "incorrect username or password", accounts.ErrMismatchedHashAndPassword.Message)
	assert.Equal(t, "account is not activated", accounts.ErrAccountNotActive.Message)
	assert.Equal(t, "username already exists", accounts.ErrUsernameTaken.Message)
	assert.Equal(t, "activation link expired", accounts.ErrActivationExpired.Message)
}
