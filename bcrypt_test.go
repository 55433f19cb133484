package accounts_test

import (
	"testing"

	"github.com/freshmart/accounts"
	"github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordAndCompare(t *testing.T) {
	hash, err := accounts.HashPassword("s3cret-password")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "s3cret-password", hash)

	assert.NoError(t, accounts.ComparePasswordAndHash("s3cret-password", hash))

	err = accounts.ComparePasswordAndHash("wrong-password", hash)
	require.Error(t, err)
	assert.True(t, errors.Is(err, accounts.ErrMismatchedHashAndPassword))
}

func TestHashPasswordEmpty(t *testing.T) {
	_, err := accounts.HashPassword("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, accounts.ErrNoEmptyString))
}
