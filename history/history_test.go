package history_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshmart/accounts/history"
)

func newHistory(t *testing.T) (*history.RedisBrowseHistory, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return history.NewRedisBrowseHistory(client), srv
}

func TestPushAndRecentOrder(t *testing.T) {
	store, _ := newHistory(t)
	ctx := context.Background()
	userID := uuid.New()

	first := uuid.New()
	second := uuid.New()
	third := uuid.New()

	require.NoError(t, store.Push(ctx, userID, first))
	require.NoError(t, store.Push(ctx, userID, second))
	require.NoError(t, store.Push(ctx, userID, third))

	got, err := store.Recent(ctx, userID, 10)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{third, second, first}, got)
}

func TestPushMovesRepeatViewToFront(t *testing.T) {
	store, _ := newHistory(t)
	ctx := context.Background()
	userID := uuid.New()

	first := uuid.New()
	second := uuid.New()

	require.NoError(t, store.Push(ctx, userID, first))
	require.NoError(t, store.Push(ctx, userID, second))
	require.NoError(t, store.Push(ctx, userID, first))

	got, err := store.Recent(ctx, userID, 10)
	require.NoError(t, err)
	// no duplicate entry for the repeated product
	assert.Equal(t, []uuid.UUID{first, second}, got)
}

func TestPushTrimsOldEntries(t *testing.T) {
	store, _ := newHistory(t)
	ctx := context.Background()
	userID := uuid.New()

	oldest := uuid.New()
	require.NoError(t, store.Push(ctx, userID, oldest))
	for i := 0; i < history.MaxEntries; i++ {
		require.NoError(t, store.Push(ctx, userID, uuid.New()))
	}

	got, err := store.Recent(ctx, userID, history.MaxEntries+5)
	require.NoError(t, err)
	assert.Len(t, got, history.MaxEntries)
	assert.NotContains(t, got, oldest)
}

func TestRecentLimitAndEmpty(t *testing.T) {
	store, _ := newHistory(t)
	ctx := context.Background()
	userID := uuid.New()

	got, err := store.Recent(ctx, userID, 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	for i := 0; i < 8; i++ {
		require.NoError(t, store.Push(ctx, userID, uuid.New()))
	}

	got, err = store.Recent(ctx, userID, 5)
	require.NoError(t, err)
	assert.Len(t, got, 5)

	got, err = store.Recent(ctx, userID, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecentSkipsUnparseableEntries(t *testing.T) {
	store, srv := newHistory(t)
	ctx := context.Background()
	userID := uuid.New()

	productID := uuid.New()
	require.NoError(t, store.Push(ctx, userID, productID))
	srv.Lpush(fmt.Sprintf("accounts:history:%s", userID), "not-a-uuid")

	got, err := store.Recent(ctx, userID, 10)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{productID}, got)
}
