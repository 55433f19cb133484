// Package history keeps the per user list of recently viewed products.
// The list lives in redis so every app instance sees the same view, and
// it survives restarts without touching the relational store.
package history

import (
	"context"
	"fmt"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	historyKeyPrefix = "accounts:history:"

	// MaxEntries bounds the list length in redis. The profile page only
	// shows the top few, keeping a little extra lets dedupe work without
	// a round trip.
	MaxEntries = 20
)

type RedisBrowseHistory struct {
	client *redis.Client
}

func NewRedisBrowseHistory(client *redis.Client) *RedisBrowseHistory {
	return &RedisBrowseHistory{client: client}
}

// Push records a product view. The product moves to the front of the
// list, earlier sightings of the same product are dropped first so the
// list has no duplicates.
func (h *RedisBrowseHistory) Push(ctx context.Context, userID uuid.UUID, productID uuid.UUID) error {
	key := historyKey(userID)
	id := productID.String()

	pipe := h.client.TxPipeline()
	pipe.LRem(ctx, key, 0, id)
	pipe.LPush(ctx, key, id)
	pipe.LTrim(ctx, key, 0, MaxEntries-1)

	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryExternal, "failed to record product view").
			WithMetadata(map[string]any{"user_id": userID.String()})
	}
	return nil
}

// Recent returns up to limit product ids, most recent first. Entries
// that no longer parse as ids are skipped.
func (h *RedisBrowseHistory) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		return nil, nil
	}

	raw, err := h.client.LRange(ctx, historyKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryExternal, "failed to load product history").
			WithMetadata(map[string]any{"user_id": userID.String()})
	}

	ids := make([]uuid.UUID, 0, len(raw))
	for _, entry := range raw {
		id, err := uuid.Parse(entry)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func historyKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s%s", historyKeyPrefix, userID)
}
