package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyMarkers is the dedup ledger for consumed events. Markers
// are written before the handler runs, so concurrent deliveries of the
// same event id cannot both observe "not processed".
type IdempotencyMarkers struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyMarkers(client *redis.Client, ttl time.Duration) *IdempotencyMarkers {
	return &IdempotencyMarkers{client: client, ttl: ttl}
}

// MarkProcessed records the event id and reports whether this call was
// the first to do so.
func (m *IdempotencyMarkers) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	return m.client.SetNX(ctx, processedKey(eventID), "1", m.ttl).Result()
}

func processedKey(eventID string) string {
	return "processed_event:" + eventID
}
