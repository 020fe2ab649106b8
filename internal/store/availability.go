package store

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Domenick1991/handybook/internal/domain"
)

// AvailabilityStore keeps each handyman's free time as an ordered list
// of disjoint half-open intervals, encoded "start|end" per entry.
type AvailabilityStore struct {
	client *redis.Client
	log    *zap.Logger
}

func NewAvailabilityStore(client *redis.Client, log *zap.Logger) *AvailabilityStore {
	return &AvailabilityStore{client: client, log: log}
}

func (s *AvailabilityStore) Slots(ctx context.Context, email string) ([]domain.Interval, error) {
	raw, err := s.client.LRange(ctx, availabilityKey(email), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	intervals := make([]domain.Interval, 0, len(raw))
	for _, entry := range raw {
		iv, err := domain.ParseSlot(entry)
		if err != nil {
			// Stale or partially written entries are tolerated, not fatal.
			s.log.Warn("skipping malformed slot", zap.String("email", email), zap.Error(err))
			continue
		}
		intervals = append(intervals, iv)
	}
	return intervals, nil
}

// HasOverlap reports whether any stored free interval overlaps window.
func (s *AvailabilityStore) HasOverlap(ctx context.Context, email string, window domain.Interval) (bool, error) {
	slots, err := s.Slots(ctx, email)
	if err != nil {
		return false, err
	}
	for _, slot := range slots {
		if slot.Overlaps(window) {
			return true, nil
		}
	}
	return false, nil
}

// ConsumeWindow permanently subtracts window from the handyman's free
// time, splitting overlapped intervals into their remainders. Applying
// the same window again is a no-op, which makes confirm reprocessing
// after a crash safe.
func (s *AvailabilityStore) ConsumeWindow(ctx context.Context, email string, window domain.Interval) error {
	key := availabilityKey(email)
	raw, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return err
	}

	remaining := make([]string, 0, len(raw))
	for _, entry := range raw {
		iv, err := domain.ParseSlot(entry)
		if err != nil {
			s.log.Warn("dropping malformed slot on consume", zap.String("email", email), zap.Error(err))
			continue
		}
		for _, rest := range iv.Subtract(window) {
			remaining = append(remaining, domain.EncodeSlot(rest))
		}
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(remaining) > 0 {
		args := make([]interface{}, len(remaining))
		for i, v := range remaining {
			args[i] = v
		}
		pipe.RPush(ctx, key, args...)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// ReplaceAll swaps the handyman's slot list wholesale. Used by the
// provider-facing availability API, not by the saga.
func (s *AvailabilityStore) ReplaceAll(ctx context.Context, email string, slots []domain.Interval) error {
	key := availabilityKey(email)

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(slots) > 0 {
		args := make([]interface{}, len(slots))
		for i, iv := range slots {
			args[i] = domain.EncodeSlot(iv)
		}
		pipe.RPush(ctx, key, args...)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *AvailabilityStore) Clear(ctx context.Context, email string) error {
	return s.client.Del(ctx, availabilityKey(email)).Err()
}

func availabilityKey(email string) string {
	return "availability:" + email
}
