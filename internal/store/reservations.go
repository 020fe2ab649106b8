package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Domenick1991/handybook/internal/domain"
)

// ErrReservationConflict is returned when the requested window overlaps
// a reservation already held for the same handyman.
var ErrReservationConflict = errors.New("window conflicts with an existing reservation")

const expiryIndexKey = "reservation_expiry"

// Reservation is a temporary hold on a handyman's window, pending
// confirmation. It is not yet subtracted from the free-slot list.
type Reservation struct {
	BookingID     string    `json:"booking_id"`
	HandymanEmail string    `json:"handyman_email"`
	DesiredStart  time.Time `json:"desired_start"`
	DesiredEnd    time.Time `json:"desired_end"`
	CreatedAt     time.Time `json:"created_at"`
}

func (r Reservation) Window() domain.Interval {
	return domain.NewInterval(r.DesiredStart, r.DesiredEnd)
}

// ReservationStore keeps one TTL-bounded record per booking id plus two
// indices: a per-handyman set for conflict scans and a global
// time-ordered set the sweeper drains.
type ReservationStore struct {
	client  *redis.Client
	holdTTL time.Duration
	lockTTL time.Duration
	log     *zap.Logger
}

func NewReservationStore(client *redis.Client, holdTTL, lockTTL time.Duration, log *zap.Logger) *ReservationStore {
	return &ReservationStore{client: client, holdTTL: holdTTL, lockTTL: lockTTL, log: log}
}

// TryReserve checks the window against every active reservation for the
// handyman and, if free, writes the record together with both index
// entries in one pipeline. The check and the write run under a
// short-lived per-handyman lock so two racing requests cannot both pass
// the scan.
func (s *ReservationStore) TryReserve(ctx context.Context, bookingID, email string, window domain.Interval) error {
	unlock, err := s.acquireLock(ctx, email)
	if err != nil {
		return err
	}
	defer unlock()

	ids, err := s.client.SMembers(ctx, handymanIndexKey(email)).Result()
	if err != nil {
		return err
	}
	for _, id := range ids {
		existing, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			// Record expired out from under its index entry.
			continue
		}
		if existing.Window().Overlaps(window) {
			return ErrReservationConflict
		}
	}

	now := time.Now().UTC()
	res := Reservation{
		BookingID:     bookingID,
		HandymanEmail: email,
		DesiredStart:  window.Start,
		DesiredEnd:    window.End,
		CreatedAt:     now,
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal reservation: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, reservationKey(bookingID), payload, s.holdTTL)
	pipe.SAdd(ctx, handymanIndexKey(email), bookingID)
	pipe.Expire(ctx, handymanIndexKey(email), s.holdTTL+30*time.Second)
	pipe.ZAdd(ctx, expiryIndexKey, redis.Z{
		Score:  float64(now.Add(s.holdTTL).Unix()),
		Member: bookingID,
	})
	_, err = pipe.Exec(ctx)
	return err
}

// Get returns the reservation for bookingID, or nil when absent or
// unreadable. A record that does not decode is treated as absent.
func (s *ReservationStore) Get(ctx context.Context, bookingID string) (*Reservation, error) {
	raw, err := s.client.Get(ctx, reservationKey(bookingID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var res Reservation
	if err := json.Unmarshal(raw, &res); err != nil {
		s.log.Warn("unreadable reservation record", zap.String("booking_id", bookingID), zap.Error(err))
		return nil, nil
	}
	return &res, nil
}

// Release removes the reservation record and both index entries.
// Idempotent: releasing an absent reservation is a no-op.
func (s *ReservationStore) Release(ctx context.Context, bookingID string) error {
	res, err := s.Get(ctx, bookingID)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, reservationKey(bookingID))
	pipe.ZRem(ctx, expiryIndexKey, bookingID)
	if res != nil && res.HandymanEmail != "" {
		pipe.SRem(ctx, handymanIndexKey(res.HandymanEmail), bookingID)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// ExpiredBefore returns up to limit booking ids whose holds elapsed at
// or before now, oldest first.
func (s *ReservationStore) ExpiredBefore(ctx context.Context, now time.Time, limit int64) ([]string, error) {
	return s.client.ZRangeByScore(ctx, expiryIndexKey, &redis.ZRangeBy{
		Min:    "0",
		Max:    fmt.Sprintf("%d", now.Unix()),
		Offset: 0,
		Count:  limit,
	}).Result()
}

func (s *ReservationStore) acquireLock(ctx context.Context, email string) (func(), error) {
	key := handymanLockKey(email)
	for attempt := 0; attempt < 10; attempt++ {
		ok, err := s.client.SetNX(ctx, key, "locked", s.lockTTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() { _ = s.client.Del(context.WithoutCancel(ctx), key).Err() }, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	// Another instance is mid-reservation for this handyman; surface it
	// as a conflict rather than blocking the consumer loop.
	return nil, ErrReservationConflict
}

func reservationKey(bookingID string) string {
	return "reservation:" + bookingID
}

func handymanIndexKey(email string) string {
	return "reservations_by_handyman:" + email
}

func handymanLockKey(email string) string {
	return "lock:handyman:" + email
}
