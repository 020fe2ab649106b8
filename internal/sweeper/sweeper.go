package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Domenick1991/handybook/internal/events"
)

type ExpiryIndex interface {
	ExpiredBefore(ctx context.Context, now time.Time, limit int64) ([]string, error)
	Release(ctx context.Context, bookingID string) error
}

type Publisher interface {
	Publish(ctx context.Context, ev events.Envelope) error
}

// Sweeper reclaims reservations whose hold TTL elapsed without a
// confirm. It polls the shared expiry index on a fixed tick, which
// keeps pending expirations observable in the store itself.
type Sweeper struct {
	reservations ExpiryIndex
	publisher    Publisher
	interval     time.Duration
	batchSize    int64
	log          *zap.Logger
}

func New(reservations ExpiryIndex, publisher Publisher, interval time.Duration, batchSize int64, log *zap.Logger) *Sweeper {
	return &Sweeper{
		reservations: reservations,
		publisher:    publisher,
		interval:     interval,
		batchSize:    batchSize,
		log:          log,
	}
}

// Run loops until ctx is canceled. A failed tick is logged and retried
// on the next interval; the loop never exits on a transient store or
// bus error.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil && ctx.Err() == nil {
				s.log.Error("sweep tick failed", zap.Error(err))
			}
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) error {
	expired, err := s.reservations.ExpiredBefore(ctx, time.Now().UTC(), s.batchSize)
	if err != nil {
		return err
	}

	for _, bookingID := range expired {
		if err := s.reservations.Release(ctx, bookingID); err != nil {
			s.log.Error("failed to release expired reservation",
				zap.String("booking_id", bookingID), zap.Error(err))
			continue
		}

		ev, err := events.New(events.TypeSlotExpired, events.SlotOutcome{BookingID: bookingID})
		if err != nil {
			return err
		}
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.log.Error("failed to publish slot.expired",
				zap.String("booking_id", bookingID), zap.Error(err))
			continue
		}
		s.log.Info("reservation expired", zap.String("booking_id", bookingID))
	}
	return nil
}
