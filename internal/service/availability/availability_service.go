package availability

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Domenick1991/handybook/internal/domain"
	"github.com/Domenick1991/handybook/internal/events"
)

var ErrInvalidSlot = errors.New("slot end must be after slot start")

type AvailabilityUseCase interface {
	SetAvailability(ctx context.Context, email string, slots []domain.Interval) error
	GetAvailability(ctx context.Context, email string) ([]domain.Interval, error)
	ClearAvailability(ctx context.Context, email string) error
}

// Service is the provider-facing surface: handymen replace or clear
// their free-slot list wholesale. The saga only ever shrinks it.
type Service struct {
	slots     SlotStore
	publisher Publisher
	log       *zap.Logger
}

func NewService(slots SlotStore, publisher Publisher, log *zap.Logger) *Service {
	return &Service{slots: slots, publisher: publisher, log: log}
}

func (s *Service) SetAvailability(ctx context.Context, email string, slots []domain.Interval) error {
	for _, iv := range slots {
		if !iv.IsValid() {
			return ErrInvalidSlot
		}
	}
	if err := s.slots.ReplaceAll(ctx, email, slots); err != nil {
		return err
	}
	return s.emitUpdated(ctx, email, slots)
}

func (s *Service) GetAvailability(ctx context.Context, email string) ([]domain.Interval, error) {
	return s.slots.Slots(ctx, email)
}

func (s *Service) ClearAvailability(ctx context.Context, email string) error {
	if err := s.slots.Clear(ctx, email); err != nil {
		return err
	}
	return s.emitUpdated(ctx, email, nil)
}

func (s *Service) emitUpdated(ctx context.Context, email string, slots []domain.Interval) error {
	payload := events.AvailabilityUpdated{Email: email, Slots: make([]events.AvailabilitySlot, 0, len(slots))}
	for _, iv := range slots {
		payload.Slots = append(payload.Slots, events.AvailabilitySlot{
			Start: iv.Start.Format(time.RFC3339Nano),
			End:   iv.End.Format(time.RFC3339Nano),
		})
	}

	ev, err := events.New(events.TypeAvailabilityUpdated, payload)
	if err != nil {
		return err
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Warn("failed to publish availability.updated", zap.String("email", email), zap.Error(err))
	}
	return nil
}

var _ AvailabilityUseCase = (*Service)(nil)
