package availability

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Domenick1991/handybook/internal/domain"
	"github.com/Domenick1991/handybook/internal/events"
	"github.com/Domenick1991/handybook/internal/store"
)

type SlotStore interface {
	Slots(ctx context.Context, email string) ([]domain.Interval, error)
	HasOverlap(ctx context.Context, email string, window domain.Interval) (bool, error)
	ConsumeWindow(ctx context.Context, email string, window domain.Interval) error
	ReplaceAll(ctx context.Context, email string, slots []domain.Interval) error
	Clear(ctx context.Context, email string) error
}

type ReservationManager interface {
	TryReserve(ctx context.Context, bookingID, email string, window domain.Interval) error
	Get(ctx context.Context, bookingID string) (*store.Reservation, error)
	Release(ctx context.Context, bookingID string) error
}

type Publisher interface {
	Publish(ctx context.Context, ev events.Envelope) error
}

// SagaService reacts to booking lifecycle events: it grants TTL-bounded
// holds on booking.requested and commits them on
// booking.confirm_requested, emitting the slot.* outcome either way.
type SagaService struct {
	slots        SlotStore
	reservations ReservationManager
	publisher    Publisher
	log          *zap.Logger
}

func NewSagaService(slots SlotStore, reservations ReservationManager, publisher Publisher, log *zap.Logger) *SagaService {
	return &SagaService{slots: slots, reservations: reservations, publisher: publisher, log: log}
}

func (s *SagaService) HandleBookingRequested(ctx context.Context, ev events.Envelope) error {
	req, err := events.Decode[events.BookingRequested](ev)
	if err != nil {
		s.log.Warn("dropping undecodable booking.requested", zap.Error(err))
		return nil
	}
	window, ok := parseWindow(req.DesiredStart, req.DesiredEnd)
	if req.BookingID == "" || req.HandymanEmail == "" || !ok {
		s.log.Warn("dropping booking.requested with missing fields", zap.String("booking_id", req.BookingID))
		return nil
	}

	free, err := s.slots.HasOverlap(ctx, req.HandymanEmail, window)
	if err != nil {
		return err
	}
	if !free {
		return s.reject(ctx, req.BookingID, events.ReasonNoMatchingSlot)
	}

	err = s.reservations.TryReserve(ctx, req.BookingID, req.HandymanEmail, window)
	if errors.Is(err, store.ErrReservationConflict) {
		return s.reject(ctx, req.BookingID, events.ReasonSlotConflict)
	}
	if err != nil {
		return err
	}

	s.log.Info("slot reserved",
		zap.String("booking_id", req.BookingID),
		zap.String("handyman_email", req.HandymanEmail))
	return s.emit(ctx, events.TypeSlotReserved, events.SlotOutcome{BookingID: req.BookingID})
}

func (s *SagaService) HandleConfirmRequested(ctx context.Context, ev events.Envelope) error {
	req, err := events.Decode[events.BookingConfirmRequested](ev)
	if err != nil {
		s.log.Warn("dropping undecodable booking.confirm_requested", zap.Error(err))
		return nil
	}
	window, ok := parseWindow(req.DesiredStart, req.DesiredEnd)
	if req.BookingID == "" || req.HandymanEmail == "" || !ok {
		s.log.Warn("dropping booking.confirm_requested with missing fields", zap.String("booking_id", req.BookingID))
		return nil
	}

	res, err := s.reservations.Get(ctx, req.BookingID)
	if err != nil {
		return err
	}
	if res == nil {
		// Hold already expired, or was never granted.
		return s.reject(ctx, req.BookingID, events.ReasonReservationMissing)
	}

	// Consume before release: a crash in between leaves the reservation
	// record behind as evidence of the in-flight commit, and replaying
	// the confirm is safe because consuming an already-consumed window
	// is a no-op.
	if err := s.slots.ConsumeWindow(ctx, req.HandymanEmail, window); err != nil {
		return err
	}
	if err := s.reservations.Release(ctx, req.BookingID); err != nil {
		return err
	}

	s.log.Info("slot consumption committed", zap.String("booking_id", req.BookingID))
	return s.emit(ctx, events.TypeSlotConfirmed, events.SlotOutcome{BookingID: req.BookingID})
}

func (s *SagaService) reject(ctx context.Context, bookingID, reason string) error {
	s.log.Info("slot rejected",
		zap.String("booking_id", bookingID),
		zap.String("reason", reason))
	return s.emit(ctx, events.TypeSlotRejected, events.SlotOutcome{BookingID: bookingID, Reason: reason})
}

func (s *SagaService) emit(ctx context.Context, eventType string, payload interface{}) error {
	ev, err := events.New(eventType, payload)
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, ev)
}

func parseWindow(start, end string) (domain.Interval, bool) {
	if start == "" || end == "" {
		return domain.Interval{}, false
	}
	s, err := time.Parse(time.RFC3339Nano, start)
	if err != nil {
		return domain.Interval{}, false
	}
	e, err := time.Parse(time.RFC3339Nano, end)
	if err != nil {
		return domain.Interval{}, false
	}
	window := domain.NewInterval(s, e)
	return window, window.IsValid()
}
