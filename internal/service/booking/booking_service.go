package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Domenick1991/handybook/internal/domain"
	"github.com/Domenick1991/handybook/internal/events"
	"github.com/Domenick1991/handybook/internal/repository"
)

var (
	ErrInvalidWindow = errors.New("desired_end must be after desired_start")
	ErrMissingEmail  = errors.New("user_email and handyman_email are required")
	ErrNotReserved   = errors.New("booking is not in RESERVED status")
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error)
	RequestConfirm(ctx context.Context, bookingID string) (*domain.Booking, error)
	ApplyEvent(ctx context.Context, ev events.Envelope) error
}

type Publisher interface {
	Publish(ctx context.Context, ev events.Envelope) error
}

type CreateBookingInput struct {
	UserEmail     string    `json:"user_email"`
	HandymanEmail string    `json:"handyman_email"`
	DesiredStart  time.Time `json:"desired_start"`
	DesiredEnd    time.Time `json:"desired_end"`
}

// BookingService owns the authoritative booking record. Status changes
// only on inbound saga-outcome events; the two client-initiated
// operations emit events and leave status untouched (create writes the
// initial PENDING row).
type BookingService struct {
	bookings  repository.BookingRepository
	publisher Publisher
	log       *zap.Logger
}

func NewBookingService(bookings repository.BookingRepository, publisher Publisher, log *zap.Logger) *BookingService {
	return &BookingService{bookings: bookings, publisher: publisher, log: log}
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if input.UserEmail == "" || input.HandymanEmail == "" {
		return nil, ErrMissingEmail
	}
	window := domain.NewInterval(input.DesiredStart, input.DesiredEnd)
	if !window.IsValid() {
		return nil, ErrInvalidWindow
	}

	booking := &domain.Booking{
		BookingID:     uuid.NewString(),
		UserEmail:     input.UserEmail,
		HandymanEmail: input.HandymanEmail,
		DesiredStart:  window.Start,
		DesiredEnd:    window.End,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}

	ev, err := events.New(events.TypeBookingRequested, events.BookingRequested{
		BookingID:     booking.BookingID,
		UserEmail:     booking.UserEmail,
		HandymanEmail: booking.HandymanEmail,
		DesiredStart:  booking.DesiredStart.Format(time.RFC3339Nano),
		DesiredEnd:    booking.DesiredEnd.Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, err
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		// The row exists but the saga never starts; the booking stays
		// PENDING until the hold TTL machinery or a retry resolves it.
		s.log.Warn("failed to publish booking.requested",
			zap.String("booking_id", booking.BookingID), zap.Error(err))
	}
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, bookingID)
}

// RequestConfirm emits booking.confirm_requested for a RESERVED booking.
// Status changes only when the resulting slot.confirmed / slot.rejected
// event arrives.
func (s *BookingService) RequestConfirm(ctx context.Context, bookingID string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingStatusReserved {
		return nil, ErrNotReserved
	}

	ev, err := events.New(events.TypeBookingConfirmRequested, events.BookingConfirmRequested{
		BookingID:     booking.BookingID,
		HandymanEmail: booking.HandymanEmail,
		DesiredStart:  booking.DesiredStart.Format(time.RFC3339Nano),
		DesiredEnd:    booking.DesiredEnd.Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, err
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		return nil, err
	}
	return booking, nil
}

// ApplyEvent drives the status transition table from saga outcomes.
// Events for unknown bookings, events without a booking id and events
// whose transition no longer applies are all silent no-ops.
func (s *BookingService) ApplyEvent(ctx context.Context, ev events.Envelope) error {
	outcome, err := events.Decode[events.SlotOutcome](ev)
	if err != nil {
		s.log.Warn("dropping undecodable saga outcome", zap.String("event_type", ev.EventType), zap.Error(err))
		return nil
	}
	if outcome.BookingID == "" {
		return nil
	}

	var (
		target domain.BookingStatus
		reason string
	)
	switch ev.EventType {
	case events.TypeSlotReserved:
		target = domain.BookingStatusReserved
	case events.TypeSlotRejected:
		target = domain.BookingStatusFailed
		reason = outcome.Reason
		if reason == "" {
			reason = "slot_rejected"
		}
	case events.TypeSlotConfirmed:
		target = domain.BookingStatusConfirmed
	case events.TypeSlotExpired:
		target = domain.BookingStatusExpired
	default:
		return nil
	}

	changed, err := s.bookings.UpdateStatus(ctx, outcome.BookingID, target, reason, domain.TransitionSources(target))
	if err != nil {
		return err
	}
	if changed {
		s.log.Info("booking status updated",
			zap.String("booking_id", outcome.BookingID),
			zap.String("status", string(target)))
	}
	return nil
}

var _ BookingUseCase = (*BookingService)(nil)
