package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Routing keys on the domain_events exchange. The routing key of every
// published message equals the envelope's event_type.
const (
	TypeBookingRequested        = "booking.requested"
	TypeBookingConfirmRequested = "booking.confirm_requested"
	TypeSlotReserved            = "slot.reserved"
	TypeSlotRejected            = "slot.rejected"
	TypeSlotConfirmed           = "slot.confirmed"
	TypeSlotExpired             = "slot.expired"
	TypeAvailabilityUpdated     = "availability.updated"
)

// Rejection reasons carried by slot.rejected.
const (
	ReasonNoMatchingSlot     = "no_matching_slot"
	ReasonSlotConflict       = "slot_conflict_reserved"
	ReasonReservationMissing = "reservation_missing"
)

// Envelope is the wire contract every service agrees on. Data is decoded
// per event_type, so an unknown or malformed payload fails at decode
// time rather than deep inside a handler.
type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

type BookingRequested struct {
	BookingID     string `json:"booking_id"`
	UserEmail     string `json:"user_email"`
	HandymanEmail string `json:"handyman_email"`
	DesiredStart  string `json:"desired_start"`
	DesiredEnd    string `json:"desired_end"`
}

type BookingConfirmRequested struct {
	BookingID     string `json:"booking_id"`
	HandymanEmail string `json:"handyman_email"`
	DesiredStart  string `json:"desired_start"`
	DesiredEnd    string `json:"desired_end"`
}

type SlotOutcome struct {
	BookingID string `json:"booking_id"`
	Reason    string `json:"reason,omitempty"`
}

type AvailabilitySlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type AvailabilityUpdated struct {
	Email string             `json:"email"`
	Slots []AvailabilitySlot `json:"slots"`
}

// New builds an envelope around the given payload, stamping a fresh
// event id and UTC emission time.
func New(eventType string, payload interface{}) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}, nil
}

// Decode unmarshals the envelope payload into the variant matching its
// event type.
func Decode[T any](ev Envelope) (T, error) {
	var payload T
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		var zero T
		return zero, fmt.Errorf("decode %s payload: %w", ev.EventType, err)
	}
	return payload, nil
}

// Parse decodes a raw bus message body into an envelope. A body that
// does not parse, or that lacks event_id/event_type, is a poison
// message: the caller must ack and drop it, never requeue.
func Parse(body []byte) (Envelope, error) {
	var ev Envelope
	if err := json.Unmarshal(body, &ev); err != nil {
		return Envelope{}, fmt.Errorf("unparseable event body: %w", err)
	}
	if ev.EventID == "" || ev.EventType == "" {
		return Envelope{}, fmt.Errorf("event missing event_id or event_type")
	}
	return ev, nil
}
