package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusReserved  BookingStatus = "RESERVED"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusFailed    BookingStatus = "FAILED"
	BookingStatusExpired   BookingStatus = "EXPIRED"
)

// IsTerminal reports whether no further status transition is allowed.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingStatusConfirmed, BookingStatusFailed, BookingStatusExpired:
		return true
	}
	return false
}

type Booking struct {
	ID            int64
	BookingID     string
	UserEmail     string
	HandymanEmail string
	DesiredStart  time.Time
	DesiredEnd    time.Time
	Status        BookingStatus
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TransitionSources returns the statuses a booking may be in for the
// transition into target to apply. Anything else is a stale event and
// must be ignored, not treated as an error.
func TransitionSources(target BookingStatus) []BookingStatus {
	switch target {
	case BookingStatusReserved:
		return []BookingStatus{BookingStatusPending}
	case BookingStatusConfirmed:
		return []BookingStatus{BookingStatusReserved}
	case BookingStatusFailed, BookingStatusExpired:
		return []BookingStatus{BookingStatusPending, BookingStatusReserved}
	}
	return nil
}
