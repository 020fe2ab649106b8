package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Domenick1991/handybook/internal/domain"
)

// ErrNotFound is returned when no booking exists for the given id.
var ErrNotFound = errors.New("booking not found")

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, bookingID string) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, bookingID string, status domain.BookingStatus, reason string, from []domain.BookingStatus) (bool, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	booking.Status = domain.BookingStatusPending
	return r.db.QueryRow(ctx, `INSERT INTO bookings (booking_id, user_email, handyman_email, desired_start, desired_end, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		booking.BookingID, booking.UserEmail, booking.HandymanEmail, booking.DesiredStart, booking.DesiredEnd, booking.Status).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, bookingID string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT id, booking_id, user_email, handyman_email, desired_start, desired_end, status, COALESCE(failure_reason, ''), created_at, updated_at
		FROM bookings WHERE booking_id=$1`, bookingID)

	var b domain.Booking
	if err := row.Scan(&b.ID, &b.BookingID, &b.UserEmail, &b.HandymanEmail, &b.DesiredStart, &b.DesiredEnd, &b.Status, &b.FailureReason, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// UpdateStatus applies the transition only when the current status is in
// from, making stale saga events no-ops at the row level. It reports
// whether a row actually changed.
func (r *PGBookingRepository) UpdateStatus(ctx context.Context, bookingID string, status domain.BookingStatus, reason string, from []domain.BookingStatus) (bool, error) {
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET status=$1, failure_reason=NULLIF($2, ''), updated_at=now()
		WHERE booking_id=$3 AND status = ANY($4)`,
		status, reason, bookingID, allowed)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
