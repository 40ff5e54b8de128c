package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/libs/db"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/model"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/outbox"
)

// BookingRepository persists bookings and writes their domain events to the
// outbox inside the same transaction.
type BookingRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewBookingRepository(pool *db.Pool, events *outbox.Repository) *BookingRepository {
	return &BookingRepository{pool: pool, outbox: events}
}

const bookingColumns = `
	id, field_id, customer_name, customer_email, COALESCE(customer_phone, ''),
	booking_date::text, start_time::text, end_time::text, duration_hours,
	hourly_rate, total_amount, status, payment_status,
	COALESCE(payment_ref, ''), refund_amount, COALESCE(notes, ''),
	created_at, updated_at`

// Create inserts the booking and its created (or rescheduled) event. The
// bookings table carries an exclusion constraint on overlapping field/date
// ranges, so a double-book surfaces here as a conflict error.
func (r *BookingRepository) Create(ctx context.Context, req model.BookingRequest) (model.Booking, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Booking{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id := uuid.NewString()
	var b model.Booking
	err = tx.QueryRow(ctx, `
		INSERT INTO bookings
			(id, field_id, customer_name, customer_email, customer_phone, booking_date, start_time, end_time,
			duration_hours, hourly_rate, total_amount, status, payment_status, notes)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11, $12, $13, NULLIF($14, ''))
		RETURNING `+bookingColumns+`
	`, id, req.FieldID, req.CustomerName, req.CustomerEmail, req.CustomerPhone, req.BookingDate, req.StartTime, req.EndTime,
		req.DurationHours, req.HourlyRate, req.TotalAmount, req.Status, req.PaymentStatus, req.Notes).
		Scan(scanTargets(&b)...)
	if err != nil {
		return model.Booking{}, err
	}

	evt := outbox.BookingCreated(b)
	if req.OriginalBookingID != "" {
		evt = outbox.BookingRescheduled(b, req.OriginalBookingID)
	}
	if err := r.outbox.Insert(ctx, tx, evt); err != nil {
		return model.Booking{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Booking{}, err
	}
	return b, nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (model.Booking, error) {
	var b model.Booking
	err := r.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1
	`, id).Scan(scanTargets(&b)...)
	if err != nil {
		return model.Booking{}, err
	}
	return b, nil
}

// Cancel marks the booking cancelled and records the refund owed, if any.
// A paid booking with a refund figure moves to payment_status refunded.
func (r *BookingRepository) Cancel(ctx context.Context, id, reason string, refundAmount *float64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var b model.Booking
	err = tx.QueryRow(ctx, `
		UPDATE bookings
		SET status = 'cancelled',
			cancel_reason = NULLIF($2, ''),
			refund_amount = $3,
			payment_status = CASE
				WHEN $3::numeric IS NOT NULL AND payment_status = 'paid' THEN 'refunded'
				ELSE payment_status
			END,
			updated_at = now()
		WHERE id = $1 AND status <> 'cancelled'
		RETURNING `+bookingColumns+`
	`, id, reason, refundAmount).Scan(scanTargets(&b)...)
	if err != nil {
		return err
	}

	if err := r.outbox.Insert(ctx, tx, outbox.BookingCancelled(b, reason)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListActiveForDay returns the non-cancelled bookings occupying a field on a
// date, used to block their hours out of the availability grid.
func (r *BookingRepository) ListActiveForDay(ctx context.Context, fieldID, date string) ([]model.Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE field_id = $1
			AND booking_date = $2
			AND status <> 'cancelled'
		ORDER BY start_time ASC
	`, fieldID, date)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

type ListFilter struct {
	FieldID       string
	Date          string
	CustomerEmail string
	Limit         int
}

func (r *BookingRepository) List(ctx context.Context, f ListFilter) ([]model.Booking, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE ($1 = '' OR field_id::text = $1)
			AND ($2 = '' OR booking_date::text = $2)
			AND ($3 = '' OR customer_email = $3)
		ORDER BY booking_date DESC, start_time DESC
		LIMIT $4
	`, f.FieldID, f.Date, f.CustomerEmail, f.Limit)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// CompleteElapsed flips paid, confirmed bookings whose end time has passed to
// completed, emitting a completion event per booking. Returns how many rows
// were flipped.
func (r *BookingRepository) CompleteElapsed(ctx context.Context, now time.Time) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		UPDATE bookings
		SET status = 'completed',
			updated_at = now()
		WHERE status = 'confirmed'
			AND payment_status = 'paid'
			AND (booking_date + end_time) < $1
		RETURNING `+bookingColumns+`
	`, now)
	if err != nil {
		return 0, err
	}
	completed, err := collect(rows)
	if err != nil {
		return 0, err
	}
	for _, b := range completed {
		if err := r.outbox.Insert(ctx, tx, outbox.BookingCompleted(b)); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(completed), nil
}

func scanTargets(b *model.Booking) []any {
	return []any{
		&b.ID, &b.FieldID, &b.CustomerName, &b.CustomerEmail, &b.CustomerPhone,
		&b.BookingDate, &b.StartTime, &b.EndTime, &b.DurationHours,
		&b.HourlyRate, &b.TotalAmount, &b.Status, &b.PaymentStatus,
		&b.PaymentRef, &b.RefundAmount, &b.Notes,
		&b.CreatedAt, &b.UpdatedAt,
	}
}

func collect(rows pgx.Rows) ([]model.Booking, error) {
	defer rows.Close()
	var bookings []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(scanTargets(&b)...); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return bookings, nil
}

// IsConflict reports whether the error is the overlap exclusion constraint or
// a unique violation, i.e. someone else took the slot first.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "23P01" || pgErr.Code == "23505")
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
