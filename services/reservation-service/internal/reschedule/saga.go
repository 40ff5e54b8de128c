package reschedule

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/model"
)

// BookingStore is the slice of the booking store the saga drives. Each call
// is atomic on its own; there is no transaction spanning the pair.
type BookingStore interface {
	Create(ctx context.Context, req model.BookingRequest) (model.Booking, error)
	Cancel(ctx context.Context, bookingID, reason string, refundAmount *float64) error
}

// PaymentExecutor settles credit owed to the customer. Collection of
// additional amounts is customer-initiated and stays out of the saga.
type PaymentExecutor interface {
	RefundCredit(ctx context.Context, paymentRef string, amount float64) error
}

// Result reports what actually happened. ManualCancelRequired marks the
// partial-failure mode: the new booking stands but the original could not be
// cancelled and needs manual cleanup.
type Result struct {
	NewBooking           model.Booking
	Outcome              PaymentOutcome
	OriginalCancelled    bool
	ManualCancelRequired bool
	CreditRefunded       bool
	CreditPending        bool
}

// Saga executes a reschedule plan as create-then-cancel with a single
// compensating step. Creation failure is fatal; every later failure degrades
// the result instead, so the customer is never left without a reservation.
type Saga struct {
	bookings BookingStore
	payments PaymentExecutor
	logger   *slog.Logger
}

func NewSaga(bookings BookingStore, payments PaymentExecutor, logger *slog.Logger) *Saga {
	return &Saga{bookings: bookings, payments: payments, logger: logger}
}

func (s *Saga) Execute(ctx context.Context, orig model.Booking, plan Plan) (Result, error) {
	created, err := s.bookings.Create(ctx, plan.NewBooking)
	if err != nil {
		return Result{}, fmt.Errorf("create replacement booking: %w", err)
	}

	res := Result{NewBooking: created, Outcome: plan.Outcome}

	if plan.CancelOriginal {
		var refundAmount *float64
		if plan.Outcome.Kind == OutcomeCreditDue && plan.Outcome.Amount > 0 {
			amount := plan.Outcome.Amount
			refundAmount = &amount
		}
		if err := s.bookings.Cancel(ctx, orig.ID, "rescheduled to "+created.ID, refundAmount); err != nil {
			s.logger.Warn("reschedule: original booking not cancelled, manual cleanup required",
				"original_booking_id", orig.ID,
				"new_booking_id", created.ID,
				"err", err,
			)
			res.ManualCancelRequired = true
		} else {
			res.OriginalCancelled = true
		}
	}

	if plan.Outcome.Kind == OutcomeCreditDue && plan.Outcome.Amount > 0 {
		res.CreditPending = true
		if s.payments != nil && orig.PaymentRef != "" {
			if err := s.payments.RefundCredit(ctx, orig.PaymentRef, plan.Outcome.Amount); err != nil {
				s.logger.Warn("reschedule: credit refund failed, will need manual settlement",
					"original_booking_id", orig.ID,
					"amount", plan.Outcome.Amount,
					"err", err,
				)
			} else {
				res.CreditRefunded = true
				res.CreditPending = false
			}
		}
	}

	return res, nil
}
