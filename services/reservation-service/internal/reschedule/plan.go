package reschedule

import (
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/availability"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/model"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/pricing"
)

type OutcomeKind string

const (
	// OutcomeCarriedOver: the original payment settles the new booking in full.
	OutcomeCarriedOver OutcomeKind = "carried_over"
	// OutcomeCreditDue: the customer is owed Amount back.
	OutcomeCreditDue OutcomeKind = "credit_due"
	// OutcomeAdditionalDue: the customer still owes Amount.
	OutcomeAdditionalDue OutcomeKind = "additional_due"
)

type PaymentOutcome struct {
	Kind   OutcomeKind `json:"kind"`
	Amount float64     `json:"amount"`
}

// Plan is the reconciliation decision for moving a booking to a new window.
// It is a pure computation; Saga executes it against the store.
type Plan struct {
	NewBooking     model.BookingRequest
	CancelOriginal bool
	Outcome        PaymentOutcome
}

// SelectionChanged reports whether the candidate window differs from the
// booking's current reservation. Handlers call this once instead of tracking
// dirty state across form edits.
func SelectionChanged(orig model.Booking, date string, start availability.ClockTime, durationHours int) bool {
	if orig.BookingDate != date {
		return true
	}
	if orig.DurationHours != durationHours {
		return true
	}
	origStart, err := availability.ParseClock(orig.StartTime)
	if err != nil {
		return true
	}
	return origStart != start
}

// BuildPlan computes the financial and status transitions for rescheduling
// orig onto the selected window.
//
//	original unpaid          -> new booking pending/unpaid, full amount due
//	paid, equal duration     -> carry over, new booking paid+confirmed
//	paid, shorter duration   -> paid+confirmed, credit for the difference
//	paid, longer duration    -> pending payment for the delta, original
//	                            payment recorded as partial via carryover
func BuildPlan(orig model.Booking, date string, window availability.Window, durationHours int, notes string) Plan {
	req := model.BookingRequest{
		FieldID:       orig.FieldID,
		CustomerName:  orig.CustomerName,
		CustomerEmail: orig.CustomerEmail,
		CustomerPhone: orig.CustomerPhone,
		BookingDate:   date,
		StartTime:     window.Start.WithSeconds(),
		EndTime:       window.End.WithSeconds(),
		DurationHours: durationHours,
		HourlyRate:    orig.HourlyRate,
		TotalAmount:   window.Price,
		Notes:         notes,

		OriginalBookingID:     orig.ID,
		OriginalTotalAmount:   orig.TotalAmount,
		OriginalPaymentStatus: orig.PaymentStatus,
	}

	plan := Plan{CancelOriginal: orig.Status != model.BookingCancelled}

	if orig.PaymentStatus != model.PaymentPaid {
		req.Status = model.BookingPending
		req.PaymentStatus = model.PaymentPending
		req.PaymentAdjustment = window.Price
		plan.Outcome = PaymentOutcome{Kind: OutcomeAdditionalDue, Amount: window.Price}
		plan.NewBooking = req
		return plan
	}

	switch {
	case durationHours == orig.DurationHours:
		req.Status = model.BookingConfirmed
		req.PaymentStatus = model.PaymentPaid
		plan.Outcome = PaymentOutcome{Kind: OutcomeCarriedOver, Amount: 0}
	case durationHours < orig.DurationHours:
		req.Status = model.BookingConfirmed
		req.PaymentStatus = model.PaymentPaid
		credit := pricing.Round(orig.TotalAmount - window.Price)
		req.PaymentAdjustment = -credit
		plan.Outcome = PaymentOutcome{Kind: OutcomeCreditDue, Amount: credit}
	default:
		req.Status = model.BookingPending
		req.PaymentStatus = model.PaymentPending
		delta := pricing.Round(window.Price - orig.TotalAmount)
		req.PaymentAdjustment = delta
		plan.Outcome = PaymentOutcome{Kind: OutcomeAdditionalDue, Amount: delta}
	}
	plan.NewBooking = req
	return plan
}
