package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/libs/httpx"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/availability"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/policy"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/reschedule"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/storage"
)

type rescheduleRequest struct {
	BookingID     string `json:"booking_id"`
	BookingDate   string `json:"booking_date"`
	StartTime     string `json:"start_time"`
	DurationHours int    `json:"duration_hours"`
	Notes         string `json:"notes"`
}

type rescheduleResponse struct {
	Booking              bookingItem               `json:"booking"`
	Outcome              reschedule.PaymentOutcome `json:"payment_outcome"`
	OriginalCancelled    bool                      `json:"original_cancelled"`
	ManualCancelRequired bool                      `json:"manual_cancel_required,omitempty"`
	CreditRefunded       bool                      `json:"credit_refunded,omitempty"`
	CreditPending        bool                      `json:"credit_pending,omitempty"`
}

// Reschedule moves a booking to a new window as create-then-cancel. The
// original booking's hours do not block its own move.
func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.BookingID = strings.TrimSpace(req.BookingID)
	req.BookingDate = strings.TrimSpace(req.BookingDate)
	if req.BookingID == "" || req.BookingDate == "" || req.StartTime == "" {
		httpx.WriteError(w, http.StatusBadRequest, "missing required fields")
		return
	}
	if !validDate(req.BookingDate) {
		httpx.WriteError(w, http.StatusBadRequest, "booking_date must be YYYY-MM-DD")
		return
	}
	start, err := availability.ParseClock(req.StartTime)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid start_time")
		return
	}
	if req.DurationHours < 1 || req.DurationHours > 12 {
		httpx.WriteError(w, http.StatusBadRequest, "duration_hours must be between 1 and 12")
		return
	}

	ctx := r.Context()
	booking, err := h.bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		if storage.IsNotFound(err) {
			httpx.WriteError(w, http.StatusNotFound, "booking not found")
			return
		}
		h.logger.Error("booking lookup failed", "booking_id", req.BookingID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "booking lookup failed")
		return
	}

	// Rescheduling shares the cancellation eligibility rules: the original
	// is released, so the same notice window applies.
	role := h.staff.ActorRole(r)
	if d := policy.CanCancel(booking, role, h.now()); !d.Allowed {
		httpx.WriteError(w, http.StatusForbidden, d.Reason)
		return
	}

	if !reschedule.SelectionChanged(booking, req.BookingDate, start, req.DurationHours) {
		httpx.WriteError(w, http.StatusBadRequest, "selection is unchanged")
		return
	}

	field, err := h.fields.GetByID(ctx, booking.FieldID)
	if err != nil {
		h.logger.Error("field lookup failed", "field_id", booking.FieldID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "field lookup failed")
		return
	}

	slots, _, err := h.daySlots(ctx, field, req.BookingDate, booking.ID, false)
	if err != nil {
		h.logger.Error("availability overlay failed", "field_id", field.ID, "date", req.BookingDate, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "availability lookup failed")
		return
	}
	window, err := availability.WindowAt(slots, start, req.DurationHours, field.HourlyRate)
	if err != nil {
		httpx.WriteError(w, selectionStatus(err), err.Error())
		return
	}

	plan := reschedule.BuildPlan(booking, req.BookingDate, window, req.DurationHours, req.Notes)
	result, err := h.saga.Execute(ctx, booking, plan)
	if err != nil {
		if storage.IsConflict(err) {
			httpx.WriteError(w, http.StatusConflict, "slot was just taken")
			return
		}
		h.logger.Error("reschedule failed", "booking_id", booking.ID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "reschedule failed")
		return
	}

	h.cache.Invalidate(ctx, field.ID, booking.BookingDate)
	if req.BookingDate != booking.BookingDate {
		h.cache.Invalidate(ctx, field.ID, req.BookingDate)
	}

	h.logger.Info("booking rescheduled",
		"original_booking_id", booking.ID,
		"new_booking_id", result.NewBooking.ID,
		"outcome", result.Outcome.Kind,
		"manual_cancel_required", result.ManualCancelRequired,
	)
	httpx.WriteJSON(w, http.StatusCreated, rescheduleResponse{
		Booking:              toBookingItem(result.NewBooking),
		Outcome:              result.Outcome,
		OriginalCancelled:    result.OriginalCancelled,
		ManualCancelRequired: result.ManualCancelRequired,
		CreditRefunded:       result.CreditRefunded,
		CreditPending:        result.CreditPending,
	})
}
