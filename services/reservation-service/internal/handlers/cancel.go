package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/libs/httpx"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/policy"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/refund"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/storage"
)

type cancelRequest struct {
	BookingID string `json:"booking_id"`
	Reason    string `json:"reason"`
}

type cancelResponse struct {
	BookingID     string   `json:"booking_id"`
	Status        string   `json:"status"`
	RefundAmount  *float64 `json:"refund_amount,omitempty"`
	RefundSettled bool     `json:"refund_settled"`
}

// Cancel applies the cancellation policy, records the refund owed, and
// settles it against the payment provider when it can. Settlement failure is
// not a cancellation failure: the booking is released either way.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.BookingID = strings.TrimSpace(req.BookingID)
	if req.BookingID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "booking_id is required")
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

	role := h.staff.ActorRole(r)
	if d := policy.CanCancel(booking, role, h.now()); !d.Allowed {
		httpx.WriteError(w, http.StatusForbidden, d.Reason)
		return
	}

	var refundAmount *float64
	if adj := refund.Adjustment(refund.FromBooking(booking)); adj < 0 {
		owed := -adj
		refundAmount = &owed
	}

	if err := h.bookings.Cancel(ctx, booking.ID, req.Reason, refundAmount); err != nil {
		if storage.IsNotFound(err) {
			// Lost a race with another cancel.
			httpx.WriteError(w, http.StatusConflict, "booking is already cancelled")
			return
		}
		h.logger.Error("booking cancel failed", "booking_id", booking.ID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "booking cancel failed")
		return
	}
	h.cache.Invalidate(ctx, booking.FieldID, booking.BookingDate)

	settled := false
	if refundAmount != nil && booking.PaymentRef != "" && h.payments != nil {
		if err := h.payments.RefundCredit(ctx, booking.PaymentRef, *refundAmount); err != nil {
			h.logger.Warn("refund settlement failed, manual follow-up required",
				"booking_id", booking.ID,
				"amount", *refundAmount,
				"err", err,
			)
		} else {
			settled = true
		}
	}

	h.logger.Info("booking cancelled",
		"booking_id", booking.ID,
		"field_id", booking.FieldID,
		"actor_role", role,
		"refund_settled", settled,
	)
	httpx.WriteJSON(w, http.StatusOK, cancelResponse{
		BookingID:     booking.ID,
		Status:        "cancelled",
		RefundAmount:  refundAmount,
		RefundSettled: settled,
	})
}
