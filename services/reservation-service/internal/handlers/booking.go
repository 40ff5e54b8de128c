package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/libs/httpx"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/availability"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/calendar"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/model"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/storage"
)

type createBookingRequest struct {
	FieldID       string `json:"field_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	BookingDate   string `json:"booking_date"`
	StartTime     string `json:"start_time"`
	DurationHours int    `json:"duration_hours"`
	Notes         string `json:"notes"`
	PayAtVenue    bool   `json:"pay_at_venue"`
}

type bookingItem struct {
	BookingID     string   `json:"booking_id"`
	FieldID       string   `json:"field_id"`
	CustomerName  string   `json:"customer_name"`
	CustomerEmail string   `json:"customer_email"`
	BookingDate   string   `json:"booking_date"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
	DurationHours int      `json:"duration_hours"`
	HourlyRate    float64  `json:"hourly_rate"`
	TotalAmount   float64  `json:"total_amount"`
	Status        string   `json:"status"`
	PaymentStatus string   `json:"payment_status"`
	RefundAmount  *float64 `json:"refund_amount,omitempty"`
	Notes         string   `json:"notes,omitempty"`
	CreatedAt     string   `json:"created_at,omitempty"`
}

func toBookingItem(b model.Booking) bookingItem {
	item := bookingItem{
		BookingID:     b.ID,
		FieldID:       b.FieldID,
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		BookingDate:   b.BookingDate,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		DurationHours: b.DurationHours,
		HourlyRate:    b.HourlyRate,
		TotalAmount:   b.TotalAmount,
		Status:        string(b.Status),
		PaymentStatus: string(b.PaymentStatus),
		RefundAmount:  b.RefundAmount,
		Notes:         b.Notes,
	}
	if !b.CreatedAt.IsZero() {
		item.CreatedAt = b.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return item
}

// Bookings dispatches the collection endpoint: POST creates, GET lists.
func (h *Handler) Bookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	req.FieldID = strings.TrimSpace(req.FieldID)
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerEmail = strings.TrimSpace(req.CustomerEmail)
	req.BookingDate = strings.TrimSpace(req.BookingDate)
	if req.FieldID == "" || req.CustomerName == "" || req.BookingDate == "" || req.StartTime == "" {
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
	field, err := h.fields.GetByID(ctx, req.FieldID)
	if err != nil {
		if storage.IsNotFound(err) {
			httpx.WriteError(w, http.StatusNotFound, "field not found")
			return
		}
		h.logger.Error("field lookup failed", "field_id", req.FieldID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "field lookup failed")
		return
	}
	if !field.Active {
		httpx.WriteError(w, http.StatusNotFound, "field not found")
		return
	}

	// Always revalidate against a fresh feed; a cached grid must never admit
	// a selection the upstream has since closed.
	slots, _, err := h.daySlots(ctx, field, req.BookingDate, "", false)
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

	paymentStatus := model.PaymentPending
	if req.PayAtVenue {
		paymentStatus = model.PaymentManualPending
	}
	booking, err := h.bookings.Create(ctx, model.BookingRequest{
		FieldID:       field.ID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		BookingDate:   req.BookingDate,
		StartTime:     window.Start.WithSeconds(),
		EndTime:       window.End.WithSeconds(),
		DurationHours: req.DurationHours,
		HourlyRate:    field.HourlyRate,
		TotalAmount:   window.Price,
		Status:        model.BookingPending,
		PaymentStatus: paymentStatus,
		Notes:         req.Notes,
	})
	if err != nil {
		if storage.IsConflict(err) {
			httpx.WriteError(w, http.StatusConflict, "slot was just taken")
			return
		}
		h.logger.Error("booking create failed", "field_id", field.ID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "booking create failed")
		return
	}
	h.cache.Invalidate(ctx, field.ID, req.BookingDate)

	httpx.WriteJSON(w, http.StatusCreated, struct {
		Booking       bookingItem        `json:"booking"`
		HoursOverride *calendar.Override `json:"operating_hours_override,omitempty"`
	}{
		Booking:       toBookingItem(booking),
		HoursOverride: h.calendar.OverrideFor(req.BookingDate),
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.ListFilter{
		FieldID:       strings.TrimSpace(q.Get("field_id")),
		Date:          strings.TrimSpace(q.Get("date")),
		CustomerEmail: strings.TrimSpace(q.Get("customer_email")),
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			httpx.WriteError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		filter.Limit = n
	}
	if filter.Date != "" && !validDate(filter.Date) {
		httpx.WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	bookings, err := h.bookings.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("booking list failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "booking list failed")
		return
	}
	items := make([]bookingItem, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, toBookingItem(b))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"bookings": items})
}

type fieldItem struct {
	FieldID    string  `json:"field_id"`
	Name       string  `json:"name"`
	Surface    string  `json:"surface,omitempty"`
	HourlyRate float64 `json:"hourly_rate"`
}

func (h *Handler) ListFields(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	fields, err := h.fields.ListActive(r.Context())
	if err != nil {
		h.logger.Error("field list failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "field list failed")
		return
	}
	items := make([]fieldItem, 0, len(fields))
	for _, f := range fields {
		items = append(items, fieldItem{FieldID: f.ID, Name: f.Name, Surface: f.Surface, HourlyRate: f.HourlyRate})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"fields": items})
}

// selectionStatus maps a selection obstacle to a response code: contested
// state (blocked or taken) is a conflict, everything else is a bad selection.
func selectionStatus(err error) int {
	if errors.Is(err, availability.ErrSlotBlocked) || errors.Is(err, availability.ErrSlotUnavailable) {
		return http.StatusConflict
	}
	return http.StatusUnprocessableEntity
}
