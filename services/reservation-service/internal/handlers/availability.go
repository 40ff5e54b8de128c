package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/libs/httpx"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/availability"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/calendar"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/storage"
)

type operatingHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type availabilityResponse struct {
	FieldID        string                `json:"field_id"`
	Date           string                `json:"date"`
	OperatingHours operatingHours        `json:"operating_hours"`
	HoursOverride  *calendar.Override    `json:"operating_hours_override,omitempty"`
	Degraded       bool                  `json:"degraded,omitempty"`
	Slots          []availability.Slot   `json:"slots"`
	Windows        []availability.Window `json:"windows"`
}

// Availability returns the merged hour grid and the bookable windows for the
// requested duration (default one hour).
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	fieldID := strings.TrimSpace(q.Get("field_id"))
	date := strings.TrimSpace(q.Get("date"))
	if fieldID == "" || date == "" {
		httpx.WriteError(w, http.StatusBadRequest, "field_id and date are required")
		return
	}
	if !validDate(date) {
		httpx.WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	duration := 1
	if raw := strings.TrimSpace(q.Get("duration_hours")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 12 {
			httpx.WriteError(w, http.StatusBadRequest, "duration_hours must be between 1 and 12")
			return
		}
		duration = n
	}

	ctx := r.Context()
	field, err := h.fields.GetByID(ctx, fieldID)
	if err != nil {
		if storage.IsNotFound(err) {
			httpx.WriteError(w, http.StatusNotFound, "field not found")
			return
		}
		h.logger.Error("field lookup failed", "field_id", fieldID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "field lookup failed")
		return
	}
	if !field.Active {
		httpx.WriteError(w, http.StatusNotFound, "field not found")
		return
	}

	slots, degraded, err := h.daySlots(ctx, field, date, "", true)
	if err != nil {
		h.logger.Error("availability overlay failed", "field_id", fieldID, "date", date, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "availability lookup failed")
		return
	}

	hours := h.calendar.HoursForDate(date)
	windows := availability.FindWindows(slots, duration, field.HourlyRate)
	if windows == nil {
		windows = []availability.Window{}
	}

	httpx.WriteJSON(w, http.StatusOK, availabilityResponse{
		FieldID:        field.ID,
		Date:           date,
		OperatingHours: operatingHours{Start: hours.Start(), End: hours.End()},
		HoursOverride:  h.calendar.OverrideFor(date),
		Degraded:       degraded,
		Slots:          slots,
		Windows:        windows,
	})
}
