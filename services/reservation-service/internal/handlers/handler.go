package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/libs/auth"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/availability"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/calendar"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/model"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/reschedule"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/storage"
)

type FieldStore interface {
	GetByID(ctx context.Context, id string) (model.Field, error)
	ListActive(ctx context.Context) ([]model.Field, error)
}

type BookingStore interface {
	Create(ctx context.Context, req model.BookingRequest) (model.Booking, error)
	GetByID(ctx context.Context, id string) (model.Booking, error)
	Cancel(ctx context.Context, id, reason string, refundAmount *float64) error
	ListActiveForDay(ctx context.Context, fieldID, date string) ([]model.Booking, error)
	List(ctx context.Context, f storage.ListFilter) ([]model.Booking, error)
}

type FeedSource interface {
	DayAvailability(ctx context.Context, fieldID, date string, defaultRate float64) (availability.Feed, bool)
}

type FeedCache interface {
	Get(ctx context.Context, fieldID, date string) (availability.Feed, bool)
	Set(ctx context.Context, fieldID, date string, f availability.Feed)
	Invalidate(ctx context.Context, fieldID, date string)
}

type Handler struct {
	fields   FieldStore
	bookings BookingStore
	feed     FeedSource
	cache    FeedCache
	calendar *calendar.Calendar
	staff    *auth.StaffKeys
	saga     *reschedule.Saga
	payments reschedule.PaymentExecutor
	logger   *slog.Logger
	now      func() time.Time
}

func New(
	fields FieldStore,
	bookings BookingStore,
	feed FeedSource,
	cache FeedCache,
	cal *calendar.Calendar,
	staff *auth.StaffKeys,
	saga *reschedule.Saga,
	payments reschedule.PaymentExecutor,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		fields:   fields,
		bookings: bookings,
		feed:     feed,
		cache:    cache,
		calendar: cal,
		staff:    staff,
		saga:     saga,
		payments: payments,
		logger:   logger,
		now:      time.Now,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/fields", h.ListFields)
	mux.HandleFunc("/api/v1/availability", h.Availability)
	mux.HandleFunc("/api/v1/bookings", h.Bookings)
	mux.HandleFunc("/api/v1/bookings/cancel", h.Cancel)
	mux.HandleFunc("/api/v1/bookings/reschedule", h.Reschedule)
}

// daySlots resolves the merged availability grid for a field and date.
// useCache controls whether the upstream feed may come from redis; booking
// writes always refetch so stale feeds cannot admit a stale selection.
// excludeBookingID drops one of our own bookings from the overlay, used when
// rescheduling a booking onto (or around) its own hours.
func (h *Handler) daySlots(ctx context.Context, field model.Field, date, excludeBookingID string, useCache bool) ([]availability.Slot, bool, error) {
	hours := h.calendar.HoursForDate(date)

	var f availability.Feed
	var cached, degraded bool
	if useCache {
		f, cached = h.cache.Get(ctx, field.ID, date)
	}
	if !cached {
		f, degraded = h.feed.DayAvailability(ctx, field.ID, date, field.HourlyRate)
		if useCache && !degraded {
			h.cache.Set(ctx, field.ID, date, f)
		}
	}

	booked, err := h.bookings.ListActiveForDay(ctx, field.ID, date)
	if err != nil {
		return nil, degraded, err
	}
	for _, b := range booked {
		if b.ID == excludeBookingID {
			continue
		}
		f.BlockedSlots = append(f.BlockedSlots, availability.FeedBlock{
			StartTime: b.StartTime,
			EndTime:   b.EndTime,
			Status:    "booked",
		})
	}

	return availability.Merge(date, hours, f, h.now()), degraded, nil
}

func validDate(s string) bool {
	_, err := time.ParseInLocation("2006-01-02", s, time.Local)
	return err == nil
}
