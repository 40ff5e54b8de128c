package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/libs/auth"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/availability"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/calendar"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/model"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/reschedule"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/storage"
)

type fakeFields struct {
	byID map[string]model.Field
}

func (f *fakeFields) GetByID(_ context.Context, id string) (model.Field, error) {
	fld, ok := f.byID[id]
	if !ok {
		return model.Field{}, pgx.ErrNoRows
	}
	return fld, nil
}

func (f *fakeFields) ListActive(_ context.Context) ([]model.Field, error) {
	var out []model.Field
	for _, fld := range f.byID {
		if fld.Active {
			out = append(out, fld)
		}
	}
	return out, nil
}

type fakeBookings struct {
	byID      map[string]model.Booking
	nextID    int
	createErr error
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{byID: map[string]model.Booking{}}
}

func (f *fakeBookings) Create(_ context.Context, req model.BookingRequest) (model.Booking, error) {
	if f.createErr != nil {
		return model.Booking{}, f.createErr
	}
	f.nextID++
	b := model.Booking{
		ID:            fmt.Sprintf("new-%d", f.nextID),
		FieldID:       req.FieldID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		BookingDate:   req.BookingDate,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		DurationHours: req.DurationHours,
		HourlyRate:    req.HourlyRate,
		TotalAmount:   req.TotalAmount,
		Status:        req.Status,
		PaymentStatus: req.PaymentStatus,
		Notes:         req.Notes,
	}
	f.byID[b.ID] = b
	return b, nil
}

func (f *fakeBookings) GetByID(_ context.Context, id string) (model.Booking, error) {
	b, ok := f.byID[id]
	if !ok {
		return model.Booking{}, pgx.ErrNoRows
	}
	return b, nil
}

func (f *fakeBookings) Cancel(_ context.Context, id, _ string, refundAmount *float64) error {
	b, ok := f.byID[id]
	if !ok || b.Status == model.BookingCancelled {
		return pgx.ErrNoRows
	}
	b.Status = model.BookingCancelled
	b.RefundAmount = refundAmount
	f.byID[id] = b
	return nil
}

func (f *fakeBookings) ListActiveForDay(_ context.Context, fieldID, date string) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range f.byID {
		if b.FieldID == fieldID && b.BookingDate == date && b.Status != model.BookingCancelled {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookings) List(_ context.Context, filter storage.ListFilter) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range f.byID {
		if filter.FieldID != "" && b.FieldID != filter.FieldID {
			continue
		}
		if filter.Date != "" && b.BookingDate != filter.Date {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

type fakeFeed struct {
	feed     availability.Feed
	degraded bool
}

func (f *fakeFeed) DayAvailability(_ context.Context, _, _ string, defaultRate float64) (availability.Feed, bool) {
	if f.degraded {
		return availability.OpenFeed(defaultRate), true
	}
	feed := f.feed
	if feed.Field.HourlyRate <= 0 {
		feed.Field.HourlyRate = defaultRate
	}
	return feed, false
}

type fakeCache struct {
	feeds       map[string]availability.Feed
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{feeds: map[string]availability.Feed{}}
}

func (c *fakeCache) Get(_ context.Context, fieldID, date string) (availability.Feed, bool) {
	f, ok := c.feeds[fieldID+":"+date]
	return f, ok
}

func (c *fakeCache) Set(_ context.Context, fieldID, date string, f availability.Feed) {
	c.feeds[fieldID+":"+date] = f
}

func (c *fakeCache) Invalidate(_ context.Context, fieldID, date string) {
	key := fieldID + ":" + date
	delete(c.feeds, key)
	c.invalidated = append(c.invalidated, key)
}

type fakePayments struct {
	err      error
	refunded []float64
}

func (p *fakePayments) RefundCredit(_ context.Context, _ string, amount float64) error {
	if p.err != nil {
		return p.err
	}
	p.refunded = append(p.refunded, amount)
	return nil
}

type fixture struct {
	handler  *Handler
	bookings *fakeBookings
	cache    *fakeCache
	payments *fakePayments
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	fields := &fakeFields{byID: map[string]model.Field{
		"field-1": {ID: "field-1", Name: "Main Field", HourlyRate: 400, Active: true},
		"field-2": {ID: "field-2", Name: "Mothballed", HourlyRate: 300, Active: false},
	}}
	bookings := newFakeBookings()
	cache := newFakeCache()
	payments := &fakePayments{}
	saga := reschedule.NewSaga(bookings, payments, logger)

	h := New(fields, bookings, &fakeFeed{}, cache, calendar.New(nil), auth.NewStaffKeys("", ""), saga, payments, logger)
	// 2030-06-03 is a Monday.
	h.now = func() time.Time { return time.Date(2030, 6, 3, 10, 0, 0, 0, time.Local) }
	return &fixture{handler: h, bookings: bookings, cache: cache, payments: payments}
}

func doJSON(t *testing.T, h http.HandlerFunc, method, target, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("response is not json: %v\n%s", err, rec.Body.String())
		}
	}
	return rec, decoded
}

func TestAvailability_WeekdayGrid(t *testing.T) {
	fx := newFixture(t)

	rec, body := doJSON(t, fx.handler.Availability, http.MethodGet,
		"/api/v1/availability?field_id=field-1&date=2030-06-10&duration_hours=2", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	slots := body["slots"].([]any)
	if len(slots) != 6 {
		t.Fatalf("weekday grid should have 6 slots, got %d", len(slots))
	}
	windows := body["windows"].([]any)
	if len(windows) != 5 {
		t.Fatalf("expected 5 two-hour windows, got %d", len(windows))
	}
	if _, ok := body["operating_hours_override"]; ok {
		t.Fatal("weekday must not carry an hours override")
	}
	oh := body["operating_hours"].(map[string]any)
	if oh["start"] != "16:00" || oh["end"] != "22:00" {
		t.Fatalf("weekday hours wrong: %v", oh)
	}
}

func TestAvailability_WeekendOverride(t *testing.T) {
	fx := newFixture(t)

	// 2030-06-08 is a Saturday.
	rec, body := doJSON(t, fx.handler.Availability, http.MethodGet,
		"/api/v1/availability?field_id=field-1&date=2030-06-08", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(body["slots"].([]any)) != 13 {
		t.Fatalf("extended grid should have 13 slots, got %d", len(body["slots"].([]any)))
	}
	override := body["operating_hours_override"].(map[string]any)
	if override["start"] != "09:00" || override["end"] != "22:00" {
		t.Fatalf("override wrong: %v", override)
	}
}

func TestAvailability_OwnBookingsBlockSlots(t *testing.T) {
	fx := newFixture(t)
	fx.bookings.byID["b-existing"] = model.Booking{
		ID: "b-existing", FieldID: "field-1", BookingDate: "2030-06-10",
		StartTime: "18:00:00", EndTime: "20:00:00",
		Status: model.BookingConfirmed,
	}

	_, body := doJSON(t, fx.handler.Availability, http.MethodGet,
		"/api/v1/availability?field_id=field-1&date=2030-06-10", "", nil)

	blockedCount := 0
	for _, raw := range body["slots"].([]any) {
		s := raw.(map[string]any)
		if s["blocked"] == true {
			blockedCount++
			if s["block_reason"] != "booked" {
				t.Fatalf("block reason = %v", s["block_reason"])
			}
		}
	}
	if blockedCount != 2 {
		t.Fatalf("18:00-20:00 booking should block 2 slots, got %d", blockedCount)
	}
}

func TestAvailability_UnknownOrInactiveField(t *testing.T) {
	fx := newFixture(t)
	for _, id := range []string{"nope", "field-2"} {
		rec, _ := doJSON(t, fx.handler.Availability, http.MethodGet,
			"/api/v1/availability?field_id="+id+"&date=2030-06-10", "", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("field %s: status = %d, want 404", id, rec.Code)
		}
	}
}

func TestCreate_HappyPath(t *testing.T) {
	fx := newFixture(t)

	rec, body := doJSON(t, fx.handler.Bookings, http.MethodPost, "/api/v1/bookings", `{
		"field_id": "field-1",
		"customer_name": "Thandi M",
		"customer_email": "thandi@example.com",
		"booking_date": "2030-06-10",
		"start_time": "18:00",
		"duration_hours": 2
	}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	b := body["booking"].(map[string]any)
	if b["start_time"] != "18:00:00" || b["end_time"] != "20:00:00" {
		t.Fatalf("times wrong: %v", b)
	}
	if b["total_amount"].(float64) != 800 {
		t.Fatalf("total = %v, want 800", b["total_amount"])
	}
	if b["status"] != "pending" || b["payment_status"] != "pending" {
		t.Fatalf("fresh booking must be pending/pending: %v", b)
	}
	if len(fx.cache.invalidated) != 1 || fx.cache.invalidated[0] != "field-1:2030-06-10" {
		t.Fatalf("cache invalidation missing: %v", fx.cache.invalidated)
	}
}

func TestCreate_PayAtVenue(t *testing.T) {
	fx := newFixture(t)

	rec, body := doJSON(t, fx.handler.Bookings, http.MethodPost, "/api/v1/bookings", `{
		"field_id": "field-1",
		"customer_name": "Thandi M",
		"booking_date": "2030-06-10",
		"start_time": "18:00",
		"duration_hours": 1,
		"pay_at_venue": true
	}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if b := body["booking"].(map[string]any); b["payment_status"] != "manual_pending" {
		t.Fatalf("pay_at_venue must record manual_pending, got %v", b["payment_status"])
	}
}

func TestCreate_TakenSlotRejected(t *testing.T) {
	fx := newFixture(t)
	fx.bookings.byID["b-existing"] = model.Booking{
		ID: "b-existing", FieldID: "field-1", BookingDate: "2030-06-10",
		StartTime: "18:00:00", EndTime: "19:00:00",
		Status: model.BookingConfirmed,
	}

	rec, _ := doJSON(t, fx.handler.Bookings, http.MethodPost, "/api/v1/bookings", `{
		"field_id": "field-1",
		"customer_name": "Thandi M",
		"booking_date": "2030-06-10",
		"start_time": "18:00",
		"duration_hours": 1
	}`, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestCreate_StoreConflictIs409(t *testing.T) {
	fx := newFixture(t)
	fx.bookings.createErr = &pgconn.PgError{Code: "23P01"}

	rec, _ := doJSON(t, fx.handler.Bookings, http.MethodPost, "/api/v1/bookings", `{
		"field_id": "field-1",
		"customer_name": "Thandi M",
		"booking_date": "2030-06-10",
		"start_time": "18:00",
		"duration_hours": 1
	}`, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestCreate_PastStartRejected(t *testing.T) {
	fx := newFixture(t)
	// Book today's 16:00 slot with the clock already at 17:00.
	fx.handler.now = func() time.Time { return time.Date(2030, 6, 3, 17, 0, 0, 0, time.Local) }

	rec, body := doJSON(t, fx.handler.Bookings, http.MethodPost, "/api/v1/bookings", `{
		"field_id": "field-1",
		"customer_name": "Thandi M",
		"booking_date": "2030-06-03",
		"start_time": "16:00",
		"duration_hours": 1
	}`, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %v", rec.Code, body)
	}
}

func TestCancel_CustomerInsideNoticeWindow(t *testing.T) {
	fx := newFixture(t)
	fx.bookings.byID["b-1"] = model.Booking{
		ID: "b-1", FieldID: "field-1", BookingDate: "2030-06-03",
		StartTime: "16:00:00", EndTime: "18:00:00",
		Status: model.BookingConfirmed, PaymentStatus: model.PaymentPaid, TotalAmount: 800,
	}

	rec, body := doJSON(t, fx.handler.Cancel, http.MethodPost, "/api/v1/bookings/cancel",
		`{"booking_id": "b-1"}`, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if !strings.Contains(body["error"].(string), "24 hours") {
		t.Fatalf("error should cite the notice window: %v", body["error"])
	}
}

func TestCancel_AdminBypassAndRefund(t *testing.T) {
	fx := newFixture(t)
	fx.bookings.byID["b-1"] = model.Booking{
		ID: "b-1", FieldID: "field-1", BookingDate: "2030-06-03",
		StartTime: "16:00:00", EndTime: "18:00:00",
		Status: model.BookingConfirmed, PaymentStatus: model.PaymentPaid,
		TotalAmount: 800, PaymentRef: "pi_1",
	}

	rec, body := doJSON(t, fx.handler.Cancel, http.MethodPost, "/api/v1/bookings/cancel",
		`{"booking_id": "b-1", "reason": "rained out"}`,
		map[string]string{auth.RoleHeader: auth.RoleAdmin})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if body["refund_amount"].(float64) != 800 {
		t.Fatalf("refund = %v, want 800", body["refund_amount"])
	}
	if body["refund_settled"] != true {
		t.Fatal("refund should have settled through the provider")
	}
	if len(fx.payments.refunded) != 1 || fx.payments.refunded[0] != 800 {
		t.Fatalf("provider refunds: %v", fx.payments.refunded)
	}
	if fx.bookings.byID["b-1"].Status != model.BookingCancelled {
		t.Fatal("booking must be cancelled in the store")
	}
}

func TestCancel_UnpaidBookingNoRefund(t *testing.T) {
	fx := newFixture(t)
	fx.bookings.byID["b-1"] = model.Booking{
		ID: "b-1", FieldID: "field-1", BookingDate: "2030-06-10",
		StartTime: "16:00:00", EndTime: "18:00:00",
		Status: model.BookingPending, PaymentStatus: model.PaymentPending, TotalAmount: 800,
	}

	rec, body := doJSON(t, fx.handler.Cancel, http.MethodPost, "/api/v1/bookings/cancel",
		`{"booking_id": "b-1"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok := body["refund_amount"]; ok {
		t.Fatal("unpaid booking must not produce a refund")
	}
	if len(fx.payments.refunded) != 0 {
		t.Fatalf("no provider refund expected: %v", fx.payments.refunded)
	}
}

func TestCancel_NotFound(t *testing.T) {
	fx := newFixture(t)
	rec, _ := doJSON(t, fx.handler.Cancel, http.MethodPost, "/api/v1/bookings/cancel",
		`{"booking_id": "ghost"}`, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestReschedule_CarriedOver(t *testing.T) {
	fx := newFixture(t)
	fx.bookings.byID["b-1"] = model.Booking{
		ID: "b-1", FieldID: "field-1", BookingDate: "2030-06-10",
		StartTime: "16:00:00", EndTime: "18:00:00", DurationHours: 2,
		HourlyRate: 400, TotalAmount: 800,
		Status: model.BookingConfirmed, PaymentStatus: model.PaymentPaid,
		CustomerName: "Thandi M", CustomerEmail: "thandi@example.com",
	}

	rec, body := doJSON(t, fx.handler.Reschedule, http.MethodPost, "/api/v1/bookings/reschedule", `{
		"booking_id": "b-1",
		"booking_date": "2030-06-11",
		"start_time": "18:00",
		"duration_hours": 2
	}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	outcome := body["payment_outcome"].(map[string]any)
	if outcome["kind"] != "carried_over" {
		t.Fatalf("outcome = %v", outcome)
	}
	if body["original_cancelled"] != true {
		t.Fatal("original must be cancelled")
	}
	nb := body["booking"].(map[string]any)
	if nb["status"] != "confirmed" || nb["payment_status"] != "paid" {
		t.Fatalf("carried-over booking should stay paid: %v", nb)
	}
	if nb["customer_email"] != "thandi@example.com" {
		t.Fatalf("customer contact must carry over: %v", nb)
	}
	if fx.bookings.byID["b-1"].Status != model.BookingCancelled {
		t.Fatal("original not cancelled in store")
	}
}

func TestReschedule_OwnHoursDoNotBlock(t *testing.T) {
	fx := newFixture(t)
	fx.bookings.byID["b-1"] = model.Booking{
		ID: "b-1", FieldID: "field-1", BookingDate: "2030-06-10",
		StartTime: "16:00:00", EndTime: "18:00:00", DurationHours: 2,
		HourlyRate: 400, TotalAmount: 800,
		Status: model.BookingConfirmed, PaymentStatus: model.PaymentPaid,
	}

	// Shift one hour later on the same day; the new window overlaps the
	// original's 17:00-18:00 hour.
	rec, _ := doJSON(t, fx.handler.Reschedule, http.MethodPost, "/api/v1/bookings/reschedule", `{
		"booking_id": "b-1",
		"booking_date": "2030-06-10",
		"start_time": "17:00",
		"duration_hours": 2
	}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestReschedule_UnchangedSelectionRejected(t *testing.T) {
	fx := newFixture(t)
	fx.bookings.byID["b-1"] = model.Booking{
		ID: "b-1", FieldID: "field-1", BookingDate: "2030-06-10",
		StartTime: "16:00:00", EndTime: "18:00:00", DurationHours: 2,
		HourlyRate: 400, TotalAmount: 800,
		Status: model.BookingConfirmed, PaymentStatus: model.PaymentPaid,
	}

	rec, _ := doJSON(t, fx.handler.Reschedule, http.MethodPost, "/api/v1/bookings/reschedule", `{
		"booking_id": "b-1",
		"booking_date": "2030-06-10",
		"start_time": "16:00",
		"duration_hours": 2
	}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestReschedule_ShorterDurationRefundsCredit(t *testing.T) {
	fx := newFixture(t)
	fx.bookings.byID["b-1"] = model.Booking{
		ID: "b-1", FieldID: "field-1", BookingDate: "2030-06-10",
		StartTime: "16:00:00", EndTime: "18:00:00", DurationHours: 2,
		HourlyRate: 400, TotalAmount: 800,
		Status: model.BookingConfirmed, PaymentStatus: model.PaymentPaid,
		PaymentRef: "pi_1",
	}

	rec, body := doJSON(t, fx.handler.Reschedule, http.MethodPost, "/api/v1/bookings/reschedule", `{
		"booking_id": "b-1",
		"booking_date": "2030-06-10",
		"start_time": "20:00",
		"duration_hours": 1
	}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	outcome := body["payment_outcome"].(map[string]any)
	if outcome["kind"] != "credit_due" || outcome["amount"].(float64) != 400 {
		t.Fatalf("outcome = %v", outcome)
	}
	if body["credit_refunded"] != true {
		t.Fatal("credit should have settled")
	}
	if len(fx.payments.refunded) != 1 || fx.payments.refunded[0] != 400 {
		t.Fatalf("provider refunds: %v", fx.payments.refunded)
	}
}

func TestList_FiltersByFieldAndDate(t *testing.T) {
	fx := newFixture(t)
	fx.bookings.byID["b-1"] = model.Booking{ID: "b-1", FieldID: "field-1", BookingDate: "2030-06-10"}
	fx.bookings.byID["b-2"] = model.Booking{ID: "b-2", FieldID: "field-1", BookingDate: "2030-06-11"}
	fx.bookings.byID["b-3"] = model.Booking{ID: "b-3", FieldID: "field-2", BookingDate: "2030-06-10"}

	rec, body := doJSON(t, fx.handler.Bookings, http.MethodGet,
		"/api/v1/bookings?field_id=field-1&date=2030-06-10", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	items := body["bookings"].([]any)
	if len(items) != 1 || items[0].(map[string]any)["booking_id"] != "b-1" {
		t.Fatalf("filter wrong: %v", items)
	}
}
