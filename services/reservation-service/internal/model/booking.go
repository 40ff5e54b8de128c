package model

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "pending"
	PaymentManualPending PaymentStatus = "manual_pending"
	PaymentPaid          PaymentStatus = "paid"
	PaymentRefunded      PaymentStatus = "refunded"
	PaymentFailed        PaymentStatus = "failed"
)

// Booking is the engine's read model of a stored reservation. Times are
// field-local clock strings; BookingDate is the local calendar date.
type Booking struct {
	ID            string
	FieldID       string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	BookingDate   string // YYYY-MM-DD
	StartTime     string // HH:MM:SS
	EndTime       string // HH:MM:SS
	DurationHours int
	HourlyRate    float64
	TotalAmount   float64
	Status        BookingStatus
	PaymentStatus PaymentStatus
	PaymentRef    string
	RefundAmount  *float64
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StartsAt anchors the booking's local start clock on its calendar date.
// Returns false when either part cannot be parsed.
func (b Booking) StartsAt() (time.Time, bool) {
	day, err := time.ParseInLocation("2006-01-02", b.BookingDate, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	clock, err := parseClock(b.StartTime)
	if err != nil {
		return time.Time{}, false
	}
	return day.Add(clock), true
}

// EndsAt is the booking's local end datetime; false when unparseable.
func (b Booking) EndsAt() (time.Time, bool) {
	day, err := time.ParseInLocation("2006-01-02", b.BookingDate, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	clock, err := parseClock(b.EndTime)
	if err != nil {
		return time.Time{}, false
	}
	return day.Add(clock), true
}

func parseClock(s string) (time.Duration, error) {
	layouts := []string{"15:04:05", "15:04"}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
		}
		lastErr = err
	}
	return 0, lastErr
}

// BookingRequest is the create-booking payload handed to the booking store.
// Carryover fields are set only when the request replaces a paid booking.
type BookingRequest struct {
	FieldID       string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	BookingDate   string
	StartTime     string // HH:MM:SS
	EndTime       string // HH:MM:SS
	DurationHours int
	HourlyRate    float64
	TotalAmount   float64
	Status        BookingStatus
	PaymentStatus PaymentStatus
	Notes         string

	OriginalBookingID     string
	OriginalTotalAmount   float64
	OriginalPaymentStatus PaymentStatus
	PaymentAdjustment     float64
}
