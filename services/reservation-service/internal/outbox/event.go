package outbox

import (
	"encoding/json"

	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/model"
)

// Kafka topic names equal the event type (event per topic).
const (
	EventBookingCreated     = "reservation.booking.created.v1"
	EventBookingCancelled   = "reservation.booking.cancelled.v1"
	EventBookingRescheduled = "reservation.booking.rescheduled.v1"
	EventBookingCompleted   = "reservation.booking.completed.v1"
)

// Event is the domain event envelope written to the outbox table.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// BookingPayload is the wire shape shared by all booking events.
type BookingPayload struct {
	BookingID     string   `json:"booking_id"`
	FieldID       string   `json:"field_id"`
	CustomerName  string   `json:"customer_name"`
	CustomerEmail string   `json:"customer_email"`
	CustomerPhone string   `json:"customer_phone,omitempty"`
	BookingDate   string   `json:"booking_date"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
	DurationHours int      `json:"duration_hours"`
	TotalAmount   float64  `json:"total_amount"`
	Status        string   `json:"status"`
	PaymentStatus string   `json:"payment_status"`
	RefundAmount  *float64 `json:"refund_amount,omitempty"`
	CancelReason  string   `json:"cancel_reason,omitempty"`

	// Set on rescheduled events only.
	PreviousBookingID string `json:"previous_booking_id,omitempty"`
}

func bookingEvent(eventType string, p BookingPayload) Event {
	payload, _ := json.Marshal(p)
	return Event{
		AggregateType: "booking",
		AggregateID:   p.BookingID,
		EventType:     eventType,
		Payload:       payload,
	}
}

func payloadFrom(b model.Booking) BookingPayload {
	return BookingPayload{
		BookingID:     b.ID,
		FieldID:       b.FieldID,
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		CustomerPhone: b.CustomerPhone,
		BookingDate:   b.BookingDate,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		DurationHours: b.DurationHours,
		TotalAmount:   b.TotalAmount,
		Status:        string(b.Status),
		PaymentStatus: string(b.PaymentStatus),
		RefundAmount:  b.RefundAmount,
	}
}

func BookingCreated(b model.Booking) Event {
	return bookingEvent(EventBookingCreated, payloadFrom(b))
}

func BookingCancelled(b model.Booking, reason string) Event {
	p := payloadFrom(b)
	p.CancelReason = reason
	return bookingEvent(EventBookingCancelled, p)
}

func BookingRescheduled(b model.Booking, previousID string) Event {
	p := payloadFrom(b)
	p.PreviousBookingID = previousID
	return bookingEvent(EventBookingRescheduled, p)
}

func BookingCompleted(b model.Booking) Event {
	return bookingEvent(EventBookingCompleted, payloadFrom(b))
}
