package notify

import (
	"fmt"
	"time"
)

// BookingEvent is the consumed shape of reservation.booking.* payloads.
type BookingEvent struct {
	BookingID     string   `json:"booking_id"`
	FieldID       string   `json:"field_id"`
	CustomerName  string   `json:"customer_name"`
	CustomerEmail string   `json:"customer_email"`
	CustomerPhone string   `json:"customer_phone"`
	BookingDate   string   `json:"booking_date"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
	TotalAmount   float64  `json:"total_amount"`
	PaymentStatus string   `json:"payment_status"`
	RefundAmount  *float64 `json:"refund_amount"`
	CancelReason  string   `json:"cancel_reason"`

	PreviousBookingID string `json:"previous_booking_id"`
}

type Message struct {
	Subject string
	Body    string
}

const (
	TopicBookingCreated     = "reservation.booking.created.v1"
	TopicBookingCancelled   = "reservation.booking.cancelled.v1"
	TopicBookingRescheduled = "reservation.booking.rescheduled.v1"
)

// Compose renders the customer-facing message for an event type. The second
// return is false for event types that carry no customer notification.
func Compose(eventType string, evt BookingEvent) (Message, bool) {
	when := fmt.Sprintf("%s from %s to %s", humanDate(evt.BookingDate), clock(evt.StartTime), clock(evt.EndTime))

	switch eventType {
	case TopicBookingCreated:
		body := fmt.Sprintf("Hi %s,\n\nYour field booking is in: %s.\nTotal: R%.2f.",
			evt.CustomerName, when, evt.TotalAmount)
		if evt.PaymentStatus == "pending" {
			body += "\nPlease complete payment to confirm your slot."
		}
		if evt.PaymentStatus == "manual_pending" {
			body += "\nPayment is due at the venue before kick-off."
		}
		return Message{Subject: "Booking received: " + when, Body: body}, true

	case TopicBookingCancelled:
		body := fmt.Sprintf("Hi %s,\n\nYour booking for %s has been cancelled.",
			evt.CustomerName, when)
		if evt.CancelReason != "" {
			body += "\nReason: " + evt.CancelReason + "."
		}
		if evt.RefundAmount != nil && *evt.RefundAmount > 0 {
			body += fmt.Sprintf("\nA refund of R%.2f is on its way.", *evt.RefundAmount)
		}
		return Message{Subject: "Booking cancelled: " + when, Body: body}, true

	case TopicBookingRescheduled:
		body := fmt.Sprintf("Hi %s,\n\nYour booking has moved to %s.\nTotal: R%.2f.",
			evt.CustomerName, when, evt.TotalAmount)
		if evt.PaymentStatus == "pending" {
			body += "\nAn outstanding balance remains; please complete payment to confirm."
		}
		return Message{Subject: "Booking moved: " + when, Body: body}, true
	}

	return Message{}, false
}

func humanDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("Monday 02 January 2006")
}

// clock trims HH:MM:SS to HH:MM for display.
func clock(s string) string {
	if len(s) >= 5 {
		return s[:5]
	}
	return s
}
