package refund

import (
	"encoding/json"
	"strconv"

	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/model"
)

// Record is a booking-like document from an upstream store. Historical
// clients wrote the refund figure under several different key names; the
// resolver normalizes them behind one prioritized lookup.
type Record map[string]any

// Explicit refund-style keys, in priority order. First numeric hit wins.
var refundKeys = []string{
	"refund_amount",
	"refundAmount",
	"amount_refunded",
	"refund",
}

// Balance-style keys: negative values mean money owed to the customer.
var balanceKeys = []string{
	"balance_due",
	"balanceDue",
	"outstanding_balance",
	"balance",
}

// Adjustment resolves the signed settlement amount for a record: negative
// means owed to the customer, positive or zero means owed by the customer or
// already settled.
func Adjustment(r Record) float64 {
	if explicit, ok := ExplicitRefund(r); ok {
		return -explicit
	}

	if balance, ok := r.number(balanceKeys...); ok && balance < 0 {
		return balance
	}

	total, _ := r.number("total_amount", "totalAmount")
	status, _ := r.str("status")
	payment, _ := r.str("payment_status")
	if status == string(model.BookingCancelled) &&
		(payment == string(model.PaymentPaid) || payment == string(model.PaymentRefunded)) &&
		total > 0 {
		return -total
	}
	return total
}

// ExplicitRefund returns the unsigned refund figure when the record carries
// one of the explicit refund fields. Display code uses this; settlement logic
// uses Adjustment.
func ExplicitRefund(r Record) (float64, bool) {
	return r.number(refundKeys...)
}

func (r Record) number(keys ...string) (float64, bool) {
	for _, key := range keys {
		v, ok := r[key]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case float32:
			return float64(n), true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f, true
			}
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func (r Record) str(key string) (string, bool) {
	v, ok := r[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// FromBooking projects a stored booking into a Record so the same resolution
// path serves both raw upstream documents and our own rows.
func FromBooking(b model.Booking) Record {
	r := Record{
		"status":         string(b.Status),
		"payment_status": string(b.PaymentStatus),
		"total_amount":   b.TotalAmount,
	}
	if b.RefundAmount != nil {
		r["refund_amount"] = *b.RefundAmount
	}
	return r
}
