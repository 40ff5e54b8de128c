package payments

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"

	"github.com/stripe/stripe-go/v79"
	striperefund "github.com/stripe/stripe-go/v79/refund"
)

// Client issues refunds against the payment provider. An empty secret key
// disables it; callers then leave the credit pending for manual settlement.
type Client struct {
	secretKey string
	logger    *slog.Logger
}

func NewClient(secretKey string, logger *slog.Logger) *Client {
	return &Client{secretKey: strings.TrimSpace(secretKey), logger: logger}
}

func (c *Client) Enabled() bool {
	return c != nil && c.secretKey != ""
}

// RefundCredit refunds amount (in the booking currency, rands) against the
// payment intent recorded on the booking.
func (c *Client) RefundCredit(ctx context.Context, paymentRef string, amount float64) error {
	if !c.Enabled() {
		return errors.New("payment provider not configured")
	}
	if strings.TrimSpace(paymentRef) == "" {
		return errors.New("booking has no payment reference")
	}
	cents := int64(math.Round(amount * 100))
	if cents <= 0 {
		return errors.New("refund amount must be positive")
	}

	stripe.Key = c.secretKey
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentRef),
		Amount:        stripe.Int64(cents),
	}
	params.Context = ctx

	ref, err := striperefund.New(params)
	if err != nil {
		return err
	}
	c.logger.Info("payment refunded",
		"provider", "stripe",
		"payment_ref", paymentRef,
		"refund_id", ref.ID,
		"amount_cents", cents,
	)
	return nil
}
