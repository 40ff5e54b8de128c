package storage

import (
	"context"
	"encoding/json"

	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/libs/db"
)

// Notification is the delivery record for one booking message on one channel.
type Notification struct {
	BookingID string
	EventType string
	Channel   string
	Recipient string
	Payload   map[string]any
	Status    string
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO notifications (booking_id, event_type, channel, recipient, payload, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, n.BookingID, n.EventType, n.Channel, n.Recipient, payload, n.Status)
	return err
}
