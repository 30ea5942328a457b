package storage

import (
	"context"

	"github.com/md-rashed-zaman/chairbook/libs/db"
)

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

type Notification struct {
	AppointmentID string
	Channel       string
	Recipient     string
	RemindAt      string
	Title         string
	Body          string
	Provider      string
	Status        string
	Error         string
}

// Repository is stateless; callers pass the transaction the row belongs to.
type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

// Insert records a delivery attempt. A second attempt for the same
// appointment, trigger and channel is ignored and reports false.
func (r *Repository) Insert(ctx context.Context, tx db.Execer, n Notification) (bool, error) {
	tag, err := tx.Exec(ctx, `
		INSERT INTO notifications (appointment_id, channel, recipient, remind_at, title, body, provider, status, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''))
		ON CONFLICT (appointment_id, remind_at, channel) DO NOTHING
	`, n.AppointmentID, n.Channel, n.Recipient, n.RemindAt, n.Title, n.Body, n.Provider, n.Status, n.Error)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
