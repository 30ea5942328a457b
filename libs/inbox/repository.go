package inbox

import (
	"context"

	"github.com/md-rashed-zaman/chairbook/libs/db"
)

// Repository deduplicates consumed Kafka events by event id.
type Repository struct {
	exec db.Execer
}

func NewRepository(exec db.Execer) *Repository {
	return &Repository{exec: exec}
}

// Record returns false when the event was already seen.
func (r *Repository) Record(ctx context.Context, eventID string, eventType string) (bool, error) {
	_, err := r.exec.Exec(ctx, `
		INSERT INTO inbox_events (event_id, event_type)
		VALUES ($1, $2)
	`, eventID, eventType)
	if err == nil {
		return true, nil
	}
	if db.IsUniqueViolation(err) {
		return false, nil
	}
	return false, err
}

// Forget removes an event so a failed handler can see it again on redelivery.
func (r *Repository) Forget(ctx context.Context, eventID string) error {
	_, err := r.exec.Exec(ctx, `DELETE FROM inbox_events WHERE event_id = $1`, eventID)
	return err
}
