package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/md-rashed-zaman/chairbook/libs/events"
	"github.com/md-rashed-zaman/chairbook/libs/kafkax"
	"github.com/md-rashed-zaman/chairbook/libs/outbox"
	"github.com/segmentio/kafka-go"
)

// RequestedHandler stores each booking.reminder.requested.v1 event as a job.
func RequestedHandler(pool outbox.Beginner, repo *Repository, logger *slog.Logger) kafkax.Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var req events.ReminderRequested
		if err := json.Unmarshal(msg.Value, &req); err != nil {
			return fmt.Errorf("%w: decode reminder request: %v", kafkax.ErrPermanent, err)
		}
		remindAt, err := req.Validate()
		if err != nil {
			return fmt.Errorf("%w: %v", kafkax.ErrPermanent, err)
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		inserted, err := repo.Insert(ctx, tx, Job{
			IdempotencyKey: req.Key(),
			AppointmentID:  req.AppointmentID,
			Channel:        req.Channel,
			Recipient:      req.Recipient,
			RemindAt:       remindAt,
			Title:          req.Title,
			Body:           req.Body,
		})
		if err != nil {
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return err
		}
		if inserted {
			logger.Info("reminder scheduled", "appointment_id", req.AppointmentID, "remind_at", req.RemindAt)
		}
		return nil
	}
}

// CancelledHandler withdraws jobs named by booking.reminder.cancelled.v1 events.
func CancelledHandler(pool outbox.Beginner, repo *Repository, logger *slog.Logger) kafkax.Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var c events.ReminderCancelled
		if err := json.Unmarshal(msg.Value, &c); err != nil {
			return fmt.Errorf("%w: decode reminder cancellation: %v", kafkax.ErrPermanent, err)
		}
		if c.IdempotencyKey == "" {
			return fmt.Errorf("%w: reminder cancellation without idempotency_key", kafkax.ErrPermanent)
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		cancelled, err := repo.Cancel(ctx, tx, c.IdempotencyKey)
		if err != nil {
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return err
		}
		logger.Info("reminder cancelled", "appointment_id", c.AppointmentID, "was_pending", cancelled)
		return nil
	}
}
