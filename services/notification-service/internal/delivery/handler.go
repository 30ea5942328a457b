package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/md-rashed-zaman/chairbook/libs/events"
	"github.com/md-rashed-zaman/chairbook/libs/kafkax"
	"github.com/md-rashed-zaman/chairbook/libs/outbox"
	"github.com/md-rashed-zaman/chairbook/services/notification-service/internal/push"
	"github.com/md-rashed-zaman/chairbook/services/notification-service/internal/storage"
	"github.com/segmentio/kafka-go"
)

type Config struct {
	SendTimeout time.Duration
}

type Deliverer struct {
	pool    outbox.Beginner
	repo    *storage.Repository
	outbox  *outbox.Repository
	sender  push.Sender
	logger  *slog.Logger
	timeout time.Duration
}

func NewDeliverer(pool outbox.Beginner, repo *storage.Repository, outboxRepo *outbox.Repository, sender push.Sender, logger *slog.Logger, cfg Config) *Deliverer {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 5 * time.Second
	}
	return &Deliverer{
		pool:    pool,
		repo:    repo,
		outbox:  outboxRepo,
		sender:  sender,
		logger:  logger,
		timeout: cfg.SendTimeout,
	}
}

// Handler consumes scheduler.reminder.due.v1. A failed send is recorded and
// reported as notification.failed.v1 rather than retried.
func (d *Deliverer) Handler() kafkax.Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var due events.ReminderDue
		if err := json.Unmarshal(msg.Value, &due); err != nil {
			return fmt.Errorf("%w: decode reminder due: %v", kafkax.ErrPermanent, err)
		}
		if strings.TrimSpace(due.AppointmentID) == "" || strings.TrimSpace(due.Recipient) == "" {
			return fmt.Errorf("%w: reminder due without appointment_id or recipient", kafkax.ErrPermanent)
		}
		if due.Channel != events.ChannelPush {
			return fmt.Errorf("%w: unsupported channel %q", kafkax.ErrPermanent, due.Channel)
		}
		return d.Deliver(ctx, due)
	}
}

func (d *Deliverer) Deliver(ctx context.Context, due events.ReminderDue) error {
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	sendErr := d.sender.Send(sendCtx, push.Message{
		AppointmentID: due.AppointmentID,
		Recipient:     due.Recipient,
		Title:         due.Title,
		Body:          due.Body,
	})
	cancel()

	n := storage.Notification{
		AppointmentID: due.AppointmentID,
		Channel:       due.Channel,
		Recipient:     due.Recipient,
		RemindAt:      due.RemindAt,
		Title:         due.Title,
		Body:          due.Body,
		Provider:      d.sender.ProviderID(),
		Status:        storage.StatusSent,
	}
	result := events.NotificationResult{
		AppointmentID: due.AppointmentID,
		Channel:       due.Channel,
		Recipient:     due.Recipient,
		RemindAt:      due.RemindAt,
		Provider:      n.Provider,
	}
	topic := events.TopicNotificationSent
	if sendErr != nil {
		n.Status = storage.StatusFailed
		n.Error = sendErr.Error()
		result.Error = n.Error
		topic = events.TopicNotificationFailed
		d.logger.Warn("push delivery failed", "appointment_id", due.AppointmentID, "err", sendErr)
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	inserted, err := d.repo.Insert(ctx, tx, n)
	if err != nil {
		return err
	}
	if !inserted {
		d.logger.Info("duplicate reminder delivery ignored", "appointment_id", due.AppointmentID, "remind_at", due.RemindAt)
		return tx.Commit(ctx)
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if err := d.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "notification",
		AggregateID:   due.AppointmentID,
		EventType:     topic,
		Payload:       payload,
	}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	if sendErr == nil {
		d.logger.Info("push delivered", "appointment_id", due.AppointmentID, "recipient", due.Recipient)
	}
	return nil
}
