package reminderstats

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
	"github.com/segmentio/kafka-go"
)

type Outcome string

const (
	OutcomeSent         Outcome = "sent"
	OutcomeFailed       Outcome = "failed"
	OutcomeDeadLettered Outcome = "dead_lettered"
)

type sample struct {
	AppointmentID string
	Channel       string
	RemindAt      time.Time
}

// Recorder folds reminder outcome events into daily per-channel counters.
// Each event id is counted once even if Kafka redelivers it past the inbox.
type Recorder struct {
	pool   outbox.Beginner
	logger *slog.Logger
}

func NewRecorder(pool outbox.Beginner, logger *slog.Logger) *Recorder {
	return &Recorder{pool: pool, logger: logger}
}

func (r *Recorder) Sent() kafkax.Handler {
	return r.notificationHandler(OutcomeSent)
}

func (r *Recorder) Failed() kafkax.Handler {
	return r.notificationHandler(OutcomeFailed)
}

func (r *Recorder) notificationHandler(outcome Outcome) kafkax.Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var res events.NotificationResult
		if err := json.Unmarshal(msg.Value, &res); err != nil {
			return fmt.Errorf("%w: decode notification result: %v", kafkax.ErrPermanent, err)
		}
		s, err := parseSample(res.AppointmentID, res.Channel, res.RemindAt)
		if err != nil {
			return err
		}
		return r.record(ctx, kafkax.ExtractEventMeta(msg), outcome, s)
	}
}

func (r *Recorder) DeadLettered() kafkax.Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var dl events.ReminderDeadLettered
		if err := json.Unmarshal(msg.Value, &dl); err != nil {
			return fmt.Errorf("%w: decode dead-lettered reminder: %v", kafkax.ErrPermanent, err)
		}
		s, err := parseSample(dl.AppointmentID, dl.Channel, dl.RemindAt)
		if err != nil {
			return err
		}
		r.logger.Warn("reminder dead-lettered", "appointment_id", dl.AppointmentID, "reason", dl.ErrorReason)
		return r.record(ctx, kafkax.ExtractEventMeta(msg), OutcomeDeadLettered, s)
	}
}

func parseSample(appointmentID, channel, remindAt string) (sample, error) {
	if strings.TrimSpace(appointmentID) == "" || strings.TrimSpace(channel) == "" {
		return sample{}, fmt.Errorf("%w: missing appointment_id or channel", kafkax.ErrPermanent)
	}
	at, err := time.Parse(time.RFC3339, remindAt)
	if err != nil {
		return sample{}, fmt.Errorf("%w: invalid remind_at %q", kafkax.ErrPermanent, remindAt)
	}
	return sample{AppointmentID: appointmentID, Channel: channel, RemindAt: at.UTC()}, nil
}

func (r *Recorder) record(ctx context.Context, meta kafkax.EventMeta, outcome Outcome, s sample) error {
	if meta.EventID == "" {
		return fmt.Errorf("%w: message without event id", kafkax.ErrPermanent)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		INSERT INTO reminder_events (event_id, event_type, appointment_id, channel, outcome, remind_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id) DO NOTHING
	`, meta.EventID, meta.EventType, s.AppointmentID, s.Channel, string(outcome), s.RemindAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return tx.Commit(ctx)
	}

	var sent, failed, dead int
	switch outcome {
	case OutcomeSent:
		sent = 1
	case OutcomeFailed:
		failed = 1
	case OutcomeDeadLettered:
		dead = 1
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO daily_reminder_metrics (day, channel, sent_count, failed_count, dead_lettered_count)
		VALUES ($1::date, $2, $3, $4, $5)
		ON CONFLICT (day, channel)
		DO UPDATE SET sent_count = daily_reminder_metrics.sent_count + EXCLUDED.sent_count,
		              failed_count = daily_reminder_metrics.failed_count + EXCLUDED.failed_count,
		              dead_lettered_count = daily_reminder_metrics.dead_lettered_count + EXCLUDED.dead_lettered_count,
		              updated_at = now()
	`, s.RemindAt, s.Channel, sent, failed, dead); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	r.logger.Info("reminder metric recorded", "appointment_id", s.AppointmentID, "outcome", string(outcome), "event_type", meta.EventType)
	return nil
}
