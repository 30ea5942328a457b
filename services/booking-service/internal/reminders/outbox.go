package reminders

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/md-rashed-zaman/chairbook/libs/db"
	"github.com/md-rashed-zaman/chairbook/libs/events"
	"github.com/md-rashed-zaman/chairbook/libs/outbox"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
)

// OutboxScheduler hands reminders to the scheduler service through the
// outbox table. The returned handle is the scheduler's idempotency key.
type OutboxScheduler struct {
	db     db.Execer
	outbox *outbox.Repository
}

func NewOutboxScheduler(conn db.Execer, repo *outbox.Repository) *OutboxScheduler {
	return &OutboxScheduler{db: conn, outbox: repo}
}

func (s *OutboxScheduler) ScheduleReminder(ctx context.Context, trigger time.Time, payload model.ReminderPayload) (string, error) {
	req := events.ReminderRequested{
		AppointmentID: payload.AppointmentID,
		Recipient:     payload.CustomerID,
		Channel:       events.ChannelPush,
		RemindAt:      trigger.UTC().Format(time.RFC3339),
		Title:         payload.Title,
		Body:          payload.Body,
	}
	if _, err := req.Validate(); err != nil {
		return "", err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	if err := s.outbox.Insert(ctx, s.db, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   payload.AppointmentID,
		EventType:     events.TopicReminderRequested,
		Payload:       body,
	}); err != nil {
		return "", err
	}
	return req.Key(), nil
}

func (s *OutboxScheduler) CancelReminder(ctx context.Context, handle string) error {
	appointmentID, _, ok := strings.Cut(handle, "|")
	if !ok || appointmentID == "" {
		return errors.New("malformed reminder handle")
	}
	body, err := json.Marshal(events.ReminderCancelled{AppointmentID: appointmentID, IdempotencyKey: handle})
	if err != nil {
		return err
	}
	return s.outbox.Insert(ctx, s.db, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appointmentID,
		EventType:     events.TopicReminderCancelled,
		Payload:       body,
	})
}
