package events

import (
	"errors"
	"strings"
	"time"
)

const (
	TopicReminderRequested = "booking.reminder.requested.v1"
	TopicReminderCancelled = "booking.reminder.cancelled.v1"
	TopicReminderDue       = "scheduler.reminder.due.v1"
	TopicReminderDLQ       = "scheduler.reminder.dlq.v1"

	ChannelPush = "push"
)

// ReminderRequested asks the scheduler to fire a reminder at RemindAt.
type ReminderRequested struct {
	AppointmentID string `json:"appointment_id"`
	Recipient     string `json:"recipient"`
	Channel       string `json:"channel"`
	RemindAt      string `json:"remind_at"`
	Title         string `json:"title"`
	Body          string `json:"body"`
}

// ReminderCancelled withdraws a reminder by the key it was scheduled under.
type ReminderCancelled struct {
	AppointmentID  string `json:"appointment_id"`
	IdempotencyKey string `json:"idempotency_key"`
}

// ReminderDue is emitted by the scheduler once a reminder's time arrives.
type ReminderDue struct {
	AppointmentID string `json:"appointment_id"`
	Recipient     string `json:"recipient"`
	Channel       string `json:"channel"`
	RemindAt      string `json:"remind_at"`
	Title         string `json:"title"`
	Body          string `json:"body"`
}

// ReminderDeadLettered is emitted when the scheduler gives up on a reminder.
type ReminderDeadLettered struct {
	IdempotencyKey string `json:"idempotency_key"`
	AppointmentID  string `json:"appointment_id"`
	Recipient      string `json:"recipient"`
	Channel        string `json:"channel"`
	RemindAt       string `json:"remind_at"`
	ErrorReason    string `json:"error_reason"`
	FailedAt       string `json:"failed_at"`
}

// ReminderKey is the idempotency key a reminder is scheduled and cancelled under.
func ReminderKey(appointmentID string, remindAt time.Time, channel string) string {
	return appointmentID + "|" + remindAt.UTC().Format(time.RFC3339) + "|" + channel
}

// Validate checks the fields the scheduler needs and returns the parsed trigger time.
func (r ReminderRequested) Validate() (time.Time, error) {
	if strings.TrimSpace(r.AppointmentID) == "" || strings.TrimSpace(r.Recipient) == "" || strings.TrimSpace(r.Channel) == "" {
		return time.Time{}, errors.New("reminder request: missing appointment_id, recipient or channel")
	}
	at, err := time.Parse(time.RFC3339, r.RemindAt)
	if err != nil {
		return time.Time{}, errors.New("reminder request: invalid remind_at")
	}
	return at, nil
}

func (r ReminderRequested) Key() string {
	at, err := time.Parse(time.RFC3339, r.RemindAt)
	if err != nil {
		return r.AppointmentID + "|" + r.RemindAt + "|" + r.Channel
	}
	return ReminderKey(r.AppointmentID, at, r.Channel)
}
