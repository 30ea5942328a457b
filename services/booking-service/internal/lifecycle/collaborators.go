package lifecycle

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
)

// ReminderScheduler registers a reminder with the reminder facility.
// Handles are opaque and only meaningful to CancelReminder.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, trigger time.Time, payload model.ReminderPayload) (string, error)
	CancelReminder(ctx context.Context, handle string) error
}

type CalendarWriter interface {
	CreateEvent(ctx context.Context, title string, start, end time.Time, notes string) (string, error)
	DeleteEvent(ctx context.Context, handle string) error
}

// PaymentProcessor collects payment for a completed appointment and returns a
// processor reference.
type PaymentProcessor interface {
	CollectPayment(ctx context.Context, appt model.Appointment) (string, error)
}

// Actor is whoever asks for a transition. An empty ID is the system itself.
type Actor struct {
	ID         string
	IsProvider bool
}

func (a Actor) system() bool { return a.ID == "" }
