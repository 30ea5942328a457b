package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/timeutil"
)

// Manager owns appointment status transitions and the side effects that
// hang off them. Side effects are best effort: their failures are logged and
// counted, never returned.
type Manager struct {
	store     storage.Store
	reminders ReminderScheduler
	calendar  CalendarWriter
	payments  PaymentProcessor
	logger    *slog.Logger
	metrics   *metrics.BookingMetrics
	offsets   []time.Duration
	timeout   time.Duration
	now       func() time.Time
}

type Config struct {
	// ReminderOffsets are how long before the start each reminder fires.
	ReminderOffsets   []time.Duration
	SideEffectTimeout time.Duration
}

func NewManager(store storage.Store, reminders ReminderScheduler, calendar CalendarWriter, payments PaymentProcessor, logger *slog.Logger, m *metrics.BookingMetrics, cfg Config) *Manager {
	if len(cfg.ReminderOffsets) == 0 {
		cfg.ReminderOffsets = []time.Duration{24 * time.Hour, time.Hour}
	}
	if cfg.SideEffectTimeout <= 0 {
		cfg.SideEffectTimeout = 5 * time.Second
	}
	return &Manager{
		store:     store,
		reminders: reminders,
		calendar:  calendar,
		payments:  payments,
		logger:    logger,
		metrics:   m,
		offsets:   cfg.ReminderOffsets,
		timeout:   cfg.SideEffectTimeout,
		now:       time.Now,
	}
}

// OnBooked schedules the reminders and the calendar entry for a new booking.
func (m *Manager) OnBooked(ctx context.Context, appt model.Appointment) {
	start, err := timeutil.CombineDateTimeIn(appt.Date, appt.Time, location(appt.Timezone))
	if err != nil {
		m.logger.Error("cannot place appointment on the clock", "err", err, "appointment_id", appt.ID)
		return
	}

	now := m.now()
	for _, offset := range m.offsets {
		trigger := triggerFor(start, offset)
		if !trigger.After(now) {
			m.logger.Debug("reminder trigger already passed; skipped",
				"appointment_id", appt.ID, "offset", offset.String(), "trigger", trigger)
			continue
		}
		m.scheduleReminder(ctx, appt, trigger, reminderPayload(appt, offset))
	}
	m.createCalendarEvent(ctx, appt, start)
}

// Cancel moves a booked or reminded appointment to cancelled and withdraws its
// reminders and calendar entry. Cancelling a cancelled appointment returns it unchanged.
func (m *Manager) Cancel(ctx context.Context, id string, actor Actor, reason string) (model.Appointment, error) {
	var from model.Status
	appt, changed, err := m.store.UpdateStatus(ctx, id, model.StatusCancelled, strings.TrimSpace(reason), func(cur model.Appointment) (bool, error) {
		if !actor.system() && actor.ID != cur.CustomerID && actor.ID != cur.ProviderID {
			return false, apperr.ErrForbidden
		}
		if cur.Status == model.StatusCancelled {
			return false, nil
		}
		if !CanTransition(cur.Status, model.StatusCancelled) {
			return false, transitionError(cur.Status, model.StatusCancelled)
		}
		from = cur.Status
		return true, nil
	})
	if err != nil {
		return model.Appointment{}, err
	}
	if !changed {
		return appt, nil
	}
	m.metrics.ObserveTransition(string(from), string(model.StatusCancelled))
	m.logger.Info("appointment cancelled", "appointment_id", appt.ID, "by", actor.ID)

	m.cleanup(ctx, appt.ID, model.HandleReminder, model.HandleCalendarEvent)
	return appt, nil
}

// Complete is provider only. It stops outstanding reminders and hands the
// appointment to the payment processor.
func (m *Manager) Complete(ctx context.Context, id string, actor Actor) (model.Appointment, error) {
	var from model.Status
	appt, changed, err := m.store.UpdateStatus(ctx, id, model.StatusCompleted, "", func(cur model.Appointment) (bool, error) {
		if !actor.system() && actor.ID != cur.ProviderID {
			return false, apperr.ErrForbidden
		}
		if cur.Status == model.StatusCompleted {
			return false, nil
		}
		if !CanTransition(cur.Status, model.StatusCompleted) {
			return false, transitionError(cur.Status, model.StatusCompleted)
		}
		from = cur.Status
		return true, nil
	})
	if err != nil {
		return model.Appointment{}, err
	}
	if !changed {
		return appt, nil
	}
	m.metrics.ObserveTransition(string(from), string(model.StatusCompleted))
	m.logger.Info("appointment completed", "appointment_id", appt.ID)

	m.cleanup(ctx, appt.ID, model.HandleReminder)
	m.collectPayment(ctx, appt)
	return appt, nil
}

// MarkReminded records that a reminder fired. Reminders arriving after a
// terminal transition or a previous reminder are ignored.
func (m *Manager) MarkReminded(ctx context.Context, id string) (model.Appointment, bool, error) {
	appt, changed, err := m.store.UpdateStatus(ctx, id, model.StatusReminded, "", func(cur model.Appointment) (bool, error) {
		return cur.Status == model.StatusBooked, nil
	})
	if err != nil {
		return model.Appointment{}, false, err
	}
	if changed {
		m.metrics.ObserveTransition(string(model.StatusBooked), string(model.StatusReminded))
	} else {
		m.logger.Debug("reminder ignored", "appointment_id", id, "status", string(appt.Status))
	}
	return appt, changed, nil
}

func (m *Manager) scheduleReminder(ctx context.Context, appt model.Appointment, trigger time.Time, payload model.ReminderPayload) {
	if m.reminders == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	handle, err := m.reminders.ScheduleReminder(ctx, trigger, payload)
	m.metrics.ObserveSideEffect(string(model.HandleReminder), "schedule", err)
	if err != nil {
		m.logger.Warn("reminder scheduling failed", "err", err, "appointment_id", appt.ID, "trigger", trigger)
		return
	}
	m.saveHandle(ctx, appt.ID, model.HandleReminder, handle)
}

func (m *Manager) createCalendarEvent(ctx context.Context, appt model.Appointment, start time.Time) {
	if m.calendar == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	end := start.Add(time.Duration(appt.DurationMinutes()) * time.Minute)
	handle, err := m.calendar.CreateEvent(ctx, calendarTitle(appt), start, end, calendarNotes(appt))
	m.metrics.ObserveSideEffect(string(model.HandleCalendarEvent), "create", err)
	if err != nil {
		m.logger.Warn("calendar event creation failed", "err", err, "appointment_id", appt.ID)
		return
	}
	m.saveHandle(ctx, appt.ID, model.HandleCalendarEvent, handle)
}

func (m *Manager) saveHandle(ctx context.Context, appointmentID string, kind model.HandleKind, handle string) {
	if handle == "" {
		return
	}
	err := m.store.SaveHandle(ctx, model.SideEffectHandle{AppointmentID: appointmentID, Kind: kind, Handle: handle})
	if err != nil {
		m.logger.Warn("side effect handle not persisted", "err", err, "appointment_id", appointmentID, "kind", string(kind))
	}
}

// cleanup withdraws registrations of the given kinds. A handle is forgotten
// only once its withdrawal succeeded, so a later cleanup can retry it.
func (m *Manager) cleanup(ctx context.Context, appointmentID string, kinds ...model.HandleKind) {
	handles, err := m.store.ListHandles(ctx, appointmentID)
	if err != nil {
		m.logger.Warn("side effect handles unavailable; cleanup skipped", "err", err, "appointment_id", appointmentID)
		return
	}
	want := make(map[model.HandleKind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}

	for _, h := range handles {
		if !want[h.Kind] {
			continue
		}
		err := m.withdraw(ctx, h)
		m.metrics.ObserveSideEffect(string(h.Kind), "withdraw", err)
		if err != nil {
			m.logger.Warn("side effect cleanup failed", "err", err, "appointment_id", appointmentID, "kind", string(h.Kind), "handle", h.Handle)
			continue
		}
		if err := m.store.DeleteHandle(ctx, appointmentID, h.Kind, h.Handle); err != nil {
			m.logger.Warn("side effect handle not removed", "err", err, "appointment_id", appointmentID)
		}
	}
}

func (m *Manager) withdraw(ctx context.Context, h model.SideEffectHandle) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	switch h.Kind {
	case model.HandleReminder:
		if m.reminders == nil {
			return nil
		}
		return m.reminders.CancelReminder(ctx, h.Handle)
	case model.HandleCalendarEvent:
		if m.calendar == nil {
			return nil
		}
		return m.calendar.DeleteEvent(ctx, h.Handle)
	default:
		return fmt.Errorf("unknown handle kind %q", h.Kind)
	}
}

func (m *Manager) collectPayment(ctx context.Context, appt model.Appointment) {
	if m.payments == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	ref, err := m.payments.CollectPayment(ctx, appt)
	m.metrics.ObserveSideEffect("payment", "collect", err)
	if err != nil {
		m.logger.Warn("payment collection failed", "err", err, "appointment_id", appt.ID)
		return
	}
	if ref != "" {
		m.logger.Info("payment collected", "appointment_id", appt.ID, "reference", ref)
	}
}

func location(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// triggerFor keeps whole-day offsets on the same wall-clock time across DST changes.
func triggerFor(start time.Time, offset time.Duration) time.Time {
	if offset%(24*time.Hour) == 0 {
		return start.AddDate(0, 0, -int(offset/(24*time.Hour)))
	}
	return start.Add(-offset)
}
