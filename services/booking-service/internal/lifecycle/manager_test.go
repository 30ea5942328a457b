package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/md-rashed-zaman/chairbook/libs/runtime"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scheduledReminder struct {
	trigger time.Time
	payload model.ReminderPayload
}

type fakeReminders struct {
	mu        sync.Mutex
	scheduled []scheduledReminder
	cancelled []string
	failWith  error
}

func (f *fakeReminders) ScheduleReminder(_ context.Context, trigger time.Time, payload model.ReminderPayload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return "", f.failWith
	}
	f.scheduled = append(f.scheduled, scheduledReminder{trigger: trigger, payload: payload})
	return fmt.Sprintf("rem-%d", len(f.scheduled)), nil
}

func (f *fakeReminders) CancelReminder(_ context.Context, handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, handle)
	return nil
}

type calendarEvent struct {
	title      string
	start, end time.Time
	notes      string
}

type fakeCalendar struct {
	events    []calendarEvent
	deleted   []string
	deleteErr error
}

func (f *fakeCalendar) CreateEvent(_ context.Context, title string, start, end time.Time, notes string) (string, error) {
	f.events = append(f.events, calendarEvent{title: title, start: start, end: end, notes: notes})
	return "evt-1", nil
}

func (f *fakeCalendar) DeleteEvent(_ context.Context, handle string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, handle)
	return nil
}

type fakePayments struct {
	collected []string
}

func (f *fakePayments) CollectPayment(_ context.Context, appt model.Appointment) (string, error) {
	f.collected = append(f.collected, appt.ID)
	return "pi_123", nil
}

type fixture struct {
	manager   *Manager
	store     *storage.MemoryStore
	reminders *fakeReminders
	calendar  *fakeCalendar
	payments  *fakePayments
}

func newFixture(t *testing.T, now time.Time) fixture {
	t.Helper()
	f := fixture{
		store:     storage.NewMemoryStore(),
		reminders: &fakeReminders{},
		calendar:  &fakeCalendar{},
		payments:  &fakePayments{},
	}
	f.manager = NewManager(f.store, f.reminders, f.calendar, f.payments, runtime.DiscardLogger(), nil, Config{})
	f.manager.now = func() time.Time { return now }
	return f
}

func (f fixture) book(t *testing.T, date, clock string) model.Appointment {
	t.Helper()
	appt, err := f.store.InsertBooking(context.Background(), model.Appointment{
		ProviderID:      "barber-1",
		CustomerID:      "cust-1",
		ProviderName:    "Sam",
		CustomerName:    "Alex",
		Date:            date,
		Time:            clock,
		Timezone:        "UTC",
		ServiceName:     "Haircut",
		ServicePrice:    "20.00",
		ServiceDuration: 45,
	})
	require.NoError(t, err)
	return appt
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(model.StatusBooked, model.StatusReminded))
	assert.True(t, CanTransition(model.StatusBooked, model.StatusCancelled))
	assert.True(t, CanTransition(model.StatusBooked, model.StatusCompleted))
	assert.True(t, CanTransition(model.StatusReminded, model.StatusCompleted))
	assert.False(t, CanTransition(model.StatusCancelled, model.StatusBooked))
	assert.False(t, CanTransition(model.StatusCompleted, model.StatusCancelled))
	assert.False(t, CanTransition(model.StatusReminded, model.StatusBooked))
}

func TestOnBookedSchedulesRemindersAndCalendar(t *testing.T) {
	f := newFixture(t, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	appt := f.book(t, "2025-03-11", "10:20 AM")

	f.manager.OnBooked(context.Background(), appt)

	require.Len(t, f.reminders.scheduled, 2)
	day := f.reminders.scheduled[0]
	assert.Equal(t, time.Date(2025, 3, 10, 10, 20, 0, 0, time.UTC), day.trigger)
	assert.Equal(t, "Appointment Reminder", day.payload.Title)
	assert.Equal(t, "You have a Haircut appointment with Sam tomorrow at 10:20 AM.", day.payload.Body)
	assert.Equal(t, appt.ID, day.payload.AppointmentID)

	hour := f.reminders.scheduled[1]
	assert.Equal(t, time.Date(2025, 3, 11, 9, 20, 0, 0, time.UTC), hour.trigger)
	assert.Equal(t, "Upcoming Appointment", hour.payload.Title)
	assert.Equal(t, "Your Haircut appointment with Sam is in 1 hour.", hour.payload.Body)

	require.Len(t, f.calendar.events, 1)
	ev := f.calendar.events[0]
	assert.Equal(t, "Haircut with Sam", ev.title)
	assert.Equal(t, 45*time.Minute, ev.end.Sub(ev.start))
	assert.Contains(t, ev.notes, "Customer: Alex")

	handles, err := f.store.ListHandles(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Len(t, handles, 3)
}

func TestOnBookedSkipsPastTriggers(t *testing.T) {
	// Thirty minutes before the appointment: both reminders are already due.
	f := newFixture(t, time.Date(2025, 3, 11, 9, 50, 0, 0, time.UTC))
	appt := f.book(t, "2025-03-11", "10:20 AM")

	f.manager.OnBooked(context.Background(), appt)

	assert.Empty(t, f.reminders.scheduled)
	assert.Len(t, f.calendar.events, 1)
}

func TestOnBookedWholeDayOffsetKeepsWallClockAcrossDST(t *testing.T) {
	f := newFixture(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	// 2025-03-10 is the Monday after US daylight saving starts.
	appt := f.book(t, "2025-03-10", "9:00 AM")
	appt.Timezone = "America/New_York"

	f.manager.OnBooked(context.Background(), appt)

	require.NotEmpty(t, f.reminders.scheduled)
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	trig := f.reminders.scheduled[0].trigger.In(loc)
	assert.Equal(t, 9, trig.Hour())
	assert.Equal(t, 9, trig.Day())
}

func TestOnBookedReminderFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	f.reminders.failWith = errors.New("scheduler down")
	appt := f.book(t, "2025-03-11", "10:20 AM")

	f.manager.OnBooked(context.Background(), appt)

	handles, err := f.store.ListHandles(context.Background(), appt.ID)
	require.NoError(t, err)
	require.Len(t, handles, 1)
	assert.Equal(t, model.HandleCalendarEvent, handles[0].Kind)
}

func TestCancelWithdrawsSideEffects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	appt := f.book(t, "2025-03-11", "10:20 AM")
	f.manager.OnBooked(ctx, appt)

	got, err := f.manager.Cancel(ctx, appt.ID, Actor{ID: "cust-1"}, " changed plans ")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)
	assert.Equal(t, "changed plans", got.CancelReason)
	require.NotNil(t, got.CancelledAt)

	assert.ElementsMatch(t, []string{"rem-1", "rem-2"}, f.reminders.cancelled)
	assert.Equal(t, []string{"evt-1"}, f.calendar.deleted)
	handles, err := f.store.ListHandles(ctx, appt.ID)
	require.NoError(t, err)
	assert.Empty(t, handles)

	again, err := f.manager.Cancel(ctx, appt.ID, Actor{ID: "cust-1"}, "")
	require.NoError(t, err)
	assert.Equal(t, got.CancelledAt, again.CancelledAt)
	assert.Len(t, f.reminders.cancelled, 2)
}

func TestCancelKeepsHandleWhenWithdrawFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	f.calendar.deleteErr = errors.New("calendar api 500")
	appt := f.book(t, "2025-03-11", "10:20 AM")
	f.manager.OnBooked(ctx, appt)

	_, err := f.manager.Cancel(ctx, appt.ID, Actor{}, "")
	require.NoError(t, err)

	handles, err := f.store.ListHandles(ctx, appt.ID)
	require.NoError(t, err)
	require.Len(t, handles, 1)
	assert.Equal(t, "evt-1", handles[0].Handle)
}

func TestCancelRejectsStrangers(t *testing.T) {
	f := newFixture(t, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	appt := f.book(t, "2025-03-11", "10:20 AM")

	_, err := f.manager.Cancel(context.Background(), appt.ID, Actor{ID: "someone-else"}, "")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	got, err := f.store.GetAppointment(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusBooked, got.Status)
}

func TestCancelUnknownAppointment(t *testing.T) {
	f := newFixture(t, time.Now())
	_, err := f.manager.Cancel(context.Background(), "missing", Actor{}, "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCompleteCollectsPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	appt := f.book(t, "2025-03-11", "10:20 AM")
	f.manager.OnBooked(ctx, appt)

	_, err := f.manager.Complete(ctx, appt.ID, Actor{ID: "cust-1"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	got, err := f.manager.Complete(ctx, appt.ID, Actor{ID: "barber-1", IsProvider: true})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.Equal(t, []string{appt.ID}, f.payments.collected)
	assert.Len(t, f.reminders.cancelled, 2)
	assert.Empty(t, f.calendar.deleted)

	_, err = f.manager.Cancel(ctx, appt.ID, Actor{ID: "barber-1"}, "")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestMarkReminded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	appt := f.book(t, "2025-03-11", "10:20 AM")

	got, changed, err := f.manager.MarkReminded(ctx, appt.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, model.StatusReminded, got.Status)

	_, changed, err = f.manager.MarkReminded(ctx, appt.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = f.manager.Cancel(ctx, appt.ID, Actor{}, "")
	require.NoError(t, err)
	got, changed, err = f.manager.MarkReminded(ctx, appt.ID)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, model.StatusCancelled, got.Status)
}

func TestReminderPayloadFallbacks(t *testing.T) {
	p := reminderPayload(model.Appointment{ID: "a", Time: "9:00 AM"}, 24*time.Hour)
	assert.Equal(t, "You have a barber appointment with your barber tomorrow at 9:00 AM.", p.Body)

	p = reminderPayload(model.Appointment{ServiceName: "Shave", ProviderName: "Jo"}, 30*time.Minute)
	assert.Equal(t, "Your Shave appointment with Jo is in 30 minutes.", p.Body)
}
