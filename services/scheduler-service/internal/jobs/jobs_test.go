package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/md-rashed-zaman/chairbook/libs/events"
	"github.com/md-rashed-zaman/chairbook/libs/kafkax"
	"github.com/md-rashed-zaman/chairbook/libs/outbox"
	"github.com/md-rashed-zaman/chairbook/libs/runtime"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jobColumns = []string{"id", "idempotency_key", "appointment_id", "channel", "recipient", "remind_at", "title", "body", "traceparent", "tracestate", "attempts", "max_attempts", "next_run_at"}

func newWorker(mock pgxmock.PgxPoolIface, now time.Time) *Worker {
	w := NewWorker(mock, NewRepository(), outbox.NewRepository(), runtime.DiscardLogger(), WorkerConfig{BatchSize: 10, Backoff: time.Minute})
	w.now = func() time.Time { return now }
	return w
}

func TestProcessBatchEmitsDueEvents(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2025, 3, 10, 10, 21, 0, 0, time.UTC)
	remindAt := time.Date(2025, 3, 10, 10, 20, 0, 0, time.UTC)
	want, err := json.Marshal(events.ReminderDue{
		AppointmentID: "appt-1",
		Recipient:     "cust-1",
		Channel:       events.ChannelPush,
		RemindAt:      "2025-03-10T10:20:00Z",
		Title:         "Upcoming Appointment",
		Body:          "Your Haircut appointment with Sam is in 1 hour.",
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, idempotency_key").
		WithArgs(now, 10).
		WillReturnRows(pgxmock.NewRows(jobColumns).
			AddRow(int64(1), "appt-1|2025-03-10T10:20:00Z|push", "appt-1", "push", "cust-1", remindAt,
				"Upcoming Appointment", "Your Haircut appointment with Sam is in 1 hour.", "", "", 0, 3, remindAt))
	mock.ExpectExec("SAVEPOINT job_enqueue").WillReturnResult(pgxmock.NewResult("SAVEPOINT", 0))
	mock.ExpectExec("INSERT INTO outbox_events").
		WithArgs("scheduler_job", "appt-1", events.TopicReminderDue, want, "", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("RELEASE SAVEPOINT job_enqueue").WillReturnResult(pgxmock.NewResult("RELEASE", 0))
	mock.ExpectExec("UPDATE scheduler_jobs").
		WithArgs([]int64{1}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	n, err := newWorker(mock, now).ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessBatchNothingDue(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, idempotency_key").
		WithArgs(now, 10).
		WillReturnRows(pgxmock.NewRows(jobColumns))
	mock.ExpectCommit()

	n, err := newWorker(mock, now).ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessBatchExhaustedJobGoesToDLQ(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2025, 3, 10, 10, 21, 0, 0, time.UTC)
	remindAt := now.Add(-time.Minute)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, idempotency_key").
		WithArgs(now, 10).
		WillReturnRows(pgxmock.NewRows(jobColumns).
			AddRow(int64(5), "k", "appt-5", "push", "cust-5", remindAt, "t", "b", "", "", 2, 3, remindAt))
	mock.ExpectExec("UPDATE scheduler_jobs").
		WithArgs(int64(5), 3, "failed", now.Add(time.Minute), "outbox enqueue failed").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO outbox_events").
		WithArgs("scheduler_job", "appt-5", events.TopicReminderDLQ, pgxmock.AnyArg(), "", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	w := newWorker(mock, now)
	w.marshal = func(any) ([]byte, error) { return nil, errors.New("boom") }
	n, err := w.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessBatchRetriesBeforeMaxAttempts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2025, 3, 10, 10, 21, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, idempotency_key").
		WithArgs(now, 10).
		WillReturnRows(pgxmock.NewRows(jobColumns).
			AddRow(int64(6), "k", "appt-6", "push", "cust-6", now, "t", "b", "", "", 0, 3, now))
	mock.ExpectExec("SAVEPOINT job_enqueue").WillReturnResult(pgxmock.NewResult("SAVEPOINT", 0))
	mock.ExpectExec("INSERT INTO outbox_events").
		WillReturnError(errors.New("disk full"))
	mock.ExpectExec("ROLLBACK TO SAVEPOINT job_enqueue").WillReturnResult(pgxmock.NewResult("ROLLBACK", 0))
	mock.ExpectExec("UPDATE scheduler_jobs").
		WithArgs(int64(6), 1, "pending", now.Add(time.Minute), "outbox enqueue failed").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	_, err = newWorker(mock, now).ProcessBatch(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func requestMessage(t *testing.T, req events.ReminderRequested) kafka.Message {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	return kafka.Message{Topic: events.TopicReminderRequested, Value: body}
}

func TestRequestedHandlerInsertsJob(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	req := events.ReminderRequested{
		AppointmentID: "appt-1",
		Recipient:     "cust-1",
		Channel:       events.ChannelPush,
		RemindAt:      "2025-03-10T10:20:00Z",
		Title:         "Appointment Reminder",
		Body:          "body",
	}
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO scheduler_jobs").
		WithArgs("appt-1|2025-03-10T10:20:00Z|push", "appt-1", "push", "cust-1",
			time.Date(2025, 3, 10, 10, 20, 0, 0, time.UTC), "Appointment Reminder", "body", "", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	h := RequestedHandler(mock, NewRepository(), runtime.DiscardLogger())
	require.NoError(t, h(context.Background(), requestMessage(t, req)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestedHandlerRejectsBadPayloads(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	h := RequestedHandler(mock, NewRepository(), runtime.DiscardLogger())
	assert.ErrorIs(t, h(context.Background(), kafka.Message{Value: []byte("nope")}), kafkax.ErrPermanent)
	assert.ErrorIs(t, h(context.Background(), requestMessage(t, events.ReminderRequested{AppointmentID: "a"})), kafkax.ErrPermanent)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestedHandlerStoreFailureIsRetryable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO scheduler_jobs").WillReturnError(errors.New("conn reset"))
	mock.ExpectRollback()

	h := RequestedHandler(mock, NewRepository(), runtime.DiscardLogger())
	err = h(context.Background(), requestMessage(t, events.ReminderRequested{
		AppointmentID: "a", Recipient: "c", Channel: "push", RemindAt: "2025-03-10T10:20:00Z",
	}))
	require.Error(t, err)
	assert.NotErrorIs(t, err, kafkax.ErrPermanent)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelledHandlerTombstonesAndCancels(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	key := "appt-1|2025-03-10T10:20:00Z|push"
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO scheduler_job_cancellations").
		WithArgs(key).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE scheduler_jobs").
		WithArgs(key).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectCommit()

	body, err := json.Marshal(events.ReminderCancelled{AppointmentID: "appt-1", IdempotencyKey: key})
	require.NoError(t, err)
	h := CancelledHandler(mock, NewRepository(), runtime.DiscardLogger())
	require.NoError(t, h(context.Background(), kafka.Message{Value: body}))
	require.NoError(t, mock.ExpectationsWereMet())

	assert.ErrorIs(t, h(context.Background(), kafka.Message{Value: []byte(`{"appointment_id":"x"}`)}), kafkax.ErrPermanent)
}
