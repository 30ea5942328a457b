package jobs

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	otelx "github.com/md-rashed-zaman/chairbook/libs/otel"
)

// Job is one pending reminder. IdempotencyKey is the handle booking-service
// received when it asked for the reminder.
type Job struct {
	ID             int64
	IdempotencyKey string
	AppointmentID  string
	Channel        string
	Recipient      string
	RemindAt       time.Time
	Title          string
	Body           string
	Traceparent    string
	Tracestate     string
	Attempts       int
	MaxAttempts    int
	NextRunAt      time.Time
}

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

// Insert stores job unless it already exists or was cancelled before it
// arrived. It reports whether a row was written.
func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, job Job) (bool, error) {
	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	tag, err := tx.Exec(ctx, `
		INSERT INTO scheduler_jobs (idempotency_key, appointment_id, channel, recipient, remind_at, title, body, next_run_at, traceparent, tracestate)
		SELECT $1, $2, $3, $4, $5, $6, $7, $5, $8, $9
		WHERE NOT EXISTS (SELECT 1 FROM scheduler_job_cancellations WHERE idempotency_key = $1)
		ON CONFLICT (idempotency_key) DO NOTHING
	`, job.IdempotencyKey, job.AppointmentID, job.Channel, job.Recipient, job.RemindAt, job.Title, job.Body, traceparent, tracestate)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Cancel stops a pending job. The tombstone covers a cancellation that
// overtakes its request on the way in.
func (r *Repository) Cancel(ctx context.Context, tx pgx.Tx, idempotencyKey string) (bool, error) {
	if _, err := tx.Exec(ctx, `
		INSERT INTO scheduler_job_cancellations (idempotency_key)
		VALUES ($1)
		ON CONFLICT (idempotency_key) DO NOTHING
	`, idempotencyKey); err != nil {
		return false, err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE scheduler_jobs
		SET status = 'cancelled', updated_at = now()
		WHERE idempotency_key = $1 AND status = 'pending'
	`, idempotencyKey)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) FetchDue(ctx context.Context, tx pgx.Tx, now time.Time, limit int) ([]Job, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, idempotency_key, appointment_id, channel, recipient, remind_at, title, body, traceparent, tracestate, attempts, max_attempts, next_run_at
		FROM scheduler_jobs
		WHERE status = 'pending' AND next_run_at <= $1
		ORDER BY next_run_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.IdempotencyKey, &j.AppointmentID, &j.Channel, &j.Recipient, &j.RemindAt, &j.Title, &j.Body, &j.Traceparent, &j.Tracestate, &j.Attempts, &j.MaxAttempts, &j.NextRunAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return jobs, nil
}

func (r *Repository) MarkProcessed(ctx context.Context, tx pgx.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE scheduler_jobs
		SET status = 'processed', updated_at = now()
		WHERE id = ANY($1)
	`, ids)
	return err
}

func (r *Repository) MarkFailed(ctx context.Context, tx pgx.Tx, id int64, attempts int, maxAttempts int, nextRunAt time.Time, lastError string) error {
	status := "pending"
	if attempts >= maxAttempts {
		status = "failed"
	}
	_, err := tx.Exec(ctx, `
		UPDATE scheduler_jobs
		SET attempts = $2,
		    status = $3,
		    next_run_at = $4,
		    last_error = $5,
		    updated_at = now()
		WHERE id = $1
	`, id, attempts, status, nextRunAt, lastError)
	return err
}
