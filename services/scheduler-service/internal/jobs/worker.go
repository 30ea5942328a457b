package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/chairbook/libs/events"
	otelx "github.com/md-rashed-zaman/chairbook/libs/otel"
	"github.com/md-rashed-zaman/chairbook/libs/outbox"
)

// Worker turns due jobs into scheduler.reminder.due.v1 events. Jobs whose
// event cannot be enqueued back off and go to the DLQ after MaxAttempts.
type Worker struct {
	pool      outbox.Beginner
	repo      *Repository
	outbox    *outbox.Repository
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
	backoff   time.Duration
	now       func() time.Time
	marshal   func(any) ([]byte, error)
}

type WorkerConfig struct {
	Interval  time.Duration
	BatchSize int
	Backoff   time.Duration
}

func NewWorker(pool outbox.Beginner, repo *Repository, outboxRepo *outbox.Repository, logger *slog.Logger, cfg WorkerConfig) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 1 * time.Minute
	}
	return &Worker{
		pool:      pool,
		repo:      repo,
		outbox:    outboxRepo,
		logger:    logger,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		backoff:   cfg.Backoff,
		now:       time.Now,
		marshal:   json.Marshal,
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.ProcessBatch(ctx); err != nil {
				w.logger.Error("scheduler batch failed", "err", err)
			}
		}
	}
}

// ProcessBatch handles one batch of due jobs and returns how many were emitted.
func (w *Worker) ProcessBatch(ctx context.Context) (int, error) {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := w.now().UTC()
	jobs, err := w.repo.FetchDue(ctx, tx, now, w.batchSize)
	if err != nil {
		return 0, err
	}
	if len(jobs) == 0 {
		return 0, tx.Commit(ctx)
	}

	var ids []int64
	var failed []Job
	for _, job := range jobs {
		jobCtx := otelx.ContextWithTraceContext(ctx, job.Traceparent, job.Tracestate)
		payload, err := w.marshal(events.ReminderDue{
			AppointmentID: job.AppointmentID,
			Recipient:     job.Recipient,
			Channel:       job.Channel,
			RemindAt:      job.RemindAt.UTC().Format(time.RFC3339),
			Title:         job.Title,
			Body:          job.Body,
		})
		if err != nil {
			failed = append(failed, job)
			continue
		}

		if err := w.enqueueDue(jobCtx, tx, job, payload); err != nil {
			w.logger.Warn("reminder due enqueue failed", "err", err, "job_id", job.ID)
			failed = append(failed, job)
			continue
		}
		ids = append(ids, job.ID)
	}

	if err := w.repo.MarkProcessed(ctx, tx, ids); err != nil {
		return 0, err
	}

	for _, job := range failed {
		jobCtx := otelx.ContextWithTraceContext(ctx, job.Traceparent, job.Tracestate)
		attempts := job.Attempts + 1
		if err := w.repo.MarkFailed(ctx, tx, job.ID, attempts, job.MaxAttempts, now.Add(w.backoff), "outbox enqueue failed"); err != nil {
			return 0, err
		}
		if attempts >= job.MaxAttempts {
			w.logger.Warn("reminder job exhausted retries", "job_id", job.ID, "appointment_id", job.AppointmentID)
			if err := w.enqueueDLQ(jobCtx, tx, job, "max attempts reached", now); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// enqueueDue runs under a savepoint so a failed insert leaves the batch
// transaction usable for the remaining jobs.
func (w *Worker) enqueueDue(ctx context.Context, tx pgx.Tx, job Job, payload []byte) error {
	if _, err := tx.Exec(ctx, "SAVEPOINT job_enqueue"); err != nil {
		return err
	}
	err := w.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "scheduler_job",
		AggregateID:   job.AppointmentID,
		EventType:     events.TopicReminderDue,
		Payload:       payload,
	})
	if err != nil {
		if _, rbErr := tx.Exec(ctx, "ROLLBACK TO SAVEPOINT job_enqueue"); rbErr != nil {
			return rbErr
		}
		return err
	}
	_, err = tx.Exec(ctx, "RELEASE SAVEPOINT job_enqueue")
	return err
}

func (w *Worker) enqueueDLQ(ctx context.Context, tx pgx.Tx, job Job, reason string, now time.Time) error {
	payload, err := json.Marshal(events.ReminderDeadLettered{
		IdempotencyKey: job.IdempotencyKey,
		AppointmentID:  job.AppointmentID,
		Recipient:      job.Recipient,
		Channel:        job.Channel,
		RemindAt:       job.RemindAt.UTC().Format(time.RFC3339),
		ErrorReason:    reason,
		FailedAt:       now.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return w.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "scheduler_job",
		AggregateID:   job.AppointmentID,
		EventType:     events.TopicReminderDLQ,
		Payload:       payload,
	})
}
