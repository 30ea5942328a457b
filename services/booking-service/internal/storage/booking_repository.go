package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/chairbook/libs/db"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/timeutil"
)

type BookingRepository struct {
	pool db.Querier
}

func NewBookingRepository(pool db.Querier) *BookingRepository {
	return &BookingRepository{pool: pool}
}

var _ Store = (*BookingRepository)(nil)

const appointmentColumns = `id::text, provider_id, customer_id, provider_name, customer_name,
			appt_date::text, slot_label, timezone, service_id, service_name, service_price,
			service_duration_minutes, status, cancelled_at, cancel_reason, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row scanner) (model.Appointment, error) {
	var a model.Appointment
	var status string
	var cancelledAt *time.Time
	err := row.Scan(
		&a.ID,
		&a.ProviderID,
		&a.CustomerID,
		&a.ProviderName,
		&a.CustomerName,
		&a.Date,
		&a.Time,
		&a.Timezone,
		&a.ServiceID,
		&a.ServiceName,
		&a.ServicePrice,
		&a.ServiceDuration,
		&status,
		&cancelledAt,
		&a.CancelReason,
		&a.CreatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	a.Status, err = model.ParseStatus(status)
	if err != nil {
		return model.Appointment{}, err
	}
	a.CancelledAt = cancelledAt
	return a, nil
}

func collect(rows pgx.Rows) ([]model.Appointment, error) {
	defer rows.Close()
	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BookingRepository) ListBookings(ctx context.Context, providerID, date string) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE provider_id = $1
			AND appt_date = $2::text::date
			AND status <> 'cancelled'
		ORDER BY slot_minute ASC
	`, providerID, date)
	if err != nil {
		return nil, apperr.Store("list bookings", err)
	}
	appts, err := collect(rows)
	return appts, apperr.Store("list bookings", err)
}

// InsertBooking serializes writers for one provider and day on an advisory
// lock, re-reads the slot, and inserts. The partial unique index on
// (provider_id, appt_date, slot_minute) backs the check if the lock is bypassed.
func (r *BookingRepository) InsertBooking(ctx context.Context, appt model.Appointment) (model.Appointment, error) {
	minute, err := timeutil.MinuteOfDay(appt.Time)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.Time = timeutil.FormatSlotLabel(minute)
	appt.ID = uuid.NewString()
	appt.Status = model.StatusBooked

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, apperr.Store("begin booking", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, appt.ProviderID+"|"+appt.Date); err != nil {
		return model.Appointment{}, apperr.Store("lock slot", err)
	}

	var taken bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE provider_id = $1
				AND appt_date = $2::text::date
				AND slot_minute = $3
				AND status <> 'cancelled'
		)
	`, appt.ProviderID, appt.Date, minute).Scan(&taken)
	if err != nil {
		return model.Appointment{}, apperr.Store("check slot", err)
	}
	if taken {
		return model.Appointment{}, apperr.ErrSlotUnavailable
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO appointments
			(id, provider_id, customer_id, provider_name, customer_name, appt_date, slot_label, slot_minute,
			 timezone, service_id, service_name, service_price, service_duration_minutes, status)
		VALUES ($1, $2, $3, $4, $5, $6::text::date, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at
	`, appt.ID, appt.ProviderID, appt.CustomerID, appt.ProviderName, appt.CustomerName, appt.Date, appt.Time, minute,
		appt.Timezone, appt.ServiceID, appt.ServiceName, appt.ServicePrice, appt.ServiceDuration, string(appt.Status)).Scan(&appt.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) || db.IsExclusionViolation(err) {
			return model.Appointment{}, apperr.ErrSlotUnavailable
		}
		return model.Appointment{}, apperr.Store("insert booking", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if db.IsUniqueViolation(err) {
			return model.Appointment{}, apperr.ErrSlotUnavailable
		}
		return model.Appointment{}, apperr.Store("commit booking", err)
	}
	return appt, nil
}

func (r *BookingRepository) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Appointment{}, apperr.ErrNotFound
	}
	appt, err := scanAppointment(r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Appointment{}, apperr.ErrNotFound
	}
	return appt, apperr.Store("get appointment", err)
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, to model.Status, reason string, guard model.StatusGuard) (model.Appointment, bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Appointment{}, false, apperr.ErrNotFound
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, false, apperr.Store("begin status update", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanAppointment(tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Appointment{}, false, apperr.ErrNotFound
		}
		return model.Appointment{}, false, apperr.Store("lock appointment", err)
	}

	if guard != nil {
		proceed, err := guard(current)
		if err != nil {
			return current, false, err
		}
		if !proceed {
			return current, false, nil
		}
	}

	updated := current
	updated.Status = to
	if to == model.StatusCancelled {
		var cancelledAt time.Time
		err = tx.QueryRow(ctx, `
			UPDATE appointments
			SET status = $2, cancelled_at = now(), cancel_reason = $3
			WHERE id = $1
			RETURNING cancelled_at
		`, id, string(to), reason).Scan(&cancelledAt)
		updated.CancelledAt = &cancelledAt
		updated.CancelReason = reason
	} else {
		_, err = tx.Exec(ctx, `
			UPDATE appointments
			SET status = $2
			WHERE id = $1
		`, id, string(to))
	}
	if err != nil {
		return model.Appointment{}, false, apperr.Store("update status", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, false, apperr.Store("commit status", err)
	}
	return updated, true, nil
}

func (r *BookingRepository) ListByCustomer(ctx context.Context, customerID string, limit int) ([]model.Appointment, error) {
	return r.listBy(ctx, "customer_id", customerID, limit)
}

func (r *BookingRepository) ListByProvider(ctx context.Context, providerID string, limit int) ([]model.Appointment, error) {
	return r.listBy(ctx, "provider_id", providerID, limit)
}

// column is one of two constants above, never caller input.
func (r *BookingRepository) listBy(ctx context.Context, column, value string, limit int) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE `+column+` = $1
		ORDER BY appt_date DESC, slot_minute DESC
		LIMIT $2
	`, value, clampLimit(limit))
	if err != nil {
		return nil, apperr.Store("list appointments", err)
	}
	appts, err := collect(rows)
	return appts, apperr.Store("list appointments", err)
}

func (r *BookingRepository) SaveHandle(ctx context.Context, h model.SideEffectHandle) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointment_side_effects (appointment_id, kind, handle)
		VALUES ($1, $2, $3)
		ON CONFLICT (appointment_id, kind, handle) DO NOTHING
	`, h.AppointmentID, string(h.Kind), h.Handle)
	return apperr.Store("save handle", err)
}

func (r *BookingRepository) ListHandles(ctx context.Context, appointmentID string) ([]model.SideEffectHandle, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT appointment_id::text, kind, handle, created_at
		FROM appointment_side_effects
		WHERE appointment_id = $1
		ORDER BY created_at ASC
	`, appointmentID)
	if err != nil {
		return nil, apperr.Store("list handles", err)
	}
	defer rows.Close()

	var out []model.SideEffectHandle
	for rows.Next() {
		var h model.SideEffectHandle
		var kind string
		if err := rows.Scan(&h.AppointmentID, &kind, &h.Handle, &h.CreatedAt); err != nil {
			return nil, apperr.Store("list handles", err)
		}
		h.Kind = model.HandleKind(kind)
		out = append(out, h)
	}
	return out, apperr.Store("list handles", rows.Err())
}

func (r *BookingRepository) DeleteHandle(ctx context.Context, appointmentID string, kind model.HandleKind, handle string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM appointment_side_effects
		WHERE appointment_id = $1 AND kind = $2 AND handle = $3
	`, appointmentID, string(kind), handle)
	return apperr.Store("delete handle", err)
}
