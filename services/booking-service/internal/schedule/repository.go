package schedule

import (
	"context"
	"encoding/json"

	"github.com/md-rashed-zaman/chairbook/libs/db"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
)

type Repository struct {
	pool db.Querier
}

func NewRepository(pool db.Querier) *Repository {
	return &Repository{pool: pool}
}

var _ Store = (*Repository)(nil)

// GetProviderSchedule seeds the default schedule the first time a provider is read.
func (r *Repository) GetProviderSchedule(ctx context.Context, providerID string) (model.ProviderSchedule, error) {
	def := model.DefaultSchedule(providerID)
	days, err := json.Marshal(def.WorkingDays)
	if err != nil {
		return model.ProviderSchedule{}, err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO provider_schedules (provider_id, working_days, work_start, work_end, slot_interval_minutes, unavailable_dates, timezone)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (provider_id) DO NOTHING
	`, providerID, days, def.WorkingHours.Start, def.WorkingHours.End, def.WorkingHours.Interval, def.UnavailableDates, def.Timezone)
	if err != nil {
		return model.ProviderSchedule{}, apperr.Store("seed schedule", err)
	}

	var s model.ProviderSchedule
	var rawDays []byte
	err = r.pool.QueryRow(ctx, `
		SELECT provider_id, display_name, working_days, work_start, work_end, slot_interval_minutes, unavailable_dates, timezone, updated_at
		FROM provider_schedules
		WHERE provider_id = $1
	`, providerID).Scan(&s.ProviderID, &s.DisplayName, &rawDays, &s.WorkingHours.Start, &s.WorkingHours.End, &s.WorkingHours.Interval, &s.UnavailableDates, &s.Timezone, &s.UpdatedAt)
	if err != nil {
		return model.ProviderSchedule{}, apperr.Store("get schedule", err)
	}
	if err := json.Unmarshal(rawDays, &s.WorkingDays); err != nil {
		return model.ProviderSchedule{}, apperr.Store("decode working days", err)
	}
	if s.UnavailableDates == nil {
		s.UnavailableDates = []string{}
	}
	return s, nil
}

func (r *Repository) SaveProviderSchedule(ctx context.Context, providerID string, s model.ProviderSchedule) (model.ProviderSchedule, error) {
	s.ProviderID = providerID
	s, err := Normalize(s)
	if err != nil {
		return model.ProviderSchedule{}, err
	}
	days, err := json.Marshal(s.WorkingDays)
	if err != nil {
		return model.ProviderSchedule{}, err
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO provider_schedules (provider_id, working_days, work_start, work_end, slot_interval_minutes, unavailable_dates, timezone, display_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (provider_id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
			working_days = EXCLUDED.working_days,
			work_start = EXCLUDED.work_start,
			work_end = EXCLUDED.work_end,
			slot_interval_minutes = EXCLUDED.slot_interval_minutes,
			unavailable_dates = EXCLUDED.unavailable_dates,
			timezone = EXCLUDED.timezone,
			updated_at = now()
		RETURNING updated_at
	`, providerID, days, s.WorkingHours.Start, s.WorkingHours.End, s.WorkingHours.Interval, s.UnavailableDates, s.Timezone, s.DisplayName).Scan(&s.UpdatedAt)
	if err != nil {
		return model.ProviderSchedule{}, apperr.Store("save schedule", err)
	}
	return s, nil
}
