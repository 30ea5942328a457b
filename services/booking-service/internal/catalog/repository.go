package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
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

func (r *Repository) ListServices(ctx context.Context, providerID string) ([]model.CatalogService, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT provider_id, service_id, name, price, duration_minutes, updated_at
		FROM provider_services
		WHERE provider_id = $1
		ORDER BY name ASC, service_id ASC
	`, providerID)
	if err != nil {
		return nil, apperr.Store("list services", err)
	}
	defer rows.Close()

	out := []model.CatalogService{}
	for rows.Next() {
		var s model.CatalogService
		if err := rows.Scan(&s.ProviderID, &s.ID, &s.Name, &s.Price, &s.DurationMinutes, &s.UpdatedAt); err != nil {
			return nil, apperr.Store("list services", err)
		}
		out = append(out, s)
	}
	return out, apperr.Store("list services", rows.Err())
}

func (r *Repository) GetService(ctx context.Context, providerID, serviceID string) (model.CatalogService, error) {
	var s model.CatalogService
	err := r.pool.QueryRow(ctx, `
		SELECT provider_id, service_id, name, price, duration_minutes, updated_at
		FROM provider_services
		WHERE provider_id = $1 AND service_id = $2
	`, providerID, serviceID).Scan(&s.ProviderID, &s.ID, &s.Name, &s.Price, &s.DurationMinutes, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.CatalogService{}, notFound(serviceID)
	}
	if err != nil {
		return model.CatalogService{}, apperr.Store("get service", err)
	}
	return s, nil
}

func (r *Repository) SaveService(ctx context.Context, providerID string, s model.CatalogService) (model.CatalogService, error) {
	s.ProviderID = providerID
	s, err := Normalize(s)
	if err != nil {
		return model.CatalogService{}, err
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO provider_services (provider_id, service_id, name, price, duration_minutes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (provider_id, service_id) DO UPDATE
		SET name = EXCLUDED.name,
			price = EXCLUDED.price,
			duration_minutes = EXCLUDED.duration_minutes,
			updated_at = now()
		RETURNING updated_at
	`, s.ProviderID, s.ID, s.Name, s.Price, s.DurationMinutes).Scan(&s.UpdatedAt)
	if err != nil {
		return model.CatalogService{}, apperr.Store("save service", err)
	}
	return s, nil
}

func (r *Repository) DeleteService(ctx context.Context, providerID, serviceID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM provider_services
		WHERE provider_id = $1 AND service_id = $2
	`, providerID, serviceID)
	if err != nil {
		return apperr.Store("delete service", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(serviceID)
	}
	return nil
}
