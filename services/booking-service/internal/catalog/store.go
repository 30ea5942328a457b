// Package catalog keeps each provider's list of bookable services. Prices and
// durations on an appointment come from here, never from the booking request.
package catalog

import (
	"context"
	"fmt"

	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
)

type Store interface {
	ListServices(ctx context.Context, providerID string) ([]model.CatalogService, error)
	// GetService returns an error wrapping apperr.ErrNotFound when the
	// provider offers no such service.
	GetService(ctx context.Context, providerID, serviceID string) (model.CatalogService, error)
	// SaveService creates or replaces one service. An empty ID gets a new one.
	SaveService(ctx context.Context, providerID string, s model.CatalogService) (model.CatalogService, error)
	DeleteService(ctx context.Context, providerID, serviceID string) error
}

func notFound(serviceID string) error {
	return fmt.Errorf("service %q: %w", serviceID, apperr.ErrNotFound)
}
