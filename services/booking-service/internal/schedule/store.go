package schedule

import (
	"context"

	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
)

// Store is the provider schedule persistence contract. Saves replace the
// whole schedule; the last writer wins.
type Store interface {
	GetProviderSchedule(ctx context.Context, providerID string) (model.ProviderSchedule, error)
	SaveProviderSchedule(ctx context.Context, providerID string, s model.ProviderSchedule) (model.ProviderSchedule, error)
}
