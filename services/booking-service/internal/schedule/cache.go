package schedule

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
	"github.com/patrickmn/go-cache"
)

// CachedStore keeps recently read schedules in process. Saves through this
// store refresh the entry; saves made by other replicas show up after ttl.
type CachedStore struct {
	inner Store
	cache *cache.Cache
}

func NewCachedStore(inner Store, ttl time.Duration) *CachedStore {
	return &CachedStore{inner: inner, cache: cache.New(ttl, 2*ttl)}
}

var _ Store = (*CachedStore)(nil)

func (c *CachedStore) GetProviderSchedule(ctx context.Context, providerID string) (model.ProviderSchedule, error) {
	if v, ok := c.cache.Get(providerID); ok {
		return clone(v.(model.ProviderSchedule)), nil
	}
	s, err := c.inner.GetProviderSchedule(ctx, providerID)
	if err != nil {
		return model.ProviderSchedule{}, err
	}
	c.cache.SetDefault(providerID, clone(s))
	return s, nil
}

func (c *CachedStore) SaveProviderSchedule(ctx context.Context, providerID string, s model.ProviderSchedule) (model.ProviderSchedule, error) {
	saved, err := c.inner.SaveProviderSchedule(ctx, providerID, s)
	if err != nil {
		c.cache.Delete(providerID)
		return model.ProviderSchedule{}, err
	}
	c.cache.SetDefault(providerID, clone(saved))
	return saved, nil
}
