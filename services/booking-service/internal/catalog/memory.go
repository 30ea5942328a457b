package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
)

// MemoryStore keeps catalogs in process for tests and runs without DATABASE_URL.
type MemoryStore struct {
	mu       sync.RWMutex
	services map[string]map[string]model.CatalogService
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{services: map[string]map[string]model.CatalogService{}, now: time.Now}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) ListServices(_ context.Context, providerID string) ([]model.CatalogService, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.CatalogService, 0, len(m.services[providerID]))
	for _, s := range m.services[providerID] {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) GetService(_ context.Context, providerID, serviceID string) (model.CatalogService, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.services[providerID][serviceID]
	if !ok {
		return model.CatalogService{}, notFound(serviceID)
	}
	return s, nil
}

func (m *MemoryStore) SaveService(_ context.Context, providerID string, s model.CatalogService) (model.CatalogService, error) {
	s.ProviderID = providerID
	s, err := Normalize(s)
	if err != nil {
		return model.CatalogService{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s.UpdatedAt = m.now().UTC()
	if m.services[providerID] == nil {
		m.services[providerID] = map[string]model.CatalogService{}
	}
	m.services[providerID][s.ID] = s
	return s, nil
}

func (m *MemoryStore) DeleteService(_ context.Context, providerID, serviceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.services[providerID][serviceID]; !ok {
		return notFound(serviceID)
	}
	delete(m.services[providerID], serviceID)
	return nil
}
