package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
)

// MemoryStore keeps schedules in process. Used by tests and by local runs
// without DATABASE_URL.
type MemoryStore struct {
	mu        sync.RWMutex
	schedules map[string]model.ProviderSchedule
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{schedules: map[string]model.ProviderSchedule{}, now: time.Now}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) GetProviderSchedule(_ context.Context, providerID string) (model.ProviderSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[providerID]
	if !ok {
		s = model.DefaultSchedule(providerID)
		s.UpdatedAt = m.now().UTC()
		m.schedules[providerID] = s
	}
	return clone(s), nil
}

func (m *MemoryStore) SaveProviderSchedule(_ context.Context, providerID string, s model.ProviderSchedule) (model.ProviderSchedule, error) {
	s.ProviderID = providerID
	s, err := Normalize(s)
	if err != nil {
		return model.ProviderSchedule{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s.UpdatedAt = m.now().UTC()
	m.schedules[providerID] = clone(s)
	return s, nil
}

func clone(s model.ProviderSchedule) model.ProviderSchedule {
	days := make(map[string]bool, len(s.WorkingDays))
	for k, v := range s.WorkingDays {
		days[k] = v
	}
	s.WorkingDays = days
	s.UnavailableDates = append([]string{}, s.UnavailableDates...)
	return s
}
