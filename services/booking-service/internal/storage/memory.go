package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/timeutil"
)

// MemoryStore is an in-process Store with the same uniqueness guarantee as
// the Postgres repository. It backs tests and local runs without a database.
type MemoryStore struct {
	mu      sync.Mutex
	appts   map[string]model.Appointment
	handles map[string][]model.SideEffectHandle
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		appts:   map[string]model.Appointment{},
		handles: map[string][]model.SideEffectHandle{},
		now:     time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) ListBookings(ctx context.Context, providerID, date string) ([]model.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Store("list bookings", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Appointment
	for _, a := range m.appts {
		if a.ProviderID == providerID && a.Date == date && a.Status != model.StatusCancelled {
			out = append(out, a)
		}
	}
	sortBySlot(out, false)
	return out, nil
}

func (m *MemoryStore) InsertBooking(ctx context.Context, appt model.Appointment) (model.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return model.Appointment{}, apperr.Store("insert booking", err)
	}
	minute, err := timeutil.MinuteOfDay(appt.Time)
	if err != nil {
		return model.Appointment{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appts {
		if a.ProviderID != appt.ProviderID || a.Date != appt.Date || a.Status == model.StatusCancelled {
			continue
		}
		if other, err := timeutil.MinuteOfDay(a.Time); err == nil && other == minute {
			return model.Appointment{}, apperr.ErrSlotUnavailable
		}
	}

	appt.ID = uuid.NewString()
	appt.Time = timeutil.FormatSlotLabel(minute)
	appt.Status = model.StatusBooked
	appt.CreatedAt = m.now().UTC()
	m.appts[appt.ID] = appt
	return appt, nil
}

func (m *MemoryStore) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return model.Appointment{}, apperr.Store("get appointment", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return model.Appointment{}, apperr.ErrNotFound
	}
	return a, nil
}

func (m *MemoryStore) UpdateStatus(ctx context.Context, id string, to model.Status, reason string, guard model.StatusGuard) (model.Appointment, bool, error) {
	if err := ctx.Err(); err != nil {
		return model.Appointment{}, false, apperr.Store("update status", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.appts[id]
	if !ok {
		return model.Appointment{}, false, apperr.ErrNotFound
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
	current.Status = to
	if to == model.StatusCancelled {
		at := m.now().UTC()
		current.CancelledAt = &at
		current.CancelReason = reason
	}
	m.appts[id] = current
	return current, true, nil
}

func (m *MemoryStore) ListByCustomer(ctx context.Context, customerID string, limit int) ([]model.Appointment, error) {
	return m.listBy(ctx, func(a model.Appointment) bool { return a.CustomerID == customerID }, limit)
}

func (m *MemoryStore) ListByProvider(ctx context.Context, providerID string, limit int) ([]model.Appointment, error) {
	return m.listBy(ctx, func(a model.Appointment) bool { return a.ProviderID == providerID }, limit)
}

func (m *MemoryStore) listBy(ctx context.Context, match func(model.Appointment) bool, limit int) ([]model.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Store("list appointments", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Appointment
	for _, a := range m.appts {
		if match(a) {
			out = append(out, a)
		}
	}
	sortBySlot(out, true)
	if limit = clampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) SaveHandle(_ context.Context, h model.SideEffectHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.handles[h.AppointmentID] {
		if existing.Kind == h.Kind && existing.Handle == h.Handle {
			return nil
		}
	}
	h.CreatedAt = m.now().UTC()
	m.handles[h.AppointmentID] = append(m.handles[h.AppointmentID], h)
	return nil
}

func (m *MemoryStore) ListHandles(_ context.Context, appointmentID string) ([]model.SideEffectHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.SideEffectHandle(nil), m.handles[appointmentID]...), nil
}

func (m *MemoryStore) DeleteHandle(_ context.Context, appointmentID string, kind model.HandleKind, handle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.handles[appointmentID][:0]
	for _, h := range m.handles[appointmentID] {
		if h.Kind == kind && h.Handle == handle {
			continue
		}
		kept = append(kept, h)
	}
	m.handles[appointmentID] = kept
	return nil
}

func sortBySlot(appts []model.Appointment, desc bool) {
	key := func(a model.Appointment) (string, int) {
		m, _ := timeutil.MinuteOfDay(a.Time)
		return a.Date, m
	}
	sort.Slice(appts, func(i, j int) bool {
		di, mi := key(appts[i])
		dj, mj := key(appts[j])
		if di != dj {
			return (di < dj) != desc
		}
		if mi == mj {
			return false
		}
		return (mi < mj) != desc
	})
}
