package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	*MemoryStore
	gets    int
	saveErr error
}

func (c *countingStore) GetProviderSchedule(ctx context.Context, providerID string) (model.ProviderSchedule, error) {
	c.gets++
	return c.MemoryStore.GetProviderSchedule(ctx, providerID)
}

func (c *countingStore) SaveProviderSchedule(ctx context.Context, providerID string, s model.ProviderSchedule) (model.ProviderSchedule, error) {
	if c.saveErr != nil {
		return model.ProviderSchedule{}, c.saveErr
	}
	return c.MemoryStore.SaveProviderSchedule(ctx, providerID, s)
}

func TestCachedStoreServesRepeatReads(t *testing.T) {
	inner := &countingStore{MemoryStore: NewMemoryStore()}
	store := NewCachedStore(inner, time.Minute)
	ctx := context.Background()

	first, err := store.GetProviderSchedule(ctx, "barber-1")
	require.NoError(t, err)
	first.WorkingDays["sunday"] = true

	second, err := store.GetProviderSchedule(ctx, "barber-1")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.gets)
	assert.False(t, second.WorkingDays["sunday"])
}

func TestCachedStoreRefreshesOnSave(t *testing.T) {
	inner := &countingStore{MemoryStore: NewMemoryStore()}
	store := NewCachedStore(inner, time.Minute)
	ctx := context.Background()

	_, err := store.GetProviderSchedule(ctx, "barber-1")
	require.NoError(t, err)

	s := model.DefaultSchedule("barber-1")
	s.WorkingHours = model.WorkingHours{Start: "10:00", End: "11:00", Interval: 20}
	_, err = store.SaveProviderSchedule(ctx, "barber-1", s)
	require.NoError(t, err)

	got, err := store.GetProviderSchedule(ctx, "barber-1")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.gets)
	assert.Equal(t, "10:00", got.WorkingHours.Start)

	inner.saveErr = errors.New("db down")
	_, err = store.SaveProviderSchedule(ctx, "barber-1", s)
	require.Error(t, err)

	_, err = store.GetProviderSchedule(ctx, "barber-1")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.gets)
}
