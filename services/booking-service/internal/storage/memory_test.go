package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryInsertUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first, err := s.InsertBooking(ctx, newAppt())
	require.NoError(t, err)

	dup := newAppt()
	dup.Time = "2:30 PM"
	_, err = s.InsertBooking(ctx, dup)
	require.ErrorIs(t, err, apperr.ErrSlotUnavailable)

	other := newAppt()
	other.ProviderID = "barber-2"
	_, err = s.InsertBooking(ctx, other)
	require.NoError(t, err)

	_, changed, err := s.UpdateStatus(ctx, first.ID, model.StatusCancelled, "", nil)
	require.NoError(t, err)
	require.True(t, changed)

	_, err = s.InsertBooking(ctx, dup)
	require.NoError(t, err)

	list, err := s.ListBookings(ctx, "barber-1", "2025-03-11")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemoryConcurrentInsertsOneWinner(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	const n = 16
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.InsertBooking(ctx, newAppt())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrSlotUnavailable)
	}
	assert.Equal(t, 1, wins)
}

func TestMemoryListsAndHandles(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, clock := range []string{"9:00 AM", "14:30", "11:00"} {
		a := newAppt()
		a.Time = clock
		_, err := s.InsertBooking(ctx, a)
		require.NoError(t, err)
	}
	byCustomer, err := s.ListByCustomer(ctx, "cust-1", 2)
	require.NoError(t, err)
	require.Len(t, byCustomer, 2)
	assert.Equal(t, "2:30 PM", byCustomer[0].Time)
	assert.Equal(t, "11:00 AM", byCustomer[1].Time)

	byProvider, err := s.ListByProvider(ctx, "nobody", 0)
	require.NoError(t, err)
	assert.Empty(t, byProvider)

	h := model.SideEffectHandle{AppointmentID: "a1", Kind: model.HandleCalendarEvent, Handle: "evt"}
	require.NoError(t, s.SaveHandle(ctx, h))
	require.NoError(t, s.SaveHandle(ctx, h))
	hs, _ := s.ListHandles(ctx, "a1")
	assert.Len(t, hs, 1)
	require.NoError(t, s.DeleteHandle(ctx, "a1", model.HandleCalendarEvent, "evt"))
	hs, _ = s.ListHandles(ctx, "a1")
	assert.Empty(t, hs)

	_, err = s.GetAppointment(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
