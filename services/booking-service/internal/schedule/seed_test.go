package schedule

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schedules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestSeedApply(t *testing.T) {
	path := writeSeed(t, `
providers:
  - provider_id: barber-1
    display_name: Sam
    timezone: America/Chicago
    working_days: [Tuesday, saturday]
    working_hours: {start: "10:00", end: "11:00", interval: 20}
    unavailable_dates: ["2025-12-25"]
    services:
      - {id: cut, name: Haircut, price: "20", duration_minutes: 30}
      - {id: beard, name: Beard Trim, price: "10.50", duration_minutes: 15}
  - provider_id: barber-2
    working_days: [monday]
    working_hours: {start: "9:00 AM", end: "5 PM", interval: 30}
`)
	seed, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, seed.Providers, 2)

	store := NewMemoryStore()
	services := catalog.NewMemoryStore()
	n, err := seed.Apply(context.Background(), store, services)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	cut, err := services.GetService(context.Background(), "barber-1", "cut")
	require.NoError(t, err)
	assert.Equal(t, "20.00", cut.Price)
	assert.Equal(t, 30, cut.DurationMinutes)
	list, err := services.ListServices(context.Background(), "barber-2")
	require.NoError(t, err)
	assert.Empty(t, list)

	got, err := store.GetProviderSchedule(context.Background(), "barber-1")
	require.NoError(t, err)
	assert.True(t, got.WorkingDays["tuesday"])
	assert.False(t, got.WorkingDays["monday"])
	assert.Equal(t, "America/Chicago", got.Timezone)
	assert.Equal(t, "Sam", got.DisplayName)
	assert.Equal(t, []string{"2025-12-25"}, got.UnavailableDates)

	got, err = store.GetProviderSchedule(context.Background(), "barber-2")
	require.NoError(t, err)
	assert.Equal(t, "09:00", got.WorkingHours.Start)
	assert.Equal(t, "17:00", got.WorkingHours.End)
	assert.Equal(t, "UTC", got.Timezone)
}

func TestSeedRejectsInvalidEntries(t *testing.T) {
	seed, err := LoadSeed(writeSeed(t, `
providers:
  - provider_id: barber-1
    working_days: [monday]
    working_hours: {start: "18:00", end: "10:00", interval: 30}
`))
	require.NoError(t, err)

	_, err = seed.Apply(context.Background(), NewMemoryStore(), catalog.NewMemoryStore())
	var verr *apperr.ValidationError
	assert.ErrorAs(t, err, &verr)

	seed, err = LoadSeed(writeSeed(t, `
providers:
  - provider_id: barber-1
    working_days: [monday]
    working_hours: {start: "09:00", end: "17:00", interval: 30}
    services:
      - {id: cut, name: Haircut, price: "cheap", duration_minutes: 30}
`))
	require.NoError(t, err)
	_, err = seed.Apply(context.Background(), NewMemoryStore(), catalog.NewMemoryStore())
	assert.ErrorAs(t, err, &verr)

	seed, err = LoadSeed(writeSeed(t, "providers:\n  - timezone: UTC\n"))
	require.NoError(t, err)
	_, err = seed.Apply(context.Background(), NewMemoryStore(), catalog.NewMemoryStore())
	assert.Error(t, err)

	_, err = LoadSeed(writeSeed(t, "providers: [\n"))
	assert.Error(t, err)

	_, err = LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
