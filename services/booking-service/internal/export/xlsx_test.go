package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	appts := []model.Appointment{
		{
			ID:              "appt-1",
			ProviderID:      "barber-1",
			CustomerID:      "cust-1",
			CustomerName:    "Alex",
			Date:            "2025-03-11",
			Time:            "10:20 AM",
			Timezone:        "America/Chicago",
			ServiceName:     "Haircut",
			ServicePrice:    "20.00",
			ServiceDuration: 45,
			Status:          model.StatusBooked,
			CreatedAt:       time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:         "appt-2",
			CustomerID: "cust-2",
			Date:       "2025-03-12",
			Time:       "9:00 AM",
			Timezone:   "UTC",
			Status:     model.StatusCancelled,
			CreatedAt:  time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, appts))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, []string{"appt-1", "2025-03-11", "10:20 AM", "America/Chicago", "Alex", "Haircut", "20.00", "45", "booked", "2025-03-01T09:00:00Z"}, rows[1])
	assert.Equal(t, "cust-2", rows[2][4])
	assert.Equal(t, "cancelled", rows[2][8])
}

func TestWriteXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
