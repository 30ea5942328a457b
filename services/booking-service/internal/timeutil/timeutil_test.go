package timeutil

import (
	"testing"
	"time"

	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTime(t *testing.T) {
	cases := map[string]string{
		"2:30 PM":        "14:30",
		"2:30\u202fPM":   "14:30",
		"2:30\u00a0pm":   "14:30",
		"2:30\u2009 PM":  "14:30",
		"  9:05am ":      "09:05",
		"12:00 AM":       "00:00",
		"12:15 PM":       "12:15",
		"9 PM":           "21:00",
		"14:30":          "14:30",
		"7":              "07:00",
		"08:45:30":       "08:45",
		"\ufeff11:59 PM": "23:59",
	}
	for in, want := range cases {
		got, err := NormalizeTime(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestNormalizeTimeRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "ab:30 PM", "25:00", "13:00 PM", "9:75", "9:30 XM", "0:30 PM", "00:15 am", "9:00:99", "14:30:60"} {
		_, err := NormalizeTime(in)
		var fe *apperr.FormatError
		assert.ErrorAs(t, err, &fe, "input %q", in)
	}
}

func TestCombineDateTimeUsesWallClockComponents(t *testing.T) {
	// A negative-offset zone is where parsing the date as UTC midnight would slip a day.
	loc := time.FixedZone("UTC-5", -5*3600)

	got, err := CombineDateTimeIn("2025-03-10", "00:30", loc)
	require.NoError(t, err)
	assert.Equal(t, 2025, got.Year())
	assert.Equal(t, time.March, got.Month())
	assert.Equal(t, 10, got.Day())
	assert.Equal(t, 0, got.Hour())
	assert.Equal(t, 30, got.Minute())
	assert.Equal(t, loc, got.Location())

	got, err = CombineDateTimeIn("2025-03-10", "2:30 PM", loc)
	require.NoError(t, err)
	assert.Equal(t, 14, got.Hour())
	assert.Equal(t, time.Date(2025, 3, 10, 19, 30, 0, 0, time.UTC), got.UTC())
}

func TestCombineDateTimeRejects(t *testing.T) {
	cases := [][2]string{
		{"2025-02-30", "10:00"},
		{"2025-13-01", "10:00"},
		{"2025-3-10", "10:00"},
		{"10/03/2025", "10:00"},
		{"2025-03-10", "24:00:00"},
		{"2025-03-10", "noon"},
	}
	for _, c := range cases {
		_, err := CombineDateTimeIn(c[0], c[1], time.UTC)
		var de *apperr.InvalidDateError
		assert.ErrorAs(t, err, &de, "%v", c)
	}
}

func TestWeekday(t *testing.T) {
	wd, err := Weekday("2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, "monday", wd)

	wd, err = Weekday("2025-03-16")
	require.NoError(t, err)
	assert.Equal(t, "sunday", wd)

	_, err = Weekday("2025-02-29")
	assert.Error(t, err)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "12:00 AM", FormatSlotLabel(0))
	assert.Equal(t, "9:00 AM", FormatSlotLabel(9*60))
	assert.Equal(t, "12:30 PM", FormatSlotLabel(12*60+30))
	assert.Equal(t, "4:30 PM", FormatSlotLabel(16*60+30))

	label, err := LabelFor("14:30")
	require.NoError(t, err)
	assert.Equal(t, "2:30 PM", label)

	m1, _ := MinuteOfDay("14:30")
	m2, _ := MinuteOfDay("2:30 PM")
	assert.Equal(t, m1, m2)
}

func TestParseDate(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	d, err := ParseDate("2024-02-29", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, loc), d)
}
