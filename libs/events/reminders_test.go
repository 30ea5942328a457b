package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderKeyIsUTC(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, loc)
	assert.Equal(t, "appt-1|2025-03-10T14:00:00Z|push", ReminderKey("appt-1", at, ChannelPush))
}

func TestReminderRequestedValidate(t *testing.T) {
	r := ReminderRequested{AppointmentID: "a", Recipient: "c", Channel: ChannelPush, RemindAt: "2025-03-10T14:00:00Z"}
	at, err := r.Validate()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC), at)
	assert.Equal(t, "a|2025-03-10T14:00:00Z|push", r.Key())

	r.RemindAt = "tomorrow"
	_, err = r.Validate()
	assert.Error(t, err)

	r.RemindAt = "2025-03-10T14:00:00Z"
	r.Recipient = " "
	_, err = r.Validate()
	assert.Error(t, err)
}
