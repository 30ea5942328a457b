package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreWrapping(t *testing.T) {
	assert.NoError(t, Store("insert", nil))

	err := Store("insert", context.DeadlineExceeded)
	var se *StoreError
	assert.ErrorAs(t, err, &se)
	assert.Equal(t, "insert", se.Op)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Same(t, ErrSlotUnavailable, Store("insert", ErrSlotUnavailable))
	assert.Equal(t, err, Store("outer", err))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(fmt.Errorf("book: %w", ErrSlotUnavailable)))
	assert.True(t, IsRetryable(&StoreError{Op: "list", Err: errors.New("conn reset")}))
	assert.False(t, IsRetryable(&StoreError{Op: "insert", Err: ErrOutcomeUnknown}))
	assert.False(t, IsRetryable(&FormatError{Input: "x", Reason: "bad"}))
	assert.False(t, IsRetryable(nil))
}

func TestMessages(t *testing.T) {
	assert.Equal(t, `invalid time format "25:00": hour out of range`, (&FormatError{Input: "25:00", Reason: "hour out of range"}).Error())
	assert.Equal(t, `invalid date "2025-02-30": no such day`, (&InvalidDateError{Date: "2025-02-30", Reason: "no such day"}).Error())
	assert.Equal(t, "invalid workingHours.interval: must be positive", (&ValidationError{Field: "workingHours.interval", Reason: "must be positive"}).Error())
}
