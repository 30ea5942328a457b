package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/apperr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, "booked", Outcome(nil))
	assert.Equal(t, "slot_unavailable", Outcome(fmt.Errorf("x: %w", apperr.ErrSlotUnavailable)))
	assert.Equal(t, "outcome_unknown", Outcome(&apperr.StoreError{Op: "insert", Err: apperr.ErrOutcomeUnknown}))
	assert.Equal(t, "invalid_input", Outcome(&apperr.FormatError{Input: "x"}))
	assert.Equal(t, "store_error", Outcome(&apperr.StoreError{Op: "list", Err: context.Canceled}))
}

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveBooking(nil)
	m.ObserveBooking(apperr.ErrSlotUnavailable)
	m.ObserveBooking(nil)
	m.ObserveAvailability(0, nil)
	m.ObserveSideEffect("reminder", "schedule", errors.New("boom"))
	m.ObserveStore("insert", time.Now())

	assert.Equal(t, 2.0, counterValue(t, reg, "chairbook_booking_commits_total", "booked"))
	assert.Equal(t, 1.0, counterValue(t, reg, "chairbook_booking_commits_total", "slot_unavailable"))
	assert.Equal(t, 1.0, counterValue(t, reg, "chairbook_booking_availability_queries_total", "empty"))
	assert.Equal(t, 1.0, counterValue(t, reg, "chairbook_lifecycle_side_effects_total", "failed"))
}

// counterValue finds the series of name that has a label equal to labelValue.
func counterValue(t *testing.T, reg *prometheus.Registry, name, labelValue string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if lp.GetValue() == labelValue {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveBooking(nil)
	m.ObserveTransition("booked", "cancelled")
	m.ObserveStore("insert", time.Now())
}
