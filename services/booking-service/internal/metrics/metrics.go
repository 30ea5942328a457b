package metrics

import (
	"errors"
	"time"

	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/apperr"
	"github.com/prometheus/client_golang/prometheus"
)

// BookingMetrics exposes counters/histograms for the booking flows. A nil
// *BookingMetrics is valid and records nothing.
type BookingMetrics struct {
	bookings     *prometheus.CounterVec
	slotQueries  *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	sideEffects  *prometheus.CounterVec
	storeLatency *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chairbook",
			Subsystem: "booking",
			Name:      "commits_total",
			Help:      "Booking commit attempts by outcome",
		}, []string{"outcome"}),
		slotQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chairbook",
			Subsystem: "booking",
			Name:      "availability_queries_total",
			Help:      "Availability computations by result",
		}, []string{"result"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chairbook",
			Subsystem: "lifecycle",
			Name:      "transitions_total",
			Help:      "Appointment status transitions",
		}, []string{"from", "to"}),
		sideEffects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chairbook",
			Subsystem: "lifecycle",
			Name:      "side_effects_total",
			Help:      "Reminder, calendar and payment side effects by outcome",
		}, []string{"kind", "action", "status"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chairbook",
			Subsystem: "booking",
			Name:      "store_latency_seconds",
			Help:      "Latency of appointment and schedule store calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookings, m.slotQueries, m.transitions, m.sideEffects, m.storeLatency)
	return m
}

// ObserveBooking classifies err into a bounded outcome label.
func (m *BookingMetrics) ObserveBooking(err error) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(Outcome(err)).Inc()
}

func (m *BookingMetrics) ObserveAvailability(slots int, err error) {
	if m == nil {
		return
	}
	result := "slots"
	switch {
	case err != nil:
		result = "error"
	case slots == 0:
		result = "empty"
	}
	m.slotQueries.WithLabelValues(result).Inc()
}

func (m *BookingMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *BookingMetrics) ObserveSideEffect(kind, action string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "failed"
	}
	m.sideEffects.WithLabelValues(kind, action, status).Inc()
}

func (m *BookingMetrics) ObserveStore(op string, started time.Time) {
	if m == nil {
		return
	}
	m.storeLatency.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

func Outcome(err error) string {
	var fe *apperr.FormatError
	var de *apperr.InvalidDateError
	var ve *apperr.ValidationError
	switch {
	case err == nil:
		return "booked"
	case errors.Is(err, apperr.ErrSlotUnavailable):
		return "slot_unavailable"
	case errors.Is(err, apperr.ErrOutcomeUnknown):
		return "outcome_unknown"
	case errors.As(err, &fe), errors.As(err, &de), errors.As(err, &ve):
		return "invalid_input"
	default:
		return "store_error"
	}
}
