package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/catalog"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/schedule"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/timeutil"
)

// BookedHook runs the side effects of a fresh booking. It must not fail the
// booking; implementations log their own errors.
type BookedHook interface {
	OnBooked(ctx context.Context, appt model.Appointment)
}

// Request carries only what the customer chooses. Service details and the
// provider's name are read from the provider's own records.
type Request struct {
	ProviderID   string
	CustomerID   string
	CustomerName string
	Date         string
	Time         string
	ServiceID    string
}

type Service struct {
	schedules    schedule.Store
	reads        schedule.Store
	services     catalog.Store
	store        storage.Store
	hook         BookedHook
	logger       *slog.Logger
	metrics      *metrics.BookingMetrics
	storeTimeout time.Duration
}

type Config struct {
	// StoreTimeout bounds every individual store call.
	StoreTimeout time.Duration
}

// NewService books against schedules and services as stored. Neither may be
// a cache: a booking must see the provider's latest schedule.
func NewService(schedules schedule.Store, services catalog.Store, store storage.Store, hook BookedHook, logger *slog.Logger, m *metrics.BookingMetrics, cfg Config) *Service {
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}
	return &Service{
		schedules:    schedules,
		reads:        schedules,
		services:     services,
		store:        store,
		hook:         hook,
		logger:       logger,
		metrics:      m,
		storeTimeout: cfg.StoreTimeout,
	}
}

// WithScheduleReads serves Availability from reads, which may be a cache.
// Book keeps reading the store given to NewService.
func (s *Service) WithScheduleReads(reads schedule.Store) *Service {
	if reads != nil {
		s.reads = reads
	}
	return s
}

// Availability computes the free slot labels for providerID on date. The
// bookings are always read fresh; the schedule comes from the read store.
func (s *Service) Availability(ctx context.Context, providerID, date string) ([]string, error) {
	slots, _, err := s.availability(ctx, s.reads, providerID, date)
	s.metrics.ObserveAvailability(len(slots), err)
	return slots, err
}

func (s *Service) availability(ctx context.Context, schedules schedule.Store, providerID, date string) ([]string, model.ProviderSchedule, error) {
	if strings.TrimSpace(providerID) == "" {
		return nil, model.ProviderSchedule{}, &apperr.ValidationError{Field: "providerId", Reason: "required"}
	}
	if err := timeutil.ValidateDate(date); err != nil {
		return nil, model.ProviderSchedule{}, err
	}

	var sched model.ProviderSchedule
	err := s.withTimeout(ctx, "get schedule", func(ctx context.Context) error {
		var err error
		sched, err = schedules.GetProviderSchedule(ctx, providerID)
		return err
	})
	if err != nil {
		return nil, model.ProviderSchedule{}, err
	}

	var existing []model.Appointment
	err = s.withTimeout(ctx, "list bookings", func(ctx context.Context) error {
		var err error
		existing, err = s.store.ListBookings(ctx, providerID, date)
		return err
	})
	if err != nil {
		return nil, model.ProviderSchedule{}, err
	}

	slots, err := availability.ComputeAvailableSlots(sched, date, existing)
	return slots, sched, err
}

// Book re-validates the requested slot against fresh state and commits it.
//
// ErrSlotUnavailable means the caller should re-query availability. A
// StoreError wrapping ErrOutcomeUnknown means the insert may have landed and
// the caller must look before retrying.
func (s *Service) Book(ctx context.Context, req Request) (model.Appointment, error) {
	appt, err := s.book(ctx, req)
	s.metrics.ObserveBooking(err)
	if err != nil {
		return model.Appointment{}, err
	}

	s.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"provider_id", appt.ProviderID,
		"date", appt.Date,
		"time", appt.Time,
	)
	if s.hook != nil {
		s.hook.OnBooked(ctx, appt)
	}
	return appt, nil
}

func (s *Service) book(ctx context.Context, req Request) (model.Appointment, error) {
	clock, err := timeutil.NormalizeTime(req.Time)
	if err != nil {
		return model.Appointment{}, err
	}
	if err := timeutil.ValidateDate(req.Date); err != nil {
		return model.Appointment{}, err
	}
	if strings.TrimSpace(req.CustomerID) == "" {
		return model.Appointment{}, &apperr.ValidationError{Field: "customerId", Reason: "required"}
	}
	serviceID := strings.TrimSpace(req.ServiceID)
	if serviceID == "" {
		return model.Appointment{}, &apperr.ValidationError{Field: "serviceId", Reason: "required"}
	}

	slots, sched, err := s.availability(ctx, s.schedules, req.ProviderID, req.Date)
	if err != nil {
		return model.Appointment{}, err
	}

	var offered model.CatalogService
	err = s.withTimeout(ctx, "get service", func(ctx context.Context) error {
		var err error
		offered, err = s.services.GetService(ctx, req.ProviderID, serviceID)
		return err
	})
	if errors.Is(err, apperr.ErrNotFound) {
		return model.Appointment{}, &apperr.ValidationError{Field: "serviceId", Reason: "provider does not offer " + serviceID}
	}
	if err != nil {
		return model.Appointment{}, err
	}

	if !availability.Contains(slots, clock) {
		return model.Appointment{}, apperr.ErrSlotUnavailable
	}

	label, _ := timeutil.LabelFor(clock)
	appt := model.Appointment{
		ProviderID:      req.ProviderID,
		CustomerID:      req.CustomerID,
		ProviderName:    sched.DisplayName,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		Date:            req.Date,
		Time:            label,
		Timezone:        sched.Timezone,
		ServiceID:       offered.ID,
		ServiceName:     offered.Name,
		ServicePrice:    offered.Price,
		ServiceDuration: offered.DurationMinutes,
	}

	var saved model.Appointment
	err = s.withTimeout(ctx, "insert booking", func(ctx context.Context) error {
		var err error
		saved, err = s.store.InsertBooking(ctx, appt)
		return err
	})
	if err != nil {
		// Once the context ends mid-insert the row may still have committed.
		if !errors.Is(err, apperr.ErrSlotUnavailable) &&
			(errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
			return model.Appointment{}, &apperr.StoreError{
				Op:  "insert booking",
				Err: fmt.Errorf("%w: %v", apperr.ErrOutcomeUnknown, err),
			}
		}
		return model.Appointment{}, err
	}
	return saved, nil
}

func (s *Service) withTimeout(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	started := time.Now()
	err := fn(ctx)
	s.metrics.ObserveStore(op, started)
	if ctxErr := ctx.Err(); err != nil && ctxErr != nil && !errors.Is(err, ctxErr) {
		err = fmt.Errorf("%w: %w", ctxErr, err)
	}
	return err
}
