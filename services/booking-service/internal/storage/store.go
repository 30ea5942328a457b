package storage

import (
	"context"

	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
)

// Store is the appointment persistence contract.
//
// InsertBooking must refuse a second non-cancelled appointment for the same
// provider, date and minute of day with apperr.ErrSlotUnavailable, atomically
// with respect to concurrent inserts.
type Store interface {
	ListBookings(ctx context.Context, providerID, date string) ([]model.Appointment, error)
	InsertBooking(ctx context.Context, appt model.Appointment) (model.Appointment, error)
	GetAppointment(ctx context.Context, id string) (model.Appointment, error)
	// UpdateStatus locks the row, asks guard whether to proceed, and applies
	// the new status. changed is false when guard declined.
	UpdateStatus(ctx context.Context, id string, to model.Status, reason string, guard model.StatusGuard) (appt model.Appointment, changed bool, err error)
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]model.Appointment, error)
	ListByProvider(ctx context.Context, providerID string, limit int) ([]model.Appointment, error)

	SaveHandle(ctx context.Context, h model.SideEffectHandle) error
	ListHandles(ctx context.Context, appointmentID string) ([]model.SideEffectHandle, error)
	DeleteHandle(ctx context.Context, appointmentID string, kind model.HandleKind, handle string) error
}

const defaultListLimit = 50

func clampLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return defaultListLimit
	}
	return limit
}
