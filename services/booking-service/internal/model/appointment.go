package model

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusBooked    Status = "booked"
	StatusReminded  Status = "reminded"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusBooked, StatusReminded, StatusCompleted, StatusCancelled:
		return s, nil
	default:
		return "", fmt.Errorf("unknown appointment status %q", raw)
	}
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// DefaultServiceDuration applies when a service carries no duration.
const DefaultServiceDuration = 30

type Appointment struct {
	ID           string
	ProviderID   string
	CustomerID   string
	ProviderName string
	CustomerName string

	// Date is YYYY-MM-DD and Time the canonical slot label ("2:30 PM"), both
	// on the provider's wall clock.
	Date     string
	Time     string
	Timezone string

	ServiceID       string
	ServiceName     string
	ServicePrice    string
	ServiceDuration int

	Status       Status
	CancelledAt  *time.Time
	CancelReason string
	CreatedAt    time.Time
}

func (a Appointment) DurationMinutes() int {
	if a.ServiceDuration <= 0 {
		return DefaultServiceDuration
	}
	return a.ServiceDuration
}

// Slot is a derived bookable start time; never persisted.
type Slot struct {
	Date       string `json:"date"`
	Time       string `json:"time"`
	ProviderID string `json:"provider_id"`
}

type HandleKind string

const (
	HandleReminder      HandleKind = "reminder"
	HandleCalendarEvent HandleKind = "calendar_event"
)

// SideEffectHandle records an external registration made for an appointment
// so it can be withdrawn on cancellation.
type SideEffectHandle struct {
	AppointmentID string
	Kind          HandleKind
	Handle        string
	CreatedAt     time.Time
}

// StatusGuard inspects the locked current row and decides whether a status
// update should proceed. Returning false with a nil error leaves the row as is.
type StatusGuard func(current Appointment) (bool, error)
