package model

import "time"

var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

type WorkingHours struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Interval int    `json:"interval"`
}

// ProviderSchedule is the recurring weekly template for one provider.
type ProviderSchedule struct {
	ProviderID       string          `json:"provider_id"`
	DisplayName      string          `json:"display_name"`
	WorkingDays      map[string]bool `json:"working_days"`
	WorkingHours     WorkingHours    `json:"working_hours"`
	UnavailableDates []string        `json:"unavailable_dates"`
	Timezone         string          `json:"timezone"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// DefaultSchedule is what a provider gets before saving one: weekdays 08:00 to 17:00 in 30 minute slots.
func DefaultSchedule(providerID string) ProviderSchedule {
	return ProviderSchedule{
		ProviderID: providerID,
		WorkingDays: map[string]bool{
			"monday":    true,
			"tuesday":   true,
			"wednesday": true,
			"thursday":  true,
			"friday":    true,
			"saturday":  false,
			"sunday":    false,
		},
		WorkingHours:     WorkingHours{Start: "08:00", End: "17:00", Interval: 30},
		UnavailableDates: []string{},
		Timezone:         "UTC",
	}
}

func (s ProviderSchedule) IsUnavailable(date string) bool {
	for _, d := range s.UnavailableDates {
		if d == date {
			return true
		}
	}
	return false
}

// Location resolves Timezone, falling back to UTC for empty or unknown zones.
func (s ProviderSchedule) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ReminderPayload is the content delivered to the customer when a reminder fires.
type ReminderPayload struct {
	AppointmentID string `json:"appointment_id"`
	CustomerID    string `json:"customer_id"`
	Title         string `json:"title"`
	Body          string `json:"body"`
}
