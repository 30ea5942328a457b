package model

import "time"

// CatalogService is one entry on a provider's price list. Bookings copy its
// name, price and duration onto the appointment.
type CatalogService struct {
	ProviderID      string    `json:"provider_id"`
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Price           string    `json:"price"`
	DurationMinutes int       `json:"duration_minutes"`
	UpdatedAt       time.Time `json:"updated_at"`
}

