package handlers

import "net/http"

// Register mounts the booking API on mux. limit wraps the endpoints that
// create load (slot queries and bookings).
func Register(mux *http.ServeMux, b *BookingHandler, s *ScheduleHandler, c *CatalogHandler, limit func(http.Handler) http.Handler) {
	if limit == nil {
		limit = func(h http.Handler) http.Handler { return h }
	}
	mux.HandleFunc("/api/v1/providers/schedule", s.Schedule)
	mux.HandleFunc("/api/v1/providers/services", c.Services)
	mux.HandleFunc("/api/v1/public/services", c.PublicList)
	mux.Handle("/api/v1/public/slots", limit(http.HandlerFunc(b.Slots)))
	mux.Handle("/api/v1/public/book", limit(http.HandlerFunc(b.Book)))
	mux.HandleFunc("/api/v1/appointments", b.List)
	mux.HandleFunc("/api/v1/appointments/cancel", b.Cancel)
	mux.HandleFunc("/api/v1/appointments/complete", b.Complete)
	mux.HandleFunc("/api/v1/appointments/export", b.Export)
}
