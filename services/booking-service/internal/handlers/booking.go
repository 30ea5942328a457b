package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/chairbook/libs/auth"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/lifecycle"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/storage"
)

type BookingHandler struct {
	svc       *booking.Service
	lifecycle *lifecycle.Manager
	store     storage.Store
	logger    *slog.Logger
}

func NewBookingHandler(svc *booking.Service, manager *lifecycle.Manager, store storage.Store, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, lifecycle: manager, store: store, logger: logger}
}

type bookRequest struct {
	ProviderID   string `json:"provider_id"`
	CustomerName string `json:"customer_name"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	ServiceID    string `json:"service_id"`
}

type appointmentIDRequest struct {
	AppointmentID string `json:"appointment_id"`
	Reason        string `json:"reason"`
}

type appointmentView struct {
	AppointmentID   string `json:"appointment_id"`
	ProviderID      string `json:"provider_id"`
	CustomerID      string `json:"customer_id"`
	ProviderName    string `json:"provider_name,omitempty"`
	CustomerName    string `json:"customer_name,omitempty"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Timezone        string `json:"timezone"`
	ServiceID       string `json:"service_id,omitempty"`
	ServiceName     string `json:"service_name,omitempty"`
	ServicePrice    string `json:"service_price,omitempty"`
	ServiceDuration int    `json:"service_duration_minutes"`
	Status          string `json:"status"`
	CancelledAt     string `json:"cancelled_at,omitempty"`
	CancelReason    string `json:"cancel_reason,omitempty"`
	CreatedAt       string `json:"created_at"`
}

func toView(a model.Appointment) appointmentView {
	v := appointmentView{
		AppointmentID:   a.ID,
		ProviderID:      a.ProviderID,
		CustomerID:      a.CustomerID,
		ProviderName:    a.ProviderName,
		CustomerName:    a.CustomerName,
		Date:            a.Date,
		Time:            a.Time,
		Timezone:        a.Timezone,
		ServiceID:       a.ServiceID,
		ServiceName:     a.ServiceName,
		ServicePrice:    a.ServicePrice,
		ServiceDuration: a.DurationMinutes(),
		Status:          string(a.Status),
		CancelReason:    a.CancelReason,
		CreatedAt:       a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.CancelledAt != nil {
		v.CancelledAt = a.CancelledAt.UTC().Format(time.RFC3339)
	}
	return v
}

// Slots lists the bookable slot labels for a provider on a date.
func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	providerID := strings.TrimSpace(r.URL.Query().Get("provider_id"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if providerID == "" || date == "" {
		http.Error(w, "provider_id and date are required", http.StatusBadRequest)
		return
	}

	slots, err := h.svc.Availability(r.Context(), providerID, date)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if slots == nil {
		slots = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"provider_id": providerID,
		"date":        date,
		"slots":       slots,
	})
}

func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ProviderID = strings.TrimSpace(req.ProviderID)
	if req.ProviderID == "" || strings.TrimSpace(req.Date) == "" || strings.TrimSpace(req.Time) == "" || strings.TrimSpace(req.ServiceID) == "" {
		http.Error(w, "provider_id, date, time and service_id are required", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.Book(r.Context(), booking.Request{
		ProviderID:   req.ProviderID,
		CustomerID:   caller.ID,
		CustomerName: req.CustomerName,
		Date:         strings.TrimSpace(req.Date),
		Time:         req.Time,
		ServiceID:    req.ServiceID,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toView(appt))
}

// List returns the caller's appointments, newest slot first. Callers may only
// list their own appointments.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	customerID := strings.TrimSpace(q.Get("customer_id"))
	providerID := strings.TrimSpace(q.Get("provider_id"))
	if customerID == "" && providerID == "" {
		if caller.Role == auth.RoleProvider {
			providerID = caller.ID
		} else {
			customerID = caller.ID
		}
	}
	if (customerID != "" && customerID != caller.ID) || (providerID != "" && providerID != caller.ID) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	limit := 50
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	var (
		appts []model.Appointment
		err   error
	)
	if providerID != "" {
		appts, err = h.store.ListByProvider(r.Context(), providerID, limit)
	} else {
		appts, err = h.store.ListByCustomer(r.Context(), customerID, limit)
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	items := make([]appointmentView, 0, len(appts))
	for _, a := range appts {
		items = append(items, toView(a))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	req, ok := decodeAppointmentID(w, r)
	if !ok {
		return
	}

	appt, err := h.lifecycle.Cancel(r.Context(), req.AppointmentID, lifecycle.Actor{
		ID:         caller.ID,
		IsProvider: caller.Role == auth.RoleProvider,
	}, req.Reason)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toView(appt))
}

func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	if caller.Role != auth.RoleProvider {
		http.Error(w, "only the provider can complete an appointment", http.StatusForbidden)
		return
	}
	req, ok := decodeAppointmentID(w, r)
	if !ok {
		return
	}

	appt, err := h.lifecycle.Complete(r.Context(), req.AppointmentID, lifecycle.Actor{ID: caller.ID, IsProvider: true})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toView(appt))
}

func decodeAppointmentID(w http.ResponseWriter, r *http.Request) (appointmentIDRequest, bool) {
	var req appointmentIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return req, false
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
