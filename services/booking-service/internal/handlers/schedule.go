package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/chairbook/libs/auth"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/schedule"
)

type ScheduleHandler struct {
	schedules schedule.Store
	logger    *slog.Logger
}

func NewScheduleHandler(schedules schedule.Store, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules, logger: logger}
}

// Schedule reads any provider's schedule; only the provider may replace it.
func (h *ScheduleHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.put(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ScheduleHandler) get(w http.ResponseWriter, r *http.Request) {
	providerID := strings.TrimSpace(r.URL.Query().Get("provider_id"))
	if providerID == "" {
		http.Error(w, "provider_id required", http.StatusBadRequest)
		return
	}
	s, err := h.schedules.GetProviderSchedule(r.Context(), providerID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *ScheduleHandler) put(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	if caller.Role != auth.RoleProvider {
		http.Error(w, "only providers have schedules", http.StatusForbidden)
		return
	}

	var s model.ProviderSchedule
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if s.ProviderID != "" && s.ProviderID != caller.ID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	saved, err := h.schedules.SaveProviderSchedule(r.Context(), caller.ID, s)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Info("provider schedule saved", "provider_id", caller.ID)
	writeJSON(w, http.StatusOK, saved)
}
