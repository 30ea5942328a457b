package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/chairbook/libs/auth"
	"github.com/md-rashed-zaman/chairbook/libs/httpx"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/catalog"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
)

type CatalogHandler struct {
	services catalog.Store
	logger   *slog.Logger
}

func NewCatalogHandler(services catalog.Store, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{services: services, logger: logger}
}

// PublicList lists the services a provider offers, for customers picking one.
func (h *CatalogHandler) PublicList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	providerID := strings.TrimSpace(r.URL.Query().Get("provider_id"))
	if providerID == "" {
		http.Error(w, "provider_id required", http.StatusBadRequest)
		return
	}
	h.list(w, r, providerID)
}

// Services lets a provider manage their own catalog.
func (h *CatalogHandler) Services(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	if caller.Role != auth.RoleProvider {
		http.Error(w, "only providers have services", http.StatusForbidden)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.list(w, r, caller.ID)
	case http.MethodPost:
		h.save(w, r, caller, true)
	case http.MethodPut:
		h.save(w, r, caller, false)
	case http.MethodDelete:
		h.delete(w, r, caller)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *CatalogHandler) list(w http.ResponseWriter, r *http.Request, providerID string) {
	services, err := h.services.ListServices(r.Context(), providerID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"provider_id": providerID,
		"services":    services,
	})
}

// save creates a service with a fresh id, or replaces an existing one.
func (h *CatalogHandler) save(w http.ResponseWriter, r *http.Request, caller httpx.Caller, create bool) {
	var s model.CatalogService
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if s.ProviderID != "" && s.ProviderID != caller.ID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	status := http.StatusOK
	if create {
		s.ID = ""
		status = http.StatusCreated
	} else {
		s.ID = strings.TrimSpace(s.ID)
		if s.ID == "" {
			http.Error(w, "id required", http.StatusBadRequest)
			return
		}
		if _, err := h.services.GetService(r.Context(), caller.ID, s.ID); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}

	saved, err := h.services.SaveService(r.Context(), caller.ID, s)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Info("provider service saved", "provider_id", caller.ID, "service_id", saved.ID)
	writeJSON(w, status, saved)
}

func (h *CatalogHandler) delete(w http.ResponseWriter, r *http.Request, caller httpx.Caller) {
	serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))
	if serviceID == "" {
		http.Error(w, "service_id required", http.StatusBadRequest)
		return
	}
	if err := h.services.DeleteService(r.Context(), caller.ID, serviceID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}
		writeError(w, h.logger, err)
		return
	}
	h.logger.Info("provider service deleted", "provider_id", caller.ID, "service_id", serviceID)
	w.WriteHeader(http.StatusNoContent)
}
