package handlers

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/md-rashed-zaman/chairbook/libs/auth"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/export"
)

const maxExportRows = 1000

// Export returns the calling provider's appointments as an XLSX workbook.
func (h *BookingHandler) Export(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	if caller.Role != auth.RoleProvider {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	limit := maxExportRows
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n < limit {
			limit = n
		}
	}
	appts, err := h.store.ListByProvider(r.Context(), caller.ID, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, appts); err != nil {
		h.logger.Error("appointment export failed", "provider_id", caller.ID, "err", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="appointments-`+caller.ID+`.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
