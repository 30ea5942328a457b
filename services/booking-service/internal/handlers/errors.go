package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/apperr"
)

// writeError is the single place booking errors become HTTP statuses.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var fe *apperr.FormatError
	var de *apperr.InvalidDateError
	var ve *apperr.ValidationError
	var se *apperr.StoreError

	switch {
	case errors.Is(err, apperr.ErrSlotUnavailable):
		http.Error(w, "time slot is no longer available", http.StatusConflict)
	case errors.Is(err, apperr.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, apperr.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, apperr.ErrNotFound):
		msg := "appointment not found"
		if err != apperr.ErrNotFound {
			msg = err.Error()
		}
		http.Error(w, msg, http.StatusNotFound)
	case errors.As(err, &fe), errors.As(err, &de), errors.As(err, &ve):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, apperr.ErrOutcomeUnknown):
		logger.Error("booking outcome unknown", "err", err)
		http.Error(w, "booking outcome unknown; check your appointments before retrying", http.StatusGatewayTimeout)
	case errors.As(err, &se):
		logger.Error("store unavailable", "err", err, "op", se.Op)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
	default:
		logger.Error("request failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
