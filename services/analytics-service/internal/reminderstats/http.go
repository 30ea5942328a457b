package reminderstats

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/chairbook/libs/db"
)

const maxRangeDays = 92

// Handler serves GET /api/v1/analytics/reminders?from=YYYY-MM-DD&to=YYYY-MM-DD.
// Both bounds default to today (UTC).
func Handler(q db.Querier, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		today := time.Now().UTC().Format(time.DateOnly)
		from, err := parseDay(r.URL.Query().Get("from"), today)
		if err != nil {
			http.Error(w, "invalid from", http.StatusBadRequest)
			return
		}
		to, err := parseDay(r.URL.Query().Get("to"), today)
		if err != nil {
			http.Error(w, "invalid to", http.StatusBadRequest)
			return
		}
		if to.Before(from) || to.Sub(from) > maxRangeDays*24*time.Hour {
			http.Error(w, "invalid range", http.StatusBadRequest)
			return
		}

		metrics, err := Daily(r.Context(), q, from, to)
		if err != nil {
			logger.Error("reminder metrics query failed", "err", err)
			http.Error(w, "metrics unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"metrics": metrics})
	}
}

func parseDay(raw, fallback string) (time.Time, error) {
	if raw == "" {
		raw = fallback
	}
	return time.Parse(time.DateOnly, raw)
}
