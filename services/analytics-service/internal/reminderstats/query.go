package reminderstats

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/chairbook/libs/db"
)

type DailyMetric struct {
	Day          string `json:"day"`
	Channel      string `json:"channel"`
	Sent         int    `json:"sent"`
	Failed       int    `json:"failed"`
	DeadLettered int    `json:"dead_lettered"`
}

// Daily returns counters for days in [from, to], oldest first.
func Daily(ctx context.Context, q db.Querier, from, to time.Time) ([]DailyMetric, error) {
	rows, err := q.Query(ctx, `
		SELECT to_char(day, 'YYYY-MM-DD'), channel, sent_count, failed_count, dead_lettered_count
		FROM daily_reminder_metrics
		WHERE day BETWEEN $1::date AND $2::date
		ORDER BY day, channel
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []DailyMetric{}
	for rows.Next() {
		var m DailyMetric
		if err := rows.Scan(&m.Day, &m.Channel, &m.Sent, &m.Failed, &m.DeadLettered); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
