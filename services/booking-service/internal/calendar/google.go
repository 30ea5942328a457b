package calendar

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/time/rate"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleWriter writes appointment entries to one Google calendar. Calls are
// paced by a token bucket to stay under the per-calendar write quota.
type GoogleWriter struct {
	events     *gcal.EventsService
	calendarID string
	limiter    *rate.Limiter
}

type GoogleConfig struct {
	CalendarID        string
	CredentialsFile   string
	// RequestsPerSecond defaults to 5; Burst defaults to RequestsPerSecond rounded up.
	RequestsPerSecond float64
	Burst             int
}

func NewGoogleWriter(ctx context.Context, cfg GoogleConfig, opts ...option.ClientOption) (*GoogleWriter, error) {
	if cfg.CalendarID == "" {
		cfg.CalendarID = "primary"
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RequestsPerSecond + 0.999)
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	opts = append(opts, option.WithScopes(gcal.CalendarEventsScope))
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GoogleWriter{
		events:     svc.Events,
		calendarID: cfg.CalendarID,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}, nil
}

func (w *GoogleWriter) CreateEvent(ctx context.Context, title string, start, end time.Time, notes string) (string, error) {
	if err := w.limiter.Wait(ctx); err != nil {
		return "", err
	}
	ev, err := w.events.Insert(w.calendarID, &gcal.Event{
		Summary:     title,
		Description: notes,
		Start:       eventTime(start),
		End:         eventTime(end),
	}).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return ev.Id, nil
}

// DeleteEvent treats an event that is already gone as deleted.
func (w *GoogleWriter) DeleteEvent(ctx context.Context, handle string) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}
	err := w.events.Delete(w.calendarID, handle).Context(ctx).Do()
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && (gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone) {
		return nil
	}
	return err
}

func eventTime(t time.Time) *gcal.EventDateTime {
	return &gcal.EventDateTime{
		DateTime: t.Format(time.RFC3339),
		TimeZone: t.Location().String(),
	}
}

// NoopWriter is used when no calendar is configured.
type NoopWriter struct{}

func (NoopWriter) CreateEvent(context.Context, string, time.Time, time.Time, string) (string, error) {
	return "", nil
}

func (NoopWriter) DeleteEvent(context.Context, string) error { return nil }
