package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/chairbook/libs/config"
	"github.com/md-rashed-zaman/chairbook/libs/httpx"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/calendar"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/catalog"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/lifecycle"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/payments"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/schedule"
	"github.com/redis/go-redis/v9"
)

func newCalendar(ctx context.Context, logger *slog.Logger) lifecycle.CalendarWriter {
	calendarID := config.String("GOOGLE_CALENDAR_ID", "")
	if calendarID == "" {
		logDisabled(logger, "calendar sync", "GOOGLE_CALENDAR_ID not set")
		return calendar.NoopWriter{}
	}
	w, err := calendar.NewGoogleWriter(ctx, calendar.GoogleConfig{
		CalendarID:      calendarID,
		CredentialsFile: config.String("GOOGLE_APPLICATION_CREDENTIALS", ""),
	})
	if err != nil {
		logger.Error("calendar client init failed; calendar sync disabled", "err", err)
		return calendar.NoopWriter{}
	}
	return w
}

func newPayments(logger *slog.Logger) lifecycle.PaymentProcessor {
	key := config.String("STRIPE_SECRET_KEY", "")
	if key == "" {
		logDisabled(logger, "payment collection", "STRIPE_SECRET_KEY not set")
		return payments.Noop{}
	}
	return payments.NewStripeProcessor(payments.StripeConfig{
		SecretKey: key,
		Currency:  config.String("STRIPE_CURRENCY", "usd"),
	})
}

// newRateLimit prefers the shared Redis limiter so all replicas count
// together, and falls back to a per-process limiter.
func newRateLimit(logger *slog.Logger) func(http.Handler) http.Handler {
	limit := config.Int("RATE_LIMIT_PER_MINUTE", 60)
	window := config.Duration("RATE_LIMIT_WINDOW", time.Minute)

	addr := config.String("REDIS_ADDR", "")
	if addr == "" {
		return httpx.NewRateLimiter(limit, window).Middleware()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.String("REDIS_PASSWORD", ""),
		DB:       config.Int("REDIS_DB", 0),
	})
	rl := httpx.NewRedisRateLimiter(rdb, limit, window, config.String("RATE_LIMIT_PREFIX", "chairbook:rl"))
	return rl.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
}

func seedSchedules(ctx context.Context, logger *slog.Logger, store schedule.Store, services catalog.Store, path string) {
	seed, err := schedule.LoadSeed(path)
	if err != nil {
		logger.Error("schedule seed skipped", "path", path, "err", err)
		return
	}
	n, err := seed.Apply(ctx, store, services)
	if err != nil {
		logger.Error("schedule seed stopped", "path", path, "applied", n, "err", err)
		return
	}
	logger.Info("schedules seeded", "path", path, "providers", n)
}
