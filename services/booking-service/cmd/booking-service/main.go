package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/chairbook/libs/config"
	"github.com/md-rashed-zaman/chairbook/libs/db"
	"github.com/md-rashed-zaman/chairbook/libs/events"
	"github.com/md-rashed-zaman/chairbook/libs/grpcx"
	"github.com/md-rashed-zaman/chairbook/libs/httpx"
	"github.com/md-rashed-zaman/chairbook/libs/inbox"
	"github.com/md-rashed-zaman/chairbook/libs/kafkax"
	"github.com/md-rashed-zaman/chairbook/libs/migrate"
	otelx "github.com/md-rashed-zaman/chairbook/libs/otel"
	"github.com/md-rashed-zaman/chairbook/libs/outbox"
	"github.com/md-rashed-zaman/chairbook/libs/runtime"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/catalog"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/consumer"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/lifecycle"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/reminders"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/schedule"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/migrations"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	_ = config.LoadDotEnv()
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8083")
	if err != nil {
		panic(err)
	}
	grpcPort, err := config.Port("GRPC_PORT", "9083")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bookingMetrics := metrics.New(reg)

	offsets, rejected := config.MinutesList(config.String("REMINDER_OFFSETS_MINUTES", "1440,60"))
	for _, r := range rejected {
		logger.Warn("invalid reminder offset ignored", "value", r)
	}
	brokers := config.String("KAFKA_BROKERS", "")

	var (
		schedules schedule.Store
		reads     schedule.Store
		services  catalog.Store
		store     storage.Store
		reminder  lifecycle.ReminderScheduler
		checks    []runtime.ReadyCheck
		pool      *db.Pool
	)
	if dbURL := config.String("DATABASE_URL", ""); dbURL != "" {
		if config.Bool("DB_MIGRATE", true) {
			if err := migrate.Up(dbURL, migrations.FS, "schema_migrations_booking", logger); err != nil {
				logger.Error("db migration failed", "err", err)
				panic(err)
			}
		}
		pool, err = db.Open(ctx, dbURL, db.Options{
			MaxConns:        int32(config.Int("DB_MAX_CONNS", 10)),
			MaxConnLifetime: config.Duration("DB_MAX_CONN_LIFETIME", time.Hour),
		})
		if err != nil {
			logger.Error("db connection failed", "err", err)
			panic(err)
		}
		defer pool.Close()

		schedules = schedule.NewRepository(pool)
		reads = schedules
		if config.Bool("SCHEDULE_CACHE_ENABLED", true) {
			// Bookings keep reading the repository directly.
			reads = schedule.NewCachedStore(schedules, config.Duration("SCHEDULE_CACHE_TTL", 30*time.Second))
		}
		services = catalog.NewRepository(pool)
		store = storage.NewBookingRepository(pool)
		outboxRepo := outbox.NewRepository()
		reminder = reminders.NewOutboxScheduler(pool, outboxRepo)
		checks = append(checks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})

		publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
			Brokers:   brokers,
			PollEvery: config.Duration("OUTBOX_POLL_EVERY", 2*time.Second),
			BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
		})
		go publisher.Run(ctx)
	} else {
		logger.Warn("DATABASE_URL not set; using in-memory stores and no reminders")
		schedules = schedule.NewMemoryStore()
		reads = schedules
		services = catalog.NewMemoryStore()
		store = storage.NewMemoryStore()
	}
	if path := config.String("SCHEDULE_SEED_FILE", ""); path != "" {
		seedSchedules(ctx, logger, schedules, services, path)
	}

	manager := lifecycle.NewManager(store, reminder, newCalendar(ctx, logger), newPayments(logger), logger, bookingMetrics, lifecycle.Config{
		ReminderOffsets:   offsets,
		SideEffectTimeout: config.Duration("SIDE_EFFECT_TIMEOUT", 5*time.Second),
	})
	svc := booking.NewService(schedules, services, store, manager, logger, bookingMetrics, booking.Config{
		StoreTimeout: config.Duration("STORE_TIMEOUT", 5*time.Second),
	}).WithScheduleReads(reads)

	if pool != nil && brokers != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
		dueConsumer := kafkax.NewConsumer(logger, inbox.NewRepository(pool), kafkax.ConsumerConfig{
			Brokers: brokers,
			GroupID: config.String("KAFKA_GROUP_ID", service),
			Topic:   config.String("KAFKA_REMINDER_DUE_TOPIC", events.TopicReminderDue),
		}, consumer.ReminderDue(manager, logger))
		go dueConsumer.Run(ctx)
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	handlers.Register(mux,
		handlers.NewBookingHandler(svc, manager, store, logger),
		handlers.NewScheduleHandler(reads, logger),
		handlers.NewCatalogHandler(services, logger),
		newRateLimit(logger),
	)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		handlers.Identity(config.String("JWT_SECRET", "")),
		httpx.WithBodyLimit(1<<20),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	health := grpcx.NewHealthServer(logger)
	health.SetServing("", true)
	health.SetServing(service, true)
	lis, err := net.Listen("tcp", ":"+grpcPort)
	if err != nil {
		logger.Error("grpc listen failed", "err", err)
		panic(err)
	}
	go func() {
		if err := health.Serve(ctx, lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	health.SetServing(service, false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func logDisabled(logger *slog.Logger, what, reason string) {
	logger.Info(what+" disabled", "reason", reason)
}
