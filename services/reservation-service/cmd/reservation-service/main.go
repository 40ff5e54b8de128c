package main

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/libs/auth"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/libs/config"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/libs/db"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/libs/httpx"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/libs/kafkax"
	otelx "github.com/Nkosikk/edendalesportsprojectnpc-sub000/libs/otel"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/libs/redisx"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/libs/runtime"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/cache"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/calendar"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/feed"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/handlers"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/outbox"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/payments"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/reschedule"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/storage"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/reservation-service/internal/sweeper"
)

func main() {
	service := config.String("SERVICE_NAME", "reservation-service")
	port, err := config.Port("PORT", "8081")
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

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	rdb, err := redisx.Open(ctx,
		config.String("REDIS_ADDR", "localhost:6379"),
		config.String("REDIS_PASSWORD", ""),
		config.Int("REDIS_DB", 0),
	)
	if err != nil {
		// Caching and rate limiting degrade gracefully without redis.
		logger.Error("redis connection failed; caching and rate limiting disabled", "err", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}

	outboxRepo := outbox.NewRepository(pool)
	bookingRepo := storage.NewBookingRepository(pool, outboxRepo)
	fieldRepo := storage.NewFieldRepository(pool)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	completionSweeper := sweeper.New(bookingRepo, logger,
		config.Duration("COMPLETION_SWEEP_INTERVAL", time.Minute))
	go completionSweeper.Run(ctx)

	cal := calendar.New(calendar.ParseHolidays(config.String("HOLIDAYS", "")))
	feedClient := feed.NewClient(config.String("AVAILABILITY_FEED_URL", ""), logger)
	feedCache := cache.NewAvailabilityCache(rdb,
		config.Duration("AVAILABILITY_CACHE_TTL", 2*time.Minute), logger)
	staffKeys := auth.NewStaffKeys(
		config.String("STAFF_KEY_BCRYPT_HASH", ""),
		config.String("ADMIN_KEY_BCRYPT_HASH", ""),
	)

	var payer reschedule.PaymentExecutor
	if stripeKey := config.String("STRIPE_SECRET_KEY", ""); stripeKey != "" {
		payer = payments.NewClient(stripeKey, logger)
	} else {
		logger.Warn("stripe not configured; refunds stay pending for manual settlement")
	}

	saga := reschedule.NewSaga(bookingRepo, payer, logger)
	handler := handlers.New(fieldRepo, bookingRepo, feedClient, feedCache, cal, staffKeys, saga, payer, logger)

	checks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
		{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	}
	if rdb != nil {
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: redisx.ReadyCheck(rdb)})
	}
	mux := runtime.NewBaseMuxWithReady(checks...)
	handler.Register(mux)

	middlewares := []httpx.Middleware{
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1 << 20),
	}
	if rdb != nil {
		limiter := httpx.NewRedisRateLimiter(rdb,
			config.Int("RATE_LIMIT_PER_MINUTE", 120), time.Minute, service)
		middlewares = append(middlewares, limiter.Middleware(logger, true))
	}
	httpHandler := httpx.Chain(mux, middlewares...)
	httpHandler = otelhttp.NewHandler(httpHandler, "reservation")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
