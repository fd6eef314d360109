package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/KoraMaple/wizcuts-sub001/libs/config"
	"github.com/KoraMaple/wizcuts-sub001/libs/db"
	"github.com/KoraMaple/wizcuts-sub001/libs/httpx"
	"github.com/KoraMaple/wizcuts-sub001/libs/kafkax"
	otelx "github.com/KoraMaple/wizcuts-sub001/libs/otel"
	"github.com/KoraMaple/wizcuts-sub001/libs/runtime"
	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/booking"
	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/handlers"
	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/lifecycle"
	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/outbox"
	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/payments"
	"github.com/KoraMaple/wizcuts-sub001/services/booking-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8080")
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

	bookingRepo := storage.NewBookingRepository(pool)
	catalogRepo := storage.NewCatalogRepository(pool)
	paymentsRepo := storage.NewPaymentsRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	svc := booking.NewService(bookingRepo, catalogRepo, logger)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	lifecycleWorker := lifecycle.NewWorker(pool, lifecycle.NewRepository(), outboxRepo, logger, lifecycle.WorkerConfig{
		Interval:     time.Duration(config.Int("LIFECYCLE_INTERVAL_SECONDS", 30)) * time.Second,
		BatchSize:    config.Int("LIFECYCLE_BATCH_SIZE", 50),
		ReminderLead: time.Duration(config.Int("REMINDER_LEAD_MINUTES", 1440)) * time.Minute,
	})
	go lifecycleWorker.Run(ctx)

	jwtSecret := config.String("JWT_SECRET", "dev-secret")
	bookingHandler := handlers.NewBookingHandler(svc, logger)
	catalogHandler := handlers.NewCatalogHandler(catalogRepo, logger)
	adminCatalogHandler := handlers.NewAdminCatalogHandler(catalogRepo, logger)
	adminHandler := handlers.NewAdminHandler(logger, handlers.AdminConfig{
		JWTSecret:    jwtSecret,
		AdminEmail:   config.String("ADMIN_EMAIL", "owner@wizcuts.local"),
		PasswordHash: config.String("ADMIN_PASSWORD_HASH", ""),
		TokenTTL:     time.Duration(config.Int("ADMIN_TOKEN_TTL_MINUTES", 60)) * time.Minute,
	})

	stripeClient := payments.NewStripeClient(logger, payments.StripeConfig{
		SecretKey:    config.String("STRIPE_SECRET_KEY", ""),
		DepositCents: int64(config.Int("DEPOSIT_AMOUNT_CENTS", 1000)),
		Currency:     config.String("DEPOSIT_CURRENCY", "usd"),
		SuccessURL:   config.String("DEPOSIT_SUCCESS_URL", "http://localhost:8080/deposit/success"),
		CancelURL:    config.String("DEPOSIT_CANCEL_URL", "http://localhost:8080/deposit/cancel"),
	})
	paymentsHandler := handlers.NewPaymentsHandler(svc, paymentsRepo, stripeClient, logger, handlers.PaymentsConfig{
		WebhookSecret:           config.String("STRIPE_WEBHOOK_SECRET", ""),
		WebhookToleranceSeconds: config.Int("STRIPE_WEBHOOK_TOLERANCE_SECONDS", 300),
	})

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)

	mux.HandleFunc("GET /api/v1/barbers", catalogHandler.ListBarbers)
	mux.HandleFunc("GET /api/v1/services", catalogHandler.ListServices)
	mux.HandleFunc("GET /api/v1/availability", bookingHandler.Availability)
	mux.HandleFunc("POST /api/v1/bookings", bookingHandler.Create)
	mux.HandleFunc("GET /api/v1/bookings", bookingHandler.List)
	mux.HandleFunc("PATCH /api/v1/bookings/{id}", bookingHandler.Reschedule)
	mux.HandleFunc("DELETE /api/v1/bookings/{id}", bookingHandler.Cancel)
	mux.HandleFunc("POST /api/v1/bookings/{id}/deposit", paymentsHandler.CreateDeposit)

	// Stripe reaches the webhook without a JWT; signature verification is the auth.
	mux.HandleFunc("POST /api/v1/payments/webhooks/stripe", paymentsHandler.StripeWebhook)

	mux.HandleFunc("POST /api/v1/admin/login", adminHandler.Login)
	mux.Handle("POST /api/v1/admin/bookings/{id}/confirm", handlers.RequireAdmin(http.HandlerFunc(bookingHandler.Confirm), jwtSecret))
	mux.Handle("POST /api/v1/admin/bookings/{id}/complete", handlers.RequireAdmin(http.HandlerFunc(bookingHandler.Complete), jwtSecret))
	mux.Handle("POST /api/v1/admin/barbers", handlers.RequireAdmin(http.HandlerFunc(adminCatalogHandler.CreateBarber), jwtSecret))
	mux.Handle("POST /api/v1/admin/services", handlers.RequireAdmin(http.HandlerFunc(adminCatalogHandler.CreateService), jwtSecret))
	mux.Handle("PUT /api/v1/admin/barbers/{id}/working-hours", handlers.RequireAdmin(http.HandlerFunc(adminCatalogHandler.PutWorkingHours), jwtSecret))
	mux.Handle("PATCH /api/v1/admin/barbers/{id}", handlers.RequireAdmin(http.HandlerFunc(adminCatalogHandler.SetBarberActive), jwtSecret))
	mux.Handle("PATCH /api/v1/admin/services/{id}", handlers.RequireAdmin(http.HandlerFunc(adminCatalogHandler.SetServiceActive), jwtSecret))

	bodyLimit := int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20))
	requestTimeout := time.Duration(config.Int("REQUEST_TIMEOUT_SECONDS", 10)) * time.Second
	limitPerMinute := config.Int("RATE_LIMIT_PER_MINUTE", 60)

	var rateLimitMW httpx.Middleware
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		defer func() { _ = rdb.Close() }()

		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "rl"))
		rateLimitMW = rl.Middleware(logger, isTruthy(config.String("RATE_LIMIT_FAIL_OPEN", "true")))
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute, "redis_addr", addr)
	} else {
		rl := httpx.NewRateLimiter(limitPerMinute, time.Minute)
		rateLimitMW = rl.Middleware()
		logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	}

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   parseList(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods:   parseList(config.String("CORS_ALLOWED_METHODS", "GET,POST,PATCH,DELETE,OPTIONS")),
			AllowedHeaders:   parseList(config.String("CORS_ALLOWED_HEADERS", "Authorization,Content-Type,X-Request-Id,Idempotency-Key")),
			AllowCredentials: isTruthy(config.String("CORS_ALLOW_CREDENTIALS", "false")),
			MaxAge:           time.Duration(config.Int("CORS_MAX_AGE_SECONDS", 600)) * time.Second,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(bodyLimit),
		httpx.WithTimeout(requestTimeout),
		rateLimitMW,
	)
	handler = otelhttp.NewHandler(handler, "booking")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
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

func isTruthy(s string) bool {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func parseList(raw string) []string {
	items := strings.Split(raw, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
