package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/KoraMaple/wizcuts-sub001/libs/config"
	"github.com/KoraMaple/wizcuts-sub001/libs/db"
	"github.com/KoraMaple/wizcuts-sub001/libs/httpx"
	"github.com/KoraMaple/wizcuts-sub001/libs/kafkax"
	otelx "github.com/KoraMaple/wizcuts-sub001/libs/otel"
	"github.com/KoraMaple/wizcuts-sub001/libs/runtime"
	"github.com/KoraMaple/wizcuts-sub001/services/notification-service/internal/consumer"
	"github.com/KoraMaple/wizcuts-sub001/services/notification-service/internal/email"
	"github.com/KoraMaple/wizcuts-sub001/services/notification-service/internal/inbox"
	"github.com/KoraMaple/wizcuts-sub001/services/notification-service/internal/message"
	"github.com/KoraMaple/wizcuts-sub001/services/notification-service/internal/sms"
	"github.com/KoraMaple/wizcuts-sub001/services/notification-service/internal/storage"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Topics this service listens on. Each booking event type is its own topic.
var defaultTopics = []string{
	"booking.appointment.created.v1",
	"booking.appointment.confirmed.v1",
	"booking.appointment.rescheduled.v1",
	"booking.appointment.cancelled.v1",
	"booking.appointment.completed.v1",
	"booking.reminder.due.v1",
}

func main() {
	service := config.String("SERVICE_NAME", "notification-service")
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

	inboxRepo := inbox.NewRepository(pool)
	notificationsRepo := storage.NewRepository(pool)

	shopName := config.String("SHOP_NAME", "WizCuts")

	emailSender := email.NewSMTPSender(
		config.String("SMTP_HOST", "mailpit"),
		config.String("SMTP_PORT", "1025"),
		config.String("SMTP_FROM", "no-reply@wizcuts.local"),
	)

	var smsSender sms.Sender
	switch strings.ToLower(config.String("SMS_PROVIDER", "noop")) {
	case "webhook":
		smsSender = sms.NewWebhookSender(config.String("SMS_WEBHOOK_URL", ""), config.String("SMS_WEBHOOK_TOKEN", ""))
	default:
		smsSender = sms.NewNoopSender()
	}

	handleEvent := func(ctx context.Context, msg kafka.Message) error {
		var appt message.Appointment
		if err := json.Unmarshal(msg.Value, &appt); err != nil {
			logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
			return nil
		}
		if appt.AppointmentID == "" || appt.CustomerEmail == "" {
			logger.Error("missing required event fields", "topic", msg.Topic)
			return nil
		}

		rendered, err := message.Render(shopName, msg.Topic, appt)
		if err != nil {
			logger.Error("no template for event", "err", err, "topic", msg.Topic)
			return nil
		}

		payload := map[string]any{
			"service_name": appt.ServiceName,
			"start_time":   appt.StartTime,
			"end_time":     appt.EndTime,
		}

		status := "sent"
		if err := emailSender.Send(appt.CustomerEmail, rendered.Subject, rendered.Body); err != nil {
			status = "failed"
			logger.Error("email send failed", "err", err, "recipient", appt.CustomerEmail)
		}
		if err := notificationsRepo.Insert(ctx, storage.Notification{
			AppointmentID: appt.AppointmentID,
			EventType:     msg.Topic,
			Channel:       "email",
			Recipient:     appt.CustomerEmail,
			Payload:       payload,
			Status:        status,
		}); err != nil {
			logger.Error("failed to persist notification", "err", err)
			return err
		}

		// SMS only for reminders; the rest would be noise on a phone.
		if msg.Topic == "booking.reminder.due.v1" && strings.TrimSpace(appt.CustomerPhone) != "" {
			smsStatus := "sent"
			if err := smsSender.Send(ctx, appt.CustomerPhone, rendered.SMS); err != nil {
				smsStatus = "failed"
				logger.Error("sms send failed", "err", err, "recipient", appt.CustomerPhone)
			}
			if err := notificationsRepo.Insert(ctx, storage.Notification{
				AppointmentID: appt.AppointmentID,
				EventType:     msg.Topic,
				Channel:       "sms",
				Recipient:     appt.CustomerPhone,
				Payload:       payload,
				Status:        smsStatus,
			}); err != nil {
				logger.Error("failed to persist notification", "err", err)
				return err
			}
		}

		logger.Info("notification processed", "appointment_id", appt.AppointmentID, "event_type", msg.Topic, "status", status)
		return nil
	}

	topics := defaultTopics
	if raw := strings.TrimSpace(config.String("KAFKA_CONSUME_TOPICS", "")); raw != "" {
		topics = kafkax.SplitBrokers(raw)
	}
	for _, topic := range topics {
		eventConsumer := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: config.String("KAFKA_BROKERS", ""),
			GroupID: config.String("KAFKA_GROUP_ID", "notification-service"),
			Topic:   topic,
		}, handleEvent)
		go eventConsumer.Run(ctx)
	}

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
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
