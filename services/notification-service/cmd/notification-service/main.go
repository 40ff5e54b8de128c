package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/libs/config"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/libs/db"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/libs/httpx"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/libs/kafkax"
	otelx "github.com/Nkosikk/edendalesportsprojectnpc-sub000/libs/otel"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/libs/runtime"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/notification-service/internal/consumer"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/notification-service/internal/email"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/notification-service/internal/inbox"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/notification-service/internal/notify"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/notification-service/internal/sms"
	"github.com/Nkosikk/edendalesportsprojectnpc-sub000/services/notification-service/internal/storage"
)

func main() {
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8082")
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

	emailSender := email.NewSMTPSender(
		config.String("SMTP_HOST", "mailpit"),
		config.String("SMTP_PORT", "1025"),
		config.String("SMTP_FROM", "bookings@edendalesports.local"),
	)

	var smsSender sms.Sender
	switch strings.ToLower(config.String("SMS_PROVIDER", "noop")) {
	case "webhook":
		smsSender = sms.NewWebhookSender(
			config.String("SMS_WEBHOOK_URL", ""),
			config.String("SMS_WEBHOOK_TOKEN", ""),
		)
	default:
		smsSender = sms.NewNoopSender()
	}

	handle := func(ctx context.Context, msg kafka.Message) error {
		var evt notify.BookingEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			logger.Error("invalid booking event payload", "err", err, "topic", msg.Topic)
			return nil
		}
		if evt.BookingID == "" {
			logger.Error("booking event missing booking_id", "topic", msg.Topic)
			return nil
		}

		message, ok := notify.Compose(msg.Topic, evt)
		if !ok {
			return nil
		}

		record := func(channel, recipient, status string) error {
			return notificationsRepo.Insert(ctx, storage.Notification{
				BookingID: evt.BookingID,
				EventType: msg.Topic,
				Channel:   channel,
				Recipient: recipient,
				Payload:   map[string]any{"subject": message.Subject},
				Status:    status,
			})
		}

		if evt.CustomerEmail != "" {
			status := "sent"
			if err := emailSender.Send(evt.CustomerEmail, message.Subject, message.Body); err != nil {
				status = "failed"
				logger.Error("email send failed", "err", err, "booking_id", evt.BookingID)
			}
			if err := record("email", evt.CustomerEmail, status); err != nil {
				return err
			}
		}

		if evt.CustomerPhone != "" {
			status := "sent"
			if err := smsSender.Send(ctx, evt.CustomerPhone, message.Subject); err != nil {
				status = "failed"
				logger.Error("sms send failed", "err", err, "booking_id", evt.BookingID)
			}
			if err := record("sms", evt.CustomerPhone, status); err != nil {
				return err
			}
		}

		logger.Info("booking event processed", "booking_id", evt.BookingID, "event_type", msg.Topic)
		return nil
	}

	topics := []string{
		config.String("KAFKA_TOPIC_CREATED", notify.TopicBookingCreated),
		config.String("KAFKA_TOPIC_CANCELLED", notify.TopicBookingCancelled),
		config.String("KAFKA_TOPIC_RESCHEDULED", notify.TopicBookingRescheduled),
	}
	for _, topic := range topics {
		if strings.TrimSpace(topic) == "" {
			continue
		}
		eventConsumer := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: config.String("KAFKA_BROKERS", ""),
			GroupID: config.String("KAFKA_GROUP_ID", "notification-service"),
			Topic:   topic,
		}, handle)
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
