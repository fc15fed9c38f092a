package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"parkhub/internal/events"
	"parkhub/pkg/kafka"
	kafka_config "parkhub/pkg/kafka/config"
	kafka_middleware "parkhub/pkg/kafka/middleware"
	"parkhub/pkg/logger"
)

const ServiceName = "parking-notifier"

// The notifier consumes domain events and emits customer notifications. The
// delivery channel is a structured log line for now; swapping in email or SMS
// only changes the notify functions.
func main() {
	log := logger.New(logger.Config{
		Level:     getEnv("LOG_LEVEL", "info"),
		Format:    logger.JSON,
		AddSource: true,
		Service:   ServiceName,
	})

	kafkaCfg := kafka_config.Load()
	notifier := &notifier{log: log}

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		events.Topic,
		events.NotifierGroup,
		events.DLQTopic,
		notifier.handle,
	)
	if err != nil {
		log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	defer consumer.Close()

	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-shutdown
		log.Info("Shutdown signal received", "signal", sig)
		cancel()
	}()

	log.Info("Notifier started",
		"topic", events.Topic,
		"group", events.NotifierGroup,
		"brokers", kafkaCfg.Brokers,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("Consumer stopped with error", "error", err)
	}
	log.Info("Notifier stopped")
}

type notifier struct {
	log *logger.Logger
}

func (n *notifier) handle(ctx context.Context, msg kafka.Message) error {
	switch eventType := msg.GetEventType(); eventType {
	case events.TypeBookingCreated, events.TypeBookingCancelled:
		var event events.BookingEvent
		if err := msg.DecodeValue(&event); err != nil {
			return kafka.NewPermanentError("invalid booking event payload", err)
		}
		n.notifyBooking(eventType, &event)

	case events.TypeSessionStarted, events.TypeSessionEnded:
		var event events.SessionEvent
		if err := msg.DecodeValue(&event); err != nil {
			return kafka.NewPermanentError("invalid session event payload", err)
		}
		n.notifySession(eventType, &event)

	case events.TypePaymentRecorded:
		var event events.PaymentEvent
		if err := msg.DecodeValue(&event); err != nil {
			return kafka.NewPermanentError("invalid payment event payload", err)
		}
		n.notifyPayment(&event)

	default:
		n.log.Warn("Skipping unknown event type",
			"event_type", eventType,
			"event_id", msg.GetEventID(),
		)
	}

	return nil
}

func (n *notifier) notifyBooking(eventType string, event *events.BookingEvent) {
	n.log.Info("Notifying customer about booking",
		"event_type", eventType,
		"customer_id", event.CustomerID,
		"booking_id", event.BookingID,
		"spot_id", event.SpotID,
		"start_time", event.StartTime,
		"end_time", event.EndTime,
		"status", event.Status,
	)
}

func (n *notifier) notifySession(eventType string, event *events.SessionEvent) {
	n.log.Info("Notifying customer about parking session",
		"event_type", eventType,
		"customer_id", event.CustomerID,
		"session_id", event.SessionID,
		"spot_id", event.SpotID,
		"entry_time", event.EntryTime,
		"total_cost", event.TotalCost,
		"status", event.Status,
	)
}

func (n *notifier) notifyPayment(event *events.PaymentEvent) {
	n.log.Info("Notifying customer about payment",
		"event_type", events.TypePaymentRecorded,
		"customer_id", event.CustomerID,
		"payment_id", event.PaymentID,
		"amount", event.Amount,
		"status", event.Status,
		"transaction_id", event.TransactionID,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
