package events

import (
	"context"

	"parkhub/pkg/kafka"
	"parkhub/pkg/logger"
	"parkhub/pkg/model"
)

const publisherSource = "parking-api"

// Publisher emits domain events. Services call it after their own writes
// commit; publish failures are logged and never fail the request.
type Publisher interface {
	BookingCreated(ctx context.Context, booking *model.Booking)
	BookingCancelled(ctx context.Context, booking *model.Booking)
	SessionStarted(ctx context.Context, session *model.ParkingSession)
	SessionEnded(ctx context.Context, session *model.ParkingSession)
	PaymentRecorded(ctx context.Context, payment *model.Payment)
}

type kafkaPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, log *logger.Logger) Publisher {
	return &kafkaPublisher{
		producer: producer,
		log:      log,
	}
}

func (p *kafkaPublisher) publish(ctx context.Context, eventType, key string, payload any) {
	msg := kafka.NewMessage().
		WithKey(key).
		WithValue(payload).
		WithEventType(eventType).
		WithSource(publisherSource).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish event",
			"event_type", eventType,
			"key", key,
			"error", err,
		)
	}
}

func bookingEvent(booking *model.Booking) BookingEvent {
	return BookingEvent{
		BookingID:      booking.ID,
		CustomerID:     booking.CustomerID,
		VehicleID:      booking.VehicleID,
		SpotID:         booking.SpotID,
		StartTime:      booking.StartTime,
		EndTime:        booking.EndTime,
		Status:         booking.Status,
		ReservedAmount: booking.ReservedAmount,
	}
}

func sessionEvent(session *model.ParkingSession) SessionEvent {
	return SessionEvent{
		SessionID:       session.ID,
		BookingID:       session.BookingID,
		CustomerID:      session.CustomerID,
		VehicleID:       session.VehicleID,
		SpotID:          session.SpotID,
		EntryTime:       session.EntryTime,
		ExitTime:        session.ExitTime,
		Status:          session.Status,
		DurationMinutes: session.DurationMinutes,
		TotalCost:       session.TotalCost,
	}
}

func (p *kafkaPublisher) BookingCreated(ctx context.Context, booking *model.Booking) {
	p.publish(ctx, TypeBookingCreated, booking.CustomerID, bookingEvent(booking))
}

func (p *kafkaPublisher) BookingCancelled(ctx context.Context, booking *model.Booking) {
	p.publish(ctx, TypeBookingCancelled, booking.CustomerID, bookingEvent(booking))
}

func (p *kafkaPublisher) SessionStarted(ctx context.Context, session *model.ParkingSession) {
	p.publish(ctx, TypeSessionStarted, session.CustomerID, sessionEvent(session))
}

func (p *kafkaPublisher) SessionEnded(ctx context.Context, session *model.ParkingSession) {
	p.publish(ctx, TypeSessionEnded, session.CustomerID, sessionEvent(session))
}

func (p *kafkaPublisher) PaymentRecorded(ctx context.Context, payment *model.Payment) {
	p.publish(ctx, TypePaymentRecorded, payment.CustomerID, PaymentEvent{
		PaymentID:     payment.ID,
		SessionID:     payment.SessionID,
		BookingID:     payment.BookingID,
		CustomerID:    payment.CustomerID,
		Amount:        payment.Amount,
		Method:        payment.Method,
		Status:        payment.Status,
		TransactionID: payment.TransactionID,
	})
}

// NoopPublisher satisfies Publisher when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) BookingCreated(context.Context, *model.Booking)         {}
func (NoopPublisher) BookingCancelled(context.Context, *model.Booking)       {}
func (NoopPublisher) SessionStarted(context.Context, *model.ParkingSession)  {}
func (NoopPublisher) SessionEnded(context.Context, *model.ParkingSession)    {}
func (NoopPublisher) PaymentRecorded(context.Context, *model.Payment)        {}
