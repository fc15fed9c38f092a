// Package events defines the domain events published to Kafka and consumed by
// the notifier. Messages are keyed by customer so per-customer ordering holds.
package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	Topic         = "parking-events"
	DLQTopic      = "dlq-parking-events"
	NotifierGroup = "parking-notifier"
)

const (
	TypeBookingCreated   = "booking.created"
	TypeBookingCancelled = "booking.cancelled"
	TypeSessionStarted   = "session.started"
	TypeSessionEnded     = "session.ended"
	TypePaymentRecorded  = "payment.recorded"
)

type BookingEvent struct {
	BookingID      string          `json:"booking_id"`
	CustomerID     string          `json:"customer_id"`
	VehicleID      string          `json:"vehicle_id"`
	SpotID         string          `json:"spot_id"`
	StartTime      time.Time       `json:"start_time"`
	EndTime        time.Time       `json:"end_time"`
	Status         string          `json:"status"`
	ReservedAmount decimal.Decimal `json:"reserved_amount"`
}

type SessionEvent struct {
	SessionID       string          `json:"session_id"`
	BookingID       string          `json:"booking_id,omitempty"`
	CustomerID      string          `json:"customer_id"`
	VehicleID       string          `json:"vehicle_id"`
	SpotID          string          `json:"spot_id"`
	EntryTime       time.Time       `json:"entry_time"`
	ExitTime        *time.Time      `json:"exit_time,omitempty"`
	Status          string          `json:"status"`
	DurationMinutes int64           `json:"duration_minutes,omitempty"`
	TotalCost       decimal.Decimal `json:"total_cost"`
}

type PaymentEvent struct {
	PaymentID     string          `json:"payment_id"`
	SessionID     string          `json:"session_id,omitempty"`
	BookingID     string          `json:"booking_id,omitempty"`
	CustomerID    string          `json:"customer_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"payment_method"`
	Status        string          `json:"status"`
	TransactionID string          `json:"transaction_id,omitempty"`
}
