package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

// bookingTransitions is the explicit allowed-from -> allowed-to table for
// booking status changes. Every status write goes through CanTransition; there
// are no ad hoc string comparisons elsewhere.
var bookingTransitions = map[string][]string{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted},
}

func BookingCanTransition(from, to string) bool {
	for _, allowed := range bookingTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Booking reserves a spot for a half-open [start_time, end_time) window.
// Invariant: bookings with status pending or confirmed on the same spot have
// pairwise non-overlapping windows. ReservedAmount is the estimated cost
// debited from the customer balance at creation, reconciled at session end.
type Booking struct {
	ID             string          `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,uuid4"`
	CustomerID     string          `json:"customer_id" bson:"customer_id" validate:"required,uuid4"`
	VehicleID      string          `json:"vehicle_id" bson:"vehicle_id" validate:"required,uuid4"`
	SpotID         string          `json:"spot_id" bson:"spot_id" validate:"required,uuid4"`
	StartTime      time.Time       `json:"start_time" bson:"start_time" validate:"required"`
	EndTime        time.Time       `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	Status         string          `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled completed"`
	Rate           RateSnapshot    `json:"rate" bson:"rate"`
	ReservedAmount decimal.Decimal `json:"reserved_amount" bson:"reserved_amount"`
	CreatedAt      time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" bson:"updated_at"`
}

// BookingRequest is the client payload for creating a booking. CustomerID is
// resolved by the auth boundary, never taken from the body.
type BookingRequest struct {
	VehicleID string    `json:"vehicle_id" validate:"required,uuid4"`
	SpotID    string    `json:"spot_id" validate:"required,uuid4"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
}

// Active reports whether the booking still holds its window for overlap
// purposes.
func (b *Booking) Active() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}
