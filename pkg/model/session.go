package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
)

// ParkingSession records actual physical occupancy of a spot. BookingID is
// empty for walk-ins. At most one active session exists per spot, enforced by
// the occupancy flag on the spot document.
type ParkingSession struct {
	ID              string          `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,uuid4"`
	BookingID       string          `json:"booking_id,omitempty" bson:"booking_id,omitempty" validate:"omitempty,uuid4"`
	CustomerID      string          `json:"customer_id" bson:"customer_id" validate:"required,uuid4"`
	VehicleID       string          `json:"vehicle_id" bson:"vehicle_id" validate:"required,uuid4"`
	SpotID          string          `json:"spot_id" bson:"spot_id" validate:"required,uuid4"`
	EntryTime       time.Time       `json:"entry_time" bson:"entry_time" validate:"required"`
	ExitTime        *time.Time      `json:"exit_time,omitempty" bson:"exit_time,omitempty"`
	Status          string          `json:"status" bson:"status" validate:"required,oneof=active completed"`
	Rate            RateSnapshot    `json:"rate" bson:"rate"`
	DurationMinutes int64           `json:"duration_minutes,omitempty" bson:"duration_minutes,omitempty"`
	TotalCost       decimal.Decimal `json:"total_cost" bson:"total_cost"`
	CreatedAt       time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" bson:"updated_at"`
}

// SessionRequest starts a walk-in session or, when BookingID is set, an entry
// against a confirmed booking.
type SessionRequest struct {
	VehicleID string `json:"vehicle_id" validate:"required,uuid4"`
	SpotID    string `json:"spot_id" validate:"required,uuid4"`
	BookingID string `json:"booking_id,omitempty" validate:"omitempty,uuid4"`
}

// Settlement is the outcome of ending a session: the closed session, the
// settlement payment, and the signed difference between final cost and the
// amount reserved at booking time.
type Settlement struct {
	Session *ParkingSession `json:"session"`
	Payment *Payment        `json:"payment,omitempty"`
	Delta   decimal.Decimal `json:"delta"`
}
