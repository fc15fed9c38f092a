package model

import "time"

// ParkingZone groups spots under a shared address and default tariff.
// AvailableSpots is a cached projection of spot occupancy; it is recomputed
// on session open/close and must never be used for booking conflict checks.
type ParkingZone struct {
	ID             string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,uuid4"`
	Name           string    `json:"name" bson:"name" validate:"required,min=1,max=100"`
	Address        string    `json:"address" bson:"address" validate:"required,min=1,max=255"`
	TotalSpots     int       `json:"total_spots" bson:"total_spots" validate:"required,min=1"`
	AvailableSpots int       `json:"available_spots" bson:"available_spots" validate:"min=0"`
	TariffID       string    `json:"tariff_id,omitempty" bson:"tariff_id,omitempty" validate:"omitempty,uuid4"`
	IsActive       bool      `json:"is_active" bson:"is_active"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

type ParkingZoneUpdate struct {
	Name     string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Address  string `json:"address,omitempty" validate:"omitempty,min=1,max=255"`
	TariffID string `json:"tariff_id,omitempty" validate:"omitempty,uuid4"`
	IsActive *bool  `json:"is_active,omitempty"`
}
