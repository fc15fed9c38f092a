package model

import "time"

const (
	SpotTypeStandard = "standard"
	SpotTypeDisabled = "disabled"
	SpotTypeElectric = "electric"
	SpotTypeVIP      = "vip"
)

// ParkingSpot is one physical space. IsOccupied reflects a currently open
// session only; future bookings never set it.
type ParkingSpot struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,uuid4"`
	ZoneID     string    `json:"zone_id" bson:"zone_id" validate:"required,uuid4"`
	SpotNumber string    `json:"spot_number" bson:"spot_number" validate:"required,min=1,max=20"`
	SpotType   string    `json:"spot_type" bson:"spot_type" validate:"required,oneof=standard disabled electric vip"`
	IsOccupied bool      `json:"is_occupied" bson:"is_occupied"`
	IsActive   bool      `json:"is_active" bson:"is_active"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

type ParkingSpotUpdate struct {
	SpotNumber string `json:"spot_number,omitempty" validate:"omitempty,min=1,max=20"`
	SpotType   string `json:"spot_type,omitempty" validate:"omitempty,oneof=standard disabled electric vip"`
	IsActive   *bool  `json:"is_active,omitempty"`
}
