package model

import "time"

type Vehicle struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,uuid4"`
	CustomerID   string    `json:"customer_id" bson:"customer_id" validate:"required,uuid4"`
	LicensePlate string    `json:"license_plate" bson:"license_plate" validate:"required,license_plate"`
	Model        string    `json:"model" bson:"model" validate:"required,min=1,max=100"`
	Color        string    `json:"color,omitempty" bson:"color,omitempty" validate:"omitempty,max=50"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

type VehicleUpdate struct {
	Model string `json:"model,omitempty" validate:"omitempty,min=1,max=100"`
	Color string `json:"color,omitempty" validate:"omitempty,max=50"`
}
