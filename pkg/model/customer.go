package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	ID        string          `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,uuid4"`
	FirstName string          `json:"first_name" bson:"first_name" validate:"required,min=1,max=100"`
	LastName  string          `json:"last_name" bson:"last_name" validate:"required,min=1,max=100"`
	Email     string          `json:"email" bson:"email" validate:"required,email,max=255"`
	Phone     string          `json:"phone" bson:"phone" validate:"required,max=20"`
	Balance   decimal.Decimal `json:"balance" bson:"balance"`
	IsAdmin   bool            `json:"is_admin" bson:"is_admin"`
	CreatedAt time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" bson:"updated_at"`
}
