package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TariffPlan struct {
	ID           string           `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,uuid4"`
	Name         string           `json:"name" bson:"name" validate:"required,min=1,max=100"`
	Description  string           `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=1000"`
	PricePerHour decimal.Decimal  `json:"price_per_hour" bson:"price_per_hour"`
	PricePerDay  *decimal.Decimal `json:"price_per_day,omitempty" bson:"price_per_day,omitempty"`
	IsActive     bool             `json:"is_active" bson:"is_active"`
	CreatedAt    time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" bson:"updated_at"`
}

type TariffPlanUpdate struct {
	Name         string           `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description  string           `json:"description,omitempty" validate:"omitempty,max=1000"`
	PricePerHour *decimal.Decimal `json:"price_per_hour,omitempty"`
	PricePerDay  *decimal.Decimal `json:"price_per_day,omitempty"`
	IsActive     *bool            `json:"is_active,omitempty"`
}

// RateSnapshot is the tariff captured on a booking or session at creation
// time. Settlement reads the snapshot, never the live tariff, so later tariff
// edits cannot rewrite historical costs.
type RateSnapshot struct {
	TariffID     string           `json:"tariff_id" bson:"tariff_id"`
	PricePerHour decimal.Decimal  `json:"price_per_hour" bson:"price_per_hour"`
	PricePerDay  *decimal.Decimal `json:"price_per_day,omitempty" bson:"price_per_day,omitempty"`
}

func (t *TariffPlan) Snapshot() RateSnapshot {
	s := RateSnapshot{
		TariffID:     t.ID,
		PricePerHour: t.PricePerHour,
	}
	if t.PricePerDay != nil {
		day := *t.PricePerDay
		s.PricePerDay = &day
	}
	return s
}
