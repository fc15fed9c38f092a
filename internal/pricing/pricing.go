// Package pricing implements the settlement arithmetic shared by booking
// estimates and session settlement. All money math is decimal; callers never
// see floats.
package pricing

import (
	"time"

	"parkhub/pkg/model"

	"github.com/shopspring/decimal"
)

const (
	MinutesPerHour = 60
	MinutesPerDay  = 24 * 60
	HoursPerDay    = 24
)

// Calculator applies the rounding policy: durations are ceiled to whole
// minutes, clamped to the minimum billable unit, and billed in whole hours.
type Calculator struct {
	minBillableMinutes int64
}

func NewCalculator(minBillableMinutes int) Calculator {
	if minBillableMinutes <= 0 {
		minBillableMinutes = MinutesPerHour
	}
	return Calculator{minBillableMinutes: int64(minBillableMinutes)}
}

// BillableMinutes ceils the interval to whole minutes and applies the minimum
// billable unit. A non-positive interval bills as the minimum unit.
func (c Calculator) BillableMinutes(entry, exit time.Time) int64 {
	d := exit.Sub(entry)

	minutes := int64(d / time.Minute)
	if d%time.Minute > 0 {
		minutes++
	}

	if minutes < c.minBillableMinutes {
		minutes = c.minBillableMinutes
	}
	return minutes
}

// BillableHours converts billable minutes to whole billed hours.
func (c Calculator) BillableHours(minutes int64) int64 {
	hours := minutes / MinutesPerHour
	if minutes%MinutesPerHour > 0 {
		hours++
	}
	if hours < 1 {
		hours = 1
	}
	return hours
}

// Cost computes the charge for a stay under a rate snapshot and returns the
// billable minutes alongside it.
//
// Under 24 hours the hourly rate applies per billed hour, capped by the day
// rate when the tariff has one. From 24 hours up the day rate applies per
// started day, falling back to 24 hourly units per day when the tariff has no
// day rate.
func (c Calculator) Cost(rate model.RateSnapshot, entry, exit time.Time) (int64, decimal.Decimal) {
	minutes := c.BillableMinutes(entry, exit)

	if minutes >= MinutesPerDay {
		days := minutes / MinutesPerDay
		if minutes%MinutesPerDay > 0 {
			days++
		}
		if rate.PricePerDay != nil {
			return minutes, rate.PricePerDay.Mul(decimal.NewFromInt(days))
		}
		return minutes, rate.PricePerHour.Mul(decimal.NewFromInt(HoursPerDay * days))
	}

	cost := rate.PricePerHour.Mul(decimal.NewFromInt(c.BillableHours(minutes)))
	if rate.PricePerDay != nil && cost.GreaterThan(*rate.PricePerDay) {
		cost = *rate.PricePerDay
	}
	return minutes, cost
}

// EstimateWindowCost prices a planned booking window with the same formula
// settlement uses, so a stay matching its window settles at delta zero.
func (c Calculator) EstimateWindowCost(rate model.RateSnapshot, start, end time.Time) decimal.Decimal {
	_, cost := c.Cost(rate, start, end)
	return cost
}
