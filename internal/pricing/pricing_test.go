package pricing

import (
	"testing"
	"time"

	"parkhub/pkg/model"

	"github.com/shopspring/decimal"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func hourlyRate(t *testing.T, perHour string) model.RateSnapshot {
	t.Helper()
	return model.RateSnapshot{
		TariffID:     "tariff-1",
		PricePerHour: mustDecimal(t, perHour),
	}
}

func dailyRate(t *testing.T, perHour, perDay string) model.RateSnapshot {
	t.Helper()
	day := mustDecimal(t, perDay)
	rate := hourlyRate(t, perHour)
	rate.PricePerDay = &day
	return rate
}

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("bad time literal %q: %v", value, err)
	}
	return ts
}

func TestBillableMinutes(t *testing.T) {
	calc := NewCalculator(60)
	entry := at(t, "2025-03-01T10:00:00Z")

	tests := []struct {
		name string
		exit time.Time
		want int64
	}{
		{"sub-minute stay bills minimum unit", entry.Add(30 * time.Second), 60},
		{"half hour bills minimum unit", entry.Add(30 * time.Minute), 60},
		{"exact hour", entry.Add(time.Hour), 60},
		{"partial minute ceils", entry.Add(time.Hour + 30*time.Second), 61},
		{"105 minutes", entry.Add(time.Hour + 45*time.Minute), 105},
		{"zero duration bills minimum unit", entry, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calc.BillableMinutes(entry, tt.exit); got != tt.want {
				t.Errorf("BillableMinutes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBillableHours(t *testing.T) {
	calc := NewCalculator(60)

	tests := []struct {
		minutes int64
		want    int64
	}{
		{60, 1},
		{61, 2},
		{105, 2},
		{120, 2},
		{205, 4},
		{0, 1},
	}

	for _, tt := range tests {
		if got := calc.BillableHours(tt.minutes); got != tt.want {
			t.Errorf("BillableHours(%d) = %d, want %d", tt.minutes, got, tt.want)
		}
	}
}

// The three worked scenarios for a 150.00 per hour tariff.
func TestCost_HourlyScenarios(t *testing.T) {
	calc := NewCalculator(60)
	rate := hourlyRate(t, "150.00")

	tests := []struct {
		name        string
		entry, exit string
		wantCost    string
	}{
		{"2h window reserves 300", "2025-03-01T10:00:00Z", "2025-03-01T12:00:00Z", "300.00"},
		{"1h45m bills as 2h", "2025-03-01T10:05:00Z", "2025-03-01T11:50:00Z", "300.00"},
		{"3h25m bills as 4h", "2025-03-01T10:05:00Z", "2025-03-01T13:30:00Z", "600.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, cost := calc.Cost(rate, at(t, tt.entry), at(t, tt.exit))
			if want := mustDecimal(t, tt.wantCost); !cost.Equal(want) {
				t.Errorf("Cost() = %s, want %s", cost, want)
			}
		})
	}
}

func TestCost_DayRateCap(t *testing.T) {
	calc := NewCalculator(60)
	rate := dailyRate(t, "150.00", "1000.00")
	entry := at(t, "2025-03-01T08:00:00Z")

	// 10 hourly units would be 1500, the day rate caps it.
	_, cost := calc.Cost(rate, entry, entry.Add(10*time.Hour))
	if want := mustDecimal(t, "1000.00"); !cost.Equal(want) {
		t.Errorf("capped cost = %s, want %s", cost, want)
	}

	// Short stays are not dragged up to the day rate.
	_, cost = calc.Cost(rate, entry, entry.Add(2*time.Hour))
	if want := mustDecimal(t, "300.00"); !cost.Equal(want) {
		t.Errorf("short stay cost = %s, want %s", cost, want)
	}
}

func TestCost_MultiDay(t *testing.T) {
	calc := NewCalculator(60)
	entry := at(t, "2025-03-01T08:00:00Z")

	t.Run("day rate per started day", func(t *testing.T) {
		rate := dailyRate(t, "150.00", "1000.00")

		_, cost := calc.Cost(rate, entry, entry.Add(24*time.Hour))
		if want := mustDecimal(t, "1000.00"); !cost.Equal(want) {
			t.Errorf("exact day cost = %s, want %s", cost, want)
		}

		_, cost = calc.Cost(rate, entry, entry.Add(25*time.Hour))
		if want := mustDecimal(t, "2000.00"); !cost.Equal(want) {
			t.Errorf("started second day cost = %s, want %s", cost, want)
		}
	})

	t.Run("no day rate falls back to 24 hourly units", func(t *testing.T) {
		rate := hourlyRate(t, "150.00")

		_, cost := calc.Cost(rate, entry, entry.Add(30*time.Hour))
		if want := mustDecimal(t, "7200.00"); !cost.Equal(want) { // 150 * 24 * 2
			t.Errorf("fallback cost = %s, want %s", cost, want)
		}
	})
}

// Increasing session duration never decreases the cost.
func TestCost_Monotonic(t *testing.T) {
	calc := NewCalculator(60)
	rate := dailyRate(t, "150.00", "1000.00")
	entry := at(t, "2025-03-01T00:00:00Z")

	prev := decimal.Zero
	for m := int64(1); m <= 3*MinutesPerDay; m += 17 {
		_, cost := calc.Cost(rate, entry, entry.Add(time.Duration(m)*time.Minute))
		if cost.LessThan(prev) {
			t.Fatalf("cost decreased at %d minutes: %s < %s", m, cost, prev)
		}
		prev = cost
	}
}

// A stay matching its booking window settles at delta zero.
func TestEstimateWindowCost_MatchesSettlement(t *testing.T) {
	calc := NewCalculator(60)
	rate := hourlyRate(t, "150.00")
	start := at(t, "2025-03-01T10:00:00Z")
	end := start.Add(2 * time.Hour)

	estimate := calc.EstimateWindowCost(rate, start, end)
	_, settled := calc.Cost(rate, start, end)

	if !estimate.Equal(settled) {
		t.Errorf("estimate %s != settlement %s", estimate, settled)
	}
}
