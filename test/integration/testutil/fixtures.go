package testutil

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"parkhub/pkg/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fixtures drives the public API to seed test data the way a real client
// would, so every invariant the handlers enforce also holds for seeded state.
type Fixtures struct {
	client *Client
}

func NewFixtures(client *Client) *Fixtures {
	return &Fixtures{client: client}
}

// RegisterCustomer creates a customer with a unique email and returns it.
func (f *Fixtures) RegisterCustomer(t *testing.T) *model.Customer {
	t.Helper()

	suffix := uuid.New().String()[:8]
	resp := f.client.POST(t, "/api/v1/customers", map[string]any{
		"first_name": "Test",
		"last_name":  "Driver",
		"email":      fmt.Sprintf("driver-%s@example.com", suffix),
		"phone":      "+972501234567",
	})
	AssertStatusCode(t, resp, http.StatusCreated)

	var customer model.Customer
	resp.UnmarshalData(t, &customer)
	return &customer
}

// FundedCustomer registers a customer and tops the balance up.
func (f *Fixtures) FundedCustomer(t *testing.T, amount decimal.Decimal) (*model.Customer, *Client) {
	t.Helper()

	customer := f.RegisterCustomer(t)
	client := f.client.AsCustomer(customer.ID)

	resp := client.POST(t, "/api/v1/balance/topup", map[string]any{
		"amount": amount,
	})
	AssertStatusCode(t, resp, http.StatusOK)
	return customer, client
}

// RegisterVehicle adds a vehicle with a unique plate for the given customer.
func (f *Fixtures) RegisterVehicle(t *testing.T, owner *Client) *model.Vehicle {
	t.Helper()

	plate := fmt.Sprintf("T%08d", time.Now().UnixNano()%100000000)
	resp := owner.POST(t, "/api/v1/vehicles", map[string]any{
		"license_plate": plate,
		"model":         "Test Model",
		"color":         "grey",
	})
	AssertStatusCode(t, resp, http.StatusCreated)

	var vehicle model.Vehicle
	resp.UnmarshalData(t, &vehicle)
	return &vehicle
}

// CreateTariff creates an hourly tariff, optionally with a day cap.
func (f *Fixtures) CreateTariff(t *testing.T, admin *Client, perHour string, perDay string) *model.TariffPlan {
	t.Helper()

	body := map[string]any{
		"name":           fmt.Sprintf("Tariff %s", uuid.New().String()[:8]),
		"price_per_hour": perHour,
	}
	if perDay != "" {
		body["price_per_day"] = perDay
	}

	resp := admin.POST(t, "/api/v1/tariffs", body)
	AssertStatusCode(t, resp, http.StatusCreated)

	var tariff model.TariffPlan
	resp.UnmarshalData(t, &tariff)
	return &tariff
}

// CreateZone creates a zone bound to the tariff.
func (f *Fixtures) CreateZone(t *testing.T, admin *Client, tariffID string, totalSpots int) *model.ParkingZone {
	t.Helper()

	resp := admin.POST(t, "/api/v1/zones", map[string]any{
		"name":        fmt.Sprintf("Zone %s", uuid.New().String()[:8]),
		"address":     "1 Test Street",
		"total_spots": totalSpots,
		"tariff_id":   tariffID,
	})
	AssertStatusCode(t, resp, http.StatusCreated)

	var zone model.ParkingZone
	resp.UnmarshalData(t, &zone)
	return &zone
}

// CreateSpot adds a standard spot to the zone.
func (f *Fixtures) CreateSpot(t *testing.T, admin *Client, zoneID, number string) *model.ParkingSpot {
	t.Helper()

	resp := admin.POST(t, "/api/v1/spots", map[string]any{
		"zone_id":     zoneID,
		"spot_number": number,
		"spot_type":   "standard",
	})
	AssertStatusCode(t, resp, http.StatusCreated)

	var spot model.ParkingSpot
	resp.UnmarshalData(t, &spot)
	return &spot
}

// Balance reads the current balance through the API.
func (f *Fixtures) Balance(t *testing.T, owner *Client) decimal.Decimal {
	t.Helper()

	resp := owner.GET(t, "/api/v1/balance")
	AssertStatusCode(t, resp, http.StatusOK)

	var payload struct {
		Balance decimal.Decimal `json:"balance"`
	}
	resp.UnmarshalData(t, &payload)
	return payload.Balance
}
