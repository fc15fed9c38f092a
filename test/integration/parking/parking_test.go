package parking

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"parkhub/pkg/model"
	"parkhub/test/integration/testutil"

	"github.com/shopspring/decimal"
)

type world struct {
	fixtures *testutil.Fixtures
	customer *model.Customer
	client   *testutil.Client
	vehicle  *model.Vehicle
	spot     *model.ParkingSpot
	mongo    *testutil.MongoHelper
}

// setup boots a clean database and seeds one funded customer with a vehicle
// and a zone holding a single 150.00/hour spot.
func setup(t *testing.T, balance string) *world {
	t.Helper()
	testutil.RequireServer(t)

	env := testutil.NewTestEnv()
	mongo, client := env.Setup(t)
	t.Cleanup(func() { env.Cleanup(t, mongo) })

	fixtures := testutil.NewFixtures(client)
	customer, owned := fixtures.FundedCustomer(t, decimal.RequireFromString(balance))
	vehicle := fixtures.RegisterVehicle(t, owned)

	tariff := fixtures.CreateTariff(t, owned, "150.00", "1000.00")
	zone := fixtures.CreateZone(t, owned, tariff.ID, 5)
	spot := fixtures.CreateSpot(t, owned, zone.ID, "A1")

	return &world{
		fixtures: fixtures,
		customer: customer,
		client:   owned,
		vehicle:  vehicle,
		spot:     spot,
		mongo:    mongo,
	}
}

func (w *world) createBooking(t *testing.T, start, end time.Time) *model.Booking {
	t.Helper()

	resp := w.client.POST(t, "/api/v1/bookings", map[string]any{
		"vehicle_id": w.vehicle.ID,
		"spot_id":    w.spot.ID,
		"start_time": start,
		"end_time":   end,
	})
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	var booking model.Booking
	resp.UnmarshalData(t, &booking)
	return &booking
}

func assertBalance(t *testing.T, f *testutil.Fixtures, client *testutil.Client, expected string) {
	t.Helper()
	balance := f.Balance(t, client)
	if !balance.Equal(decimal.RequireFromString(expected)) {
		t.Fatalf("expected balance %s, got %s", expected, balance)
	}
}

func TestBookingLifecycle_ReserveConfirmSettle(t *testing.T) {
	w := setup(t, "1000.00")

	start := time.Now().UTC().Add(time.Minute)
	booking := w.createBooking(t, start, start.Add(2*time.Hour))

	if booking.Status != model.BookingStatusPending {
		t.Fatalf("expected pending booking, got %s", booking.Status)
	}
	if !booking.ReservedAmount.Equal(decimal.RequireFromString("300.00")) {
		t.Fatalf("expected 300.00 reserved, got %s", booking.ReservedAmount)
	}
	assertBalance(t, w.fixtures, w.client, "700.00")

	// Confirmed entry opens a session and flips the booking to confirmed.
	resp := w.client.POST(t, fmt.Sprintf("/api/v1/bookings/id/%s/confirm", booking.ID), map[string]any{})
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	var session model.ParkingSession
	resp.UnmarshalData(t, &session)
	if session.Status != model.SessionStatusActive {
		t.Fatalf("expected active session, got %s", session.Status)
	}
	if session.BookingID != booking.ID {
		t.Fatalf("session not linked to booking: %s", session.BookingID)
	}

	// Immediate exit bills the one-hour minimum; the unused half of the
	// reservation comes back as a refund.
	resp = w.client.POST(t, fmt.Sprintf("/api/v1/sessions/id/%s/end", session.ID), map[string]any{})
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var settlement model.Settlement
	resp.UnmarshalData(t, &settlement)
	if settlement.Session.Status != model.SessionStatusCompleted {
		t.Fatalf("expected completed session, got %s", settlement.Session.Status)
	}
	if !settlement.Session.TotalCost.Equal(decimal.RequireFromString("150.00")) {
		t.Fatalf("expected 150.00 total cost, got %s", settlement.Session.TotalCost)
	}
	if settlement.Payment.Status != model.PaymentStatusCompleted {
		t.Fatalf("expected completed payment, got %s", settlement.Payment.Status)
	}
	if settlement.Payment.TransactionID == "" {
		t.Fatal("expected a gateway transaction reference on the settled payment")
	}
	assertBalance(t, w.fixtures, w.client, "850.00")

	// Booking is completed and the spot is free for the next driver.
	resp = w.client.GET(t, fmt.Sprintf("/api/v1/bookings/id/%s", booking.ID))
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var settled model.Booking
	resp.UnmarshalData(t, &settled)
	if settled.Status != model.BookingStatusCompleted {
		t.Fatalf("expected completed booking, got %s", settled.Status)
	}

	resp = w.client.GET(t, fmt.Sprintf("/api/v1/spots/id/%s", w.spot.ID))
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var spot model.ParkingSpot
	resp.UnmarshalData(t, &spot)
	if spot.IsOccupied {
		t.Fatal("expected spot to be free after settlement")
	}
}

func TestBookingCreate_OverlapRejected(t *testing.T) {
	w := setup(t, "1000.00")

	start := time.Now().UTC().Add(time.Hour)
	w.createBooking(t, start, start.Add(2*time.Hour))

	resp := w.client.POST(t, "/api/v1/bookings", map[string]any{
		"vehicle_id": w.vehicle.ID,
		"spot_id":    w.spot.ID,
		"start_time": start.Add(time.Hour),
		"end_time":   start.Add(3 * time.Hour),
	})
	testutil.AssertStatusCode(t, resp, http.StatusConflict)
	if code := testutil.GetErrorCode(t, resp); code != "SPOT_UNAVAILABLE" {
		t.Fatalf("expected SPOT_UNAVAILABLE, got %s", code)
	}

	// Back-to-back window on the same spot is fine, the interval is half-open.
	w.createBooking(t, start.Add(2*time.Hour), start.Add(3*time.Hour))
}

func TestBookingCancel_RefundsReservation(t *testing.T) {
	w := setup(t, "1000.00")

	start := time.Now().UTC().Add(time.Hour)
	booking := w.createBooking(t, start, start.Add(2*time.Hour))
	assertBalance(t, w.fixtures, w.client, "700.00")

	resp := w.client.POST(t, fmt.Sprintf("/api/v1/bookings/id/%s/cancel", booking.ID), map[string]any{})
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var cancelled model.Booking
	resp.UnmarshalData(t, &cancelled)
	if cancelled.Status != model.BookingStatusCancelled {
		t.Fatalf("expected cancelled booking, got %s", cancelled.Status)
	}
	assertBalance(t, w.fixtures, w.client, "1000.00")

	// Second cancel hits the status guard.
	resp = w.client.POST(t, fmt.Sprintf("/api/v1/bookings/id/%s/cancel", booking.ID), map[string]any{})
	testutil.AssertStatusCode(t, resp, http.StatusConflict)
	if code := testutil.GetErrorCode(t, resp); code != "INVALID_STATE" {
		t.Fatalf("expected INVALID_STATE, got %s", code)
	}
}

func TestBookingCreate_InsufficientBalanceLeavesNoBooking(t *testing.T) {
	w := setup(t, "10.00")

	start := time.Now().UTC().Add(time.Hour)
	resp := w.client.POST(t, "/api/v1/bookings", map[string]any{
		"vehicle_id": w.vehicle.ID,
		"spot_id":    w.spot.ID,
		"start_time": start,
		"end_time":   start.Add(2 * time.Hour),
	})
	testutil.AssertStatusCode(t, resp, http.StatusPaymentRequired)
	if code := testutil.GetErrorCode(t, resp); code != "INSUFFICIENT_BALANCE" {
		t.Fatalf("expected INSUFFICIENT_BALANCE, got %s", code)
	}

	if count := w.mongo.CountDocuments(t, testutil.BookingsCollection); count != 0 {
		t.Fatalf("expected no booking rows after failed debit, found %d", count)
	}
	assertBalance(t, w.fixtures, w.client, "10.00")
}

func TestWalkInSession_MinimumBilling(t *testing.T) {
	w := setup(t, "500.00")

	resp := w.client.POST(t, "/api/v1/sessions", map[string]any{
		"vehicle_id": w.vehicle.ID,
		"spot_id":    w.spot.ID,
	})
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	var session model.ParkingSession
	resp.UnmarshalData(t, &session)

	// A second walk-in on the occupied spot is rejected.
	other := w.fixtures.RegisterVehicle(t, w.client)
	resp = w.client.POST(t, "/api/v1/sessions", map[string]any{
		"vehicle_id": other.ID,
		"spot_id":    w.spot.ID,
	})
	testutil.AssertStatusCode(t, resp, http.StatusConflict)

	resp = w.client.POST(t, fmt.Sprintf("/api/v1/sessions/id/%s/end", session.ID), map[string]any{})
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var settlement model.Settlement
	resp.UnmarshalData(t, &settlement)
	if !settlement.Session.TotalCost.Equal(decimal.RequireFromString("150.00")) {
		t.Fatalf("expected one-hour minimum of 150.00, got %s", settlement.Session.TotalCost)
	}
	assertBalance(t, w.fixtures, w.client, "350.00")
}

func TestOwnership_ForeignBookingHidden(t *testing.T) {
	w := setup(t, "1000.00")

	start := time.Now().UTC().Add(time.Hour)
	booking := w.createBooking(t, start, start.Add(time.Hour))

	stranger := w.fixtures.RegisterCustomer(t)
	strangerClient := w.client.AsCustomer(stranger.ID)

	resp := strangerClient.GET(t, fmt.Sprintf("/api/v1/bookings/id/%s", booking.ID))
	testutil.AssertStatusCode(t, resp, http.StatusNotFound)
}
