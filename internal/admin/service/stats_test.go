package service

import (
	"context"
	"testing"

	"parkhub/pkg/config"
	apperrors "parkhub/pkg/errors"
	"parkhub/pkg/logger"
	"parkhub/pkg/model"

	"github.com/shopspring/decimal"
)

type mockCustomerSource struct {
	customers map[string]*model.Customer
}

func (m *mockCustomerSource) GetCustomer(ctx context.Context, id string) (*model.Customer, error) {
	customer, ok := m.customers[id]
	if !ok {
		return nil, apperrors.NotFoundWithID("Customer", id)
	}
	return customer, nil
}

type mockCounter struct{ n int64 }

func (m *mockCounter) Count(ctx context.Context) (int64, error) { return m.n, nil }

type mockBookingStats struct {
	total    int64
	byStatus map[string]int64
}

func (m *mockBookingStats) Count(ctx context.Context) (int64, error) { return m.total, nil }

func (m *mockBookingStats) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return m.byStatus, nil
}

type mockSessionStats struct{ total, active int64 }

func (m *mockSessionStats) Count(ctx context.Context) (int64, error)       { return m.total, nil }
func (m *mockSessionStats) CountActive(ctx context.Context) (int64, error) { return m.active, nil }

type mockPaymentStats struct {
	total   int64
	revenue decimal.Decimal
}

func (m *mockPaymentStats) Count(ctx context.Context) (int64, error) { return m.total, nil }

func (m *mockPaymentStats) SumCompleted(ctx context.Context) (decimal.Decimal, error) {
	return m.revenue, nil
}

type mockBookingLister struct{ called bool }

func (m *mockBookingLister) ListAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	m.called = true
	return nil, 0, nil
}

type mockSessionLister struct{}

func (m *mockSessionLister) ListAll(ctx context.Context, limit int, offset int64) ([]*model.ParkingSession, int64, error) {
	return nil, 0, nil
}

type mockPaymentLister struct{}

func (m *mockPaymentLister) ListAll(ctx context.Context, limit int, offset int64) ([]*model.Payment, int64, error) {
	return nil, 0, nil
}

const (
	adminID  = "2c1f5e7a-8b3d-4f6e-9a0c-1d2e3f4a5b6c"
	driverID = "3d2e6f8b-9c4e-4a7f-8b1d-2e3f4a5b6c7d"
)

func newTestAdminService(bookings *mockBookingLister) AdminService {
	cfg := &config.Config{
		Currency: "RUB",
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
	}
	customers := &mockCustomerSource{customers: map[string]*model.Customer{
		adminID:  {ID: adminID, IsAdmin: true},
		driverID: {ID: driverID},
	}}
	return NewAdminService(
		customers,
		&mockCounter{n: 12},
		&mockBookingStats{total: 40, byStatus: map[string]int64{"pending": 3, "completed": 30}},
		&mockSessionStats{total: 35, active: 2},
		&mockPaymentStats{total: 33, revenue: decimal.RequireFromString("48750.00")},
		bookings,
		&mockSessionLister{},
		&mockPaymentLister{},
		cfg,
	)
}

func TestStats_AssemblesOverview(t *testing.T) {
	svc := newTestAdminService(&mockBookingLister{})

	overview, err := svc.Stats(context.Background(), adminID)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if overview.Customers != 12 {
		t.Errorf("expected 12 customers, got %d", overview.Customers)
	}
	if overview.Bookings != 40 || overview.BookingsByStatus["completed"] != 30 {
		t.Errorf("unexpected booking counts: %+v", overview)
	}
	if overview.ActiveSessions != 2 {
		t.Errorf("expected 2 active sessions, got %d", overview.ActiveSessions)
	}
	if !overview.Revenue.Equal(decimal.RequireFromString("48750.00")) {
		t.Errorf("expected revenue 48750.00, got %s", overview.Revenue)
	}
	if overview.Currency != "RUB" {
		t.Errorf("expected RUB currency, got %s", overview.Currency)
	}
}

func TestStats_NonAdminForbidden(t *testing.T) {
	bookings := &mockBookingLister{}
	svc := newTestAdminService(bookings)

	_, err := svc.Stats(context.Background(), driverID)
	if !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Errorf("expected FORBIDDEN, got %v", err)
	}

	_, _, err = svc.ListBookings(context.Background(), driverID, 10, 0)
	if !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Errorf("expected FORBIDDEN on listing, got %v", err)
	}
	if bookings.called {
		t.Error("lister must not run for non-admin callers")
	}
}

func TestStats_UnknownCallerNotFound(t *testing.T) {
	svc := newTestAdminService(&mockBookingLister{})

	_, err := svc.Stats(context.Background(), "4e3f7a9c-0d5f-4b8a-9c2e-3f4a5b6c7d8e")
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}
