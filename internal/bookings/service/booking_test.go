package service

import (
	"context"
	"sync"
	"testing"
	"time"

	bookingserrors "parkhub/internal/bookings/errors"
	"parkhub/internal/bookings/validator"
	"parkhub/internal/events"
	"parkhub/pkg/config"
	mongotx "parkhub/pkg/db/mongo"
	apperrors "parkhub/pkg/errors"
	"parkhub/pkg/logger"
	"parkhub/pkg/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ────────────────────────────────────────────────
// Mocks
// ────────────────────────────────────────────────

// mockBookingRepository keeps created bookings in memory so overlap re-checks
// observe concurrent inserts.
type mockBookingRepository struct {
	mu       sync.Mutex
	bookings map[string]*model.Booking

	updateStatusFunc func(ctx context.Context, id, from, to string) (*model.Booking, error)
}

func newMockBookingRepository() *mockBookingRepository {
	return &mockBookingRepository{bookings: make(map[string]*model.Booking)}
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = booking
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrBookingNotFound
	}
	copied := *booking
	return &copied, nil
}

func (m *mockBookingRepository) FindByCustomer(ctx context.Context, customerID string, limit int, offset int64) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Booking
	for _, b := range m.bookings {
		if b.CustomerID == customerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBookingRepository) CountByCustomer(ctx context.Context, customerID string) (int64, error) {
	list, _ := m.FindByCustomer(ctx, customerID, 0, 0)
	return int64(len(list)), nil
}

func (m *mockBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Booking
	for _, b := range m.bookings {
		out = append(out, b)
	}
	return out, nil
}

func (m *mockBookingRepository) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.bookings)), nil
}

func (m *mockBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int64)
	for _, b := range m.bookings {
		counts[b.Status]++
	}
	return counts, nil
}

func (m *mockBookingRepository) FindActiveOverlapping(ctx context.Context, spotID string, start, end time.Time) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Booking
	for _, b := range m.bookings {
		if b.SpotID == spotID && b.Active() && b.StartTime.Before(end) && b.EndTime.After(start) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBookingRepository) FindBookedSpotIDs(ctx context.Context, spotIDs []string, start, end time.Time) (map[string]struct{}, error) {
	booked := make(map[string]struct{})
	for _, id := range spotIDs {
		overlapping, _ := m.FindActiveOverlapping(ctx, id, start, end)
		if len(overlapping) > 0 {
			booked[id] = struct{}{}
		}
	}
	return booked, nil
}

func (m *mockBookingRepository) UpdateStatus(ctx context.Context, id, from, to string) (*model.Booking, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, from, to)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrBookingNotFound
	}
	if booking.Status != from {
		return nil, bookingserrors.ErrInvalidTransition
	}
	booking.Status = to
	copied := *booking
	return &copied, nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

// mockSpotLockRepository enforces real mutual exclusion so concurrent create
// tests exercise the lock protocol.
type mockSpotLockRepository struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMockSpotLockRepository() *mockSpotLockRepository {
	return &mockSpotLockRepository{held: make(map[string]bool)}
}

func (m *mockSpotLockRepository) Acquire(ctx context.Context, spotID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[spotID] {
		return bookingserrors.ErrSpotLocked
	}
	m.held[spotID] = true
	return nil
}

func (m *mockSpotLockRepository) Release(ctx context.Context, spotID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, spotID)
	return nil
}

type mockSpotSource struct {
	spot *model.ParkingSpot
	rate model.RateSnapshot
}

func (m *mockSpotSource) GetSpot(ctx context.Context, id string) (*model.ParkingSpot, error) {
	copied := *m.spot
	return &copied, nil
}

func (m *mockSpotSource) ResolveRate(ctx context.Context, spotID string) (*model.ParkingSpot, model.RateSnapshot, error) {
	copied := *m.spot
	return &copied, m.rate, nil
}

type mockVehicleSource struct {
	ownerID string
}

func (m *mockVehicleSource) GetOwned(ctx context.Context, customerID, vehicleID string) (*model.Vehicle, error) {
	if customerID != m.ownerID {
		return nil, apperrors.NotFoundWithID("Vehicle", vehicleID)
	}
	return &model.Vehicle{ID: vehicleID, CustomerID: customerID}, nil
}

// mockFunds maintains a real balance so debit/refund round trips are
// observable.
type mockFunds struct {
	mu      sync.Mutex
	balance decimal.Decimal
	debits  int
	credits int
}

func (m *mockFunds) Debit(ctx context.Context, customerID string, amount decimal.Decimal, description string) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balance.LessThan(amount) {
		return nil, apperrors.InsufficientBalance("Balance does not cover the required amount")
	}
	m.balance = m.balance.Sub(amount)
	m.debits++
	return &model.Transaction{Amount: amount, Type: model.TransactionTypeDebit}, nil
}

func (m *mockFunds) Credit(ctx context.Context, customerID string, amount decimal.Decimal, txType, description string) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balance = m.balance.Add(amount)
	m.credits++
	return &model.Transaction{Amount: amount, Type: txType}, nil
}

func (m *mockFunds) Balance() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balance
}

type mockPaymentStore struct {
	mu       sync.Mutex
	payments map[string]*model.Payment
}

func newMockPaymentStore() *mockPaymentStore {
	return &mockPaymentStore{payments: make(map[string]*model.Payment)}
}

func (m *mockPaymentStore) Create(ctx context.Context, payment *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[payment.ID] = payment
	return nil
}

func (m *mockPaymentStore) FindByBooking(ctx context.Context, bookingID string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.BookingID == bookingID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockPaymentStore) UpdateStatus(ctx context.Context, id, from, to string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok || p.Status != from {
		return nil, apperrors.InvalidState("payment transition rejected")
	}
	p.Status = to
	copied := *p
	return &copied, nil
}

type mockSessionOpener struct{}

func (m *mockSessionOpener) OpenForBooking(ctx context.Context, customerID, bookingID string) (*model.ParkingSession, error) {
	return &model.ParkingSession{ID: uuid.New().String(), BookingID: bookingID, CustomerID: customerID}, nil
}

// ────────────────────────────────────────────────
// Fixture
// ────────────────────────────────────────────────

type fixture struct {
	service  BookingService
	repo     *mockBookingRepository
	funds    *mockFunds
	payments *mockPaymentStore
	spot     *mockSpotSource
}

const (
	testCustomerID = "5f0c3c2e-8d3a-4f4e-9b1a-111111111111"
	testVehicleID  = "5f0c3c2e-8d3a-4f4e-9b1a-222222222222"
	testSpotID     = "5f0c3c2e-8d3a-4f4e-9b1a-333333333333"
)

func newFixture(balance string) *fixture {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	cfg := &config.Config{
		Log:                log,
		MinBillableMinutes: 60,
	}

	repo := newMockBookingRepository()
	funds := &mockFunds{balance: decimal.RequireFromString(balance)}
	payments := newMockPaymentStore()
	spot := &mockSpotSource{
		spot: &model.ParkingSpot{ID: testSpotID, ZoneID: "zone-1", SpotNumber: "A-01", IsActive: true},
		rate: model.RateSnapshot{
			TariffID:     uuid.New().String(),
			PricePerHour: decimal.RequireFromString("150.00"),
		},
	}

	svc := NewBookingService(
		repo,
		newMockSpotLockRepository(),
		spot,
		&mockVehicleSource{ownerID: testCustomerID},
		funds,
		payments,
		&mockSessionOpener{},
		events.NoopPublisher{},
		validator.NewBookingValidator(log),
		cfg,
	)

	return &fixture{service: svc, repo: repo, funds: funds, payments: payments, spot: spot}
}

func window(startOffset, endOffset time.Duration) (time.Time, time.Time) {
	now := time.Now().UTC().Truncate(time.Second)
	return now.Add(startOffset), now.Add(endOffset)
}

// ────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────

func TestCreate_ReservesAndDebits(t *testing.T) {
	f := newFixture("1000.00")
	start, end := window(time.Hour, 3*time.Hour)

	booking, err := f.service.Create(context.Background(), testCustomerID, &model.BookingRequest{
		VehicleID: testVehicleID,
		SpotID:    testSpotID,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.Status != model.BookingStatusPending {
		t.Errorf("expected pending booking, got %s", booking.Status)
	}
	if !booking.ReservedAmount.Equal(decimal.RequireFromString("300.00")) {
		t.Errorf("expected 300.00 reserved for a 2h window at 150/h, got %s", booking.ReservedAmount)
	}
	if !f.funds.Balance().Equal(decimal.RequireFromString("700.00")) {
		t.Errorf("expected balance 700.00 after debit, got %s", f.funds.Balance())
	}

	payment, _ := f.payments.FindByBooking(context.Background(), booking.ID)
	if payment == nil {
		t.Fatal("expected a pending reservation payment")
	}
	if payment.Status != model.PaymentStatusPending {
		t.Errorf("expected pending payment, got %s", payment.Status)
	}
	if !payment.Amount.Equal(booking.ReservedAmount) {
		t.Errorf("payment amount %s does not match reserved amount %s", payment.Amount, booking.ReservedAmount)
	}
}

func TestCreate_InvalidInterval(t *testing.T) {
	f := newFixture("1000.00")

	tests := []struct {
		name  string
		start time.Duration
		end   time.Duration
	}{
		{"end before start", 3 * time.Hour, time.Hour},
		{"zero-length window", time.Hour, time.Hour},
		{"start in the past", -2 * time.Hour, time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := window(tt.start, tt.end)
			_, err := f.service.Create(context.Background(), testCustomerID, &model.BookingRequest{
				VehicleID: testVehicleID,
				SpotID:    testSpotID,
				StartTime: start,
				EndTime:   end,
			})
			if !apperrors.HasCode(err, apperrors.CodeInvalidInterval) && !apperrors.HasCode(err, apperrors.CodeValidation) {
				t.Fatalf("expected interval rejection, got %v", err)
			}
		})
	}
}

func TestCreate_InsufficientBalance_NoBookingRow(t *testing.T) {
	f := newFixture("100.00")
	start, end := window(time.Hour, 3*time.Hour)

	_, err := f.service.Create(context.Background(), testCustomerID, &model.BookingRequest{
		VehicleID: testVehicleID,
		SpotID:    testSpotID,
		StartTime: start,
		EndTime:   end,
	})
	if !apperrors.HasCode(err, apperrors.CodeInsufficientBalance) {
		t.Fatalf("expected INSUFFICIENT_BALANCE, got %v", err)
	}

	if count, _ := f.repo.Count(context.Background()); count != 0 {
		t.Errorf("expected no booking row after failed debit, got %d", count)
	}
	if !f.funds.Balance().Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("expected untouched balance, got %s", f.funds.Balance())
	}
}

func TestCreate_OverlapConflict(t *testing.T) {
	f := newFixture("1000.00")
	start, end := window(time.Hour, 3*time.Hour)

	req := &model.BookingRequest{
		VehicleID: testVehicleID,
		SpotID:    testSpotID,
		StartTime: start,
		EndTime:   end,
	}
	if _, err := f.service.Create(context.Background(), testCustomerID, req); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	// Overlapping window shifted one hour into the first booking.
	start2, end2 := window(2*time.Hour, 4*time.Hour)
	_, err := f.service.Create(context.Background(), testCustomerID, &model.BookingRequest{
		VehicleID: testVehicleID,
		SpotID:    testSpotID,
		StartTime: start2,
		EndTime:   end2,
	})
	if !apperrors.HasCode(err, apperrors.CodeSpotUnavailable) {
		t.Fatalf("expected SPOT_UNAVAILABLE, got %v", err)
	}

	// Only the first debit went through.
	if !f.funds.Balance().Equal(decimal.RequireFromString("700.00")) {
		t.Errorf("expected balance 700.00, got %s", f.funds.Balance())
	}
}

func TestCreate_BackToBackWindowsDoNotConflict(t *testing.T) {
	f := newFixture("1000.00")
	start, end := window(time.Hour, 3*time.Hour)

	if _, err := f.service.Create(context.Background(), testCustomerID, &model.BookingRequest{
		VehicleID: testVehicleID,
		SpotID:    testSpotID,
		StartTime: start,
		EndTime:   end,
	}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	// Half-open windows: a booking starting exactly at the previous end is fine.
	if _, err := f.service.Create(context.Background(), testCustomerID, &model.BookingRequest{
		VehicleID: testVehicleID,
		SpotID:    testSpotID,
		StartTime: end,
		EndTime:   end.Add(time.Hour),
	}); err != nil {
		t.Fatalf("back-to-back create failed: %v", err)
	}
}

func TestCreate_ConcurrentOneWinner(t *testing.T) {
	f := newFixture("10000.00")
	start, end := window(time.Hour, 3*time.Hour)

	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Create(context.Background(), testCustomerID, &model.BookingRequest{
				VehicleID: testVehicleID,
				SpotID:    testSpotID,
				StartTime: start,
				EndTime:   end,
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case apperrors.HasCode(err, apperrors.CodeSpotUnavailable):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d (conflicts %d)", wins, conflicts)
	}
	if !f.funds.Balance().Equal(decimal.RequireFromString("9700.00")) {
		t.Errorf("expected exactly one debit, balance %s", f.funds.Balance())
	}
}

func TestCancel_RefundsReservedAmount(t *testing.T) {
	f := newFixture("1000.00")
	start, end := window(time.Hour, 3*time.Hour)

	booking, err := f.service.Create(context.Background(), testCustomerID, &model.BookingRequest{
		VehicleID: testVehicleID,
		SpotID:    testSpotID,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	cancelled, err := f.service.Cancel(context.Background(), testCustomerID, booking.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if cancelled.Status != model.BookingStatusCancelled {
		t.Errorf("expected cancelled status, got %s", cancelled.Status)
	}
	if !f.funds.Balance().Equal(decimal.RequireFromString("1000.00")) {
		t.Errorf("expected full refund back to 1000.00, got %s", f.funds.Balance())
	}

	payment, _ := f.payments.FindByBooking(context.Background(), booking.ID)
	if payment.Status != model.PaymentStatusRefunded {
		t.Errorf("expected refunded payment, got %s", payment.Status)
	}
}

func TestCancel_AfterConfirmedRejected(t *testing.T) {
	f := newFixture("1000.00")
	start, end := window(time.Hour, 3*time.Hour)

	booking, err := f.service.Create(context.Background(), testCustomerID, &model.BookingRequest{
		VehicleID: testVehicleID,
		SpotID:    testSpotID,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := f.repo.UpdateStatus(context.Background(), booking.ID, model.BookingStatusPending, model.BookingStatusConfirmed); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	_, err = f.service.Cancel(context.Background(), testCustomerID, booking.ID)
	if !apperrors.HasCode(err, apperrors.CodeInvalidState) {
		t.Fatalf("expected INVALID_STATE, got %v", err)
	}
	if !f.funds.Balance().Equal(decimal.RequireFromString("700.00")) {
		t.Errorf("expected no refund, balance %s", f.funds.Balance())
	}
}

func TestCancel_DoubleCancelRejected(t *testing.T) {
	f := newFixture("1000.00")
	start, end := window(time.Hour, 3*time.Hour)

	booking, err := f.service.Create(context.Background(), testCustomerID, &model.BookingRequest{
		VehicleID: testVehicleID,
		SpotID:    testSpotID,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := f.service.Cancel(context.Background(), testCustomerID, booking.ID); err != nil {
		t.Fatalf("first cancel failed: %v", err)
	}
	_, err = f.service.Cancel(context.Background(), testCustomerID, booking.ID)
	if !apperrors.HasCode(err, apperrors.CodeInvalidState) {
		t.Fatalf("expected INVALID_STATE on second cancel, got %v", err)
	}
	if !f.funds.Balance().Equal(decimal.RequireFromString("1000.00")) {
		t.Errorf("expected exactly one refund, balance %s", f.funds.Balance())
	}
}

func TestGetOwned_OtherCustomersBookingHidden(t *testing.T) {
	f := newFixture("1000.00")
	start, end := window(time.Hour, 3*time.Hour)

	booking, err := f.service.Create(context.Background(), testCustomerID, &model.BookingRequest{
		VehicleID: testVehicleID,
		SpotID:    testSpotID,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = f.service.GetOwned(context.Background(), "5f0c3c2e-8d3a-4f4e-9b1a-999999999999", booking.ID)
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND for foreign booking, got %v", err)
	}
}
