package service

import (
	"context"
	"sync"
	"testing"
	"time"

	bookingserrors "parkhub/internal/bookings/errors"
	"parkhub/internal/events"
	sessionserrors "parkhub/internal/sessions/errors"
	"parkhub/internal/sessions/validator"
	zoneserrors "parkhub/internal/zones/errors"
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

type mockSessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*model.ParkingSession
}

func newMockSessionRepository() *mockSessionRepository {
	return &mockSessionRepository{sessions: make(map[string]*model.ParkingSession)}
}

func (m *mockSessionRepository) Create(ctx context.Context, session *model.ParkingSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session
	return nil
}

func (m *mockSessionRepository) FindByID(ctx context.Context, id string) (*model.ParkingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, sessionserrors.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (m *mockSessionRepository) FindByCustomer(ctx context.Context, customerID string, limit int, offset int64) ([]*model.ParkingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ParkingSession
	for _, s := range m.sessions {
		if s.CustomerID == customerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockSessionRepository) CountByCustomer(ctx context.Context, customerID string) (int64, error) {
	list, _ := m.FindByCustomer(ctx, customerID, 0, 0)
	return int64(len(list)), nil
}

func (m *mockSessionRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.ParkingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ParkingSession
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out, nil
}

func (m *mockSessionRepository) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.sessions)), nil
}

func (m *mockSessionRepository) CountActive(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.sessions {
		if s.Status == model.SessionStatusActive {
			n++
		}
	}
	return n, nil
}

func (m *mockSessionRepository) Close(ctx context.Context, id string, exitTime time.Time, durationMinutes int64, totalCost decimal.Decimal) (*model.ParkingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, sessionserrors.ErrSessionNotFound
	}
	if session.Status != model.SessionStatusActive {
		return nil, sessionserrors.ErrSessionClosed
	}
	session.Status = model.SessionStatusCompleted
	session.ExitTime = &exitTime
	session.DurationMinutes = durationMinutes
	session.TotalCost = totalCost
	copied := *session
	return &copied, nil
}

func (m *mockSessionRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockZoneAccess struct {
	spot *model.ParkingSpot
	rate model.RateSnapshot
}

func (m *mockZoneAccess) GetSpot(ctx context.Context, id string) (*model.ParkingSpot, error) {
	copied := *m.spot
	return &copied, nil
}

func (m *mockZoneAccess) ResolveRate(ctx context.Context, spotID string) (*model.ParkingSpot, model.RateSnapshot, error) {
	copied := *m.spot
	return &copied, m.rate, nil
}

func (m *mockZoneAccess) RefreshAvailability(ctx context.Context, zoneID string) error {
	return nil
}

// mockSpotOccupier enforces the occupancy CAS semantics.
type mockSpotOccupier struct {
	mu       sync.Mutex
	occupied map[string]bool
}

func newMockSpotOccupier() *mockSpotOccupier {
	return &mockSpotOccupier{occupied: make(map[string]bool)}
}

func (m *mockSpotOccupier) SetOccupied(ctx context.Context, id string, from, to bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.occupied[id] != from {
		if from {
			return zoneserrors.ErrSpotFree
		}
		return zoneserrors.ErrSpotOccupied
	}
	m.occupied[id] = to
	return nil
}

func (m *mockSpotOccupier) IsOccupied(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.occupied[id]
}

type mockBookingSource struct {
	mu       sync.Mutex
	bookings map[string]*model.Booking
}

func newMockBookingSource() *mockBookingSource {
	return &mockBookingSource{bookings: make(map[string]*model.Booking)}
}

func (m *mockBookingSource) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrBookingNotFound
	}
	copied := *booking
	return &copied, nil
}

func (m *mockBookingSource) UpdateStatus(ctx context.Context, id, from, to string) (*model.Booking, error) {
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

type mockVehicleSource struct {
	ownerID string
}

func (m *mockVehicleSource) GetOwned(ctx context.Context, customerID, vehicleID string) (*model.Vehicle, error) {
	if customerID != m.ownerID {
		return nil, apperrors.NotFoundWithID("Vehicle", vehicleID)
	}
	return &model.Vehicle{ID: vehicleID, CustomerID: customerID}, nil
}

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

func (m *mockPaymentStore) Settle(ctx context.Context, id, from, to string, amount decimal.Decimal, transactionID string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok || p.Status != from {
		return nil, apperrors.InvalidState("payment transition rejected")
	}
	p.Status = to
	p.Amount = amount
	p.TransactionID = transactionID
	copied := *p
	return &copied, nil
}

type mockGateway struct{}

func (mockGateway) NewTransactionID() string { return "TXNAAAAAAAAAAAA" }

// ────────────────────────────────────────────────
// Fixture
// ────────────────────────────────────────────────

const (
	testCustomerID = "5f0c3c2e-8d3a-4f4e-9b1a-111111111111"
	testVehicleID  = "5f0c3c2e-8d3a-4f4e-9b1a-222222222222"
	testSpotID     = "5f0c3c2e-8d3a-4f4e-9b1a-333333333333"
)

type fixture struct {
	service  SessionService
	repo     *mockSessionRepository
	occupier *mockSpotOccupier
	bookings *mockBookingSource
	funds    *mockFunds
	payments *mockPaymentStore
}

func hourlyRate(price string) model.RateSnapshot {
	return model.RateSnapshot{
		TariffID:     uuid.New().String(),
		PricePerHour: decimal.RequireFromString(price),
	}
}

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

	repo := newMockSessionRepository()
	occupier := newMockSpotOccupier()
	bookings := newMockBookingSource()
	funds := &mockFunds{balance: decimal.RequireFromString(balance)}
	payments := newMockPaymentStore()

	svc := NewSessionService(
		repo,
		&mockZoneAccess{
			spot: &model.ParkingSpot{ID: testSpotID, ZoneID: "zone-1", SpotNumber: "A-01", IsActive: true},
			rate: hourlyRate("150.00"),
		},
		occupier,
		bookings,
		&mockVehicleSource{ownerID: testCustomerID},
		funds,
		payments,
		mockGateway{},
		events.NoopPublisher{},
		validator.NewSessionValidator(log),
		cfg,
	)

	return &fixture{service: svc, repo: repo, occupier: occupier, bookings: bookings, funds: funds, payments: payments}
}

// seedBooking installs a pending booking with its reservation payment, as the
// booking ledger would have left them.
func (f *fixture) seedBooking(reserved string, start, end time.Time) *model.Booking {
	booking := &model.Booking{
		ID:             uuid.New().String(),
		CustomerID:     testCustomerID,
		VehicleID:      testVehicleID,
		SpotID:         testSpotID,
		StartTime:      start,
		EndTime:        end,
		Status:         model.BookingStatusPending,
		Rate:           hourlyRate("150.00"),
		ReservedAmount: decimal.RequireFromString(reserved),
	}
	f.bookings.bookings[booking.ID] = booking
	f.payments.payments["res-"+booking.ID] = &model.Payment{
		ID:         "res-" + booking.ID,
		BookingID:  booking.ID,
		CustomerID: testCustomerID,
		Amount:     booking.ReservedAmount,
		Method:     model.PaymentMethodBalance,
		Status:     model.PaymentStatusPending,
	}
	return booking
}

// seedActiveSession installs an already-open session, bypassing Open.
func (f *fixture) seedActiveSession(bookingID string, entry time.Time) *model.ParkingSession {
	session := &model.ParkingSession{
		ID:         uuid.New().String(),
		BookingID:  bookingID,
		CustomerID: testCustomerID,
		VehicleID:  testVehicleID,
		SpotID:     testSpotID,
		EntryTime:  entry,
		Status:     model.SessionStatusActive,
		Rate:       hourlyRate("150.00"),
	}
	f.repo.sessions[session.ID] = session
	f.occupier.occupied[testSpotID] = true
	return session
}

// ────────────────────────────────────────────────
// Open
// ────────────────────────────────────────────────

func TestOpen_WalkIn(t *testing.T) {
	f := newFixture("1000.00")

	session, err := f.service.Open(context.Background(), testCustomerID, &model.SessionRequest{
		VehicleID: testVehicleID,
		SpotID:    testSpotID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if session.Status != model.SessionStatusActive {
		t.Errorf("expected active session, got %s", session.Status)
	}
	if session.BookingID != "" {
		t.Errorf("walk-in session must have no booking, got %q", session.BookingID)
	}
	if !f.occupier.IsOccupied(testSpotID) {
		t.Error("expected spot to be occupied")
	}
	if !session.Rate.PricePerHour.Equal(decimal.RequireFromString("150.00")) {
		t.Errorf("expected snapshotted rate 150.00, got %s", session.Rate.PricePerHour)
	}
}

func TestOpen_OccupiedSpotRejected(t *testing.T) {
	f := newFixture("1000.00")

	if _, err := f.service.Open(context.Background(), testCustomerID, &model.SessionRequest{
		VehicleID: testVehicleID,
		SpotID:    testSpotID,
	}); err != nil {
		t.Fatalf("first open failed: %v", err)
	}

	_, err := f.service.Open(context.Background(), testCustomerID, &model.SessionRequest{
		VehicleID: testVehicleID,
		SpotID:    testSpotID,
	})
	if !apperrors.HasCode(err, apperrors.CodeSpotOccupied) {
		t.Fatalf("expected SPOT_OCCUPIED, got %v", err)
	}
}

func TestOpenForBooking_ConfirmsBooking(t *testing.T) {
	f := newFixture("1000.00")
	now := time.Now().UTC()
	booking := f.seedBooking("300.00", now, now.Add(2*time.Hour))

	session, err := f.service.OpenForBooking(context.Background(), testCustomerID, booking.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if session.BookingID != booking.ID {
		t.Errorf("expected session bound to booking, got %q", session.BookingID)
	}
	updated, _ := f.bookings.FindByID(context.Background(), booking.ID)
	if updated.Status != model.BookingStatusConfirmed {
		t.Errorf("expected confirmed booking, got %s", updated.Status)
	}
}

func TestOpenForBooking_CancelledBookingRollsBackOccupancy(t *testing.T) {
	f := newFixture("1000.00")
	now := time.Now().UTC()
	booking := f.seedBooking("300.00", now, now.Add(2*time.Hour))
	booking.Status = model.BookingStatusCancelled

	_, err := f.service.OpenForBooking(context.Background(), testCustomerID, booking.ID)
	if !apperrors.HasCode(err, apperrors.CodeInvalidState) {
		t.Fatalf("expected INVALID_STATE, got %v", err)
	}
	if f.occupier.IsOccupied(testSpotID) {
		t.Error("expected occupancy rollback after failed confirm")
	}
}

func TestOpenForBooking_ForeignBookingHidden(t *testing.T) {
	f := newFixture("1000.00")
	now := time.Now().UTC()
	booking := f.seedBooking("300.00", now, now.Add(2*time.Hour))

	_, err := f.service.OpenForBooking(context.Background(), "5f0c3c2e-8d3a-4f4e-9b1a-999999999999", booking.ID)
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

// ────────────────────────────────────────────────
// End / settlement
// ────────────────────────────────────────────────

func TestEnd_ExactWindowSettlesAtDeltaZero(t *testing.T) {
	f := newFixture("700.00")
	entry := time.Now().UTC().Add(-2 * time.Hour)
	booking := f.seedBooking("300.00", entry, entry.Add(2*time.Hour))
	booking.Status = model.BookingStatusConfirmed
	session := f.seedActiveSession(booking.ID, entry)

	exit := entry.Add(2 * time.Hour)
	settlement, err := f.service.End(context.Background(), testCustomerID, session.ID, &exit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !settlement.Delta.IsZero() {
		t.Errorf("expected delta zero, got %s", settlement.Delta)
	}
	if settlement.Payment.Status != model.PaymentStatusCompleted {
		t.Errorf("expected completed payment, got %s", settlement.Payment.Status)
	}
	if !settlement.Payment.Amount.Equal(decimal.RequireFromString("300.00")) {
		t.Errorf("expected payment amount 300.00, got %s", settlement.Payment.Amount)
	}
	if settlement.Payment.TransactionID == "" {
		t.Error("expected a gateway transaction reference")
	}
	if !f.funds.Balance().Equal(decimal.RequireFromString("700.00")) {
		t.Errorf("expected untouched balance at delta zero, got %s", f.funds.Balance())
	}

	completed, _ := f.bookings.FindByID(context.Background(), booking.ID)
	if completed.Status != model.BookingStatusCompleted {
		t.Errorf("expected completed booking, got %s", completed.Status)
	}
	if f.occupier.IsOccupied(testSpotID) {
		t.Error("expected spot freed after settlement")
	}
}

func TestEnd_OverstayDebitsDelta(t *testing.T) {
	f := newFixture("700.00")
	entry := time.Now().UTC().Add(-3 * time.Hour)
	booking := f.seedBooking("300.00", entry, entry.Add(2*time.Hour))
	booking.Status = model.BookingStatusConfirmed
	session := f.seedActiveSession(booking.ID, entry)

	// 3h01m -> 4 billed hours = 600; reserved 300 -> extra 300.
	exit := entry.Add(3*time.Hour + time.Minute)
	settlement, err := f.service.End(context.Background(), testCustomerID, session.ID, &exit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !settlement.Delta.Equal(decimal.RequireFromString("300.00")) {
		t.Errorf("expected delta 300.00, got %s", settlement.Delta)
	}
	if !f.funds.Balance().Equal(decimal.RequireFromString("400.00")) {
		t.Errorf("expected balance 400.00 after extra debit, got %s", f.funds.Balance())
	}
	if !settlement.Payment.Amount.Equal(decimal.RequireFromString("600.00")) {
		t.Errorf("expected final payment 600.00, got %s", settlement.Payment.Amount)
	}
}

func TestEnd_EarlyExitRefundsDelta(t *testing.T) {
	f := newFixture("700.00")
	entry := time.Now().UTC().Add(-90 * time.Minute)
	booking := f.seedBooking("450.00", entry, entry.Add(3*time.Hour))
	booking.Status = model.BookingStatusConfirmed
	session := f.seedActiveSession(booking.ID, entry)

	// 90 minutes -> 2 billed hours = 300; reserved 450 -> refund 150.
	exit := entry.Add(90 * time.Minute)
	settlement, err := f.service.End(context.Background(), testCustomerID, session.ID, &exit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !settlement.Delta.Equal(decimal.RequireFromString("-150.00")) {
		t.Errorf("expected delta -150.00, got %s", settlement.Delta)
	}
	if !f.funds.Balance().Equal(decimal.RequireFromString("850.00")) {
		t.Errorf("expected balance 850.00 after refund, got %s", f.funds.Balance())
	}
	if settlement.Payment.Status != model.PaymentStatusCompleted {
		t.Errorf("expected completed payment, got %s", settlement.Payment.Status)
	}
}

func TestEnd_OverstayShortfallClosesSessionWithFailedPayment(t *testing.T) {
	f := newFixture("0.00")
	entry := time.Now().UTC().Add(-5 * time.Hour)
	booking := f.seedBooking("300.00", entry, entry.Add(2*time.Hour))
	booking.Status = model.BookingStatusConfirmed
	session := f.seedActiveSession(booking.ID, entry)

	exit := entry.Add(5 * time.Hour)
	settlement, err := f.service.End(context.Background(), testCustomerID, session.ID, &exit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if settlement.Payment.Status != model.PaymentStatusFailed {
		t.Errorf("expected failed payment on shortfall, got %s", settlement.Payment.Status)
	}
	if settlement.Session.Status != model.SessionStatusCompleted {
		t.Errorf("session must close despite shortfall, got %s", settlement.Session.Status)
	}
	if !f.funds.Balance().IsZero() {
		t.Errorf("balance must never go negative, got %s", f.funds.Balance())
	}
	if f.occupier.IsOccupied(testSpotID) {
		t.Error("expected spot freed despite shortfall")
	}
}

func TestEnd_WalkInFullDebit(t *testing.T) {
	f := newFixture("1000.00")
	entry := time.Now().UTC().Add(-30 * time.Minute)
	session := f.seedActiveSession("", entry)

	// 30 minutes bills as the one-hour minimum.
	exit := entry.Add(30 * time.Minute)
	settlement, err := f.service.End(context.Background(), testCustomerID, session.ID, &exit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !settlement.Delta.Equal(decimal.RequireFromString("150.00")) {
		t.Errorf("walk-in delta is the full cost, got %s", settlement.Delta)
	}
	if !f.funds.Balance().Equal(decimal.RequireFromString("850.00")) {
		t.Errorf("expected balance 850.00, got %s", f.funds.Balance())
	}
	if settlement.Payment.BookingID != "" {
		t.Errorf("walk-in payment must have no booking, got %q", settlement.Payment.BookingID)
	}
}

func TestEnd_SecondEndRejected(t *testing.T) {
	f := newFixture("1000.00")
	entry := time.Now().UTC().Add(-time.Hour)
	session := f.seedActiveSession("", entry)

	exit := entry.Add(time.Hour)
	if _, err := f.service.End(context.Background(), testCustomerID, session.ID, &exit); err != nil {
		t.Fatalf("first end failed: %v", err)
	}

	_, err := f.service.End(context.Background(), testCustomerID, session.ID, &exit)
	if !apperrors.HasCode(err, apperrors.CodeInvalidState) {
		t.Fatalf("expected INVALID_STATE on second end, got %v", err)
	}
	if f.funds.debits != 1 {
		t.Errorf("expected exactly one debit, got %d", f.funds.debits)
	}
}

func TestEnd_ExitBeforeEntryRejected(t *testing.T) {
	f := newFixture("1000.00")
	entry := time.Now().UTC().Add(-time.Hour)
	session := f.seedActiveSession("", entry)

	exit := entry.Add(-time.Minute)
	_, err := f.service.End(context.Background(), testCustomerID, session.ID, &exit)
	if !apperrors.HasCode(err, apperrors.CodeInvalidInterval) {
		t.Fatalf("expected INVALID_INTERVAL, got %v", err)
	}
}

// ────────────────────────────────────────────────
// EstimateCost
// ────────────────────────────────────────────────

func TestEstimateCost_MatchesSettlement(t *testing.T) {
	f := newFixture("1000.00")
	entry := time.Now().UTC().Add(-2 * time.Hour)
	session := f.seedActiveSession("", entry)

	at := entry.Add(95 * time.Minute)
	estimate, err := f.service.EstimateCost(context.Background(), testCustomerID, session.ID, &at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	settlement, err := f.service.End(context.Background(), testCustomerID, session.ID, &at)
	if err != nil {
		t.Fatalf("end failed: %v", err)
	}

	if !estimate.EstimatedCost.Equal(settlement.Session.TotalCost) {
		t.Errorf("estimate %s does not match settlement %s", estimate.EstimatedCost, settlement.Session.TotalCost)
	}
	if estimate.BillableMinutes != settlement.Session.DurationMinutes {
		t.Errorf("estimate minutes %d does not match settlement %d", estimate.BillableMinutes, settlement.Session.DurationMinutes)
	}
}

func TestEstimateCost_CompletedSessionRejected(t *testing.T) {
	f := newFixture("1000.00")
	entry := time.Now().UTC().Add(-time.Hour)
	session := f.seedActiveSession("", entry)

	exit := entry.Add(time.Hour)
	if _, err := f.service.End(context.Background(), testCustomerID, session.ID, &exit); err != nil {
		t.Fatalf("end failed: %v", err)
	}

	_, err := f.service.EstimateCost(context.Background(), testCustomerID, session.ID, nil)
	if !apperrors.HasCode(err, apperrors.CodeInvalidState) {
		t.Fatalf("expected INVALID_STATE, got %v", err)
	}
}
