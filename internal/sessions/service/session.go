package service

import (
	"context"
	"errors"
	"sync"
	"time"

	bookingserrors "parkhub/internal/bookings/errors"
	"parkhub/internal/events"
	"parkhub/internal/pricing"
	sessionserrors "parkhub/internal/sessions/errors"
	"parkhub/internal/sessions/repository"
	"parkhub/internal/sessions/validator"
	zoneserrors "parkhub/internal/zones/errors"
	"parkhub/pkg/config"
	apperrors "parkhub/pkg/errors"
	"parkhub/pkg/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"
)

// ZoneAccess is the slice of the zone service sessions need.
type ZoneAccess interface {
	GetSpot(ctx context.Context, id string) (*model.ParkingSpot, error)
	ResolveRate(ctx context.Context, spotID string) (*model.ParkingSpot, model.RateSnapshot, error)
	RefreshAvailability(ctx context.Context, zoneID string) error
}

// SpotOccupier performs the occupancy compare-and-set on the spot document. At
// most one active session per spot follows from it.
type SpotOccupier interface {
	SetOccupied(ctx context.Context, id string, from, to bool) error
}

// BookingSource reads and transitions bookings during entry and settlement.
type BookingSource interface {
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	UpdateStatus(ctx context.Context, id, from, to string) (*model.Booking, error)
}

type VehicleSource interface {
	GetOwned(ctx context.Context, customerID, vehicleID string) (*model.Vehicle, error)
}

type Funds interface {
	Debit(ctx context.Context, customerID string, amount decimal.Decimal, description string) (*model.Transaction, error)
	Credit(ctx context.Context, customerID string, amount decimal.Decimal, txType, description string) (*model.Transaction, error)
}

// PaymentStore writes settlement payments. Settle rewrites the reservation
// payment with the final amount and outcome.
type PaymentStore interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByBooking(ctx context.Context, bookingID string) (*model.Payment, error)
	Settle(ctx context.Context, id, from, to string, amount decimal.Decimal, transactionID string) (*model.Payment, error)
}

// Gateway issues transaction references for completed payments.
type Gateway interface {
	NewTransactionID() string
}

// CostEstimate is the preview returned for an active session.
type CostEstimate struct {
	SessionID       string          `json:"session_id"`
	At              time.Time       `json:"at"`
	BillableMinutes int64           `json:"billable_minutes"`
	EstimatedCost   decimal.Decimal `json:"estimated_cost"`
}

type SessionService interface {
	Open(ctx context.Context, customerID string, req *model.SessionRequest) (*model.ParkingSession, error)
	OpenForBooking(ctx context.Context, customerID, bookingID string) (*model.ParkingSession, error)
	End(ctx context.Context, customerID, sessionID string, exitTime *time.Time) (*model.Settlement, error)
	EstimateCost(ctx context.Context, customerID, sessionID string, at *time.Time) (*CostEstimate, error)
	GetOwned(ctx context.Context, customerID, sessionID string) (*model.ParkingSession, error)
	ListByCustomer(ctx context.Context, customerID string, limit int, offset int64) ([]*model.ParkingSession, int64, error)
	ListAll(ctx context.Context, limit int, offset int64) ([]*model.ParkingSession, int64, error)
}

type sessionService struct {
	sessions  repository.SessionRepository
	zones     ZoneAccess
	occupier  SpotOccupier
	bookings  BookingSource
	vehicles  VehicleSource
	funds     Funds
	payments  PaymentStore
	gateway   Gateway
	publisher events.Publisher
	calc      pricing.Calculator
	validator *validator.SessionValidator
	cfg       *config.Config
}

func NewSessionService(
	sessions repository.SessionRepository,
	zones ZoneAccess,
	occupier SpotOccupier,
	bookings BookingSource,
	vehicles VehicleSource,
	funds Funds,
	payments PaymentStore,
	gateway Gateway,
	publisher events.Publisher,
	v *validator.SessionValidator,
	cfg *config.Config,
) SessionService {
	return &sessionService{
		sessions:  sessions,
		zones:     zones,
		occupier:  occupier,
		bookings:  bookings,
		vehicles:  vehicles,
		funds:     funds,
		payments:  payments,
		gateway:   gateway,
		publisher: publisher,
		calc:      pricing.NewCalculator(cfg.MinBillableMinutes),
		validator: v,
		cfg:       cfg,
	}
}

func (s *sessionService) Open(ctx context.Context, customerID string, req *model.SessionRequest) (*model.ParkingSession, error) {
	if req.BookingID != "" {
		return s.openFromBooking(ctx, customerID, req)
	}

	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Session validation failed", "error", err)
		return nil, apperrors.Validation("Session validation failed", map[string]any{"error": err.Error()})
	}

	if _, err := s.vehicles.GetOwned(ctx, customerID, req.VehicleID); err != nil {
		return nil, err
	}

	// Walk-in: snapshot the zone tariff at entry.
	spot, rate, err := s.zones.ResolveRate(ctx, req.SpotID)
	if err != nil {
		return nil, err
	}
	if !spot.IsActive {
		return nil, apperrors.SpotUnavailable("Spot is not available")
	}

	return s.startSession(ctx, &model.ParkingSession{
		ID:         uuid.New().String(),
		CustomerID: customerID,
		VehicleID:  req.VehicleID,
		SpotID:     req.SpotID,
		EntryTime:  time.Now().UTC().Truncate(time.Millisecond),
		Status:     model.SessionStatusActive,
		Rate:       rate,
	}, spot.ZoneID, nil)
}

func (s *sessionService) OpenForBooking(ctx context.Context, customerID, bookingID string) (*model.ParkingSession, error) {
	return s.openFromBooking(ctx, customerID, &model.SessionRequest{BookingID: bookingID})
}

// openFromBooking confirms the booking and opens a session carrying its rate
// snapshot. Occupancy is taken before the booking transition so a failed
// confirm can roll the spot back.
func (s *sessionService) openFromBooking(ctx context.Context, customerID string, req *model.SessionRequest) (*model.ParkingSession, error) {
	booking, err := s.bookings.FindByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrBookingNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", req.BookingID)
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	if booking.CustomerID != customerID {
		return nil, apperrors.NotFoundWithID("Booking", req.BookingID)
	}
	if req.VehicleID != "" && req.VehicleID != booking.VehicleID {
		return nil, apperrors.InvalidInput("Vehicle does not match the booking")
	}
	if req.SpotID != "" && req.SpotID != booking.SpotID {
		return nil, apperrors.InvalidInput("Spot does not match the booking")
	}

	spot, err := s.zones.GetSpot(ctx, booking.SpotID)
	if err != nil {
		return nil, err
	}

	session := &model.ParkingSession{
		ID:         uuid.New().String(),
		BookingID:  booking.ID,
		CustomerID: customerID,
		VehicleID:  booking.VehicleID,
		SpotID:     booking.SpotID,
		EntryTime:  time.Now().UTC().Truncate(time.Millisecond),
		Status:     model.SessionStatusActive,
		Rate:       booking.Rate,
	}

	confirm := func(occCtx context.Context) error {
		if _, err := s.bookings.UpdateStatus(occCtx, booking.ID, model.BookingStatusPending, model.BookingStatusConfirmed); err != nil {
			if errors.Is(err, bookingserrors.ErrInvalidTransition) {
				return apperrors.InvalidState("Booking is not pending")
			}
			if errors.Is(err, bookingserrors.ErrBookingNotFound) {
				return apperrors.NotFoundWithID("Booking", booking.ID)
			}
			return apperrors.Internal("Failed to confirm booking", err)
		}
		return nil
	}
	return s.startSession(ctx, session, spot.ZoneID, confirm)
}

// startSession takes the occupancy CAS, runs the optional booking transition,
// and persists the session, rolling the spot back on any failure.
func (s *sessionService) startSession(ctx context.Context, session *model.ParkingSession, zoneID string, confirm func(context.Context) error) (*model.ParkingSession, error) {
	if err := s.occupier.SetOccupied(ctx, session.SpotID, false, true); err != nil {
		if errors.Is(err, zoneserrors.ErrSpotOccupied) {
			return nil, apperrors.SpotOccupied("Spot is already occupied")
		}
		if errors.Is(err, zoneserrors.ErrSpotNotFound) {
			return nil, apperrors.NotFoundWithID("Spot", session.SpotID)
		}
		s.cfg.Log.Error("Failed to occupy spot", "spot_id", session.SpotID, "error", err)
		return nil, apperrors.Internal("Failed to occupy spot", err)
	}

	release := func() {
		if err := s.occupier.SetOccupied(ctx, session.SpotID, true, false); err != nil {
			s.cfg.Log.Error("Failed to roll back spot occupancy", "spot_id", session.SpotID, "error", err)
		}
	}

	if confirm != nil {
		if err := confirm(ctx); err != nil {
			release()
			return nil, err
		}
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		release()
		s.cfg.Log.Error("Failed to create session", "spot_id", session.SpotID, "error", err)
		return nil, apperrors.Internal("Failed to create session", err)
	}

	if err := s.zones.RefreshAvailability(ctx, zoneID); err != nil {
		s.cfg.Log.Warn("Failed to refresh zone availability", "zone_id", zoneID, "error", err)
	}

	s.publisher.SessionStarted(ctx, session)
	s.cfg.Log.Info("Session started",
		"id", session.ID,
		"customer_id", session.CustomerID,
		"spot_id", session.SpotID,
		"booking_id", session.BookingID,
	)
	return session, nil
}

// End closes the session and settles the cost against the reserved amount.
// The close CAS makes settlement exactly-once: a second End gets
// INVALID_STATE and no money moves. A debit shortfall marks the payment
// failed; the session still closes and the spot is freed.
func (s *sessionService) End(ctx context.Context, customerID, sessionID string, exitTime *time.Time) (*model.Settlement, error) {
	session, err := s.GetOwned(ctx, customerID, sessionID)
	if err != nil {
		return nil, err
	}

	exit := time.Now().UTC().Truncate(time.Millisecond)
	if exitTime != nil {
		exit = exitTime.UTC()
	}
	if exit.Before(session.EntryTime) {
		return nil, apperrors.InvalidInterval("Exit time cannot precede entry time")
	}

	minutes, cost := s.calc.Cost(session.Rate, session.EntryTime, exit)

	var closed *model.ParkingSession
	var payment *model.Payment
	var delta decimal.Decimal

	err = s.sessions.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		var err error
		closed, err = s.sessions.Close(sessCtx, sessionID, exit, minutes, cost)
		if err != nil {
			if errors.Is(err, sessionserrors.ErrSessionClosed) {
				return apperrors.InvalidState("Session is already completed")
			}
			if errors.Is(err, sessionserrors.ErrSessionNotFound) {
				return apperrors.NotFoundWithID("Session", sessionID)
			}
			return apperrors.Internal("Failed to close session", err)
		}

		payment, delta, err = s.settle(sessCtx, closed, cost)
		return err
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		s.cfg.Log.Error("Settlement transaction failed", "session_id", sessionID, "error", err)
		return nil, apperrors.Internal("Failed to settle session", err)
	}

	if err := s.occupier.SetOccupied(ctx, closed.SpotID, true, false); err != nil {
		s.cfg.Log.Error("Failed to free spot", "spot_id", closed.SpotID, "error", err)
	}
	if spot, err := s.zones.GetSpot(ctx, closed.SpotID); err == nil {
		if err := s.zones.RefreshAvailability(ctx, spot.ZoneID); err != nil {
			s.cfg.Log.Warn("Failed to refresh zone availability", "zone_id", spot.ZoneID, "error", err)
		}
	}

	s.publisher.SessionEnded(ctx, closed)
	if payment != nil {
		s.publisher.PaymentRecorded(ctx, payment)
	}

	s.cfg.Log.Info("Session settled",
		"id", closed.ID,
		"customer_id", customerID,
		"total_cost", cost,
		"delta", delta,
		"payment_status", payment.Status,
	)
	return &model.Settlement{Session: closed, Payment: payment, Delta: delta}, nil
}

// settle moves the money for a closed session. Delta is final cost minus the
// reserved amount; a walk-in reserves nothing so its delta is the full cost.
func (s *sessionService) settle(ctx context.Context, session *model.ParkingSession, cost decimal.Decimal) (*model.Payment, decimal.Decimal, error) {
	reserved := decimal.Zero
	if session.BookingID != "" {
		booking, err := s.bookings.FindByID(ctx, session.BookingID)
		if err != nil {
			return nil, decimal.Zero, apperrors.Internal("Failed to load booking for settlement", err)
		}
		reserved = booking.ReservedAmount
	}
	delta := cost.Sub(reserved)

	status := model.PaymentStatusCompleted
	switch {
	case delta.IsPositive():
		_, err := s.funds.Debit(ctx, session.CustomerID, delta, "Parking session settlement")
		if err != nil {
			if apperrors.HasCode(err, apperrors.CodeInsufficientBalance) {
				// Shortfall lives on the failed payment; the session still
				// closes and the balance stays at its floor.
				status = model.PaymentStatusFailed
			} else {
				return nil, decimal.Zero, err
			}
		}
	case delta.IsNegative():
		if _, err := s.funds.Credit(ctx, session.CustomerID, delta.Neg(), model.TransactionTypeRefund, "Parking session refund"); err != nil {
			return nil, decimal.Zero, err
		}
	}

	transactionID := ""
	if status == model.PaymentStatusCompleted {
		transactionID = s.gateway.NewTransactionID()
	}

	if session.BookingID != "" {
		if _, err := s.bookings.UpdateStatus(ctx, session.BookingID, model.BookingStatusConfirmed, model.BookingStatusCompleted); err != nil {
			return nil, decimal.Zero, apperrors.Internal("Failed to complete booking", err)
		}

		if existing, err := s.payments.FindByBooking(ctx, session.BookingID); err == nil && existing != nil && existing.Status == model.PaymentStatusPending {
			settled, err := s.payments.Settle(ctx, existing.ID, model.PaymentStatusPending, status, cost, transactionID)
			if err != nil {
				return nil, decimal.Zero, err
			}
			settled.SessionID = session.ID
			return settled, delta, nil
		}
	}

	payment := &model.Payment{
		ID:            uuid.New().String(),
		SessionID:     session.ID,
		BookingID:     session.BookingID,
		CustomerID:    session.CustomerID,
		Amount:        cost,
		Method:        model.PaymentMethodBalance,
		Status:        status,
		TransactionID: transactionID,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, decimal.Zero, apperrors.Internal("Failed to record settlement payment", err)
	}
	return payment, delta, nil
}

func (s *sessionService) EstimateCost(ctx context.Context, customerID, sessionID string, at *time.Time) (*CostEstimate, error) {
	session, err := s.GetOwned(ctx, customerID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionStatusActive {
		return nil, apperrors.InvalidState("Session is already completed")
	}

	moment := time.Now().UTC()
	if at != nil {
		moment = at.UTC()
	}
	if moment.Before(session.EntryTime) {
		return nil, apperrors.InvalidInterval("Estimate time cannot precede entry time")
	}

	minutes, cost := s.calc.Cost(session.Rate, session.EntryTime, moment)
	return &CostEstimate{
		SessionID:       session.ID,
		At:              moment,
		BillableMinutes: minutes,
		EstimatedCost:   cost,
	}, nil
}

func (s *sessionService) GetOwned(ctx context.Context, customerID, sessionID string) (*model.ParkingSession, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("Session ID cannot be empty")
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sessionserrors.ErrSessionNotFound) {
			return nil, apperrors.NotFoundWithID("Session", sessionID)
		}
		return nil, apperrors.Internal("Failed to retrieve session", err)
	}
	if session.CustomerID != customerID {
		return nil, apperrors.NotFoundWithID("Session", sessionID)
	}
	return session, nil
}

func (s *sessionService) ListByCustomer(ctx context.Context, customerID string, limit int, offset int64) ([]*model.ParkingSession, int64, error) {
	var count int64
	var sessions []*model.ParkingSession
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.sessions.CountByCustomer(ctx, customerID)
		if errCount != nil {
			errCount = apperrors.Internal("Failed to count sessions", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		sessions, errFind = s.sessions.FindByCustomer(ctx, customerID, limit, offset)
		if errFind != nil {
			errFind = apperrors.Internal("Failed to retrieve sessions", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return sessions, count, nil
}

func (s *sessionService) ListAll(ctx context.Context, limit int, offset int64) ([]*model.ParkingSession, int64, error) {
	var count int64
	var sessions []*model.ParkingSession
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.sessions.Count(ctx)
		if errCount != nil {
			errCount = apperrors.Internal("Failed to count sessions", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		sessions, errFind = s.sessions.FindAll(ctx, limit, offset)
		if errFind != nil {
			errFind = apperrors.Internal("Failed to retrieve sessions", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return sessions, count, nil
}
