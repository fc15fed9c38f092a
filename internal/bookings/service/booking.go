package service

import (
	"context"
	"errors"
	"sync"
	"time"

	bookingserrors "parkhub/internal/bookings/errors"
	"parkhub/internal/bookings/repository"
	"parkhub/internal/bookings/validator"
	"parkhub/internal/events"
	"parkhub/internal/pricing"
	"parkhub/pkg/config"
	apperrors "parkhub/pkg/errors"
	"parkhub/pkg/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"
)

// startGracePeriod tolerates client clock skew when validating that a booking
// window does not start in the past.
const startGracePeriod = time.Minute

// SpotSource is the slice of the zone service bookings need: rate resolution
// and a fresh spot read inside the booking transaction.
type SpotSource interface {
	GetSpot(ctx context.Context, id string) (*model.ParkingSpot, error)
	ResolveRate(ctx context.Context, spotID string) (*model.ParkingSpot, model.RateSnapshot, error)
}

// VehicleSource verifies vehicle ownership.
type VehicleSource interface {
	GetOwned(ctx context.Context, customerID, vehicleID string) (*model.Vehicle, error)
}

// Funds is the slice of the balance service bookings need. Both calls are
// atomic on the customer document and safe inside a mongo transaction.
type Funds interface {
	Debit(ctx context.Context, customerID string, amount decimal.Decimal, description string) (*model.Transaction, error)
	Credit(ctx context.Context, customerID string, amount decimal.Decimal, txType, description string) (*model.Transaction, error)
}

// PaymentStore records the reservation payment alongside the booking.
type PaymentStore interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByBooking(ctx context.Context, bookingID string) (*model.Payment, error)
	UpdateStatus(ctx context.Context, id, from, to string) (*model.Payment, error)
}

// SessionOpener delegates confirmed entry to the session engine.
type SessionOpener interface {
	OpenForBooking(ctx context.Context, customerID, bookingID string) (*model.ParkingSession, error)
}

type BookingService interface {
	Create(ctx context.Context, customerID string, req *model.BookingRequest) (*model.Booking, error)
	Cancel(ctx context.Context, customerID, bookingID string) (*model.Booking, error)
	ConfirmEntry(ctx context.Context, customerID, bookingID string) (*model.ParkingSession, error)
	GetOwned(ctx context.Context, customerID, bookingID string) (*model.Booking, error)
	ListByCustomer(ctx context.Context, customerID string, limit int, offset int64) ([]*model.Booking, int64, error)
	ListAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
}

type bookingService struct {
	bookings  repository.BookingRepository
	locks     repository.SpotLockRepository
	spots     SpotSource
	vehicles  VehicleSource
	funds     Funds
	payments  PaymentStore
	sessions  SessionOpener
	publisher events.Publisher
	calc      pricing.Calculator
	validator *validator.BookingValidator
	cfg       *config.Config
}

func NewBookingService(
	bookings repository.BookingRepository,
	locks repository.SpotLockRepository,
	spots SpotSource,
	vehicles VehicleSource,
	funds Funds,
	payments PaymentStore,
	sessions SessionOpener,
	publisher events.Publisher,
	v *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		bookings:  bookings,
		locks:     locks,
		spots:     spots,
		vehicles:  vehicles,
		funds:     funds,
		payments:  payments,
		sessions:  sessions,
		publisher: publisher,
		calc:      pricing.NewCalculator(cfg.MinBillableMinutes),
		validator: v,
		cfg:       cfg,
	}
}

// Create reserves a spot for [start, end). The advisory lock serializes
// concurrent creates per spot; the overlap re-check runs inside the same
// transaction as the balance debit and the booking insert, so a losing racer
// leaves no booking row and no debit behind.
func (s *bookingService) Create(ctx context.Context, customerID string, req *model.BookingRequest) (*model.Booking, error) {
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	req.StartTime = req.StartTime.UTC()
	req.EndTime = req.EndTime.UTC()
	if !req.EndTime.After(req.StartTime) {
		return nil, apperrors.InvalidInterval("End time must be after start time")
	}
	if req.StartTime.Before(time.Now().UTC().Add(-startGracePeriod)) {
		return nil, apperrors.InvalidInterval("Start time cannot be in the past")
	}

	if _, err := s.vehicles.GetOwned(ctx, customerID, req.VehicleID); err != nil {
		return nil, err
	}

	spot, rate, err := s.spots.ResolveRate(ctx, req.SpotID)
	if err != nil {
		return nil, err
	}
	if !spot.IsActive {
		return nil, apperrors.SpotUnavailable("Spot is not available for booking")
	}

	estimate := s.calc.EstimateWindowCost(rate, req.StartTime, req.EndTime)

	if err := s.locks.Acquire(ctx, req.SpotID); err != nil {
		if errors.Is(err, bookingserrors.ErrSpotLocked) {
			return nil, apperrors.SpotUnavailable("Spot is being booked by another request")
		}
		s.cfg.Log.Error("Failed to acquire spot lock", "spot_id", req.SpotID, "error", err)
		return nil, apperrors.Internal("Failed to acquire spot lock", err)
	}
	defer func() {
		if err := s.locks.Release(ctx, req.SpotID); err != nil {
			// The TTL index reaps the orphaned lock.
			s.cfg.Log.Warn("Failed to release spot lock", "spot_id", req.SpotID, "error", err)
		}
	}()

	booking := &model.Booking{
		ID:             uuid.New().String(),
		CustomerID:     customerID,
		VehicleID:      req.VehicleID,
		SpotID:         req.SpotID,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Status:         model.BookingStatusPending,
		Rate:           rate,
		ReservedAmount: estimate,
	}
	payment := &model.Payment{
		ID:         uuid.New().String(),
		BookingID:  booking.ID,
		CustomerID: customerID,
		Amount:     estimate,
		Method:     model.PaymentMethodBalance,
		Status:     model.PaymentStatusPending,
	}

	err = s.bookings.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		overlapping, err := s.bookings.FindActiveOverlapping(sessCtx, req.SpotID, req.StartTime, req.EndTime)
		if err != nil {
			return apperrors.Internal("Failed to check booking overlap", err)
		}
		if len(overlapping) > 0 {
			return apperrors.SpotUnavailable("Spot is already booked for this time window")
		}

		current, err := s.spots.GetSpot(sessCtx, req.SpotID)
		if err != nil {
			return err
		}
		if current.IsOccupied && !booking.StartTime.After(time.Now().UTC()) {
			return apperrors.SpotUnavailable("Spot is currently occupied")
		}

		if _, err := s.funds.Debit(sessCtx, customerID, estimate, "Booking reservation"); err != nil {
			return err
		}
		if err := s.bookings.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		if err := s.payments.Create(sessCtx, payment); err != nil {
			return apperrors.Internal("Failed to record reservation payment", err)
		}
		return nil
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		s.cfg.Log.Error("Booking transaction failed", "spot_id", req.SpotID, "error", err)
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	s.publisher.BookingCreated(ctx, booking)
	s.cfg.Log.Info("Booking created",
		"id", booking.ID,
		"customer_id", customerID,
		"spot_id", booking.SpotID,
		"reserved_amount", booking.ReservedAmount,
	)
	return booking, nil
}

// Cancel releases a pending booking and refunds the reserved amount. Only
// pending bookings can be cancelled; after confirmed entry the stay settles at
// session end.
func (s *bookingService) Cancel(ctx context.Context, customerID, bookingID string) (*model.Booking, error) {
	booking, err := s.GetOwned(ctx, customerID, bookingID)
	if err != nil {
		return nil, err
	}

	var cancelled *model.Booking
	err = s.bookings.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		updated, err := s.bookings.UpdateStatus(sessCtx, bookingID, model.BookingStatusPending, model.BookingStatusCancelled)
		if err != nil {
			if errors.Is(err, bookingserrors.ErrInvalidTransition) {
				return apperrors.InvalidState("Only pending bookings can be cancelled")
			}
			if errors.Is(err, bookingserrors.ErrBookingNotFound) {
				return apperrors.NotFoundWithID("Booking", bookingID)
			}
			return apperrors.Internal("Failed to cancel booking", err)
		}
		cancelled = updated

		if _, err := s.funds.Credit(sessCtx, customerID, booking.ReservedAmount, model.TransactionTypeRefund, "Booking cancelled"); err != nil {
			return err
		}

		payment, err := s.payments.FindByBooking(sessCtx, bookingID)
		if err != nil {
			return err
		}
		if payment != nil && payment.Status == model.PaymentStatusPending {
			if _, err := s.payments.UpdateStatus(sessCtx, payment.ID, model.PaymentStatusPending, model.PaymentStatusRefunded); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		s.cfg.Log.Error("Cancel transaction failed", "booking_id", bookingID, "error", err)
		return nil, apperrors.Internal("Failed to cancel booking", err)
	}

	s.publisher.BookingCancelled(ctx, cancelled)
	s.cfg.Log.Info("Booking cancelled",
		"id", bookingID,
		"customer_id", customerID,
		"refunded_amount", booking.ReservedAmount,
	)
	return cancelled, nil
}

// ConfirmEntry opens a session against the booking; the session engine owns
// the pending -> confirmed transition and the occupancy CAS.
func (s *bookingService) ConfirmEntry(ctx context.Context, customerID, bookingID string) (*model.ParkingSession, error) {
	return s.sessions.OpenForBooking(ctx, customerID, bookingID)
}

// GetOwned returns NotFound for both a missing booking and someone else's
// booking, so booking IDs cannot be probed.
func (s *bookingService) GetOwned(ctx context.Context, customerID, bookingID string) (*model.Booking, error) {
	if bookingID == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrBookingNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", bookingID)
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	if booking.CustomerID != customerID {
		return nil, apperrors.NotFoundWithID("Booking", bookingID)
	}
	return booking, nil
}

func (s *bookingService) ListByCustomer(ctx context.Context, customerID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.bookings.CountByCustomer(ctx, customerID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "customer_id", customerID, "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.bookings.FindByCustomer(ctx, customerID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "customer_id", customerID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) ListAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.bookings.Count(ctx)
		if errCount != nil {
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.bookings.FindAll(ctx, limit, offset)
		if errFind != nil {
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}
