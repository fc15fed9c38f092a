package service

import (
	"context"

	"parkhub/pkg/config"
	apperrors "parkhub/pkg/errors"
	"parkhub/pkg/model"

	"github.com/shopspring/decimal"
)

// CustomerSource resolves the caller for the admin gate and counts customers.
type CustomerSource interface {
	GetCustomer(ctx context.Context, id string) (*model.Customer, error)
}

type CustomerCounter interface {
	Count(ctx context.Context) (int64, error)
}

type BookingStats interface {
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type SessionStats interface {
	Count(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
}

type PaymentStats interface {
	Count(ctx context.Context) (int64, error)
	SumCompleted(ctx context.Context) (decimal.Decimal, error)
}

type BookingLister interface {
	ListAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
}

type SessionLister interface {
	ListAll(ctx context.Context, limit int, offset int64) ([]*model.ParkingSession, int64, error)
}

type PaymentLister interface {
	ListAll(ctx context.Context, limit int, offset int64) ([]*model.Payment, int64, error)
}

// Overview is the operational snapshot returned by the stats endpoint.
type Overview struct {
	Customers        int64            `json:"customers"`
	Bookings         int64            `json:"bookings"`
	BookingsByStatus map[string]int64 `json:"bookings_by_status"`
	Sessions         int64            `json:"sessions"`
	ActiveSessions   int64            `json:"active_sessions"`
	Payments         int64            `json:"payments"`
	Revenue          decimal.Decimal  `json:"revenue"`
	Currency         string           `json:"currency"`
}

type AdminService interface {
	Stats(ctx context.Context, adminID string) (*Overview, error)
	ListBookings(ctx context.Context, adminID string, limit int, offset int64) ([]*model.Booking, int64, error)
	ListSessions(ctx context.Context, adminID string, limit int, offset int64) ([]*model.ParkingSession, int64, error)
	ListPayments(ctx context.Context, adminID string, limit int, offset int64) ([]*model.Payment, int64, error)
}

type adminService struct {
	customers       CustomerSource
	customerCounter CustomerCounter
	bookingStats    BookingStats
	sessionStats    SessionStats
	paymentStats    PaymentStats
	bookings        BookingLister
	sessions        SessionLister
	payments        PaymentLister
	cfg             *config.Config
}

func NewAdminService(
	customers CustomerSource,
	customerCounter CustomerCounter,
	bookingStats BookingStats,
	sessionStats SessionStats,
	paymentStats PaymentStats,
	bookings BookingLister,
	sessions SessionLister,
	payments PaymentLister,
	cfg *config.Config,
) AdminService {
	return &adminService{
		customers:       customers,
		customerCounter: customerCounter,
		bookingStats:    bookingStats,
		sessionStats:    sessionStats,
		paymentStats:    paymentStats,
		bookings:        bookings,
		sessions:        sessions,
		payments:        payments,
		cfg:             cfg,
	}
}

func (s *adminService) requireAdmin(ctx context.Context, adminID string) error {
	customer, err := s.customers.GetCustomer(ctx, adminID)
	if err != nil {
		return err
	}
	if !customer.IsAdmin {
		return apperrors.Forbidden("Administrator access required")
	}
	return nil
}

func (s *adminService) Stats(ctx context.Context, adminID string) (*Overview, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	overview := &Overview{Currency: s.cfg.Currency}

	var err error
	if overview.Customers, err = s.customerCounter.Count(ctx); err != nil {
		return nil, apperrors.Internal("Failed to count customers", err)
	}
	if overview.Bookings, err = s.bookingStats.Count(ctx); err != nil {
		return nil, apperrors.Internal("Failed to count bookings", err)
	}
	if overview.BookingsByStatus, err = s.bookingStats.CountByStatus(ctx); err != nil {
		return nil, apperrors.Internal("Failed to count bookings by status", err)
	}
	if overview.Sessions, err = s.sessionStats.Count(ctx); err != nil {
		return nil, apperrors.Internal("Failed to count sessions", err)
	}
	if overview.ActiveSessions, err = s.sessionStats.CountActive(ctx); err != nil {
		return nil, apperrors.Internal("Failed to count active sessions", err)
	}
	if overview.Payments, err = s.paymentStats.Count(ctx); err != nil {
		return nil, apperrors.Internal("Failed to count payments", err)
	}
	if overview.Revenue, err = s.paymentStats.SumCompleted(ctx); err != nil {
		return nil, apperrors.Internal("Failed to compute revenue", err)
	}

	return overview, nil
}

func (s *adminService) ListBookings(ctx context.Context, adminID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, 0, err
	}
	return s.bookings.ListAll(ctx, limit, offset)
}

func (s *adminService) ListSessions(ctx context.Context, adminID string, limit int, offset int64) ([]*model.ParkingSession, int64, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, 0, err
	}
	return s.sessions.ListAll(ctx, limit, offset)
}

func (s *adminService) ListPayments(ctx context.Context, adminID string, limit int, offset int64) ([]*model.Payment, int64, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, 0, err
	}
	return s.payments.ListAll(ctx, limit, offset)
}
