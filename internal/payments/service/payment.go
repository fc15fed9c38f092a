package service

import (
	"context"
	"errors"
	"sync"

	paymentserrors "parkhub/internal/payments/errors"
	"parkhub/internal/payments/repository"
	"parkhub/pkg/config"
	apperrors "parkhub/pkg/errors"
	"parkhub/pkg/model"
)

// PaymentService is read-only for clients: payments are written by the booking
// ledger and the settlement engine, never through the API.
type PaymentService interface {
	GetOwned(ctx context.Context, customerID, paymentID string) (*model.Payment, error)
	ListByCustomer(ctx context.Context, customerID string, limit int, offset int64) ([]*model.Payment, int64, error)
	ListAll(ctx context.Context, limit int, offset int64) ([]*model.Payment, int64, error)
}

type paymentService struct {
	payments repository.PaymentRepository
	cfg      *config.Config
}

func NewPaymentService(payments repository.PaymentRepository, cfg *config.Config) PaymentService {
	return &paymentService{
		payments: payments,
		cfg:      cfg,
	}
}

func (s *paymentService) GetOwned(ctx context.Context, customerID, paymentID string) (*model.Payment, error) {
	if paymentID == "" {
		return nil, apperrors.InvalidInput("Payment ID cannot be empty")
	}

	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, paymentserrors.ErrPaymentNotFound) {
			return nil, apperrors.NotFoundWithID("Payment", paymentID)
		}
		return nil, apperrors.Internal("Failed to retrieve payment", err)
	}
	if payment.CustomerID != customerID {
		return nil, apperrors.NotFoundWithID("Payment", paymentID)
	}
	return payment, nil
}

func (s *paymentService) ListByCustomer(ctx context.Context, customerID string, limit int, offset int64) ([]*model.Payment, int64, error) {
	var count int64
	var payments []*model.Payment
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.payments.CountByCustomer(ctx, customerID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count payments", "customer_id", customerID, "error", errCount)
			errCount = apperrors.Internal("Failed to count payments", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		payments, errFind = s.payments.FindByCustomer(ctx, customerID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list payments", "customer_id", customerID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve payments", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return payments, count, nil
}

func (s *paymentService) ListAll(ctx context.Context, limit int, offset int64) ([]*model.Payment, int64, error) {
	var count int64
	var payments []*model.Payment
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.payments.Count(ctx)
		if errCount != nil {
			errCount = apperrors.Internal("Failed to count payments", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		payments, errFind = s.payments.FindAll(ctx, limit, offset)
		if errFind != nil {
			errFind = apperrors.Internal("Failed to retrieve payments", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return payments, count, nil
}
