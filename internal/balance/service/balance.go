package service

import (
	"context"
	"errors"
	"sync"

	balanceerrors "parkhub/internal/balance/errors"
	"parkhub/internal/balance/repository"
	"parkhub/internal/balance/validator"
	"parkhub/pkg/config"
	apperrors "parkhub/pkg/errors"
	"parkhub/pkg/model"
	"parkhub/pkg/sanitizer"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceService is the only writer of customer balances. Booking creation
// and session settlement go through Debit/Credit, never the collection.
type BalanceService interface {
	RegisterCustomer(ctx context.Context, customer *model.Customer) error
	GetCustomer(ctx context.Context, id string) (*model.Customer, error)

	TopUp(ctx context.Context, customerID string, amount decimal.Decimal) (*model.Transaction, error)
	Debit(ctx context.Context, customerID string, amount decimal.Decimal, description string) (*model.Transaction, error)
	Credit(ctx context.Context, customerID string, amount decimal.Decimal, txType, description string) (*model.Transaction, error)

	ListTransactions(ctx context.Context, customerID string, limit int, offset int64) ([]*model.Transaction, int64, error)
}

type balanceService struct {
	customers    repository.CustomerRepository
	transactions repository.TransactionRepository
	validator    *validator.CustomerValidator
	cfg          *config.Config
}

func NewBalanceService(
	customers repository.CustomerRepository,
	transactions repository.TransactionRepository,
	v *validator.CustomerValidator,
	cfg *config.Config,
) BalanceService {
	return &balanceService{
		customers:    customers,
		transactions: transactions,
		validator:    v,
		cfg:          cfg,
	}
}

func (s *balanceService) RegisterCustomer(ctx context.Context, customer *model.Customer) error {
	customer.ID = uuid.New().String()
	customer.FirstName = sanitizer.NormalizeName(customer.FirstName)
	customer.LastName = sanitizer.NormalizeName(customer.LastName)
	customer.Balance = decimal.Zero
	customer.IsAdmin = false

	if err := s.validator.Validate(customer); err != nil {
		s.cfg.Log.Warn("Customer validation failed", "error", err)
		return apperrors.Validation("Customer validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.customers.Create(ctx, customer); err != nil {
		if errors.Is(err, balanceerrors.ErrDuplicateEmail) {
			return apperrors.Conflict("Email is already registered")
		}
		s.cfg.Log.Error("Failed to register customer", "error", err)
		return apperrors.Internal("Failed to register customer", err)
	}

	s.cfg.Log.Info("Customer registered successfully", "id", customer.ID, "email", customer.Email)
	return nil
}

func (s *balanceService) GetCustomer(ctx context.Context, id string) (*model.Customer, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Customer ID cannot be empty")
	}

	customer, err := s.customers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, balanceerrors.ErrCustomerNotFound) {
			return nil, apperrors.NotFoundWithID("Customer", id)
		}
		return nil, apperrors.Internal("Failed to retrieve customer", err)
	}
	return customer, nil
}

func (s *balanceService) TopUp(ctx context.Context, customerID string, amount decimal.Decimal) (*model.Transaction, error) {
	if !amount.IsPositive() {
		return nil, apperrors.InvalidInput("Top-up amount must be positive")
	}
	if amount.GreaterThan(s.cfg.MaxTopUpAmount) {
		return nil, apperrors.InvalidInput("Top-up amount exceeds the allowed maximum").
			WithDetails(map[string]any{"max_amount": s.cfg.MaxTopUpAmount})
	}

	return s.Credit(ctx, customerID, amount, model.TransactionTypeTopUp, "Balance top-up")
}

// Debit withdraws from the balance with a hard floor at zero. The shortfall
// path returns InsufficientBalance without touching the balance.
func (s *balanceService) Debit(ctx context.Context, customerID string, amount decimal.Decimal, description string) (*model.Transaction, error) {
	if !amount.IsPositive() {
		return nil, apperrors.InvalidInput("Debit amount must be positive")
	}

	customer, err := s.customers.DebitBalance(ctx, customerID, amount)
	if err != nil {
		if errors.Is(err, balanceerrors.ErrInsufficientFunds) {
			return nil, apperrors.InsufficientBalance("Balance does not cover the required amount").
				WithDetails(map[string]any{"required": amount})
		}
		if errors.Is(err, balanceerrors.ErrCustomerNotFound) {
			return nil, apperrors.NotFoundWithID("Customer", customerID)
		}
		s.cfg.Log.Error("Failed to debit balance", "customer_id", customerID, "error", err)
		return nil, apperrors.Internal("Failed to debit balance", err)
	}

	txn := &model.Transaction{
		ID:            uuid.New().String(),
		CustomerID:    customerID,
		Amount:        amount,
		Type:          model.TransactionTypeDebit,
		Description:   description,
		BalanceBefore: customer.Balance.Add(amount),
		BalanceAfter:  customer.Balance,
	}
	if err := s.transactions.Create(ctx, txn); err != nil {
		s.cfg.Log.Error("Failed to record debit transaction", "customer_id", customerID, "error", err)
		return nil, apperrors.Internal("Failed to record transaction", err)
	}

	s.cfg.Log.Info("Balance debited",
		"customer_id", customerID,
		"amount", amount,
		"balance_after", customer.Balance,
	)
	return txn, nil
}

func (s *balanceService) Credit(ctx context.Context, customerID string, amount decimal.Decimal, txType, description string) (*model.Transaction, error) {
	if !amount.IsPositive() {
		return nil, apperrors.InvalidInput("Credit amount must be positive")
	}
	switch txType {
	case model.TransactionTypeTopUp, model.TransactionTypeCredit, model.TransactionTypeRefund:
	default:
		return nil, apperrors.InvalidInput("Invalid credit transaction type: " + txType)
	}

	customer, err := s.customers.CreditBalance(ctx, customerID, amount)
	if err != nil {
		if errors.Is(err, balanceerrors.ErrCustomerNotFound) {
			return nil, apperrors.NotFoundWithID("Customer", customerID)
		}
		s.cfg.Log.Error("Failed to credit balance", "customer_id", customerID, "error", err)
		return nil, apperrors.Internal("Failed to credit balance", err)
	}

	txn := &model.Transaction{
		ID:            uuid.New().String(),
		CustomerID:    customerID,
		Amount:        amount,
		Type:          txType,
		Description:   description,
		BalanceBefore: customer.Balance.Sub(amount),
		BalanceAfter:  customer.Balance,
	}
	if err := s.transactions.Create(ctx, txn); err != nil {
		s.cfg.Log.Error("Failed to record credit transaction", "customer_id", customerID, "error", err)
		return nil, apperrors.Internal("Failed to record transaction", err)
	}

	s.cfg.Log.Info("Balance credited",
		"customer_id", customerID,
		"amount", amount,
		"type", txType,
		"balance_after", customer.Balance,
	)
	return txn, nil
}

func (s *balanceService) ListTransactions(ctx context.Context, customerID string, limit int, offset int64) ([]*model.Transaction, int64, error) {
	var count int64
	var txns []*model.Transaction
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.transactions.CountByCustomer(ctx, customerID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count transactions", "customer_id", customerID, "error", errCount)
			errCount = apperrors.Internal("Failed to count transactions", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		txns, errFind = s.transactions.FindByCustomer(ctx, customerID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list transactions", "customer_id", customerID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve transactions", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return txns, count, nil
}
