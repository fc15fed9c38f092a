package service

import (
	"context"
	"testing"

	balanceerrors "parkhub/internal/balance/errors"
	"parkhub/internal/balance/validator"
	"parkhub/pkg/config"
	apperrors "parkhub/pkg/errors"
	"parkhub/pkg/logger"
	"parkhub/pkg/model"

	"github.com/shopspring/decimal"
)

// ────────────────────────────────────────────────
// Mock repositories for testing
// ────────────────────────────────────────────────

type mockCustomerRepository struct {
	createFunc        func(ctx context.Context, customer *model.Customer) error
	findByIDFunc      func(ctx context.Context, id string) (*model.Customer, error)
	debitBalanceFunc  func(ctx context.Context, customerID string, amount decimal.Decimal) (*model.Customer, error)
	creditBalanceFunc func(ctx context.Context, customerID string, amount decimal.Decimal) (*model.Customer, error)
}

func (m *mockCustomerRepository) Create(ctx context.Context, customer *model.Customer) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, customer)
	}
	return nil
}

func (m *mockCustomerRepository) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Customer{ID: id}, nil
}

func (m *mockCustomerRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockCustomerRepository) DebitBalance(ctx context.Context, customerID string, amount decimal.Decimal) (*model.Customer, error) {
	if m.debitBalanceFunc != nil {
		return m.debitBalanceFunc(ctx, customerID, amount)
	}
	return &model.Customer{ID: customerID}, nil
}

func (m *mockCustomerRepository) CreditBalance(ctx context.Context, customerID string, amount decimal.Decimal) (*model.Customer, error) {
	if m.creditBalanceFunc != nil {
		return m.creditBalanceFunc(ctx, customerID, amount)
	}
	return &model.Customer{ID: customerID, Balance: amount}, nil
}

type mockTransactionRepository struct {
	createFunc func(ctx context.Context, txn *model.Transaction) error
	created    []*model.Transaction
}

func (m *mockTransactionRepository) Create(ctx context.Context, txn *model.Transaction) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, txn)
	}
	m.created = append(m.created, txn)
	return nil
}

func (m *mockTransactionRepository) FindByCustomer(ctx context.Context, customerID string, limit int, offset int64) ([]*model.Transaction, error) {
	return m.created, nil
}

func (m *mockTransactionRepository) CountByCustomer(ctx context.Context, customerID string) (int64, error) {
	return int64(len(m.created)), nil
}

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	return &config.Config{
		Log:            log,
		MaxTopUpAmount: decimal.RequireFromString("50000.00"),
	}
}

func newTestService(customers *mockCustomerRepository, txns *mockTransactionRepository) BalanceService {
	cfg := testConfig()
	return NewBalanceService(customers, txns, validator.NewCustomerValidator(cfg.Log), cfg)
}

// ────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────

func TestRegisterCustomer_AssignsIDAndZeroBalance(t *testing.T) {
	var stored *model.Customer
	customers := &mockCustomerRepository{
		createFunc: func(ctx context.Context, customer *model.Customer) error {
			stored = customer
			return nil
		},
	}
	svc := newTestService(customers, &mockTransactionRepository{})

	customer := &model.Customer{
		FirstName: "  Ivan ",
		LastName:  "Petrov",
		Email:     "ivan@example.com",
		Phone:     "+79990001122",
		Balance:   decimal.RequireFromString("999.00"),
		IsAdmin:   true,
	}
	if err := svc.RegisterCustomer(context.Background(), customer); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stored == nil {
		t.Fatal("expected customer to be persisted")
	}
	if stored.ID == "" {
		t.Error("expected generated customer ID")
	}
	if !stored.Balance.IsZero() {
		t.Errorf("expected zero starting balance, got %s", stored.Balance)
	}
	if stored.IsAdmin {
		t.Error("expected is_admin to be forced to false on self-registration")
	}
	if stored.FirstName != "Ivan" {
		t.Errorf("expected normalized first name, got %q", stored.FirstName)
	}
}

func TestRegisterCustomer_DuplicateEmail(t *testing.T) {
	customers := &mockCustomerRepository{
		createFunc: func(ctx context.Context, customer *model.Customer) error {
			return balanceerrors.ErrDuplicateEmail
		},
	}
	svc := newTestService(customers, &mockTransactionRepository{})

	err := svc.RegisterCustomer(context.Background(), &model.Customer{
		FirstName: "Ivan",
		LastName:  "Petrov",
		Email:     "taken@example.com",
		Phone:     "+79990001122",
	})
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestRegisterCustomer_InvalidEmail(t *testing.T) {
	svc := newTestService(&mockCustomerRepository{}, &mockTransactionRepository{})

	err := svc.RegisterCustomer(context.Background(), &model.Customer{
		FirstName: "Ivan",
		LastName:  "Petrov",
		Email:     "not-an-email",
		Phone:     "+79990001122",
	})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestTopUp_BoundaryValidation(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantErr bool
	}{
		{"zero", "0", true},
		{"negative", "-10.00", true},
		{"minimum positive", "0.01", false},
		{"at limit", "50000.00", false},
		{"above limit", "50000.01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txns := &mockTransactionRepository{}
			svc := newTestService(&mockCustomerRepository{}, txns)

			_, err := svc.TopUp(context.Background(), "customer-1", decimal.RequireFromString(tt.amount))
			if tt.wantErr {
				if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
					t.Fatalf("expected INVALID_INPUT, got %v", err)
				}
				if len(txns.created) != 0 {
					t.Error("rejected top-up must not record a transaction")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(txns.created) != 1 {
				t.Fatalf("expected 1 transaction, got %d", len(txns.created))
			}
			if txns.created[0].Type != model.TransactionTypeTopUp {
				t.Errorf("expected topup transaction, got %s", txns.created[0].Type)
			}
		})
	}
}

func TestDebit_RecordsBeforeAndAfter(t *testing.T) {
	customers := &mockCustomerRepository{
		debitBalanceFunc: func(ctx context.Context, customerID string, amount decimal.Decimal) (*model.Customer, error) {
			return &model.Customer{
				ID:      customerID,
				Balance: decimal.RequireFromString("700.00"),
			}, nil
		},
	}
	txns := &mockTransactionRepository{}
	svc := newTestService(customers, txns)

	txn, err := svc.Debit(context.Background(), "customer-1", decimal.RequireFromString("300.00"), "Booking reservation")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !txn.BalanceBefore.Equal(decimal.RequireFromString("1000.00")) {
		t.Errorf("expected balance_before 1000.00, got %s", txn.BalanceBefore)
	}
	if !txn.BalanceAfter.Equal(decimal.RequireFromString("700.00")) {
		t.Errorf("expected balance_after 700.00, got %s", txn.BalanceAfter)
	}
	if txn.Type != model.TransactionTypeDebit {
		t.Errorf("expected debit transaction, got %s", txn.Type)
	}
}

func TestDebit_InsufficientFunds(t *testing.T) {
	customers := &mockCustomerRepository{
		debitBalanceFunc: func(ctx context.Context, customerID string, amount decimal.Decimal) (*model.Customer, error) {
			return nil, balanceerrors.ErrInsufficientFunds
		},
	}
	txns := &mockTransactionRepository{}
	svc := newTestService(customers, txns)

	_, err := svc.Debit(context.Background(), "customer-1", decimal.RequireFromString("300.00"), "Booking reservation")
	if !apperrors.HasCode(err, apperrors.CodeInsufficientBalance) {
		t.Fatalf("expected INSUFFICIENT_BALANCE, got %v", err)
	}
	if len(txns.created) != 0 {
		t.Error("failed debit must not record a transaction")
	}
}

func TestDebit_CustomerNotFound(t *testing.T) {
	customers := &mockCustomerRepository{
		debitBalanceFunc: func(ctx context.Context, customerID string, amount decimal.Decimal) (*model.Customer, error) {
			return nil, balanceerrors.ErrCustomerNotFound
		},
	}
	svc := newTestService(customers, &mockTransactionRepository{})

	_, err := svc.Debit(context.Background(), "missing", decimal.RequireFromString("10.00"), "test")
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestCredit_RejectsDebitType(t *testing.T) {
	svc := newTestService(&mockCustomerRepository{}, &mockTransactionRepository{})

	_, err := svc.Credit(context.Background(), "customer-1", decimal.RequireFromString("10.00"), model.TransactionTypeDebit, "oops")
	if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestCredit_Refund(t *testing.T) {
	customers := &mockCustomerRepository{
		creditBalanceFunc: func(ctx context.Context, customerID string, amount decimal.Decimal) (*model.Customer, error) {
			return &model.Customer{
				ID:      customerID,
				Balance: decimal.RequireFromString("450.00"),
			}, nil
		},
	}
	txns := &mockTransactionRepository{}
	svc := newTestService(customers, txns)

	txn, err := svc.Credit(context.Background(), "customer-1", decimal.RequireFromString("150.00"), model.TransactionTypeRefund, "Booking cancelled")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !txn.BalanceBefore.Equal(decimal.RequireFromString("300.00")) {
		t.Errorf("expected balance_before 300.00, got %s", txn.BalanceBefore)
	}
	if txn.Type != model.TransactionTypeRefund {
		t.Errorf("expected refund transaction, got %s", txn.Type)
	}
}
