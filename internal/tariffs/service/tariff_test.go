package service

import (
	"context"
	"testing"

	tarifferrors "parkhub/internal/tariffs/errors"
	"parkhub/internal/tariffs/validator"
	"parkhub/pkg/config"
	apperrors "parkhub/pkg/errors"
	"parkhub/pkg/logger"
	"parkhub/pkg/model"

	"github.com/shopspring/decimal"
)

type mockTariffRepository struct {
	createFunc   func(ctx context.Context, tariff *model.TariffPlan) error
	findByIDFunc func(ctx context.Context, id string) (*model.TariffPlan, error)
	updateFunc   func(ctx context.Context, id string, tariff *model.TariffPlan) error
}

func (m *mockTariffRepository) Create(ctx context.Context, tariff *model.TariffPlan) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, tariff)
	}
	return nil
}

func (m *mockTariffRepository) FindByID(ctx context.Context, id string) (*model.TariffPlan, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, tarifferrors.ErrNotFound
}

func (m *mockTariffRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.TariffPlan, error) {
	return nil, nil
}

func (m *mockTariffRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockTariffRepository) Update(ctx context.Context, id string, tariff *model.TariffPlan) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, tariff)
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
	}
}

func newTestService(repo *mockTariffRepository) TariffService {
	cfg := testConfig()
	return NewTariffService(repo, validator.NewTariffValidator(cfg.Log), cfg)
}

const testTariffID = "6ba7b810-9dad-41d1-80b4-00c04fd430c8"

func TestCreate_AssignsIDAndActivates(t *testing.T) {
	svc := newTestService(&mockTariffRepository{})

	tariff := &model.TariffPlan{
		Name:         "  Standard   hourly ",
		PricePerHour: decimal.RequireFromString("150.00"),
	}
	if err := svc.Create(context.Background(), tariff); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if tariff.ID == "" {
		t.Error("expected generated tariff ID")
	}
	if !tariff.IsActive {
		t.Error("new tariff must be active")
	}
	if tariff.Name != "Standard hourly" {
		t.Errorf("expected normalized name, got %q", tariff.Name)
	}
}

func TestCreate_NonPositiveRateRejected(t *testing.T) {
	svc := newTestService(&mockTariffRepository{})

	err := svc.Create(context.Background(), &model.TariffPlan{
		Name:         "Free parking",
		PricePerHour: decimal.Zero,
	})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Errorf("expected VALIDATION_ERROR for zero rate, got %v", err)
	}
}

func TestUpdate_PreservesUnsetFields(t *testing.T) {
	dayRate := decimal.RequireFromString("1000.00")
	var saved *model.TariffPlan
	repo := &mockTariffRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.TariffPlan, error) {
			return &model.TariffPlan{
				ID:           id,
				Name:         "Standard",
				PricePerHour: decimal.RequireFromString("150.00"),
				PricePerDay:  &dayRate,
				IsActive:     true,
			}, nil
		},
		updateFunc: func(ctx context.Context, id string, tariff *model.TariffPlan) error {
			saved = tariff
			return nil
		},
	}
	svc := newTestService(repo)

	newRate := decimal.RequireFromString("200.00")
	err := svc.Update(context.Background(), testTariffID, &model.TariffPlanUpdate{PricePerHour: &newRate})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if !saved.PricePerHour.Equal(newRate) {
		t.Errorf("expected updated hourly rate 200.00, got %s", saved.PricePerHour)
	}
	if saved.PricePerDay == nil || !saved.PricePerDay.Equal(dayRate) {
		t.Error("expected day rate untouched")
	}
	if saved.Name != "Standard" {
		t.Errorf("expected name untouched, got %q", saved.Name)
	}
}

func TestDeactivate_FlipsActiveFlag(t *testing.T) {
	var saved *model.TariffPlan
	repo := &mockTariffRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.TariffPlan, error) {
			return &model.TariffPlan{
				ID:           id,
				Name:         "Standard",
				PricePerHour: decimal.RequireFromString("150.00"),
				IsActive:     true,
			}, nil
		},
		updateFunc: func(ctx context.Context, id string, tariff *model.TariffPlan) error {
			saved = tariff
			return nil
		},
	}
	svc := newTestService(repo)

	if err := svc.Deactivate(context.Background(), testTariffID); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}
	if saved.IsActive {
		t.Error("expected tariff deactivated")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	svc := newTestService(&mockTariffRepository{})

	_, err := svc.GetByID(context.Background(), testTariffID)
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}
