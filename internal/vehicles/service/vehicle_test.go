package service

import (
	"context"
	"testing"

	vehicleserrors "parkhub/internal/vehicles/errors"
	"parkhub/internal/vehicles/validator"
	"parkhub/pkg/config"
	apperrors "parkhub/pkg/errors"
	"parkhub/pkg/logger"
	"parkhub/pkg/model"
)

type mockVehicleRepository struct {
	createFunc   func(ctx context.Context, vehicle *model.Vehicle) error
	findByIDFunc func(ctx context.Context, id string) (*model.Vehicle, error)
	updateFunc   func(ctx context.Context, id string, vehicle *model.Vehicle) error
	deleteFunc   func(ctx context.Context, id string) error
	created      []*model.Vehicle
}

func (m *mockVehicleRepository) Create(ctx context.Context, vehicle *model.Vehicle) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, vehicle)
	}
	m.created = append(m.created, vehicle)
	return nil
}

func (m *mockVehicleRepository) FindByID(ctx context.Context, id string) (*model.Vehicle, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, vehicleserrors.ErrNotFound
}

func (m *mockVehicleRepository) FindByCustomer(ctx context.Context, customerID string) ([]*model.Vehicle, error) {
	return m.created, nil
}

func (m *mockVehicleRepository) FindByPlate(ctx context.Context, plate string) (*model.Vehicle, error) {
	return nil, vehicleserrors.ErrNotFound
}

func (m *mockVehicleRepository) Update(ctx context.Context, id string, vehicle *model.Vehicle) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, vehicle)
	}
	return nil
}

func (m *mockVehicleRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	return &config.Config{Log: log}
}

func newTestService(repo *mockVehicleRepository) VehicleService {
	cfg := testConfig()
	return NewVehicleService(repo, validator.NewVehicleValidator(cfg.Log), cfg)
}

const (
	testOwnerID   = "0f8fad5b-d9cb-469f-a165-70867728950e"
	testVehicleID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
)

func TestRegister_NormalizesPlate(t *testing.T) {
	repo := &mockVehicleRepository{}
	svc := newTestService(repo)

	vehicle := &model.Vehicle{
		CustomerID:   testOwnerID,
		LicensePlate: " а 777 аа ", // cyrillic, spaced, lowercase
		Model:        "Lada Vesta",
	}
	if err := svc.Register(context.Background(), vehicle); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if vehicle.LicensePlate != "A777AA" {
		t.Errorf("expected normalized plate A777AA, got %q", vehicle.LicensePlate)
	}
	if vehicle.ID == "" {
		t.Error("expected generated vehicle ID")
	}
}

func TestRegister_InvalidPlateRejected(t *testing.T) {
	svc := newTestService(&mockVehicleRepository{})

	vehicle := &model.Vehicle{
		CustomerID:   testOwnerID,
		LicensePlate: "##",
		Model:        "Lada Vesta",
	}
	err := svc.Register(context.Background(), vehicle)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestRegister_DuplicatePlateConflict(t *testing.T) {
	repo := &mockVehicleRepository{
		createFunc: func(ctx context.Context, vehicle *model.Vehicle) error {
			return vehicleserrors.ErrDuplicatePlate
		},
	}
	svc := newTestService(repo)

	err := svc.Register(context.Background(), &model.Vehicle{
		CustomerID:   testOwnerID,
		LicensePlate: "A777AA",
		Model:        "Lada Vesta",
	})
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Errorf("expected CONFLICT, got %v", err)
	}
}

func TestGetOwned_ForeignVehicleHidden(t *testing.T) {
	repo := &mockVehicleRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Vehicle, error) {
			return &model.Vehicle{ID: id, CustomerID: "someone-else"}, nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.GetOwned(context.Background(), testOwnerID, testVehicleID)
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND for foreign vehicle, got %v", err)
	}
}

func TestUpdate_MergesOnlyProvidedFields(t *testing.T) {
	var saved *model.Vehicle
	repo := &mockVehicleRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Vehicle, error) {
			return &model.Vehicle{
				ID:           id,
				CustomerID:   testOwnerID,
				LicensePlate: "A777AA",
				Model:        "Lada Vesta",
				Color:        "white",
			}, nil
		},
		updateFunc: func(ctx context.Context, id string, vehicle *model.Vehicle) error {
			saved = vehicle
			return nil
		},
	}
	svc := newTestService(repo)

	err := svc.Update(context.Background(), testOwnerID, testVehicleID, &model.VehicleUpdate{Color: "black"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if saved.Color != "black" {
		t.Errorf("expected updated color black, got %q", saved.Color)
	}
	if saved.Model != "Lada Vesta" {
		t.Errorf("expected model untouched, got %q", saved.Model)
	}
	if saved.LicensePlate != "A777AA" {
		t.Errorf("expected plate untouched, got %q", saved.LicensePlate)
	}
}

func TestDelete_ForeignVehicleHidden(t *testing.T) {
	deleted := false
	repo := &mockVehicleRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Vehicle, error) {
			return &model.Vehicle{ID: id, CustomerID: "someone-else"}, nil
		},
		deleteFunc: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}
	svc := newTestService(repo)

	err := svc.Delete(context.Background(), testOwnerID, testVehicleID)
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
	if deleted {
		t.Error("foreign vehicle must not be deleted")
	}
}
