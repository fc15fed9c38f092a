package service

import (
	"context"
	"errors"

	vehicleserrors "parkhub/internal/vehicles/errors"
	"parkhub/internal/vehicles/repository"
	"parkhub/internal/vehicles/validator"
	"parkhub/pkg/config"
	apperrors "parkhub/pkg/errors"
	"parkhub/pkg/model"
	"parkhub/pkg/sanitizer"

	"github.com/google/uuid"
)

type VehicleService interface {
	Register(ctx context.Context, vehicle *model.Vehicle) error
	GetOwned(ctx context.Context, customerID, vehicleID string) (*model.Vehicle, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*model.Vehicle, error)
	Update(ctx context.Context, customerID, vehicleID string, updates *model.VehicleUpdate) error
	Delete(ctx context.Context, customerID, vehicleID string) error
}

type vehicleService struct {
	repo      repository.VehicleRepository
	validator *validator.VehicleValidator
	cfg       *config.Config
}

func NewVehicleService(repo repository.VehicleRepository, v *validator.VehicleValidator, cfg *config.Config) VehicleService {
	return &vehicleService{
		repo:      repo,
		validator: v,
		cfg:       cfg,
	}
}

func (s *vehicleService) Register(ctx context.Context, vehicle *model.Vehicle) error {
	vehicle.ID = uuid.New().String()
	vehicle.LicensePlate = sanitizer.NormalizePlate(vehicle.LicensePlate)

	if err := s.validator.Validate(vehicle); err != nil {
		s.cfg.Log.Warn("Vehicle validation failed", "error", err)
		return apperrors.Validation("Vehicle validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, vehicle); err != nil {
		if errors.Is(err, vehicleserrors.ErrDuplicatePlate) {
			return apperrors.Conflict("License plate is already registered")
		}
		s.cfg.Log.Error("Failed to register vehicle", "error", err)
		return apperrors.Internal("Failed to register vehicle", err)
	}

	s.cfg.Log.Info("Vehicle registered successfully",
		"id", vehicle.ID,
		"customer_id", vehicle.CustomerID,
		"license_plate", vehicle.LicensePlate,
	)
	return nil
}

// GetOwned loads a vehicle and enforces that it belongs to the caller.
// Ownership misses surface as not-found so plates cannot be enumerated.
func (s *vehicleService) GetOwned(ctx context.Context, customerID, vehicleID string) (*model.Vehicle, error) {
	if vehicleID == "" {
		return nil, apperrors.InvalidInput("Vehicle ID cannot be empty")
	}

	vehicle, err := s.repo.FindByID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, vehicleserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Vehicle", vehicleID)
		}
		return nil, apperrors.Internal("Failed to retrieve vehicle", err)
	}

	if vehicle.CustomerID != customerID {
		return nil, apperrors.NotFoundWithID("Vehicle", vehicleID)
	}
	return vehicle, nil
}

func (s *vehicleService) ListByCustomer(ctx context.Context, customerID string) ([]*model.Vehicle, error) {
	vehicles, err := s.repo.FindByCustomer(ctx, customerID)
	if err != nil {
		s.cfg.Log.Error("Failed to list vehicles", "customer_id", customerID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve vehicles", err)
	}
	return vehicles, nil
}

func (s *vehicleService) Update(ctx context.Context, customerID, vehicleID string, updates *model.VehicleUpdate) error {
	existing, err := s.GetOwned(ctx, customerID, vehicleID)
	if err != nil {
		return err
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := *existing
	if updates.Model != "" {
		merged.Model = updates.Model
	}
	if updates.Color != "" {
		merged.Color = updates.Color
	}

	if err := s.repo.Update(ctx, vehicleID, &merged); err != nil {
		if errors.Is(err, vehicleserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Vehicle", vehicleID)
		}
		s.cfg.Log.Error("Failed to update vehicle", "id", vehicleID, "error", err)
		return apperrors.Internal("Failed to update vehicle", err)
	}

	s.cfg.Log.Info("Vehicle updated successfully", "id", vehicleID)
	return nil
}

func (s *vehicleService) Delete(ctx context.Context, customerID, vehicleID string) error {
	if _, err := s.GetOwned(ctx, customerID, vehicleID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, vehicleID); err != nil {
		if errors.Is(err, vehicleserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Vehicle", vehicleID)
		}
		s.cfg.Log.Error("Failed to delete vehicle", "id", vehicleID, "error", err)
		return apperrors.Internal("Failed to delete vehicle", err)
	}

	s.cfg.Log.Info("Vehicle deleted successfully", "id", vehicleID)
	return nil
}
