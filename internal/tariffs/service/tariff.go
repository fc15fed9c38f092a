package service

import (
	"context"
	"errors"
	"sync"

	tarifferrors "parkhub/internal/tariffs/errors"
	"parkhub/internal/tariffs/repository"
	"parkhub/internal/tariffs/validator"
	"parkhub/pkg/config"
	apperrors "parkhub/pkg/errors"
	"parkhub/pkg/model"
	"parkhub/pkg/sanitizer"

	"github.com/google/uuid"
)

type TariffService interface {
	Create(ctx context.Context, tariff *model.TariffPlan) error
	GetByID(ctx context.Context, id string) (*model.TariffPlan, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.TariffPlan, int64, error)
	Update(ctx context.Context, id string, updates *model.TariffPlanUpdate) error
	Deactivate(ctx context.Context, id string) error
}

type tariffService struct {
	repo      repository.TariffRepository
	validator *validator.TariffValidator
	cfg       *config.Config
}

func NewTariffService(repo repository.TariffRepository, v *validator.TariffValidator, cfg *config.Config) TariffService {
	return &tariffService{
		repo:      repo,
		validator: v,
		cfg:       cfg,
	}
}

func (s *tariffService) Create(ctx context.Context, tariff *model.TariffPlan) error {
	tariff.ID = uuid.New().String()
	tariff.Name = sanitizer.NormalizeName(tariff.Name)
	tariff.IsActive = true

	if err := s.validator.Validate(tariff); err != nil {
		s.cfg.Log.Warn("Tariff validation failed", "error", err)
		return apperrors.Validation("Tariff validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, tariff); err != nil {
		s.cfg.Log.Error("Failed to create tariff", "error", err)
		return apperrors.Internal("Failed to create tariff", err)
	}

	s.cfg.Log.Info("Tariff created successfully", "id", tariff.ID, "name", tariff.Name)
	return nil
}

func (s *tariffService) GetByID(ctx context.Context, id string) (*model.TariffPlan, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Tariff ID cannot be empty")
	}

	tariff, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, tarifferrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Tariff", id)
		}
		return nil, apperrors.Internal("Failed to retrieve tariff", err)
	}
	return tariff, nil
}

func (s *tariffService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.TariffPlan, int64, error) {
	var count int64
	var tariffs []*model.TariffPlan
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count tariffs", "error", errCount)
			errCount = apperrors.Internal("Failed to count tariffs", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		tariffs, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list tariffs", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve tariffs", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return tariffs, count, nil
}

func (s *tariffService) Update(ctx context.Context, id string, updates *model.TariffPlanUpdate) error {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Tariff update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.mergeUpdates(existing, updates)
	if err := s.validator.Validate(merged); err != nil {
		return apperrors.Validation("Tariff validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, tarifferrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Tariff", id)
		}
		s.cfg.Log.Error("Failed to update tariff", "id", id, "error", err)
		return apperrors.Internal("Failed to update tariff", err)
	}

	s.cfg.Log.Info("Tariff updated successfully", "id", id)
	return nil
}

// Deactivate retires a tariff from new bookings. Existing bookings and
// sessions keep their snapshots, so history is unaffected.
func (s *tariffService) Deactivate(ctx context.Context, id string) error {
	inactive := false
	return s.Update(ctx, id, &model.TariffPlanUpdate{IsActive: &inactive})
}

func (s *tariffService) mergeUpdates(existing *model.TariffPlan, updates *model.TariffPlanUpdate) *model.TariffPlan {
	merged := *existing

	if updates.Name != "" {
		merged.Name = sanitizer.NormalizeName(updates.Name)
	}
	if updates.Description != "" {
		merged.Description = updates.Description
	}
	if updates.PricePerHour != nil {
		merged.PricePerHour = *updates.PricePerHour
	}
	if updates.PricePerDay != nil {
		merged.PricePerDay = updates.PricePerDay
	}
	if updates.IsActive != nil {
		merged.IsActive = *updates.IsActive
	}

	return &merged
}
