package service

import (
	"context"
	"errors"
	"sync"

	zoneserrors "parkhub/internal/zones/errors"
	"parkhub/internal/zones/repository"
	"parkhub/internal/zones/validator"
	"parkhub/pkg/config"
	apperrors "parkhub/pkg/errors"
	"parkhub/pkg/model"
	"parkhub/pkg/sanitizer"

	"github.com/google/uuid"
)

// TariffSource is the slice of the tariff service zones need: resolving the
// default tariff of a zone.
type TariffSource interface {
	GetByID(ctx context.Context, id string) (*model.TariffPlan, error)
}

type ZoneService interface {
	CreateZone(ctx context.Context, zone *model.ParkingZone) error
	GetZone(ctx context.Context, id string) (*model.ParkingZone, error)
	GetAllZones(ctx context.Context, limit int, offset int64) ([]*model.ParkingZone, int64, error)
	UpdateZone(ctx context.Context, id string, updates *model.ParkingZoneUpdate) error

	CreateSpot(ctx context.Context, spot *model.ParkingSpot) error
	GetSpot(ctx context.Context, id string) (*model.ParkingSpot, error)
	GetSpotsByZone(ctx context.Context, zoneID string) ([]*model.ParkingSpot, error)
	UpdateSpot(ctx context.Context, id string, updates *model.ParkingSpotUpdate) error

	// ResolveRate returns the tariff snapshot for a spot via its zone.
	ResolveRate(ctx context.Context, spotID string) (*model.ParkingSpot, model.RateSnapshot, error)

	RefreshAvailability(ctx context.Context, zoneID string) error
}

type zoneService struct {
	zones     repository.ZoneRepository
	spots     repository.SpotRepository
	tariffs   TariffSource
	validator *validator.ZoneValidator
	cfg       *config.Config
}

func NewZoneService(
	zones repository.ZoneRepository,
	spots repository.SpotRepository,
	tariffs TariffSource,
	v *validator.ZoneValidator,
	cfg *config.Config,
) ZoneService {
	return &zoneService{
		zones:     zones,
		spots:     spots,
		tariffs:   tariffs,
		validator: v,
		cfg:       cfg,
	}
}

func (s *zoneService) CreateZone(ctx context.Context, zone *model.ParkingZone) error {
	zone.ID = uuid.New().String()
	zone.Name = sanitizer.NormalizeName(zone.Name)
	zone.IsActive = true
	zone.AvailableSpots = 0

	if err := s.validator.ValidateZone(zone); err != nil {
		s.cfg.Log.Warn("Zone validation failed", "error", err)
		return apperrors.Validation("Zone validation failed", map[string]any{"error": err.Error()})
	}

	if zone.TariffID != "" {
		if _, err := s.tariffs.GetByID(ctx, zone.TariffID); err != nil {
			return err
		}
	}

	if err := s.zones.Create(ctx, zone); err != nil {
		s.cfg.Log.Error("Failed to create zone", "error", err)
		return apperrors.Internal("Failed to create zone", err)
	}

	s.cfg.Log.Info("Zone created successfully", "id", zone.ID, "name", zone.Name)
	return nil
}

func (s *zoneService) GetZone(ctx context.Context, id string) (*model.ParkingZone, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Zone ID cannot be empty")
	}

	zone, err := s.zones.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, zoneserrors.ErrZoneNotFound) {
			return nil, apperrors.NotFoundWithID("Zone", id)
		}
		return nil, apperrors.Internal("Failed to retrieve zone", err)
	}
	return zone, nil
}

func (s *zoneService) GetAllZones(ctx context.Context, limit int, offset int64) ([]*model.ParkingZone, int64, error) {
	var count int64
	var zones []*model.ParkingZone
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.zones.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count zones", "error", errCount)
			errCount = apperrors.Internal("Failed to count zones", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		zones, errFind = s.zones.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list zones", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve zones", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return zones, count, nil
}

func (s *zoneService) UpdateZone(ctx context.Context, id string, updates *model.ParkingZoneUpdate) error {
	existing, err := s.GetZone(ctx, id)
	if err != nil {
		return err
	}

	if err := s.validator.ValidateZoneUpdate(updates); err != nil {
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := *existing
	if updates.Name != "" {
		merged.Name = sanitizer.NormalizeName(updates.Name)
	}
	if updates.Address != "" {
		merged.Address = updates.Address
	}
	if updates.TariffID != "" {
		if _, err := s.tariffs.GetByID(ctx, updates.TariffID); err != nil {
			return err
		}
		merged.TariffID = updates.TariffID
	}
	if updates.IsActive != nil {
		merged.IsActive = *updates.IsActive
	}

	if err := s.zones.Update(ctx, id, &merged); err != nil {
		if errors.Is(err, zoneserrors.ErrZoneNotFound) {
			return apperrors.NotFoundWithID("Zone", id)
		}
		s.cfg.Log.Error("Failed to update zone", "id", id, "error", err)
		return apperrors.Internal("Failed to update zone", err)
	}

	s.cfg.Log.Info("Zone updated successfully", "id", id)
	return nil
}

func (s *zoneService) CreateSpot(ctx context.Context, spot *model.ParkingSpot) error {
	spot.ID = uuid.New().String()
	spot.IsOccupied = false
	spot.IsActive = true
	if spot.SpotType == "" {
		spot.SpotType = model.SpotTypeStandard
	}

	if err := s.validator.ValidateSpot(spot); err != nil {
		s.cfg.Log.Warn("Spot validation failed", "error", err)
		return apperrors.Validation("Spot validation failed", map[string]any{"error": err.Error()})
	}

	zone, err := s.GetZone(ctx, spot.ZoneID)
	if err != nil {
		return err
	}

	if err := s.spots.Create(ctx, spot); err != nil {
		if errors.Is(err, zoneserrors.ErrDuplicateSpotNumber) {
			return apperrors.Conflict("Spot number already exists in this zone")
		}
		s.cfg.Log.Error("Failed to create spot", "error", err)
		return apperrors.Internal("Failed to create spot", err)
	}

	if err := s.RefreshAvailability(ctx, zone.ID); err != nil {
		s.cfg.Log.Warn("Failed to refresh zone availability", "zone_id", zone.ID, "error", err)
	}

	s.cfg.Log.Info("Spot created successfully", "id", spot.ID, "zone_id", spot.ZoneID, "spot_number", spot.SpotNumber)
	return nil
}

func (s *zoneService) GetSpot(ctx context.Context, id string) (*model.ParkingSpot, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Spot ID cannot be empty")
	}

	spot, err := s.spots.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, zoneserrors.ErrSpotNotFound) {
			return nil, apperrors.NotFoundWithID("Spot", id)
		}
		return nil, apperrors.Internal("Failed to retrieve spot", err)
	}
	return spot, nil
}

func (s *zoneService) GetSpotsByZone(ctx context.Context, zoneID string) ([]*model.ParkingSpot, error) {
	if _, err := s.GetZone(ctx, zoneID); err != nil {
		return nil, err
	}

	spots, err := s.spots.FindByZone(ctx, zoneID, false)
	if err != nil {
		s.cfg.Log.Error("Failed to list spots", "zone_id", zoneID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve spots", err)
	}
	return spots, nil
}

func (s *zoneService) UpdateSpot(ctx context.Context, id string, updates *model.ParkingSpotUpdate) error {
	existing, err := s.GetSpot(ctx, id)
	if err != nil {
		return err
	}

	if err := s.validator.ValidateSpotUpdate(updates); err != nil {
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := *existing
	if updates.SpotNumber != "" {
		merged.SpotNumber = updates.SpotNumber
	}
	if updates.SpotType != "" {
		merged.SpotType = updates.SpotType
	}
	if updates.IsActive != nil {
		merged.IsActive = *updates.IsActive
	}

	if err := s.spots.Update(ctx, id, &merged); err != nil {
		if errors.Is(err, zoneserrors.ErrDuplicateSpotNumber) {
			return apperrors.Conflict("Spot number already exists in this zone")
		}
		if errors.Is(err, zoneserrors.ErrSpotNotFound) {
			return apperrors.NotFoundWithID("Spot", id)
		}
		s.cfg.Log.Error("Failed to update spot", "id", id, "error", err)
		return apperrors.Internal("Failed to update spot", err)
	}

	s.cfg.Log.Info("Spot updated successfully", "id", id)
	return nil
}

// ResolveRate loads the spot, its zone, and the zone's tariff, returning a
// snapshot for bookings and walk-in sessions.
func (s *zoneService) ResolveRate(ctx context.Context, spotID string) (*model.ParkingSpot, model.RateSnapshot, error) {
	spot, err := s.GetSpot(ctx, spotID)
	if err != nil {
		return nil, model.RateSnapshot{}, err
	}

	zone, err := s.GetZone(ctx, spot.ZoneID)
	if err != nil {
		return nil, model.RateSnapshot{}, err
	}
	if zone.TariffID == "" {
		return nil, model.RateSnapshot{}, apperrors.InvalidState("Zone has no tariff assigned")
	}

	tariff, err := s.tariffs.GetByID(ctx, zone.TariffID)
	if err != nil {
		return nil, model.RateSnapshot{}, err
	}
	if !tariff.IsActive {
		return nil, model.RateSnapshot{}, apperrors.InvalidState("Zone tariff is inactive")
	}

	return spot, tariff.Snapshot(), nil
}

// RefreshAvailability recomputes the cached available_spots projection from
// actual spot state.
func (s *zoneService) RefreshAvailability(ctx context.Context, zoneID string) error {
	free, err := s.spots.CountFreeByZone(ctx, zoneID)
	if err != nil {
		return apperrors.Internal("Failed to count free spots", err)
	}
	if err := s.zones.SetAvailableSpots(ctx, zoneID, int(free)); err != nil {
		if errors.Is(err, zoneserrors.ErrZoneNotFound) {
			return apperrors.NotFoundWithID("Zone", zoneID)
		}
		return apperrors.Internal("Failed to update zone availability", err)
	}
	return nil
}
