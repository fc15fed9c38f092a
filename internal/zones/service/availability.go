package service

import (
	"context"
	"time"

	"parkhub/internal/zones/repository"
	"parkhub/pkg/config"
	apperrors "parkhub/pkg/errors"
	"parkhub/pkg/model"
)

// BookingOverlapSource reports which of the given spots hold an active
// (pending or confirmed) booking overlapping the half-open window. The
// bookings repository satisfies it.
type BookingOverlapSource interface {
	FindBookedSpotIDs(ctx context.Context, spotIDs []string, start, end time.Time) (map[string]struct{}, error)
}

type AvailabilityService interface {
	FindAvailableSpots(ctx context.Context, zoneID string, start, end time.Time) ([]*model.ParkingSpot, error)
}

type availabilityService struct {
	zones    ZoneService
	spots    repository.SpotRepository
	bookings BookingOverlapSource
	cfg      *config.Config
}

func NewAvailabilityService(
	zones ZoneService,
	spots repository.SpotRepository,
	bookings BookingOverlapSource,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		zones:    zones,
		spots:    spots,
		bookings: bookings,
		cfg:      cfg,
	}
}

// FindAvailableSpots returns the active spots in a zone that are free for the
// requested window: no overlapping active booking and no open session
// (occupancy covers walk-ins that have no booking). Read-only; an empty list
// is a valid result. Results come back sorted by spot_number.
func (s *availabilityService) FindAvailableSpots(ctx context.Context, zoneID string, start, end time.Time) ([]*model.ParkingSpot, error) {
	if !end.After(start) {
		return nil, apperrors.InvalidInterval("end_time must be after start_time")
	}
	if start.Before(time.Now().Add(-time.Minute)) {
		return nil, apperrors.InvalidInterval("start_time cannot be in the past")
	}

	zone, err := s.zones.GetZone(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	if !zone.IsActive {
		return []*model.ParkingSpot{}, nil
	}

	candidates, err := s.spots.FindByZone(ctx, zoneID, true)
	if err != nil {
		s.cfg.Log.Error("Failed to load candidate spots", "zone_id", zoneID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve spots", err)
	}
	if len(candidates) == 0 {
		return []*model.ParkingSpot{}, nil
	}

	spotIDs := make([]string, 0, len(candidates))
	for _, spot := range candidates {
		spotIDs = append(spotIDs, spot.ID)
	}

	booked, err := s.bookings.FindBookedSpotIDs(ctx, spotIDs, start, end)
	if err != nil {
		s.cfg.Log.Error("Failed to check booking overlaps", "zone_id", zoneID, "error", err)
		return nil, apperrors.Internal("Failed to check booking overlaps", err)
	}

	available := make([]*model.ParkingSpot, 0, len(candidates))
	for _, spot := range candidates {
		if spot.IsOccupied {
			continue
		}
		if _, taken := booked[spot.ID]; taken {
			continue
		}
		available = append(available, spot)
	}

	s.cfg.Log.Debug("Availability computed",
		"zone_id", zoneID,
		"candidates", len(candidates),
		"available", len(available),
	)
	return available, nil
}
