package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	zoneserrors "parkhub/internal/zones/errors"
	"parkhub/pkg/config"
	"parkhub/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ZoneCollectionName = "Zones"
)

type ZoneRepository interface {
	Create(ctx context.Context, zone *model.ParkingZone) error
	FindByID(ctx context.Context, id string) (*model.ParkingZone, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.ParkingZone, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, id string, zone *model.ParkingZone) error
	SetAvailableSpots(ctx context.Context, id string, available int) error
}

type mongoZoneRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoZoneRepository(cfg *config.Config) ZoneRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoZoneRepository{
		cfg:        cfg,
		collection: db.Collection(ZoneCollectionName),
	}
}

func (r *mongoZoneRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoZoneRepository) Create(ctx context.Context, zone *model.ParkingZone) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	zone.CreatedAt = now
	zone.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, zone); err != nil {
		return fmt.Errorf("failed to create zone: %w", err)
	}
	return nil
}

func (r *mongoZoneRepository) FindByID(ctx context.Context, id string) (*model.ParkingZone, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var zone model.ParkingZone
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&zone)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, zoneserrors.ErrZoneNotFound
		}
		return nil, fmt.Errorf("failed to find zone: %w", err)
	}
	return &zone, nil
}

func (r *mongoZoneRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.ParkingZone, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find zones: %w", err)
	}
	defer cursor.Close(ctx)

	var zones []*model.ParkingZone
	if err = cursor.All(ctx, &zones); err != nil {
		return nil, fmt.Errorf("failed to decode zones: %w", err)
	}
	return zones, nil
}

func (r *mongoZoneRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count zones: %w", err)
	}
	return count, nil
}

func (r *mongoZoneRepository) Update(ctx context.Context, id string, zone *model.ParkingZone) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"name":       zone.Name,
			"address":    zone.Address,
			"tariff_id":  zone.TariffID,
			"is_active":  zone.IsActive,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update zone: %w", err)
	}
	if result.MatchedCount == 0 {
		return zoneserrors.ErrZoneNotFound
	}
	return nil
}

// SetAvailableSpots refreshes the cached availability projection. Callers
// recompute the count from spot state; this write never gates correctness.
func (r *mongoZoneRepository) SetAvailableSpots(ctx context.Context, id string, available int) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"available_spots": available,
			"updated_at":      time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to set available spots: %w", err)
	}
	if result.MatchedCount == 0 {
		return zoneserrors.ErrZoneNotFound
	}
	return nil
}
