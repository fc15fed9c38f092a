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
	SpotCollectionName = "Spots"
)

type SpotRepository interface {
	Create(ctx context.Context, spot *model.ParkingSpot) error
	FindByID(ctx context.Context, id string) (*model.ParkingSpot, error)
	FindByZone(ctx context.Context, zoneID string, activeOnly bool) ([]*model.ParkingSpot, error)
	CountFreeByZone(ctx context.Context, zoneID string) (int64, error)
	Update(ctx context.Context, id string, spot *model.ParkingSpot) error
	SetOccupied(ctx context.Context, id string, from, to bool) error
}

type mongoSpotRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSpotRepository(cfg *config.Config) SpotRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSpotRepository{
		cfg:        cfg,
		collection: db.Collection(SpotCollectionName),
	}
}

func (r *mongoSpotRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoSpotRepository) Create(ctx context.Context, spot *model.ParkingSpot) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	spot.CreatedAt = now
	spot.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, spot); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return zoneserrors.ErrDuplicateSpotNumber
		}
		return fmt.Errorf("failed to create spot: %w", err)
	}
	return nil
}

func (r *mongoSpotRepository) FindByID(ctx context.Context, id string) (*model.ParkingSpot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var spot model.ParkingSpot
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&spot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, zoneserrors.ErrSpotNotFound
		}
		return nil, fmt.Errorf("failed to find spot: %w", err)
	}
	return &spot, nil
}

func (r *mongoSpotRepository) FindByZone(ctx context.Context, zoneID string, activeOnly bool) ([]*model.ParkingSpot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"zone_id": zoneID}
	if activeOnly {
		filter["is_active"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "spot_number", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find spots: %w", err)
	}
	defer cursor.Close(ctx)

	var spots []*model.ParkingSpot
	if err = cursor.All(ctx, &spots); err != nil {
		return nil, fmt.Errorf("failed to decode spots: %w", err)
	}
	return spots, nil
}

func (r *mongoSpotRepository) CountFreeByZone(ctx context.Context, zoneID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{
		"zone_id":     zoneID,
		"is_active":   true,
		"is_occupied": false,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count free spots: %w", err)
	}
	return count, nil
}

func (r *mongoSpotRepository) Update(ctx context.Context, id string, spot *model.ParkingSpot) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"spot_number": spot.SpotNumber,
			"spot_type":   spot.SpotType,
			"is_active":   spot.IsActive,
			"updated_at":  time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return zoneserrors.ErrDuplicateSpotNumber
		}
		return fmt.Errorf("failed to update spot: %w", err)
	}
	if result.MatchedCount == 0 {
		return zoneserrors.ErrSpotNotFound
	}
	return nil
}

// SetOccupied flips the occupancy flag with a compare-and-set on the previous
// value. A miss means another session won the spot (or already released it).
func (r *mongoSpotRepository) SetOccupied(ctx context.Context, id string, from, to bool) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "is_occupied": from}
	update := bson.M{
		"$set": bson.M{
			"is_occupied": to,
			"updated_at":  time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to set spot occupancy: %w", err)
	}
	if result.MatchedCount == 0 {
		if from {
			return zoneserrors.ErrSpotFree
		}
		return zoneserrors.ErrSpotOccupied
	}
	return nil
}
