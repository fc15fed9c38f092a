package repository

import (
	"context"
	"fmt"
	"time"

	bookingserrors "parkhub/internal/bookings/errors"
	"parkhub/pkg/config"
	"parkhub/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	SpotLockCollectionName = "BookingLocks"
)

// SpotLockRepository serializes booking creation per spot through a unique _id
// insert. The TTL index on expires_at reaps locks left behind by crashed
// requests; Release is the fast path.
type SpotLockRepository interface {
	Acquire(ctx context.Context, spotID string) error
	Release(ctx context.Context, spotID string) error
}

type mongoSpotLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSpotLockRepository(cfg *config.Config) SpotLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSpotLockRepository{
		cfg:        cfg,
		collection: db.Collection(SpotLockCollectionName),
	}
}

func (r *mongoSpotLockRepository) Acquire(ctx context.Context, spotID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	lock := model.SpotLock{
		ID:        spotID,
		ExpiresAt: now.Add(r.cfg.SpotLockTTL),
		CreatedAt: now,
	}

	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingserrors.ErrSpotLocked
		}
		return fmt.Errorf("failed to acquire spot lock: %w", err)
	}
	return nil
}

func (r *mongoSpotLockRepository) Release(ctx context.Context, spotID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": spotID}); err != nil {
		return fmt.Errorf("failed to release spot lock: %w", err)
	}
	return nil
}
