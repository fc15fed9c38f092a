package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	tarifferrors "parkhub/internal/tariffs/errors"
	"parkhub/pkg/config"
	"parkhub/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Tariffs"
)

type TariffRepository interface {
	Create(ctx context.Context, tariff *model.TariffPlan) error
	FindByID(ctx context.Context, id string) (*model.TariffPlan, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.TariffPlan, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, id string, tariff *model.TariffPlan) error
}

type mongoTariffRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoTariffRepository(cfg *config.Config) TariffRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTariffRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoTariffRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoTariffRepository) Create(ctx context.Context, tariff *model.TariffPlan) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	tariff.CreatedAt = now
	tariff.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, tariff); err != nil {
		return fmt.Errorf("failed to create tariff: %w", err)
	}
	return nil
}

func (r *mongoTariffRepository) FindByID(ctx context.Context, id string) (*model.TariffPlan, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var tariff model.TariffPlan
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&tariff)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, tarifferrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find tariff: %w", err)
	}
	return &tariff, nil
}

func (r *mongoTariffRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.TariffPlan, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find tariffs: %w", err)
	}
	defer cursor.Close(ctx)

	var tariffs []*model.TariffPlan
	if err = cursor.All(ctx, &tariffs); err != nil {
		return nil, fmt.Errorf("failed to decode tariffs: %w", err)
	}
	return tariffs, nil
}

func (r *mongoTariffRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count tariffs: %w", err)
	}
	return count, nil
}

func (r *mongoTariffRepository) Update(ctx context.Context, id string, tariff *model.TariffPlan) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"name":           tariff.Name,
			"description":    tariff.Description,
			"price_per_hour": tariff.PricePerHour,
			"price_per_day":  tariff.PricePerDay,
			"is_active":      tariff.IsActive,
			"updated_at":     time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update tariff: %w", err)
	}
	if result.MatchedCount == 0 {
		return tarifferrors.ErrNotFound
	}
	return nil
}
