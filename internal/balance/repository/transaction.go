package repository

import (
	"context"
	"fmt"
	"time"

	"parkhub/pkg/config"
	"parkhub/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	TransactionCollectionName = "Transactions"
)

type TransactionRepository interface {
	Create(ctx context.Context, txn *model.Transaction) error
	FindByCustomer(ctx context.Context, customerID string, limit int, offset int64) ([]*model.Transaction, error)
	CountByCustomer(ctx context.Context, customerID string) (int64, error)
}

type mongoTransactionRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoTransactionRepository(cfg *config.Config) TransactionRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTransactionRepository{
		cfg:        cfg,
		collection: db.Collection(TransactionCollectionName),
	}
}

func (r *mongoTransactionRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoTransactionRepository) Create(ctx context.Context, txn *model.Transaction) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	txn.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if _, err := r.collection.InsertOne(ctx, txn); err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *mongoTransactionRepository) FindByCustomer(ctx context.Context, customerID string, limit int, offset int64) ([]*model.Transaction, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"customer_id": customerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var txns []*model.Transaction
	if err = cursor.All(ctx, &txns); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}
	return txns, nil
}

func (r *mongoTransactionRepository) CountByCustomer(ctx context.Context, customerID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"customer_id": customerID})
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}
