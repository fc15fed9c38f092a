package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	balanceerrors "parkhub/internal/balance/errors"
	"parkhub/pkg/config"
	"parkhub/pkg/model"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CustomerCollectionName = "Customers"
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) error
	FindByID(ctx context.Context, id string) (*model.Customer, error)
	Count(ctx context.Context) (int64, error)

	// DebitBalance atomically decrements the balance when it covers the
	// amount, returning the updated document. ErrInsufficientFunds means the
	// conditional filter missed while the customer exists.
	DebitBalance(ctx context.Context, customerID string, amount decimal.Decimal) (*model.Customer, error)

	// CreditBalance atomically increments the balance, returning the updated
	// document.
	CreditBalance(ctx context.Context, customerID string, amount decimal.Decimal) (*model.Customer, error)
}

type mongoCustomerRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoCustomerRepository(cfg *config.Config) CustomerRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCustomerRepository{
		cfg:        cfg,
		collection: db.Collection(CustomerCollectionName),
	}
}

func (r *mongoCustomerRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoCustomerRepository) Create(ctx context.Context, customer *model.Customer) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	customer.CreatedAt = now
	customer.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, customer); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return balanceerrors.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

func (r *mongoCustomerRepository) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var customer model.Customer
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&customer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, balanceerrors.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	return &customer, nil
}

func (r *mongoCustomerRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return count, nil
}

func (r *mongoCustomerRepository) DebitBalance(ctx context.Context, customerID string, amount decimal.Decimal) (*model.Customer, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	// The balance floor lives in the filter: a concurrent debit that drains
	// the balance makes this one miss instead of going negative.
	filter := bson.M{
		"_id":     customerID,
		"balance": bson.M{"$gte": amount},
	}
	update := bson.M{
		"$inc": bson.M{"balance": amount.Neg()},
		"$set": bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var customer model.Customer
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&customer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if _, findErr := r.FindByID(ctx, customerID); findErr != nil {
				return nil, findErr
			}
			return nil, balanceerrors.ErrInsufficientFunds
		}
		return nil, fmt.Errorf("failed to debit balance: %w", err)
	}
	return &customer, nil
}

func (r *mongoCustomerRepository) CreditBalance(ctx context.Context, customerID string, amount decimal.Decimal) (*model.Customer, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{
		"$inc": bson.M{"balance": amount},
		"$set": bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var customer model.Customer
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": customerID}, update, opts).Decode(&customer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, balanceerrors.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to credit balance: %w", err)
	}
	return &customer, nil
}
