// Package mongostore keeps per-user category rules in MongoDB so several
// pipeline instances can share what users have taught them.
package mongostore

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
)

// DataStore is the subset of *mongo.Collection the rule store needs.
type DataStore interface {
	Find(ctx context.Context, filter any, opts ...*options.FindOptions) (*mongo.Cursor, error)
	FindOneAndUpdate(ctx context.Context, filter, update any, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter, update any, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter any, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	CreateIndex(ctx context.Context, index mongo.IndexModel) (string, error)
}

// CollectionProvider hands out collections by name.
type CollectionProvider interface {
	Collection(name string) DataStore
}

// MongoCollection adapts *mongo.Collection to DataStore.
type MongoCollection struct {
	*mongo.Collection
}

// CreateIndex creates a single index on the collection.
func (c *MongoCollection) CreateIndex(ctx context.Context, index mongo.IndexModel) (string, error) {
	name, err := c.Indexes().CreateOne(ctx, index)
	if err != nil {
		return "", fmt.Errorf("failed to create index: %w", err)
	}
	return name, nil
}

// MongoProvider adapts *mongo.Client to CollectionProvider.
type MongoProvider struct {
	client   *mongo.Client
	database string
}

// NewMongoProvider creates a provider for collections in database.
func NewMongoProvider(client *mongo.Client, database string) *MongoProvider {
	return &MongoProvider{client: client, database: database}
}

// Collection returns a DataStore for the given collection name.
func (p *MongoProvider) Collection(name string) DataStore {
	return &MongoCollection{p.client.Database(p.database).Collection(name)}
}

// Disconnect closes the underlying client.
func (p *MongoProvider) Disconnect(ctx context.Context) error {
	return p.client.Disconnect(ctx)
}

// Connect establishes and verifies a connection to MongoDB.
func Connect(ctx context.Context, uri string, logger *slog.Logger) (*mongo.Client, error) {
	logger = common.LoggerOrDefault(logger)
	if uri == "" {
		return nil, fmt.Errorf("%w: mongo uri", common.ErrMissingConfig)
	}
	logger.DebugContext(ctx, "Attempting to connect to MongoDB")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.InfoContext(ctx, "Successfully established connection to MongoDB")
	return client, nil
}
