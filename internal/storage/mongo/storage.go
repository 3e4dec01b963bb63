// Package mongo implements the catalog and order stores on MongoDB.
package mongo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	restaurantsCollection = "restaurants"
	menuItemsCollection   = "menu_items"
	ordersCollection      = "orders"
	orderItemsCollection  = "order_items"
)

// Config describes the MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Storage owns the client and the database handle.
type Storage struct {
	client   *mongo.Client
	database *mongo.Database
}

// New connects to MongoDB and verifies the primary is reachable.
func New(ctx context.Context, cfg Config) (*Storage, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(100).
		SetMinPoolSize(2)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, errors.Wrap(err, "connect to mongodb")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, errors.Wrap(err, "ping mongodb")
	}

	return &Storage{
		client:   client,
		database: client.Database(cfg.Database),
	}, nil
}

// Close disconnects the client.
func (s *Storage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping checks the primary is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Database returns the database handle.
func (s *Storage) Database() *mongo.Database {
	return s.database
}

// CreateIndexes creates the indexes the repositories query by.
func (s *Storage) CreateIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		restaurantsCollection: {
			{Keys: bson.D{{Key: "rating", Value: -1}}},
		},
		menuItemsCollection: {
			{Keys: bson.D{
				{Key: "restaurant_id", Value: 1},
				{Key: "category", Value: 1},
				{Key: "name", Value: 1},
			}},
		},
		orderItemsCollection: {
			{
				Keys:    bson.D{{Key: "order_id", Value: 1}, {Key: "position", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}
	for name, models := range indexes {
		if _, err := s.database.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "create %s indexes", name)
		}
	}
	return nil
}
