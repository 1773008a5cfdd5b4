// Package mongo stores the catalog, carts and orders as MongoDB documents.
// Idle carts and, optionally, old orders are removed by TTL indexes.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chandruydv805026/my-web/internal/repository"
)

// NewStore connects to MongoDB, ensures indexes and wires every repository.
// It does not provide Checkout: orders and carts live in separate documents.
func NewStore(ctx context.Context, uri, dbName string, cartTTL, retention time.Duration) (*repository.Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(dbName)
	if err := ensureIndexes(connectCtx, db, retention); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	slog.Info("MongoDB connected", "database", dbName)

	return repository.NewStore(repository.Store{
		Products: &productRepository{collection: db.Collection("products")},
		Banners:  &bannerRepository{collection: db.Collection("banners")},
		Users:    &userRepository{collection: db.Collection("users")},
		Carts:    &cartRepository{collection: db.Collection("carts"), ttl: cartTTL},
		Orders:   &orderRepository{collection: db.Collection("orders"), retention: retention},
		Events:   &eventStore{collection: db.Collection("order_events")},
	}, client.Disconnect), nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, retention time.Duration) error {
	indexes := map[string][]mongo.IndexModel{
		"users": {
			{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
			{
				Keys: bson.D{{Key: "email_lower", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"email_lower": bson.M{"$gt": ""}}),
			},
		},
		"carts": {
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
		"orders": {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "order_date", Value: -1}}},
		},
		"order_events": {
			{Keys: bson.D{{Key: "stream_id", Value: 1}, {Key: "version", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	if retention > 0 {
		indexes["orders"] = append(indexes["orders"], mongo.IndexModel{
			Keys:    bson.D{{Key: "order_date", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(retention.Seconds())),
		})
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}
