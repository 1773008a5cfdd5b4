package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chandruydv805026/my-web/internal/entity"
	"github.com/chandruydv805026/my-web/internal/repository"
)

type userRepository struct {
	collection *mongo.Collection
}

func (r *userRepository) Create(ctx context.Context, u *entity.User) error {
	_, err := r.collection.InsertOne(ctx, toUserDocument(u, strings.ToLower(u.Email)))
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *userRepository) FindByPhone(ctx context.Context, phone string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"phone": phone})
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"email_lower": strings.ToLower(email)})
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (*entity.User, error) {
	var doc UserDocument
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return toUserEntity(&doc), nil
}

type cartRepository struct {
	collection *mongo.Collection
	ttl        time.Duration
}

func (r *cartRepository) FindByUser(ctx context.Context, userID string) (*entity.Cart, error) {
	// The TTL monitor runs about once a minute, so expiry is also checked here.
	filter := bson.M{
		"_id": userID,
		"$or": bson.A{
			bson.M{"expires_at": bson.M{"$exists": false}},
			bson.M{"expires_at": bson.M{"$gt": time.Now()}},
		},
	}

	var doc CartDocument
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}
	return toCartEntity(&doc), nil
}

func (r *cartRepository) Save(ctx context.Context, cart *entity.Cart) error {
	cart.UpdatedAt = time.Now()
	var expiresAt *time.Time
	if r.ttl > 0 {
		t := cart.UpdatedAt.Add(r.ttl)
		expiresAt = &t
	}

	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": cart.UserID}, toCartDocument(cart, expiresAt), options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

type orderRepository struct {
	collection *mongo.Collection
	retention  time.Duration
}

// visible restricts a filter to orders inside the retention window.
func (r *orderRepository) visible(filter bson.M) bson.M {
	if r.retention > 0 {
		filter["order_date"] = bson.M{"$gt": time.Now().Add(-r.retention)}
	}
	return filter
}

func (r *orderRepository) Create(ctx context.Context, o *entity.Order) error {
	_, err := r.collection.InsertOne(ctx, toOrderDocument(o))
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*entity.Order, error) {
	var doc OrderDocument
	err := r.collection.FindOne(ctx, r.visible(bson.M{"_id": id})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	o := toOrderEntity(&doc)
	return &o, nil
}

func (r *orderRepository) FindByUser(ctx context.Context, userID string) ([]entity.Order, error) {
	return r.find(ctx, r.visible(bson.M{"user_id": userID}), 0)
}

func (r *orderRepository) FindRecent(ctx context.Context, limit int) ([]entity.Order, error) {
	return r.find(ctx, r.visible(bson.M{}), limit)
}

func (r *orderRepository) find(ctx context.Context, filter bson.M, limit int) ([]entity.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order_date", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	var docs []OrderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	orders := make([]entity.Order, len(docs))
	for i := range docs {
		orders[i] = toOrderEntity(&docs[i])
	}
	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, from, to entity.OrderStatus) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": string(from)},
		bson.M{"$set": bson.M{"status": string(to), "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to check order %s: %w", id, err)
	}
	if count == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

type eventStore struct {
	collection *mongo.Collection
}

func (s *eventStore) Append(ctx context.Context, streamID string, events ...entity.Event) error {
	if len(events) == 0 {
		return nil
	}

	var last EventDocument
	version := 0
	err := s.collection.FindOne(ctx,
		bson.M{"stream_id": streamID},
		options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}}),
	).Decode(&last)
	switch {
	case err == nil:
		version = last.Version
	case !errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("failed to get current stream version: %w", err)
	}

	now := time.Now()
	docs := make([]any, 0, len(events))
	for _, event := range events {
		version++
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
		}
		docs = append(docs, EventDocument{
			ID:        uuid.NewString(),
			StreamID:  streamID,
			Version:   version,
			EventType: event.EventType(),
			Payload:   string(payload),
			CreatedAt: now,
		})
	}

	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("stream %s: %w", streamID, repository.ErrConflict)
		}
		return fmt.Errorf("failed to insert events: %w", err)
	}
	return nil
}

func (s *eventStore) Load(ctx context.Context, streamID string) ([]entity.EventRecord, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"stream_id": streamID}, options.Find().SetSort(bson.D{{Key: "version", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to load events for stream %s: %w", streamID, err)
	}
	var docs []EventDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}

	records := make([]entity.EventRecord, len(docs))
	for i, doc := range docs {
		records[i] = entity.EventRecord{
			ID:        doc.ID,
			StreamID:  doc.StreamID,
			Version:   doc.Version,
			EventType: doc.EventType,
			Payload:   []byte(doc.Payload),
			CreatedAt: doc.CreatedAt,
		}
	}
	return records, nil
}
