package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chandruydv805026/my-web/internal/entity"
	"github.com/chandruydv805026/my-web/internal/repository"
)

type productRepository struct {
	collection *mongo.Collection
}

func (r *productRepository) find(ctx context.Context, filter bson.M) ([]entity.Product, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	var docs []ProductDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]entity.Product, len(docs))
	for i := range docs {
		products[i] = toProductEntity(&docs[i])
	}
	return products, nil
}

func (r *productRepository) FindAll(ctx context.Context) ([]entity.Product, error) {
	return r.find(ctx, bson.M{})
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	var doc ProductDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	p := toProductEntity(&doc)
	return &p, nil
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []string) (map[string]entity.Product, error) {
	found := make(map[string]entity.Product, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	products, err := r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		found[p.ID] = p
	}
	return found, nil
}

func (r *productRepository) Upsert(ctx context.Context, p *entity.Product) error {
	p.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": p.ID}, toProductDocument(p), options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", p.ID, err)
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *productRepository) Seed(ctx context.Context, products []entity.Product) error {
	count, err := r.collection.EstimatedDocumentCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now()
	docs := make([]any, len(products))
	for i := range products {
		products[i].UpdatedAt = now
		docs[i] = toProductDocument(&products[i])
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	return nil
}

type bannerRepository struct {
	collection *mongo.Collection
}

func (r *bannerRepository) find(ctx context.Context, filter bson.M) ([]entity.Banner, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query banners: %w", err)
	}
	var docs []BannerDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode banners: %w", err)
	}

	banners := make([]entity.Banner, len(docs))
	for i := range docs {
		banners[i] = toBannerEntity(&docs[i])
	}
	return banners, nil
}

func (r *bannerRepository) FindAll(ctx context.Context) ([]entity.Banner, error) {
	return r.find(ctx, bson.M{})
}

func (r *bannerRepository) FindActive(ctx context.Context) ([]entity.Banner, error) {
	return r.find(ctx, bson.M{"active": true})
}

func (r *bannerRepository) FindByID(ctx context.Context, id string) (*entity.Banner, error) {
	var doc BannerDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find banner: %w", err)
	}
	b := toBannerEntity(&doc)
	return &b, nil
}

func (r *bannerRepository) Create(ctx context.Context, b *entity.Banner) error {
	_, err := r.collection.InsertOne(ctx, toBannerDocument(b))
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert banner: %w", err)
	}
	return nil
}

func (r *bannerRepository) Update(ctx context.Context, b *entity.Banner) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": b.ID}, toBannerDocument(b))
	if err != nil {
		return fmt.Errorf("failed to update banner %s: %w", b.ID, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *bannerRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete banner %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
