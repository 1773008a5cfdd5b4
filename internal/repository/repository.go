package repository

import (
	"context"
	"time"

	"github.com/chandruydv805026/my-web/internal/entity"
)

// ProductRepository handles persistence for catalog products.
type ProductRepository interface {
	FindAll(ctx context.Context) ([]entity.Product, error)
	FindByID(ctx context.Context, id string) (*entity.Product, error)
	// FindByIDs returns the products that exist, keyed by id. Missing ids are simply absent.
	FindByIDs(ctx context.Context, ids []string) (map[string]entity.Product, error)
	Upsert(ctx context.Context, p *entity.Product) error
	Delete(ctx context.Context, id string) error
	// Seed inserts initial products if none exist.
	Seed(ctx context.Context, products []entity.Product) error
}

// BannerRepository handles persistence for storefront banners.
type BannerRepository interface {
	FindAll(ctx context.Context) ([]entity.Banner, error)
	FindActive(ctx context.Context) ([]entity.Banner, error)
	FindByID(ctx context.Context, id string) (*entity.Banner, error)
	Create(ctx context.Context, b *entity.Banner) error
	Update(ctx context.Context, b *entity.Banner) error
	Delete(ctx context.Context, id string) error
}

// UserRepository handles persistence for customers.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByPhone(ctx context.Context, phone string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
}

// CartRepository stores one cart per user. A cart idle longer than the
// configured TTL behaves as if it did not exist.
type CartRepository interface {
	FindByUser(ctx context.Context, userID string) (*entity.Cart, error)
	// Save replaces the whole cart document and refreshes its expiry.
	Save(ctx context.Context, cart *entity.Cart) error
}

// OrderRepository handles persistence for orders.
type OrderRepository interface {
	Create(ctx context.Context, o *entity.Order) error
	FindByID(ctx context.Context, id string) (*entity.Order, error)
	// FindByUser returns a user's orders, newest first.
	FindByUser(ctx context.Context, userID string) ([]entity.Order, error)
	FindRecent(ctx context.Context, limit int) ([]entity.Order, error)
	// UpdateStatus moves an order from one status to another. It returns
	// ErrConflict when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to entity.OrderStatus) error
}

// EventStore keeps the append-only history of each order.
type EventStore interface {
	Append(ctx context.Context, streamID string, events ...entity.Event) error
	Load(ctx context.Context, streamID string) ([]entity.EventRecord, error)
}

// Checkout is implemented by backends that can persist an order and the
// emptied cart in a single transaction.
type Checkout interface {
	PlaceOrder(ctx context.Context, o *entity.Order, cart *entity.Cart) error
}

// OTPStore keeps short-lived login codes.
type OTPStore interface {
	Save(ctx context.Context, phone, code string, ttl time.Duration) error
	// Verify consumes the code on success. After maxAttempts wrong guesses the
	// code is deleted and ErrOTPLocked is returned.
	Verify(ctx context.Context, phone, code string, maxAttempts int) error
	Delete(ctx context.Context, phone string) error
}

// SubscriptionStore keeps web-push subscriptions per user.
type SubscriptionStore interface {
	Add(ctx context.Context, userID string, sub entity.PushSubscription) error
	ListByUser(ctx context.Context, userID string) ([]entity.PushSubscription, error)
	ListAll(ctx context.Context) ([]entity.PushSubscription, error)
	Remove(ctx context.Context, userID, endpoint string) error
}

// Store bundles the repositories of one storage backend.
type Store struct {
	Products ProductRepository
	Banners  BannerRepository
	Users    UserRepository
	Carts    CartRepository
	Orders   OrderRepository
	Events   EventStore
	// Checkout is nil when the backend has no multi-document transactions.
	Checkout Checkout

	closer func(ctx context.Context) error
}

// NewStore wires a Store with the function that releases its resources.
func NewStore(s Store, closer func(ctx context.Context) error) *Store {
	s.closer = closer
	return &s
}

func (s *Store) Close(ctx context.Context) error {
	if s.closer == nil {
		return nil
	}
	return s.closer(ctx)
}
