// Package memory keeps every repository in process. It backs tests and local
// development without a database.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/chandruydv805026/my-web/internal/entity"
	"github.com/chandruydv805026/my-web/internal/repository"
)

type cartRecord struct {
	cart      *entity.Cart
	expiresAt time.Time
}

// db is shared by all repositories of one store so that Checkout can update
// orders and carts under a single lock.
type db struct {
	mu sync.RWMutex

	products map[string]entity.Product
	banners  map[string]*entity.Banner
	users    map[string]*entity.User
	carts    map[string]cartRecord
	orders   map[string]*entity.Order
	events   map[string][]entity.EventRecord

	cartTTL   time.Duration
	retention time.Duration
	now       func() time.Time
}

// Option customises an in-memory store.
type Option func(*db)

// WithClock replaces time.Now, mainly for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(d *db) { d.now = now }
}

// WithOrderRetention drops orders older than ttl on read. Zero keeps them forever.
func WithOrderRetention(ttl time.Duration) Option {
	return func(d *db) { d.retention = ttl }
}

// NewStore creates an empty in-memory store. Carts idle for longer than
// cartTTL disappear; zero disables expiry.
func NewStore(cartTTL time.Duration, opts ...Option) *repository.Store {
	d := &db{
		products: make(map[string]entity.Product),
		banners:  make(map[string]*entity.Banner),
		users:    make(map[string]*entity.User),
		carts:    make(map[string]cartRecord),
		orders:   make(map[string]*entity.Order),
		events:   make(map[string][]entity.EventRecord),
		cartTTL:  cartTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}

	return repository.NewStore(repository.Store{
		Products: &productRepository{db: d},
		Banners:  &bannerRepository{db: d},
		Users:    &userRepository{db: d},
		Carts:    &cartRepository{db: d},
		Orders:   &orderRepository{db: d},
		Events:   &eventStore{db: d},
		Checkout: &checkout{db: d},
	}, func(context.Context) error { return nil })
}
