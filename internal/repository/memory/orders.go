package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/chandruydv805026/my-web/internal/entity"
	"github.com/chandruydv805026/my-web/internal/repository"
)

type cartRepository struct {
	db *db
}

func (r *cartRepository) FindByUser(ctx context.Context, userID string) (*entity.Cart, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	rec, ok := r.db.carts[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !rec.expiresAt.IsZero() && !r.db.now().Before(rec.expiresAt) {
		delete(r.db.carts, userID)
		return nil, repository.ErrNotFound
	}
	return rec.cart.Clone(), nil
}

func (r *cartRepository) Save(ctx context.Context, cart *entity.Cart) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.saveCart(cart)
	return nil
}

// saveCart must be called with the write lock held.
func (d *db) saveCart(cart *entity.Cart) {
	now := d.now()
	cart.UpdatedAt = now
	rec := cartRecord{cart: cart.Clone()}
	if d.cartTTL > 0 {
		rec.expiresAt = now.Add(d.cartTTL)
	}
	d.carts[cart.UserID] = rec
}

type orderRepository struct {
	db *db
}

func (r *orderRepository) Create(ctx context.Context, o *entity.Order) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	return r.db.createOrder(o)
}

// createOrder must be called with the write lock held.
func (d *db) createOrder(o *entity.Order) error {
	if _, exists := d.orders[o.ID]; exists {
		return repository.ErrAlreadyExists
	}
	d.orders[o.ID] = o.Clone()
	return nil
}

func (d *db) expired(o *entity.Order) bool {
	return d.retention > 0 && d.now().Sub(o.OrderDate) >= d.retention
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*entity.Order, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	o, ok := r.db.orders[id]
	if !ok || r.db.expired(o) {
		return nil, repository.ErrNotFound
	}
	return o.Clone(), nil
}

func (r *orderRepository) FindByUser(ctx context.Context, userID string) ([]entity.Order, error) {
	return r.list(func(o *entity.Order) bool { return o.UserID == userID }, 0), nil
}

func (r *orderRepository) FindRecent(ctx context.Context, limit int) ([]entity.Order, error) {
	return r.list(func(*entity.Order) bool { return true }, limit), nil
}

func (r *orderRepository) list(keep func(*entity.Order) bool, limit int) []entity.Order {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	orders := make([]entity.Order, 0)
	for _, o := range r.db.orders {
		if keep(o) && !r.db.expired(o) {
			orders = append(orders, *o.Clone())
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].OrderDate.After(orders[j].OrderDate) })
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, from, to entity.OrderStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	o, ok := r.db.orders[id]
	if !ok || r.db.expired(o) {
		return repository.ErrNotFound
	}
	if o.Status != from {
		return repository.ErrConflict
	}
	o.Status = to
	o.UpdatedAt = r.db.now()
	return nil
}

type checkout struct {
	db *db
}

func (c *checkout) PlaceOrder(ctx context.Context, o *entity.Order, cart *entity.Cart) error {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	if err := c.db.createOrder(o); err != nil {
		return err
	}
	c.db.saveCart(cart)
	return nil
}

type eventStore struct {
	db *db
}

func (s *eventStore) Append(ctx context.Context, streamID string, events ...entity.Event) error {
	if len(events) == 0 {
		return nil
	}

	records := make([]entity.EventRecord, 0, len(events))
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
		}
		records = append(records, entity.EventRecord{
			ID:        uuid.NewString(),
			StreamID:  streamID,
			EventType: event.EventType(),
			Payload:   payload,
		})
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	version := len(s.db.events[streamID])
	now := s.db.now()
	for i := range records {
		version++
		records[i].Version = version
		records[i].CreatedAt = now
	}
	s.db.events[streamID] = append(s.db.events[streamID], records...)
	return nil
}

func (s *eventStore) Load(ctx context.Context, streamID string) ([]entity.EventRecord, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	stored := s.db.events[streamID]
	records := make([]entity.EventRecord, len(stored))
	copy(records, stored)
	return records, nil
}
