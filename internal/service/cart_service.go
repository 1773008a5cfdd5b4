package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/chandruydv805026/my-web/internal/entity"
	"github.com/chandruydv805026/my-web/internal/repository"
)

// maxQuantityPlaces bounds loose-produce quantities to whole grams.
const maxQuantityPlaces = 3

// CartService manages the single active cart of each user.
type CartService struct {
	carts      repository.CartRepository
	products   repository.ProductRepository
	reconciler *Reconciler
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository, reconciler *Reconciler) *CartService {
	return &CartService{
		carts:      carts,
		products:   products,
		reconciler: reconciler,
	}
}

// ItemInput is a requested cart line.
type ItemInput struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// load returns the stored cart or a new empty one. The bool reports whether it was created.
func (s *CartService) load(ctx context.Context, userID string) (*entity.Cart, bool, error) {
	cart, err := s.carts.FindByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return entity.NewCart(userID), true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load cart: %w", err)
	}
	return cart, false, nil
}

// GetCart returns the user's cart with current catalog prices, creating an
// empty cart when none exists. Corrected prices are persisted.
func (s *CartService) GetCart(ctx context.Context, userID string) (*entity.Cart, error) {
	cart, created, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	dirty, err := s.reconciler.Reconcile(ctx, cart)
	if err != nil {
		return nil, err
	}

	if created || dirty {
		if err := s.carts.Save(ctx, cart); err != nil {
			return nil, fmt.Errorf("failed to save cart: %w", err)
		}
	}
	return cart, nil
}

// SyncItem sets the quantity of one product in the cart. Repeating the same
// call leaves the cart unchanged.
func (s *CartService) SyncItem(ctx context.Context, userID string, in ItemInput) (*entity.Cart, error) {
	return s.mutateItem(ctx, userID, in, func(existing entity.CartItem, found bool) decimal.Decimal {
		return in.Quantity
	})
}

// AddItem increases the quantity of one product in the cart.
func (s *CartService) AddItem(ctx context.Context, userID string, in ItemInput) (*entity.Cart, error) {
	return s.mutateItem(ctx, userID, in, func(existing entity.CartItem, found bool) decimal.Decimal {
		if !found {
			return in.Quantity
		}
		return existing.Quantity.Add(in.Quantity)
	})
}

func (s *CartService) mutateItem(ctx context.Context, userID string, in ItemInput, quantity func(entity.CartItem, bool) decimal.Decimal) (*entity.Cart, error) {
	if in.ProductID == "" {
		return nil, validationError("product_id is required")
	}
	if !in.Quantity.IsPositive() {
		return nil, validationError("quantity must be greater than zero")
	}
	if !in.Quantity.Equal(in.Quantity.Truncate(maxQuantityPlaces)) {
		return nil, validationError("quantity can have at most %d decimal places", maxQuantityPlaces)
	}

	product, err := s.products.FindByID(ctx, in.ProductID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if !product.InStock {
		return nil, ErrOutOfStock
	}
	if product.Unit == entity.UnitPiece && !in.Quantity.Equal(in.Quantity.Truncate(0)) {
		return nil, validationError("%s is sold per piece, quantity must be a whole number", product.Name)
	}

	cart, _, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, found := cart.Item(product.ID)
	name := in.Name
	if name == "" {
		name = product.Name
	}
	qty := quantity(existing, found)
	cart.Upsert(entity.CartItem{
		ProductID: product.ID,
		Name:      name,
		Quantity:  qty,
		Price:     product.Price,
	})

	if _, err := s.reconciler.Reconcile(ctx, cart); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	slog.Info("Service: Cart line updated", "user_id", userID, "product_id", product.ID, "quantity", qty)
	return cart, nil
}

// RemoveItem drops a product from the cart. Removing an absent product is not an error.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*entity.Cart, error) {
	cart, created, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	removed := cart.Remove(productID)
	dirty, err := s.reconciler.Reconcile(ctx, cart)
	if err != nil {
		return nil, err
	}

	if created || removed || dirty {
		if err := s.carts.Save(ctx, cart); err != nil {
			return nil, fmt.Errorf("failed to save cart: %w", err)
		}
	}
	return cart, nil
}

// ClearCart empties the cart without deleting it.
func (s *CartService) ClearCart(ctx context.Context, userID string) (*entity.Cart, error) {
	cart, _, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.Clear()
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return cart, nil
}
