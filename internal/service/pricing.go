package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chandruydv805026/my-web/internal/entity"
	"github.com/chandruydv805026/my-web/internal/repository"
)

// Reconciler brings cart prices in line with the catalog.
type Reconciler struct {
	products repository.ProductRepository
}

func NewReconciler(products repository.ProductRepository) *Reconciler {
	return &Reconciler{products: products}
}

// Reconcile overwrites every drifted line price with the current catalog
// price and re-derives all subtotals and the total. Lines whose product left
// the catalog keep their stored price and are flagged stale. It reports
// whether the cart differs from what was stored.
func (r *Reconciler) Reconcile(ctx context.Context, cart *entity.Cart) (bool, error) {
	if cart.IsEmpty() {
		dirty := !cart.TotalPrice.IsZero()
		cart.Recalculate()
		return dirty, nil
	}

	products, err := r.products.FindByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return false, fmt.Errorf("failed to load catalog prices: %w", err)
	}

	dirty := false
	for i := range cart.Items {
		item := &cart.Items[i]

		product, ok := products[item.ProductID]
		if !ok {
			if !item.Stale {
				slog.Warn("Cart line references a product missing from the catalog",
					"user_id", cart.UserID, "product_id", item.ProductID)
				item.Stale = true
				dirty = true
			}
			continue
		}
		if item.Stale {
			item.Stale = false
			dirty = true
		}
		if !item.Price.Equal(product.Price) {
			slog.Debug("Price drift corrected",
				"user_id", cart.UserID, "product_id", item.ProductID,
				"old_price", item.Price, "new_price", product.Price)
			item.Price = product.Price
			dirty = true
		}
	}

	before := cart.Clone()
	cart.Recalculate()
	if !dirty {
		dirty = !before.TotalPrice.Equal(cart.TotalPrice)
		for i := range cart.Items {
			if !before.Items[i].Subtotal.Equal(cart.Items[i].Subtotal) {
				dirty = true
			}
		}
	}
	return dirty, nil
}
