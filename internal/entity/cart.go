package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is a line in a user's cart. Price is the catalog price at the last sync.
type CartItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	// Stale marks a line whose product is no longer in the catalog.
	Stale bool `json:"stale,omitempty"`
}

// Cart is the single active cart of a user.
type Cart struct {
	UserID     string          `json:"user_id"`
	Items      []CartItem      `json:"items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// NewCart creates an empty cart for a user.
func NewCart(userID string) *Cart {
	return &Cart{
		UserID:     userID,
		Items:      []CartItem{},
		TotalPrice: decimal.Zero,
	}
}

// Recalculate derives every subtotal and the total from scratch.
// Totals are never adjusted incrementally.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	for i := range c.Items {
		c.Items[i].Subtotal = c.Items[i].Price.Mul(c.Items[i].Quantity)
		total = total.Add(c.Items[i].Subtotal)
	}
	c.TotalPrice = total
}

// Upsert replaces the line with the same product or appends a new one.
func (c *Cart) Upsert(item CartItem) {
	if idx := c.indexOf(item.ProductID); idx >= 0 {
		c.Items[idx] = item
	} else {
		c.Items = append(c.Items, item)
	}
	c.Recalculate()
}

// Remove drops the line for productID. It reports whether a line was removed.
func (c *Cart) Remove(productID string) bool {
	idx := c.indexOf(productID)
	if idx < 0 {
		return false
	}
	items := make([]CartItem, 0, len(c.Items)-1)
	items = append(items, c.Items[:idx]...)
	c.Items = append(items, c.Items[idx+1:]...)
	c.Recalculate()
	return true
}

// Clear empties the cart without deleting it.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.TotalPrice = decimal.Zero
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Item returns a copy of the line for productID.
func (c *Cart) Item(productID string) (CartItem, bool) {
	if idx := c.indexOf(productID); idx >= 0 {
		return c.Items[idx], true
	}
	return CartItem{}, false
}

func (c *Cart) ProductIDs() []string {
	ids := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

// Snapshot deep-copies the lines into order items.
func (c *Cart) Snapshot() []OrderItem {
	items := make([]OrderItem, len(c.Items))
	for i, item := range c.Items {
		items[i] = OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}
	return items
}

// Clone returns a deep copy of the cart.
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Items = make([]CartItem, len(c.Items))
	copy(cp.Items, c.Items)
	return &cp
}

func (c *Cart) indexOf(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
