package entity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sumSubtotals(c *Cart) decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal)
	}
	return total
}

func TestCart_UpsertAppendsAndReplaces(t *testing.T) {
	cart := NewCart("user-1")

	cart.Upsert(CartItem{ProductID: "aloo", Name: "Aloo", Quantity: d("2"), Price: d("20")})
	cart.Upsert(CartItem{ProductID: "tomato", Name: "Tomato", Quantity: d("0.25"), Price: d("40")})

	require.Len(t, cart.Items, 2)
	assert.True(t, cart.TotalPrice.Equal(d("50")))

	cart.Upsert(CartItem{ProductID: "aloo", Name: "Aloo", Quantity: d("3"), Price: d("20")})

	require.Len(t, cart.Items, 2)
	assert.Equal(t, "aloo", cart.Items[0].ProductID, "replaced line keeps its position")
	assert.True(t, cart.Items[0].Subtotal.Equal(d("60")))
	assert.True(t, cart.TotalPrice.Equal(d("70")))
	assert.True(t, cart.TotalPrice.Equal(sumSubtotals(cart)))
}

func TestCart_UpsertIsIdempotent(t *testing.T) {
	once := NewCart("user-1")
	once.Upsert(CartItem{ProductID: "aloo", Name: "Aloo", Quantity: d("1.5"), Price: d("30")})

	twice := NewCart("user-1")
	twice.Upsert(CartItem{ProductID: "aloo", Name: "Aloo", Quantity: d("1.5"), Price: d("30")})
	twice.Upsert(CartItem{ProductID: "aloo", Name: "Aloo", Quantity: d("1.5"), Price: d("30")})

	assert.Equal(t, once.Items, twice.Items)
	assert.True(t, once.TotalPrice.Equal(twice.TotalPrice))
}

func TestCart_RemoveRecomputesTotal(t *testing.T) {
	cart := NewCart("user-1")
	cart.Upsert(CartItem{ProductID: "aloo", Quantity: d("2"), Price: d("20")})
	cart.Upsert(CartItem{ProductID: "pyaz", Quantity: d("1"), Price: d("35")})

	assert.True(t, cart.Remove("aloo"))
	assert.False(t, cart.Remove("aloo"))

	require.Len(t, cart.Items, 1)
	assert.True(t, cart.TotalPrice.Equal(d("35")))
}

func TestCart_RemoveLeavesPreviousItemsUntouched(t *testing.T) {
	cart := NewCart("user-1")
	cart.Upsert(CartItem{ProductID: "a", Quantity: d("1"), Price: d("1")})
	cart.Upsert(CartItem{ProductID: "b", Quantity: d("1"), Price: d("2")})
	cart.Upsert(CartItem{ProductID: "c", Quantity: d("1"), Price: d("3")})
	before := cart.Items

	require.True(t, cart.Remove("a"))

	ids := make([]string, 0, len(before))
	for _, item := range before {
		ids = append(ids, item.ProductID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Equal(t, []string{"b", "c"}, cart.ProductIDs())

	require.True(t, cart.Remove("b"))
	require.True(t, cart.Remove("c"))
	assert.NotNil(t, cart.Items)
	assert.Empty(t, cart.Items)
}

func TestCart_RecalculateRepairsCorruptTotals(t *testing.T) {
	cart := &Cart{
		UserID: "user-1",
		Items: []CartItem{
			{ProductID: "aloo", Quantity: d("2"), Price: d("20"), Subtotal: d("999")},
			{ProductID: "pyaz", Quantity: d("0.5"), Price: d("60"), Subtotal: d("0")},
		},
		TotalPrice: d("1"),
	}

	cart.Recalculate()

	assert.True(t, cart.Items[0].Subtotal.Equal(d("40")))
	assert.True(t, cart.Items[1].Subtotal.Equal(d("30")))
	assert.True(t, cart.TotalPrice.Equal(d("70")))
}

func TestCart_ClearAndSnapshot(t *testing.T) {
	cart := NewCart("user-1")
	cart.Upsert(CartItem{ProductID: "aloo", Name: "Aloo", Quantity: d("2"), Price: d("20")})

	snapshot := cart.Snapshot()
	cart.Items[0].Price = d("99")
	cart.Clear()

	assert.True(t, cart.IsEmpty())
	assert.True(t, cart.TotalPrice.IsZero())
	require.Len(t, snapshot, 1)
	assert.True(t, snapshot[0].Price.Equal(d("20")), "snapshot must not share memory with the cart")
}

func TestCart_CloneIsDeep(t *testing.T) {
	cart := NewCart("user-1")
	cart.Upsert(CartItem{ProductID: "aloo", Quantity: d("1"), Price: d("20")})

	cp := cart.Clone()
	cp.Items[0].Price = d("50")

	assert.True(t, cart.Items[0].Price.Equal(d("20")))
}
