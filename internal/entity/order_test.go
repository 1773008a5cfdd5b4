package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusOutForDelivery, true},
		{StatusOutForDelivery, StatusDelivered, true},
		{StatusPending, StatusDelivered, false},
		{StatusConfirmed, StatusCancelled, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusDelivered, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, OrderStatus("Shipped").Valid())
}

func TestOrder_Cancellable(t *testing.T) {
	for _, status := range []OrderStatus{StatusConfirmed, StatusOutForDelivery, StatusDelivered, StatusCancelled} {
		o := &Order{Status: status}
		assert.False(t, o.Cancellable(), status)
	}
	assert.True(t, (&Order{Status: StatusPending}).Cancellable())
}

func TestProduct_Validate(t *testing.T) {
	valid := Product{ID: "aloo", Name: "Aloo", Price: d("20"), Unit: UnitKg}
	assert.NoError(t, valid.Validate())

	bad := []Product{
		{ID: "Aloo Fresh", Name: "Aloo", Price: d("20"), Unit: UnitKg},
		{ID: "aloo", Name: " ", Price: d("20"), Unit: UnitKg},
		{ID: "aloo", Name: "Aloo", Price: d("-1"), Unit: UnitKg},
		{ID: "aloo", Name: "Aloo", Price: d("20"), Unit: "dozen"},
	}
	for _, p := range bad {
		assert.Error(t, p.Validate(), p.ID)
	}
}
