package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chandruydv805026/my-web/internal/entity"
	"github.com/chandruydv805026/my-web/internal/messaging"
	"github.com/chandruydv805026/my-web/internal/repository/memory"
)

func (f *fixture) fillCart(t *testing.T) {
	t.Helper()
	f.sync(t, "aloo", "2")     // 60
	f.sync(t, "tomato", "0.5") // 20
	f.sync(t, "palak", "1")    // 20
	f.sync(t, "nimbu", "2")    // 10
}

func (f *fixture) expectPublish(topic string, event string) *mock.Call {
	return f.publisher.On("PublishEvent", mock.Anything, topic, mock.AnythingOfType("string"), mock.AnythingOfType(event))
}

func TestOrderService_PlaceOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fillCart(t)

	f.expectPublish(messaging.TopicOrderPlaced, "entity.OrderPlaced").
		Return(nil).
		Run(func(args mock.Arguments) {
			e := args.Get(3).(entity.OrderPlaced)
			assert.Equal(t, "ravi@example.com", e.CustomerEmail)
			assert.True(t, e.TotalAmount.Equal(d("110")))
		})

	order, err := f.orders.PlaceOrder(ctx, testUser, PlaceOrderInput{})
	require.NoError(t, err)

	assert.Equal(t, entity.StatusPending, order.Status)
	assert.True(t, order.TotalAmount.Equal(d("110")))
	assert.Len(t, order.Items, 4)
	assert.Equal(t, "Ravi Kumar", order.CustomerName)
	assert.Equal(t, "12 MG Road, Indiranagar, 560038", order.DeliveryAddress)
	assert.Equal(t, entity.PaymentCOD, order.PaymentMode)

	cart, err := f.store.Carts.FindByUser(ctx, testUser)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty(), "cart is cleared once the order is saved")

	history, err := f.orders.History(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "OrderPlaced", history[0].EventType)

	f.publisher.AssertExpectations(t)
}

func TestOrderService_PlaceOrderUsesCurrentPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.setPrice(t, "aloo", "20")
	f.sync(t, "aloo", "2")
	f.setPrice(t, "aloo", "25")
	f.expectPublish(messaging.TopicOrderPlaced, "entity.OrderPlaced").Return(nil)

	order, err := f.orders.PlaceOrder(ctx, testUser, PlaceOrderInput{})
	require.NoError(t, err)
	assert.True(t, order.Items[0].Price.Equal(d("25")))
	assert.True(t, order.TotalAmount.Equal(d("50")))
}

func TestOrderService_PlaceOrderRejectsEmptyCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orders.PlaceOrder(ctx, testUser, PlaceOrderInput{})
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = f.carts.GetCart(ctx, testUser)
	require.NoError(t, err)
	_, err = f.orders.PlaceOrder(ctx, testUser, PlaceOrderInput{})
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.ErrorIs(t, err, ErrConflict)

	orders, err := f.orders.ListOrders(ctx, testUser)
	require.NoError(t, err)
	assert.Empty(t, orders)
	f.publisher.AssertNotCalled(t, "PublishEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_PlaceOrderValidatesInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sync(t, "aloo", "1")

	_, err := f.orders.PlaceOrder(ctx, testUser, PlaceOrderInput{Phone: "12345"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.orders.PlaceOrder(ctx, testUser, PlaceOrderInput{PaymentMode: "Bitcoin"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.orders.PlaceOrder(ctx, "ghost", PlaceOrderInput{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestOrderService_PlaceOrderRejectsStaleLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.sync(t, "aloo", "1")
	f.sync(t, "pyaz", "1")
	require.NoError(t, f.catalog.DeleteProduct(ctx, "pyaz"))

	_, err := f.orders.PlaceOrder(ctx, testUser, PlaceOrderInput{})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "Pyaz")

	cart, err := f.store.Carts.FindByUser(ctx, testUser)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
}

func TestOrderService_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sync(t, "aloo", "1")

	f.expectPublish(messaging.TopicOrderPlaced, "entity.OrderPlaced").Return(errors.New("broker down"))

	order, err := f.orders.PlaceOrder(ctx, testUser, PlaceOrderInput{})
	require.NoError(t, err)

	stored, err := f.orders.GetOrder(ctx, testUser, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, stored.Status)
	f.publisher.AssertExpectations(t)
}

func TestOrderService_PersistFailureKeepsCart(t *testing.T) {
	base := memory.NewStore(0)
	checkout := new(MockCheckout)
	store := *base
	store.Checkout = checkout

	f := newFixtureWithStore(t, &store)
	ctx := context.Background()
	f.sync(t, "aloo", "2")

	boom := errors.New("disk full")
	checkout.On("PlaceOrder", mock.Anything, mock.AnythingOfType("*entity.Order"), mock.AnythingOfType("*entity.Cart")).
		Return(boom)

	_, err := f.orders.PlaceOrder(ctx, testUser, PlaceOrderInput{})
	assert.ErrorIs(t, err, boom)

	cart, err := f.store.Carts.FindByUser(ctx, testUser)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	assert.True(t, cart.TotalPrice.Equal(d("60")))

	orders, err := f.orders.ListOrders(ctx, testUser)
	require.NoError(t, err)
	assert.Empty(t, orders)

	checkout.AssertExpectations(t)
	f.publisher.AssertNotCalled(t, "PublishEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_PlaceOrderWithoutCheckoutClearsCartAfterSave(t *testing.T) {
	base := memory.NewStore(0)
	store := *base
	store.Checkout = nil

	f := newFixtureWithStore(t, &store)
	ctx := context.Background()
	f.sync(t, "aloo", "1")
	f.expectPublish(messaging.TopicOrderPlaced, "entity.OrderPlaced").Return(nil)

	order, err := f.orders.PlaceOrder(ctx, testUser, PlaceOrderInput{})
	require.NoError(t, err)

	_, err = f.store.Orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	cart, err := f.store.Carts.FindByUser(ctx, testUser)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestOrderService_OrderIsImmutableAfterPriceChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sync(t, "aloo", "2")
	f.expectPublish(messaging.TopicOrderPlaced, "entity.OrderPlaced").Return(nil)

	order, err := f.orders.PlaceOrder(ctx, testUser, PlaceOrderInput{})
	require.NoError(t, err)

	f.setPrice(t, "aloo", "99")

	stored, err := f.orders.GetOrder(ctx, testUser, order.ID)
	require.NoError(t, err)
	assert.True(t, stored.Items[0].Price.Equal(d("30")))
	assert.True(t, stored.TotalAmount.Equal(d("60")))
}

func TestOrderService_CancelOrderOnlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sync(t, "aloo", "1")
	f.expectPublish(messaging.TopicOrderPlaced, "entity.OrderPlaced").Return(nil)
	f.expectPublish(messaging.TopicOrderCancelled, "entity.OrderCancelled").Return(nil).Once()

	order, err := f.orders.PlaceOrder(ctx, testUser, PlaceOrderInput{})
	require.NoError(t, err)

	cancelled, err := f.orders.CancelOrder(ctx, testUser, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, cancelled.Status)

	_, err = f.orders.CancelOrder(ctx, testUser, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotCancellable)

	history, err := f.orders.History(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "OrderCancelled", history[1].EventType)
	assert.Equal(t, 2, history[1].Version)

	f.publisher.AssertExpectations(t)
}

func TestOrderService_CancelOtherUsersOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sync(t, "aloo", "1")
	f.expectPublish(messaging.TopicOrderPlaced, "entity.OrderPlaced").Return(nil)

	order, err := f.orders.PlaceOrder(ctx, testUser, PlaceOrderInput{})
	require.NoError(t, err)

	_, err = f.orders.CancelOrder(ctx, "someone-else", order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = f.orders.CancelOrder(ctx, testUser, "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderService_UpdateStatusFollowsLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.sync(t, "aloo", "1")
	f.expectPublish(messaging.TopicOrderPlaced, "entity.OrderPlaced").Return(nil)
	f.expectPublish(messaging.TopicOrderStatusChanged, "entity.OrderStatusChanged").Return(nil).Times(3)

	order, err := f.orders.PlaceOrder(ctx, testUser, PlaceOrderInput{})
	require.NoError(t, err)

	_, err = f.orders.UpdateStatus(ctx, order.ID, entity.StatusDelivered)
	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.EqualError(t, err, "cannot move order from Pending to Delivered")

	_, err = f.orders.UpdateStatus(ctx, order.ID, "Lost")
	assert.ErrorIs(t, err, ErrValidation)

	for _, next := range []entity.OrderStatus{entity.StatusConfirmed, entity.StatusOutForDelivery, entity.StatusDelivered} {
		updated, err := f.orders.UpdateStatus(ctx, order.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}

	_, err = f.orders.CancelOrder(ctx, testUser, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotCancellable)

	recent, err := f.orders.RecentOrders(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, entity.StatusDelivered, recent[0].Status)

	f.publisher.AssertExpectations(t)
}
