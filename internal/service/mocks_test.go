package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chandruydv805026/my-web/internal/entity"
	"github.com/chandruydv805026/my-web/internal/notify"
	"github.com/chandruydv805026/my-web/internal/repository"
	"github.com/chandruydv805026/my-web/internal/repository/memory"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	args := m.Called(ctx, topic, key, event)
	return args.Error(0)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg notify.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type MockCheckout struct {
	mock.Mock
}

func (m *MockCheckout) PlaceOrder(ctx context.Context, o *entity.Order, cart *entity.Cart) error {
	args := m.Called(ctx, o, cart)
	return args.Error(0)
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

const testUser = "user-1"

type fixture struct {
	store     *repository.Store
	publisher *MockPublisher
	carts     *CartService
	orders    *OrderService
	catalog   *CatalogService
}

// newFixture builds the services over a seeded in-memory store with one
// registered customer.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, memory.NewStore(0))
}

func newFixtureWithStore(t *testing.T, store *repository.Store) *fixture {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.Products.Seed(ctx, repository.DefaultProducts()))
	require.NoError(t, store.Users.Create(ctx, &entity.User{
		ID:      testUser,
		Name:    "Ravi Kumar",
		Phone:   "9876543210",
		Email:   "ravi@example.com",
		Address: "12 MG Road",
		Area:    "Indiranagar",
		Pincode: "560038",
	}))

	publisher := new(MockPublisher)
	reconciler := NewReconciler(store.Products)
	return &fixture{
		store:     store,
		publisher: publisher,
		carts:     NewCartService(store.Carts, store.Products, reconciler),
		orders:    NewOrderService(store, reconciler, publisher),
		catalog:   NewCatalogService(store.Products, store.Banners),
	}
}

func (f *fixture) setPrice(t *testing.T, id, price string) {
	t.Helper()
	p, err := f.store.Products.FindByID(context.Background(), id)
	require.NoError(t, err)
	p.Price = d(price)
	require.NoError(t, f.catalog.SaveProduct(context.Background(), p))
}

func (f *fixture) sync(t *testing.T, id, qty string) *entity.Cart {
	t.Helper()
	cart, err := f.carts.SyncItem(context.Background(), testUser, ItemInput{ProductID: id, Quantity: d(qty)})
	require.NoError(t, err)
	return cart
}
