package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/chandruydv805026/my-web/internal/entity"
	"github.com/chandruydv805026/my-web/internal/messaging"
	"github.com/chandruydv805026/my-web/internal/repository"
)

const defaultRecentOrders = 50

var (
	tracer = otel.Tracer("github.com/chandruydv805026/my-web/internal/service")

	phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
)

// OrderService orchestrates order placement and the order lifecycle.
type OrderService struct {
	orders     repository.OrderRepository
	carts      repository.CartRepository
	users      repository.UserRepository
	eventStore repository.EventStore
	checkout   repository.Checkout
	reconciler *Reconciler
	publisher  messaging.Publisher
	now        func() time.Time
}

func NewOrderService(store *repository.Store, reconciler *Reconciler, publisher messaging.Publisher) *OrderService {
	return &OrderService{
		orders:     store.Orders,
		carts:      store.Carts,
		users:      store.Users,
		eventStore: store.Events,
		checkout:   store.Checkout,
		reconciler: reconciler,
		publisher:  publisher,
		now:        time.Now,
	}
}

// PlaceOrderInput carries the delivery details of an order. Empty fields fall
// back to the user's profile.
type PlaceOrderInput struct {
	CustomerName    string             `json:"customer_name"`
	Phone           string             `json:"phone"`
	DeliveryAddress string             `json:"delivery_address"`
	PaymentMode     entity.PaymentMode `json:"payment_mode"`
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// PlaceOrder turns the user's cart into a Pending order priced at current
// catalog prices, then empties the cart. The cart is only cleared after the
// order has been saved.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (_ *entity.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.PlaceOrder", trace.WithAttributes(attribute.String("user.id", userID)))
	defer func() { endSpan(span, err) }()

	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := in.resolve(user); err != nil {
		return nil, err
	}

	cart, err := s.carts.FindByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	if _, err := s.reconciler.Reconcile(ctx, cart); err != nil {
		return nil, err
	}
	var unavailable []string
	for _, item := range cart.Items {
		if item.Stale {
			unavailable = append(unavailable, item.Name)
		}
	}
	if len(unavailable) > 0 {
		return nil, newError(ErrConflict, "no longer available: "+strings.Join(unavailable, ", "))
	}

	now := s.now()
	order := &entity.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		CustomerName:    in.CustomerName,
		Phone:           in.Phone,
		Items:           cart.Snapshot(),
		TotalAmount:     cart.TotalPrice,
		DeliveryAddress: in.DeliveryAddress,
		PaymentMode:     in.PaymentMode,
		Status:          entity.StatusPending,
		OrderDate:       now,
		UpdatedAt:       now,
	}
	span.SetAttributes(attribute.String("order.id", order.ID), attribute.Int("order.items", len(order.Items)))
	slog.Info("Service: Placing order", "order_id", order.ID, "user_id", userID, "items", len(order.Items), "total", order.TotalAmount)

	cleared := cart.Clone()
	cleared.Clear()

	if s.checkout != nil {
		if err := s.checkout.PlaceOrder(ctx, order, cleared); err != nil {
			return nil, fmt.Errorf("failed to save order: %w", err)
		}
	} else if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.record(ctx, order.ID, entity.NewOrderPlaced(order, user.Email))
	s.publish(ctx, messaging.TopicOrderPlaced, order.ID, entity.NewOrderPlaced(order, user.Email))

	if s.checkout == nil {
		if err := s.carts.Save(ctx, cleared); err != nil {
			slog.Error("Failed to clear cart after order", "order_id", order.ID, "user_id", userID, "err", err)
		}
	}

	return order, nil
}

func (in *PlaceOrderInput) resolve(user *entity.User) error {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	if in.CustomerName == "" {
		in.CustomerName = user.Name
	}
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Phone == "" {
		in.Phone = user.Phone
	}
	in.DeliveryAddress = strings.TrimSpace(in.DeliveryAddress)
	if in.DeliveryAddress == "" {
		in.DeliveryAddress = joinNonEmpty(user.Address, user.Area, user.Pincode)
	}
	if in.PaymentMode == "" {
		in.PaymentMode = entity.PaymentCOD
	}

	switch {
	case in.CustomerName == "":
		return validationError("customer name is required")
	case !phonePattern.MatchString(in.Phone):
		return validationError("phone must be a 10 digit mobile number")
	case in.DeliveryAddress == "":
		return validationError("delivery address is required")
	case !in.PaymentMode.Valid():
		return validationError("unsupported payment mode %q", in.PaymentMode)
	}
	return nil
}

// CancelOrder cancels one of the user's orders while it is still Pending.
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID string) (_ *entity.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.CancelOrder", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer func() { endSpan(span, err) }()

	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Cancellable() {
		return nil, ErrOrderNotCancellable
	}

	if err := s.orders.UpdateStatus(ctx, orderID, entity.StatusPending, entity.StatusCancelled); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrOrderNotCancellable
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	now := s.now()
	order.Status = entity.StatusCancelled
	order.UpdatedAt = now
	slog.Info("Service: Order cancelled", "order_id", orderID, "user_id", userID)

	event := entity.OrderCancelled{
		OrderID:      order.ID,
		UserID:       order.UserID,
		CustomerName: order.CustomerName,
		Phone:        order.Phone,
		TotalAmount:  order.TotalAmount,
		CancelledAt:  now,
	}
	s.record(ctx, order.ID, event)
	s.publish(ctx, messaging.TopicOrderCancelled, order.ID, event)
	return order, nil
}

// UpdateStatus moves an order forward along its lifecycle. Admin only.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, to entity.OrderStatus) (_ *entity.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.UpdateStatus", trace.WithAttributes(
		attribute.String("order.id", orderID), attribute.String("order.status", string(to))))
	defer func() { endSpan(span, err) }()

	if !to.Valid() {
		return nil, validationError("unknown status %q", to)
	}

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if !entity.CanTransition(from, to) {
		return nil, newError(ErrInvalidTransition, fmt.Sprintf("cannot move order from %s to %s", from, to))
	}

	if err := s.orders.UpdateStatus(ctx, orderID, from, to); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, newError(ErrConflict, "order status changed concurrently, reload and retry")
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	now := s.now()
	order.Status = to
	order.UpdatedAt = now
	slog.Info("Service: Order status changed", "order_id", orderID, "from", from, "to", to)

	event := entity.OrderStatusChanged{
		OrderID:   order.ID,
		UserID:    order.UserID,
		From:      from,
		To:        to,
		ChangedAt: now,
	}
	s.record(ctx, order.ID, event)
	s.publish(ctx, messaging.TopicOrderStatusChanged, order.ID, event)
	return order, nil
}

// ListOrders returns the user's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]entity.Order, error) {
	orders, err := s.orders.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// GetOrder returns one of the user's orders. Orders of other users are reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*entity.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) findOrder(ctx context.Context, orderID string) (*entity.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}

// RecentOrders returns the latest orders across all users.
func (s *OrderService) RecentOrders(ctx context.Context, limit int) ([]entity.Order, error) {
	if limit <= 0 {
		limit = defaultRecentOrders
	}
	return s.orders.FindRecent(ctx, limit)
}

// History returns the recorded lifecycle events of an order.
func (s *OrderService) History(ctx context.Context, orderID string) ([]entity.EventRecord, error) {
	if _, err := s.findOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return s.eventStore.Load(ctx, orderID)
}

// record appends to the order history. Failures are logged only.
func (s *OrderService) record(ctx context.Context, orderID string, event entity.Event) {
	if err := s.eventStore.Append(ctx, orderID, event); err != nil {
		slog.Error("Failed to append order event", "order_id", orderID, "event", event.EventType(), "err", err)
	}
}

func (s *OrderService) publish(ctx context.Context, topic, key string, event entity.Event) {
	if err := s.publisher.PublishEvent(ctx, topic, key, event); err != nil {
		slog.Error("Failed to publish event", "topic", topic, "key", key, "event", event.EventType(), "err", err)
	}
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
