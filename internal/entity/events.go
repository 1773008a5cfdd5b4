package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event represents a domain event.
type Event interface {
	EventType() string
}

// EventRecord represents an event stored in an order's history.
type EventRecord struct {
	ID        string    `json:"id"`
	StreamID  string    `json:"stream_id"`
	Version   int       `json:"version"`
	EventType string    `json:"event_type"`
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderPlaced is emitted once an order has been persisted.
type OrderPlaced struct {
	OrderID         string          `json:"order_id"`
	UserID          string          `json:"user_id"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	Phone           string          `json:"phone"`
	DeliveryAddress string          `json:"delivery_address"`
	PaymentMode     PaymentMode     `json:"payment_mode"`
	Items           []OrderItem     `json:"items"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PlacedAt        time.Time       `json:"placed_at"`
}

func (e OrderPlaced) EventType() string { return "OrderPlaced" }

// NewOrderPlaced builds the event for a freshly saved order.
func NewOrderPlaced(o *Order, email string) OrderPlaced {
	return OrderPlaced{
		OrderID:         o.ID,
		UserID:          o.UserID,
		CustomerName:    o.CustomerName,
		CustomerEmail:   email,
		Phone:           o.Phone,
		DeliveryAddress: o.DeliveryAddress,
		PaymentMode:     o.PaymentMode,
		Items:           o.Clone().Items,
		TotalAmount:     o.TotalAmount,
		PlacedAt:        o.OrderDate,
	}
}

// OrderCancelled is emitted when a customer cancels a pending order.
type OrderCancelled struct {
	OrderID      string          `json:"order_id"`
	UserID       string          `json:"user_id"`
	CustomerName string          `json:"customer_name"`
	Phone        string          `json:"phone"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	CancelledAt  time.Time       `json:"cancelled_at"`
}

func (e OrderCancelled) EventType() string { return "OrderCancelled" }

// OrderStatusChanged is emitted when an admin moves an order forward.
type OrderStatusChanged struct {
	OrderID   string      `json:"order_id"`
	UserID    string      `json:"user_id"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	ChangedAt time.Time   `json:"changed_at"`
}

func (e OrderStatusChanged) EventType() string { return "OrderStatusChanged" }
