package messaging

import "context"

// Order lifecycle topics.
const (
	TopicOrderPlaced        = "orders.placed"
	TopicOrderCancelled     = "orders.cancelled"
	TopicOrderStatusChanged = "orders.status_changed"
)

// Handler processes one message payload.
type Handler func(ctx context.Context, payload []byte) error

// Publisher defines an interface for publishing events to a message broker.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, key string, event any) error
}

// Subscriber defines an interface for subscribing to a message topic.
type Subscriber interface {
	Subscribe(name, topic string, handler Handler)
}
