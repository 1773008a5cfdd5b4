package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chandruydv805026/my-web/internal/entity"
	"github.com/chandruydv805026/my-web/internal/messaging"
)

// Dispatcher turns order events into operator emails and customer pushes.
type Dispatcher struct {
	mailer        Mailer
	pusher        Pusher
	operatorEmail string
}

func NewDispatcher(mailer Mailer, pusher Pusher, operatorEmail string) *Dispatcher {
	return &Dispatcher{mailer: mailer, pusher: pusher, operatorEmail: operatorEmail}
}

// Register subscribes the dispatcher to every order topic.
func (d *Dispatcher) Register(sub messaging.Subscriber) {
	sub.Subscribe("notify.order_placed", messaging.TopicOrderPlaced, d.HandleOrderPlaced)
	sub.Subscribe("notify.order_cancelled", messaging.TopicOrderCancelled, d.HandleOrderCancelled)
	sub.Subscribe("notify.order_status_changed", messaging.TopicOrderStatusChanged, d.HandleStatusChanged)
}

func (d *Dispatcher) HandleOrderPlaced(ctx context.Context, payload []byte) error {
	var e entity.OrderPlaced
	if err := json.Unmarshal(payload, &e); err != nil {
		return fmt.Errorf("failed to decode OrderPlaced: %w", err)
	}
	if d.operatorEmail == "" {
		return nil
	}

	msg, err := OrderPlacedMessage(d.operatorEmail, e)
	if err != nil {
		return err
	}
	if err := d.mailer.Send(ctx, msg); err != nil {
		return err
	}
	slog.Info("Operator notified of new order", "order_id", e.OrderID)
	return nil
}

func (d *Dispatcher) HandleOrderCancelled(ctx context.Context, payload []byte) error {
	var e entity.OrderCancelled
	if err := json.Unmarshal(payload, &e); err != nil {
		return fmt.Errorf("failed to decode OrderCancelled: %w", err)
	}

	var errs []error
	if d.operatorEmail != "" {
		msg, err := OrderCancelledMessage(d.operatorEmail, e)
		if err == nil {
			err = d.mailer.Send(ctx, msg)
		}
		errs = append(errs, err)
	}
	errs = append(errs, d.push(ctx, e.UserID, Notification{
		Title: "Order cancelled",
		Body:  fmt.Sprintf("Your order of ₹%s has been cancelled.", e.TotalAmount.StringFixed(2)),
		URL:   "/orders/" + e.OrderID,
	}))
	return errors.Join(errs...)
}

func (d *Dispatcher) HandleStatusChanged(ctx context.Context, payload []byte) error {
	var e entity.OrderStatusChanged
	if err := json.Unmarshal(payload, &e); err != nil {
		return fmt.Errorf("failed to decode OrderStatusChanged: %w", err)
	}
	return d.push(ctx, e.UserID, Notification{
		Title: "Order update",
		Body:  statusText(e.To),
		URL:   "/orders/" + e.OrderID,
	})
}

func (d *Dispatcher) push(ctx context.Context, userID string, n Notification) error {
	res, err := d.pusher.SendToUser(ctx, userID, n)
	if errors.Is(err, ErrPushDisabled) {
		return nil
	}
	if err != nil {
		return err
	}
	slog.Debug("Push fan-out", "user_id", userID, "total", res.Total, "succeeded", res.Succeeded, "failed", res.Failed)
	return nil
}

func statusText(s entity.OrderStatus) string {
	switch s {
	case entity.StatusConfirmed:
		return "Your order has been confirmed."
	case entity.StatusOutForDelivery:
		return "Your order is out for delivery."
	case entity.StatusDelivered:
		return "Your order has been delivered."
	case entity.StatusCancelled:
		return "Your order has been cancelled."
	}
	return "Your order is now " + string(s) + "."
}
