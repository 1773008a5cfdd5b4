package broker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type event struct {
	OrderID string `json:"order_id"`
}

func startBroker(t *testing.T, b *Broker) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = b.Run(ctx) }()

	select {
	case <-b.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}

	t.Cleanup(func() {
		cancel()
		_ = b.Close()
	})
}

func TestBroker_DeliversToSubscribers(t *testing.T) {
	b, err := New(Config{}, slog.Default())
	require.NoError(t, err)

	var (
		mu       sync.Mutex
		received []event
	)
	b.Subscribe("collector", "orders.placed", func(ctx context.Context, payload []byte) error {
		var e event
		if err := json.Unmarshal(payload, &e); err != nil {
			return err
		}
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
		return nil
	})
	startBroker(t, b)

	require.NoError(t, b.PublishEvent(context.Background(), "orders.placed", "o-1", event{OrderID: "o-1"}))
	require.NoError(t, b.PublishEvent(context.Background(), "orders.cancelled", "o-1", event{OrderID: "other topic"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "o-1", received[0].OrderID)
}

func TestBroker_HandlerErrorsAreNotRedelivered(t *testing.T) {
	b, err := New(Config{}, slog.Default())
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		calls int
	)
	b.Subscribe("failing", "orders.placed", func(ctx context.Context, payload []byte) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return errors.New("mail server down")
	})
	startBroker(t, b)

	require.NoError(t, b.PublishEvent(context.Background(), "orders.placed", "o-1", event{OrderID: "o-1"}))
	require.NoError(t, b.PublishEvent(context.Background(), "orders.placed", "o-2", event{OrderID: "o-2"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 2
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}

func TestBroker_PublishRejectsUnencodableEvent(t *testing.T) {
	b, err := New(Config{}, slog.Default())
	require.NoError(t, err)
	defer b.Close()

	err = b.PublishEvent(context.Background(), "orders.placed", "o-1", make(chan int))
	assert.Error(t, err)
}
