package notify

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chandruydv805026/my-web/internal/entity"
	"github.com/chandruydv805026/my-web/internal/repository/memory"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type MockPusher struct {
	mock.Mock
}

func (m *MockPusher) Subscribe(ctx context.Context, userID string, sub entity.PushSubscription) error {
	args := m.Called(ctx, userID, sub)
	return args.Error(0)
}

func (m *MockPusher) SendToUser(ctx context.Context, userID string, n Notification) (PushResult, error) {
	args := m.Called(ctx, userID, n)
	return args.Get(0).(PushResult), args.Error(1)
}

func (m *MockPusher) Broadcast(ctx context.Context, n Notification) (PushResult, error) {
	args := m.Called(ctx, n)
	return args.Get(0).(PushResult), args.Error(1)
}

func placedEvent() entity.OrderPlaced {
	return entity.OrderPlaced{
		OrderID:         "ord-1",
		UserID:          "user-1",
		CustomerName:    "Ravi <b>Kumar</b>",
		Phone:           "9876543210",
		DeliveryAddress: "12 MG Road",
		PaymentMode:     entity.PaymentCOD,
		Items: []entity.OrderItem{
			{ProductID: "aloo", Name: "Aloo", Quantity: decimal.RequireFromString("2"), Price: decimal.RequireFromString("30")},
			{ProductID: "tomato", Name: "Tomato", Quantity: decimal.RequireFromString("0.5"), Price: decimal.RequireFromString("40")},
		},
		TotalAmount: decimal.RequireFromString("80"),
		PlacedAt:    time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestOrderPlacedMessage(t *testing.T) {
	msg, err := OrderPlacedMessage("ops@example.com", placedEvent())
	require.NoError(t, err)

	assert.Equal(t, []string{"ops@example.com"}, msg.To)
	assert.Contains(t, msg.Subject, "₹80.00")
	assert.Contains(t, msg.HTML, "&#8377;60.00")
	assert.Contains(t, msg.HTML, "&#8377;20.00")
	assert.Contains(t, msg.HTML, "01 Mar 2026, 09:30")
	assert.NotContains(t, msg.HTML, "<b>Kumar</b>", "customer input is escaped")
}

func TestOTPMessage(t *testing.T) {
	msg, err := OTPMessage("asha@example.com", "042317", 2*time.Minute)
	require.NoError(t, err)

	assert.Contains(t, msg.HTML, ">042317<")
	assert.Contains(t, msg.HTML, "expires in 2 minutes")
}

func TestDispatcher_OrderPlacedEmailsOperator(t *testing.T) {
	mailer := new(MockMailer)
	pusher := new(MockPusher)
	d := NewDispatcher(mailer, pusher, "ops@example.com")

	mailer.On("Send", mock.Anything, mock.MatchedBy(func(m Message) bool {
		return m.To[0] == "ops@example.com" && strings.Contains(m.Subject, "New order")
	})).Return(nil)

	payload, err := json.Marshal(placedEvent())
	require.NoError(t, err)
	require.NoError(t, d.HandleOrderPlaced(context.Background(), payload))

	mailer.AssertExpectations(t)
	pusher.AssertNotCalled(t, "SendToUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_NoOperatorEmailSkipsMail(t *testing.T) {
	mailer := new(MockMailer)
	d := NewDispatcher(mailer, new(MockPusher), "")

	payload, err := json.Marshal(placedEvent())
	require.NoError(t, err)
	require.NoError(t, d.HandleOrderPlaced(context.Background(), payload))
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestDispatcher_CancelledMailsAndPushes(t *testing.T) {
	mailer := new(MockMailer)
	pusher := new(MockPusher)
	d := NewDispatcher(mailer, pusher, "ops@example.com")

	mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("resend down"))
	pusher.On("SendToUser", mock.Anything, "user-1", mock.MatchedBy(func(n Notification) bool {
		return n.URL == "/orders/ord-1"
	})).Return(PushResult{Total: 1, Succeeded: 1}, nil)

	payload, err := json.Marshal(entity.OrderCancelled{
		OrderID:     "ord-1",
		UserID:      "user-1",
		TotalAmount: decimal.RequireFromString("80"),
	})
	require.NoError(t, err)

	err = d.HandleOrderCancelled(context.Background(), payload)
	assert.ErrorContains(t, err, "resend down")

	mailer.AssertExpectations(t)
	pusher.AssertExpectations(t)
}

func TestDispatcher_StatusChangeIgnoresDisabledPush(t *testing.T) {
	pusher := new(MockPusher)
	d := NewDispatcher(new(MockMailer), pusher, "ops@example.com")

	pusher.On("SendToUser", mock.Anything, "user-1", mock.MatchedBy(func(n Notification) bool {
		return n.Body == "Your order is out for delivery."
	})).Return(PushResult{}, ErrPushDisabled)

	payload, err := json.Marshal(entity.OrderStatusChanged{OrderID: "ord-1", UserID: "user-1", To: entity.StatusOutForDelivery})
	require.NoError(t, err)
	assert.NoError(t, d.HandleStatusChanged(context.Background(), payload))

	assert.Error(t, d.HandleStatusChanged(context.Background(), []byte("{")))
}

func newBrowserSubscription(t *testing.T, endpoint string) entity.PushSubscription {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	secret := make([]byte, 16)
	_, err = rand.Read(secret)
	require.NoError(t, err)

	var sub entity.PushSubscription
	sub.Endpoint = endpoint
	sub.Keys.P256dh = base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes())
	sub.Keys.Auth = base64.RawURLEncoding.EncodeToString(secret)
	return sub
}

func TestWebPush_SendToUserDropsGoneSubscriptions(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/gone":
			w.WriteHeader(http.StatusGone)
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusCreated)
		}
	}))
	defer srv.Close()

	private, public, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)

	subs := memory.NewSubscriptionStore()
	pusher := NewWebPush(subs, VAPIDConfig{PublicKey: public, PrivateKey: private, Subject: "ops@example.com"}, srv.Client())
	ctx := context.Background()

	for _, path := range []string{"/ok", "/gone", "/broken"} {
		require.NoError(t, pusher.Subscribe(ctx, "user-1", newBrowserSubscription(t, srv.URL+path)))
	}

	res, err := pusher.SendToUser(ctx, "user-1", Notification{Title: "Hi", Body: "Order confirmed"})
	require.NoError(t, err)
	assert.Equal(t, PushResult{Total: 3, Succeeded: 1, Failed: 2}, res)

	left, err := subs.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, left, 2, "expired endpoint is removed")

	res, err = pusher.Broadcast(ctx, Notification{Title: "Sale"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.Succeeded)
}

func TestWebPush_RejectsBadSubscriptionsAndMissingKeys(t *testing.T) {
	subs := memory.NewSubscriptionStore()
	ctx := context.Background()

	disabled := NewWebPush(subs, VAPIDConfig{}, nil)
	_, err := disabled.SendToUser(ctx, "user-1", Notification{Title: "x"})
	assert.ErrorIs(t, err, ErrPushDisabled)
	_, err = disabled.Broadcast(ctx, Notification{Title: "x"})
	assert.ErrorIs(t, err, ErrPushDisabled)

	var plain entity.PushSubscription
	plain.Endpoint = "http://push.example.com/abc"
	plain.Keys.P256dh = "k"
	plain.Keys.Auth = "a"
	assert.ErrorIs(t, disabled.Subscribe(ctx, "user-1", plain), ErrInvalidSubscription)

	noKeys := entity.PushSubscription{Endpoint: "https://push.example.com/abc"}
	assert.ErrorIs(t, disabled.Subscribe(ctx, "user-1", noKeys), ErrInvalidSubscription)
}
