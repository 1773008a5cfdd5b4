package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	webpush "github.com/SherClockHolmes/webpush-go"
	"golang.org/x/sync/errgroup"

	"github.com/chandruydv805026/my-web/internal/entity"
	"github.com/chandruydv805026/my-web/internal/repository"
)

var (
	ErrPushDisabled        = errors.New("push notifications are not configured")
	ErrInvalidSubscription = errors.New("subscription needs an https endpoint and both keys")
)

// Notification is the payload the service worker displays.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

// PushResult summarises one fan-out.
type PushResult struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Pusher delivers web-push notifications.
type Pusher interface {
	Subscribe(ctx context.Context, userID string, sub entity.PushSubscription) error
	SendToUser(ctx context.Context, userID string, n Notification) (PushResult, error)
	Broadcast(ctx context.Context, n Notification) (PushResult, error)
}

type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	Subject    string
}

// WebPush sends VAPID-signed messages to stored browser subscriptions.
type WebPush struct {
	subs        repository.SubscriptionStore
	vapid       VAPIDConfig
	client      *http.Client
	concurrency int
}

func NewWebPush(subs repository.SubscriptionStore, vapid VAPIDConfig, client *http.Client) *WebPush {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebPush{subs: subs, vapid: vapid, client: client, concurrency: 8}
}

func (p *WebPush) enabled() bool {
	return p.vapid.PublicKey != "" && p.vapid.PrivateKey != ""
}

// PublicKey is handed to browsers so they can subscribe.
func (p *WebPush) PublicKey() string {
	return p.vapid.PublicKey
}

func (p *WebPush) Subscribe(ctx context.Context, userID string, sub entity.PushSubscription) error {
	if !strings.HasPrefix(sub.Endpoint, "https://") || sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		return ErrInvalidSubscription
	}
	return p.subs.Add(ctx, userID, sub)
}

func (p *WebPush) SendToUser(ctx context.Context, userID string, n Notification) (PushResult, error) {
	if !p.enabled() {
		return PushResult{}, ErrPushDisabled
	}
	subs, err := p.subs.ListByUser(ctx, userID)
	if err != nil {
		return PushResult{}, err
	}
	return p.fanOut(ctx, subs, n, func(sub entity.PushSubscription) {
		if err := p.subs.Remove(ctx, userID, sub.Endpoint); err != nil {
			slog.Warn("Failed to drop expired push subscription", "user_id", userID, "err", err)
		}
	})
}

func (p *WebPush) Broadcast(ctx context.Context, n Notification) (PushResult, error) {
	if !p.enabled() {
		return PushResult{}, ErrPushDisabled
	}
	subs, err := p.subs.ListAll(ctx)
	if err != nil {
		return PushResult{}, err
	}
	return p.fanOut(ctx, subs, n, nil)
}

func (p *WebPush) fanOut(ctx context.Context, subs []entity.PushSubscription, n Notification, gone func(entity.PushSubscription)) (PushResult, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return PushResult{}, fmt.Errorf("failed to encode notification: %w", err)
	}

	var succeeded atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for _, sub := range subs {
		sub := sub
		g.Go(func() error {
			status, err := p.send(gctx, payload, sub)
			switch {
			case err != nil:
				slog.Warn("Push delivery failed", "endpoint", sub.Endpoint, "err", err)
			case status == http.StatusGone || status == http.StatusNotFound:
				if gone != nil {
					gone(sub)
				}
			case status >= 200 && status < 300:
				succeeded.Add(1)
			default:
				slog.Warn("Push service rejected message", "endpoint", sub.Endpoint, "status", status)
			}
			return nil
		})
	}
	_ = g.Wait()

	ok := int(succeeded.Load())
	return PushResult{Total: len(subs), Succeeded: ok, Failed: len(subs) - ok}, nil
}

func (p *WebPush) send(ctx context.Context, payload []byte, sub entity.PushSubscription) (int, error) {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      p.client,
		Subscriber:      p.vapid.Subject,
		VAPIDPublicKey:  p.vapid.PublicKey,
		VAPIDPrivateKey: p.vapid.PrivateKey,
		TTL:             3600,
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
