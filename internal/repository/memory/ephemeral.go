package memory

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"github.com/chandruydv805026/my-web/internal/entity"
	"github.com/chandruydv805026/my-web/internal/repository"
)

type otpEntry struct {
	code      string
	attempts  int
	expiresAt time.Time
}

// OTPStore is an in-process repository.OTPStore for development without Redis.
type OTPStore struct {
	mu      sync.Mutex
	entries map[string]otpEntry
	now     func() time.Time
}

func NewOTPStore() *OTPStore {
	return &OTPStore{entries: make(map[string]otpEntry), now: time.Now}
}

func (s *OTPStore) Save(ctx context.Context, phone, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[phone] = otpEntry{code: code, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *OTPStore) Verify(ctx context.Context, phone, code string, maxAttempts int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[phone]
	if !ok || !s.now().Before(entry.expiresAt) {
		delete(s.entries, phone)
		return repository.ErrOTPMissing
	}

	if subtle.ConstantTimeCompare([]byte(entry.code), []byte(code)) == 1 {
		delete(s.entries, phone)
		return nil
	}

	entry.attempts++
	if entry.attempts >= maxAttempts {
		delete(s.entries, phone)
		return repository.ErrOTPLocked
	}
	s.entries[phone] = entry
	return repository.ErrOTPMismatch
}

func (s *OTPStore) Delete(ctx context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, phone)
	return nil
}

// SubscriptionStore is an in-process repository.SubscriptionStore.
type SubscriptionStore struct {
	mu   sync.RWMutex
	subs map[string]map[string]entity.PushSubscription
}

func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{subs: make(map[string]map[string]entity.PushSubscription)}
}

func (s *SubscriptionStore) Add(ctx context.Context, userID string, sub entity.PushSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subs[userID] == nil {
		s.subs[userID] = make(map[string]entity.PushSubscription)
	}
	s.subs[userID][sub.Endpoint] = sub
	return nil
}

func (s *SubscriptionStore) ListByUser(ctx context.Context, userID string) ([]entity.PushSubscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := make([]entity.PushSubscription, 0, len(s.subs[userID]))
	for _, sub := range s.subs[userID] {
		subs = append(subs, sub)
	}
	return subs, nil
}

func (s *SubscriptionStore) ListAll(ctx context.Context) ([]entity.PushSubscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var subs []entity.PushSubscription
	for _, byEndpoint := range s.subs {
		for _, sub := range byEndpoint {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}

func (s *SubscriptionStore) Remove(ctx context.Context, userID, endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.subs[userID], endpoint)
	return nil
}
