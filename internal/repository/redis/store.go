// Package redis keeps short-lived and per-user ephemeral state: login codes
// and web-push subscriptions.
package redis

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chandruydv805026/my-web/internal/entity"
	"github.com/chandruydv805026/my-web/internal/repository"
)

const (
	otpKeyPrefix = "otp:"
	subKeyPrefix = "push:subs:"
)

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// OTPStore keeps one code per phone in a hash that Redis expires.
type OTPStore struct {
	client *redis.Client
}

func NewOTPStore(client *redis.Client) *OTPStore {
	return &OTPStore{client: client}
}

func (s *OTPStore) Save(ctx context.Context, phone, code string, ttl time.Duration) error {
	key := otpKeyPrefix + phone
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, "code", code, "attempts", 0)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	return nil
}

// verifyRetries bounds optimistic retries when the code changes mid-check.
const verifyRetries = 3

// Verify checks code under WATCH so a wrong guess never recreates a key that a
// concurrent success or resend removed.
func (s *OTPStore) Verify(ctx context.Context, phone, code string, maxAttempts int) error {
	key := otpKeyPrefix + phone

	var result error
	check := func(tx *redis.Tx) error {
		fields, err := tx.HMGet(ctx, key, "code", "attempts").Result()
		if err != nil {
			return fmt.Errorf("failed to read otp: %w", err)
		}
		stored, ok := fields[0].(string)
		if !ok {
			result = repository.ErrOTPMissing
			return nil
		}

		if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) == 1 {
			result = nil
			_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			return err
		}

		attempts := 0
		if raw, ok := fields[1].(string); ok {
			attempts, _ = strconv.Atoi(raw)
		}
		attempts++
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if attempts >= maxAttempts {
				pipe.Del(ctx, key)
				return nil
			}
			pipe.HSet(ctx, key, "attempts", attempts)
			return nil
		})
		if attempts >= maxAttempts {
			result = repository.ErrOTPLocked
		} else {
			result = repository.ErrOTPMismatch
		}
		return err
	}

	for i := 0; i < verifyRetries; i++ {
		err := s.client.Watch(ctx, check, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to verify otp: %w", err)
		}
		return result
	}
	return repository.ErrOTPMissing
}

func (s *OTPStore) Delete(ctx context.Context, phone string) error {
	return s.client.Del(ctx, otpKeyPrefix+phone).Err()
}

// SubscriptionStore keeps a hash per user keyed by push endpoint.
type SubscriptionStore struct {
	client *redis.Client
}

func NewSubscriptionStore(client *redis.Client) *SubscriptionStore {
	return &SubscriptionStore{client: client}
}

func (s *SubscriptionStore) Add(ctx context.Context, userID string, sub entity.PushSubscription) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to encode subscription: %w", err)
	}
	if err := s.client.HSet(ctx, subKeyPrefix+userID, sub.Endpoint, data).Err(); err != nil {
		return fmt.Errorf("failed to store subscription: %w", err)
	}
	return nil
}

func (s *SubscriptionStore) ListByUser(ctx context.Context, userID string) ([]entity.PushSubscription, error) {
	values, err := s.client.HVals(ctx, subKeyPrefix+userID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return decodeSubscriptions(values)
}

func (s *SubscriptionStore) ListAll(ctx context.Context) ([]entity.PushSubscription, error) {
	var subs []entity.PushSubscription
	iter := s.client.Scan(ctx, 0, subKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		values, err := s.client.HVals(ctx, iter.Val()).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to list subscriptions: %w", err)
		}
		decoded, err := decodeSubscriptions(values)
		if err != nil {
			return nil, err
		}
		subs = append(subs, decoded...)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan subscriptions: %w", err)
	}
	return subs, nil
}

func (s *SubscriptionStore) Remove(ctx context.Context, userID, endpoint string) error {
	return s.client.HDel(ctx, subKeyPrefix+userID, endpoint).Err()
}

func decodeSubscriptions(values []string) ([]entity.PushSubscription, error) {
	subs := make([]entity.PushSubscription, 0, len(values))
	for _, v := range values {
		var sub entity.PushSubscription
		if err := json.Unmarshal([]byte(v), &sub); err != nil {
			return nil, fmt.Errorf("failed to decode subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}
