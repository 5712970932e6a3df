package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store wraps a Redis client with the small surface services need for
// response caching and invalidation.
type Store struct {
	client *redis.Client
}

// NewStore builds a Store. A nil client yields a Store whose reads always
// miss and whose writes are dropped.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Get returns the cached value and whether it was present.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.client == nil {
		return "", false, nil
	}
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return val, true, nil
}

// Set stores a value with a TTL.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Del removes keys. Missing keys are ignored.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if s == nil || s.client == nil || len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}
