// Package cache provides the Redis-backed read-through cache used in front
// of the account and transaction stores. The store is always disposable:
// with a nil client every call degrades to the loader or a no-op, so the
// system stays correct when deployed without a cache tier.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ErrMiss is returned by Bytes when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// New creates a Redis client and verifies connectivity.
func New(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("platform/cache: ping: %w", err)
	}

	return client, nil
}

// Store wraps a Redis client with JSON read-through helpers and
// prefix-based eager invalidation.
type Store struct {
	client *redis.Client
	group  singleflight.Group
}

// NewStore instantiates the cache helper. A nil client yields a no-op store.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// FetchJSON loads a cached value or populates it using the loader.
// Concurrent misses for the same key collapse into a single loader call.
func (s *Store) FetchJSON(ctx context.Context, key string, dest any, ttl time.Duration, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if s == nil || s.client == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		return remarshal(value, dest)
	}

	payload, err := s.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if err != redis.Nil {
		return fmt.Errorf("cache: get %s: %w", key, err)
	}

	raw, err, _ := s.group.Do(key, func() (any, error) {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if err := s.client.Set(ctx, key, encoded, ttl).Err(); err != nil {
			return nil, fmt.Errorf("cache: set %s: %w", key, err)
		}
		return encoded, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw.([]byte), dest)
}

// SetJSON stores a value under key with the given TTL.
func (s *Store) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if s == nil || s.client == nil {
		return nil
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, encoded, ttl).Err()
}

// Bytes returns a raw cached artifact, or ErrMiss.
func (s *Store) Bytes(ctx context.Context, key string) ([]byte, error) {
	if s == nil || s.client == nil {
		return nil, ErrMiss
	}
	payload, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache: get %s: %w", key, err)
	}
	return payload, nil
}

// SetBytes stores a raw artifact under key with the given TTL.
func (s *Store) SetBytes(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Set(ctx, key, payload, ttl).Err()
}

// Delete removes exact keys.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if s == nil || s.client == nil || len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// DeleteByPrefix eagerly invalidates every key under the given prefixes.
func (s *Store) DeleteByPrefix(ctx context.Context, prefixes ...string) error {
	if s == nil || s.client == nil {
		return nil
	}
	for _, prefix := range prefixes {
		iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("cache: scan %s: %w", prefix, err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache: del %s: %w", prefix, err)
			}
		}
	}
	return nil
}

func remarshal(value, dest any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
