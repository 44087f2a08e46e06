// internal/idempotency/cache.go
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "idempotency:"
	lockSuffix = ":lock"
	lockTTL    = 30 * time.Second
)

// DefaultTTL is how long a stored response is replayed.
const DefaultTTL = 24 * time.Hour

// CachedResponse is what a repeated request gets back.
// RequestHash identifies the request body the response was produced for.
type CachedResponse struct {
	StatusCode  int    `json:"status_code"`
	Body        []byte `json:"body"`
	RequestHash string `json:"request_hash,omitempty"`
}

// Cache stores responses by idempotency key in Redis.
type Cache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewCache(client redis.Cmdable, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Key scopes a client-supplied key to the caller so two users cannot collide.
func Key(userID, key string) string {
	return keyPrefix + userID + ":" + key
}

// Get returns the cached response for key, or nil on a cache miss.
func (c *Cache) Get(ctx context.Context, key string) (*CachedResponse, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get idempotency key: %w", err)
	}

	var resp CachedResponse
	if err := json.Unmarshal(val, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached response: %w", err)
	}
	return &resp, nil
}

// Save stores resp under key for the cache TTL.
func (c *Cache) Save(ctx context.Context, key string, resp CachedResponse) error {
	bytes, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	if err := c.client.Set(ctx, key, bytes, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save idempotency key: %w", err)
	}
	return nil
}

// Lock marks key as in flight. It reports false when another request holds it.
func (c *Cache) Lock(ctx context.Context, key string) (bool, error) {
	ok, err := c.client.SetNX(ctx, key+lockSuffix, 1, lockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to lock idempotency key: %w", err)
	}
	return ok, nil
}

// Unlock releases a lock taken with Lock.
func (c *Cache) Unlock(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key+lockSuffix).Err(); err != nil {
		return fmt.Errorf("failed to unlock idempotency key: %w", err)
	}
	return nil
}
