// Package cache wraps redis with JSON read-through helpers.
package cache

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"time"          // TTLs

	"github.com/redis/go-redis/v9" // Redis client
)

// Cache is an injected caching layer over a redis client.
// Keys are namespaced with a fixed prefix so the API and the web
// front-end can share one redis database.
type Cache struct {
	client *redis.Client
	prefix string
}

// New creates a Cache with the given key prefix.
func New(client *redis.Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

// Get retrieves a value and unmarshals it into dest.
// The second return is false when the key does not exist.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err
	}
	return true, json.Unmarshal([]byte(val), dest)
}

// Set stores a value with the given TTL.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, b, ttl).Err()
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}
