package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces mapping entries: "url:" + shortCode -> original URL.
const KeyPrefix = "url:"

// DefaultTTL applies when a caller passes a non-positive TTL.
const DefaultTTL = time.Hour

// Cache is a key/value read accelerator over Redis. It is never the system
// of record; entries are reconstructible from the mapping store.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// Connect dials Redis and verifies the connection.
func Connect(addr, password string, db int, ttl time.Duration) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{rdb: rdb, ttl: ttl}, nil
}

// Key builds the cache key for a short code.
func Key(shortCode string) string {
	return KeyPrefix + shortCode
}

// Get returns the decoded value and whether it was present. Absence covers
// both never-set and expired entries.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	var value string
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Put serializes value and stores it under key, resetting expiration to ttl
// from now. A non-positive ttl falls back to the configured default.
func (c *Cache) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, ttl).Err()
}

// Delete removes key and reports how many entries were removed.
func (c *Cache) Delete(ctx context.Context, key string) (int64, error) {
	return c.rdb.Del(ctx, key).Result()
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}
