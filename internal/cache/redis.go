// Package cache provides the Redis-backed user list cache.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores the user listing in Redis.
type Cache struct {
	client   *redis.Client
	ttl      time.Duration
	prefix   string
	usersKey string
	genKey   string
}

// Option configures a Cache.
type Option func(*Cache)

// WithUsersTTL sets how long a cached listing lives. Non-positive values keep the default.
func WithUsersTTL(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithKeyPrefix namespaces every key, e.g. "staging:" gives "staging:users:all".
func WithKeyPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// New parses redisURL, connects and pings before returning.
func New(ctx context.Context, redisURL string, opts ...Option) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// The listing is one small key; a handful of connections is plenty.
	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return NewWithClient(client, opts...), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, opts ...Option) *Cache {
	c := &Cache{client: client, ttl: DefaultUsersTTL}
	for _, opt := range opts {
		opt(c)
	}
	c.usersKey = c.prefix + usersKey
	c.genKey = c.prefix + usersGenKey
	return c
}

// TTL returns the listing lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
