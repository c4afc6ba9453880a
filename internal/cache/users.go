package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/userdesk/userdesk/internal/model"
)

// Cache keys and TTLs.
const (
	usersKey    = "users:all"
	// usersGenKey counts invalidations. It has no TTL.
	usersGenKey = "users:gen"

	// DefaultUsersTTL bounds how long a listing can be served after an
	// out-of-band write.
	DefaultUsersTTL = 5 * time.Minute
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// GetUsers returns the cached listing or ErrCacheMiss.
func (c *Cache) GetUsers(ctx context.Context) ([]model.User, error) {
	raw, err := c.client.Get(ctx, c.usersKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return decodeUsers(raw)
}

// setUsersScript stores the listing only while the generation still equals
// the one read before the listing was loaded.
var setUsersScript = redis.NewScript(`
local gen = redis.call('GET', KEYS[2]) or '0'
if gen ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// UsersGeneration returns the current invalidation count.
func (c *Cache) UsersGeneration(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.genKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get failed: %w", err)
	}
	return gen, nil
}

// SetUsers stores a listing loaded at generation gen. It reports false, and
// stores nothing, when an invalidation happened since gen was read.
func (c *Cache) SetUsers(ctx context.Context, users []model.User, gen int64) (bool, error) {
	raw, err := encodeUsers(users)
	if err != nil {
		return false, err
	}
	keys := []string{c.usersKey, c.genKey}
	stored, err := setUsersScript.Run(ctx, c.client, keys, gen, raw, c.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("redis set failed: %w", err)
	}
	return stored == 1, nil
}

// InvalidateUsers drops the cached listing and bumps the generation in one
// transaction, so listings loaded before the call are never stored.
func (c *Cache) InvalidateUsers(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey)
		pipe.Del(ctx, c.usersKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate failed: %w", err)
	}
	return nil
}

func encodeUsers(users []model.User) ([]byte, error) {
	if users == nil {
		users = []model.User{}
	}
	raw, err := json.Marshal(users)
	if err != nil {
		return nil, fmt.Errorf("failed to encode users: %w", err)
	}
	return raw, nil
}

func decodeUsers(raw []byte) ([]model.User, error) {
	var users []model.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("failed to decode cached users: %w", err)
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}
