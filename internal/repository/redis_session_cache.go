package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/martin13396/secure-media-library/internal/domain"
	"github.com/martin13396/secure-media-library/pkg/redis"
)

const sessionKeyPrefix = "session:"

// RedisSessionCache implements SessionCache over Redis. Entries live under
// "session:{id}" with a sliding TTL. Losing an entry is harmless: liveness
// checks fall through to Postgres and repopulate.
type RedisSessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionCache creates a new RedisSessionCache
func NewRedisSessionCache(client *redis.Client, ttl time.Duration) *RedisSessionCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisSessionCache{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Put writes the mirror entry with a fresh TTL
func (c *RedisSessionCache) Put(ctx context.Context, id string, cached *domain.CachedSession) error {
	payload, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal cached session: %w", err)
	}
	return c.client.Set(ctx, sessionKey(id), payload, c.ttl).Err()
}

// Exists reports whether the mirror entry is present
func (c *RedisSessionCache) Exists(ctx context.Context, id string) (bool, error) {
	n, err := c.client.Exists(ctx, sessionKey(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Refresh re-arms the TTL only when the entry is still present. An evicted
// entry is never resurrected here; that is Put's job after a durable check.
func (c *RedisSessionCache) Refresh(ctx context.Context, id string) error {
	err := c.client.Expire(ctx, sessionKey(id), c.ttl).Err()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return err
	}
	return nil
}

// Delete drops mirror entries
func (c *RedisSessionCache) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionKey(id)
	}
	return c.client.Del(ctx, keys...).Err()
}
