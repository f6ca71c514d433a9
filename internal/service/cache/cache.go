// Package cache wraps the optional redis client with JSON read-through helpers.
// A nil client turns every call into a no-op miss.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"taskdesk/internal/pkg/logger"
)

type Cache struct {
	client *redis.Client
	log    *zap.Logger
}

func New(client *redis.Client) *Cache {
	return &Cache{client: client, log: logger.WithModule("cache")}
}

// Get decodes the cached value into dest and reports whether it was found.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.client == nil {
		return false
	}
	cached, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(cached), dest) == nil
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate deletes every key matching pattern.
func (c *Cache) Invalidate(ctx context.Context, pattern string) {
	if c == nil || c.client == nil {
		return
	}
	keys, err := c.client.Keys(ctx, pattern).Result()
	if err != nil || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
	}
}
