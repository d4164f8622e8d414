package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "dbplayground/internal/domain/user"
)

// UserCache defines the interface for user caching operations.
type UserCache interface {
	// Get retrieves a user stored under key.
	// Returns nil if nothing is cached under key.
	Get(ctx context.Context, key string) (*domain.User, error)

	// Set stores user under every given key with the configured TTL.
	Set(ctx context.Context, user *domain.User, keys ...string) error
}

// IDKey returns the cache key for a user looked up by ID.
func IDKey(id int64) string {
	return fmt.Sprintf("user:id:%d", id)
}

// LookupKey returns the cache key for a user looked up by filter.
func LookupKey(f domain.Filter) string {
	return "user:lookup:" + f.Key()
}

// RedisUserCache implements UserCache using Redis as the backing store.
type RedisUserCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisUserCache creates a new Redis-backed user cache.
func NewRedisUserCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisUserCache {
	return &RedisUserCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// Get retrieves a user from Redis cache.
func (c *RedisUserCache) Get(ctx context.Context, key string) (*domain.User, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.log.Debug("cache miss", zap.String("key", key))
		return nil, nil
	}
	if err != nil {
		c.log.Error("failed to get from cache", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		c.log.Error("failed to unmarshal cached user", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	c.log.Debug("cache hit", zap.String("key", key))
	return &user, nil
}

// Set stores a user in Redis cache under each key with TTL, in one round trip.
func (c *RedisUserCache) Set(ctx context.Context, user *domain.User, keys ...string) error {
	if user == nil {
		return fmt.Errorf("cannot cache nil user")
	}
	if len(keys) == 0 {
		return nil
	}

	data, err := json.Marshal(user)
	if err != nil {
		c.log.Error("failed to marshal user for cache", zap.Int64("user_id", user.ID), zap.Error(err))
		return err
	}

	_, err = c.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, key := range keys {
			p.Set(ctx, key, data, c.ttl)
		}
		return nil
	})
	if err != nil {
		c.log.Error("failed to set cache", zap.Int64("user_id", user.ID), zap.Error(err))
		return err
	}

	c.log.Debug("cached user", zap.Int64("user_id", user.ID), zap.Strings("keys", keys), zap.Duration("ttl", c.ttl))
	return nil
}
