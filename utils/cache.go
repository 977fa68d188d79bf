package utils

import (
	"Go_Vault/internal/repo"
	"Go_Vault/model"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheDisabled is returned when no Redis client is configured.
var ErrCacheDisabled = errors.New("cache disabled")

type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
}

type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a Redis cache client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get reads a cached JSON value into dest.
func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrCacheDisabled
	}
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

// Set writes a JSON value.
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if c.client == nil {
		return ErrCacheDisabled
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, string(data), expiration).Err()
}

// Delete removes a cache entry.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if c.client == nil {
		return ErrCacheDisabled
	}
	return c.client.Del(ctx, key).Err()
}

// activeCache resolves the client on each call so tests and late init see the current repo.Redis.
func activeCache() Cache {
	return NewRedisCache(repo.Redis)
}

// BuildCacheKey builds a cache key.
func BuildCacheKey(prefix string, params ...interface{}) string {
	key := prefix
	for _, param := range params {
		key += fmt.Sprintf(":%v", param)
	}
	return key
}

const CacheKeyUserByEmail = "user:email"

// GetUserFromCache reads a cached account by normalised email.
func GetUserFromCache(ctx context.Context, email string) (*model.User, bool) {
	var result model.User
	if err := activeCache().Get(ctx, BuildCacheKey(CacheKeyUserByEmail, email), &result); err != nil {
		return nil, false
	}
	if result.ID == 0 {
		return nil, false
	}
	return &result, true
}

// SetUserToCache writes an account to the cache.
func SetUserToCache(ctx context.Context, email string, user *model.User, expiration time.Duration) error {
	return activeCache().Set(ctx, BuildCacheKey(CacheKeyUserByEmail, email), user, expiration)
}

// InvalidateUserCache clears a cached account.
func InvalidateUserCache(ctx context.Context, email string) error {
	return activeCache().Delete(ctx, BuildCacheKey(CacheKeyUserByEmail, email))
}
