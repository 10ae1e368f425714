package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arklim/social-platform-commerce/internal/core/port"
	"github.com/arklim/social-platform-commerce/internal/repository"
)

// CacheRepository implements port.Cache over a Redis client. The catalog
// service uses it for short-lived listing caches.
type CacheRepository struct {
	client    *redis.Client
	keyPrefix string
}

// NewCacheRepository constructs a Redis-backed cache with the given key prefix.
func NewCacheRepository(client *redis.Client, keyPrefix string) *CacheRepository {
	return &CacheRepository{client: client, keyPrefix: keyPrefix}
}

// Get returns the cached value or repository.ErrNotFound on a miss.
func (r *CacheRepository) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("redis get: %w", err)
	}
	return value, nil
}

// Set stores a value with the provided TTL.
func (r *CacheRepository) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete evicts a key.
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *CacheRepository) key(key string) string {
	if r.keyPrefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", r.keyPrefix, key)
}

var _ port.Cache = (*CacheRepository)(nil)
