package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arklim/social-platform-commerce/internal/core/port"
)

const ipBlockKeyPrefix = "commerce:ipblock"

// IPBlockRepository tracks temporarily blocked client addresses in Redis.
type IPBlockRepository struct {
	client *redis.Client
}

// NewIPBlockRepository constructs a Redis-backed IP block store.
func NewIPBlockRepository(client *redis.Client) *IPBlockRepository {
	return &IPBlockRepository{client: client}
}

// IsBlocked reports whether the address is under an active block.
func (r *IPBlockRepository) IsBlocked(ctx context.Context, ip string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(ip)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// Block marks the address as blocked for the given window. The TTL lets the
// block expire on its own.
func (r *IPBlockRepository) Block(ctx context.Context, ip string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(ip), time.Now().UTC().Format(time.RFC3339), ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Unblock lifts a block before its TTL elapses.
func (r *IPBlockRepository) Unblock(ctx context.Context, ip string) error {
	if err := r.client.Del(ctx, r.key(ip)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *IPBlockRepository) key(ip string) string {
	return fmt.Sprintf("%s:%s", ipBlockKeyPrefix, ip)
}

var _ port.IPBlockStore = (*IPBlockRepository)(nil)
