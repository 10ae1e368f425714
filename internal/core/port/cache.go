package port

import (
	"context"
	"time"
)

// Cache exposes common cache operations leveraged across the service.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IPBlockStore tracks temporarily blocked client addresses.
type IPBlockStore interface {
	IsBlocked(ctx context.Context, ip string) (bool, error)
	Block(ctx context.Context, ip string, ttl time.Duration) error
	Unblock(ctx context.Context, ip string) error
}
