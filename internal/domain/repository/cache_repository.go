package repository

import (
	"context"
	"time"
)

// CacheRepository is a byte-value cache with TTLs. Get returns (nil, nil)
// on a miss.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
