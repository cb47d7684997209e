package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get helpers when a key is absent or expired.
var ErrCacheMiss = errors.New("cache: key not found")

// BytesCache stores raw bytes with a TTL. A miss is (nil, false, nil).
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
