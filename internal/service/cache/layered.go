package cache

import (
	"context"
	"time"
)

// LayeredCache reads L1 then L2 and backfills L1 on an L2 hit. Writes go to
// L2 first; an L1 write never fails.
type LayeredCache struct {
	l1    BytesCache
	l2    BytesCache
	l1TTL time.Duration
}

// NewLayeredCache combines an in-process and a shared cache. l1TTL caps how
// long a backfilled entry lives in L1.
func NewLayeredCache(l1, l2 BytesCache, l1TTL time.Duration) *LayeredCache {
	return &LayeredCache{l1: l1, l2: l2, l1TTL: l1TTL}
}

func (lc *LayeredCache) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	if b, ok, err := lc.l1.GetBytes(ctx, key); err == nil && ok {
		return b, true, nil
	}
	b, ok, err := lc.l2.GetBytes(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = lc.l1.SetBytes(ctx, key, b, lc.l1TTL)
	return b, true, nil
}

func (lc *LayeredCache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := lc.l2.SetBytes(ctx, key, value, ttl); err != nil {
		return err
	}
	l1ttl := ttl
	if lc.l1TTL > 0 && (l1ttl <= 0 || l1ttl > lc.l1TTL) {
		l1ttl = lc.l1TTL
	}
	return lc.l1.SetBytes(ctx, key, value, l1ttl)
}
