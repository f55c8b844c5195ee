package cache

import (
	"context"
	"time"
)

// Layered reads through an in-process L1 in front of a shared L2. Writes go
// to L2 first, then L1 with at most l1TTL.
type Layered struct {
	l1    BytesCache
	l2    BytesCache
	l1TTL time.Duration
}

func NewLayered(l1, l2 BytesCache, l1TTL time.Duration) *Layered {
	return &Layered{l1: l1, l2: l2, l1TTL: l1TTL}
}

func (c *Layered) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	if b, ok, err := c.l1.GetBytes(ctx, key); err == nil && ok {
		return b, true, nil
	}
	b, ok, err := c.l2.GetBytes(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = c.l1.SetBytes(ctx, key, b, c.l1TTL)
	return b, true, nil
}

func (c *Layered) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.l2.SetBytes(ctx, key, value, ttl); err != nil {
		return err
	}
	l1 := c.l1TTL
	if ttl > 0 && (l1 <= 0 || ttl < l1) {
		l1 = ttl
	}
	return c.l1.SetBytes(ctx, key, value, l1)
}

func (c *Layered) Delete(ctx context.Context, keys ...string) error {
	_ = c.l1.Delete(ctx, keys...)
	return c.l2.Delete(ctx, keys...)
}
