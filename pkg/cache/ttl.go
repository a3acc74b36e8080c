package cache

import (
	"context"
	"time"

	"github.com/goliatone/go-rtm/pkg/interfaces/cache"
	"github.com/jellydator/ttlcache/v3"
)

// TTL is an in-process cache.Cache with per-entry expiry.
type TTL struct {
	items *ttlcache.Cache[string, any]
	ttl   time.Duration
}

var _ cache.Cache = (*TTL)(nil)

// NewTTL starts a cache whose entries live for ttl unless Set overrides it.
// Hits do not extend an entry's lifetime. Call Stop to release the janitor.
func NewTTL(ttl time.Duration) *TTL {
	if ttl <= 0 {
		ttl = time.Minute
	}
	items := ttlcache.New[string, any](
		ttlcache.WithTTL[string, any](ttl),
		ttlcache.WithDisableTouchOnHit[string, any](),
	)
	go items.Start()
	return &TTL{items: items, ttl: ttl}
}

func (c *TTL) Get(ctx context.Context, key string) (any, bool, error) {
	item := c.items.Get(key)
	if item == nil {
		return nil, false, nil
	}
	return item.Value(), true, nil
}

func (c *TTL) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = ttlcache.DefaultTTL
	}
	c.items.Set(key, value, ttl)
	return nil
}

func (c *TTL) Delete(ctx context.Context, key string) error {
	c.items.Delete(key)
	return nil
}

// Len reports the number of live entries.
func (c *TTL) Len() int { return c.items.Len() }

// Stop halts the expiry loop.
func (c *TTL) Stop() { c.items.Stop() }
