package ratelimit

import (
	"time"

	"github.com/goliatone/go-rtm/pkg/config"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

// idleTTL is how long an unused per-key limiter is kept.
const idleTTL = 5 * time.Minute

// Keyed hands out one token bucket per key (client id, account id).
// Limiters of idle keys expire so the set tracks live producers only.
type Keyed struct {
	limit    rate.Limit
	burst    int
	limiters *ttlcache.Cache[string, *rate.Limiter]
}

// New returns a limiter, or nil when cfg disables limiting. A nil *Keyed
// allows everything.
func New(cfg config.RateLimitConfig) *Keyed {
	if cfg.EventsPerSecond <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	limiters := ttlcache.New[string, *rate.Limiter](
		ttlcache.WithTTL[string, *rate.Limiter](idleTTL),
	)
	go limiters.Start()
	return &Keyed{
		limit:    rate.Limit(cfg.EventsPerSecond),
		burst:    burst,
		limiters: limiters,
	}
}

// Allow reports whether key may act now. Empty keys are never limited.
func (k *Keyed) Allow(key string) bool {
	if k == nil || key == "" {
		return true
	}
	return k.limiter(key).Allow()
}

func (k *Keyed) limiter(key string) *rate.Limiter {
	item := k.limiters.Get(key)
	if item == nil {
		item = k.limiters.Set(key, rate.NewLimiter(k.limit, k.burst), ttlcache.DefaultTTL)
	}
	return item.Value()
}

// Stop releases the expiry loop.
func (k *Keyed) Stop() {
	if k == nil {
		return
	}
	k.limiters.Stop()
}
