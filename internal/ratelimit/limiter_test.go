package ratelimit

import (
	"testing"

	"github.com/goliatone/go-rtm/pkg/config"
)

func TestDisabledLimiterAllowsEverything(t *testing.T) {
	var k *Keyed = New(config.RateLimitConfig{})
	if k != nil {
		t.Fatalf("expected nil limiter when disabled")
	}
	for i := 0; i < 100; i++ {
		if !k.Allow("client") {
			t.Fatalf("nil limiter must allow")
		}
	}
	k.Stop()
}

func TestKeyedLimiterBurst(t *testing.T) {
	k := New(config.RateLimitConfig{EventsPerSecond: 0.001, Burst: 2})
	defer k.Stop()

	if !k.Allow("a") || !k.Allow("a") {
		t.Fatalf("burst should allow two events")
	}
	if k.Allow("a") {
		t.Fatalf("third event should be limited")
	}
	if !k.Allow("b") {
		t.Fatalf("keys must not share a bucket")
	}
	if !k.Allow("") {
		t.Fatalf("empty key is never limited")
	}
}
