package cache

import (
	"context"
	"testing"
	"time"
)

func TestTTLCacheRoundTrip(t *testing.T) {
	c := NewTTL(time.Minute)
	defer c.Stop()
	ctx := context.Background()

	if _, ok, _ := c.Get(ctx, "missing"); ok {
		t.Fatalf("expected miss")
	}
	if err := c.Set(ctx, "k", 42, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || v.(int) != 42 {
		t.Fatalf("unexpected get v=%v ok=%v err=%v", v, ok, err)
	}
	if c.Len() != 1 {
		t.Fatalf("expected one entry, got %d", c.Len())
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestTTLCacheExpires(t *testing.T) {
	c := NewTTL(time.Minute)
	defer c.Stop()
	ctx := context.Background()

	if err := c.Set(ctx, "short", "v", 20*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, "short"); ok {
		t.Fatalf("expected entry to expire")
	}
}
