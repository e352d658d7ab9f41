package cache

import (
	"context"
	"testing"
	"time"
)

func TestCache_GetSet(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := newCache(func() time.Time { return now })
	ctx := context.Background()

	if _, ok, _ := c.Get(ctx, "missing"); ok {
		t.Fatal("Get(missing) ok = true, want false")
	}

	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	v, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || v != "v" {
		t.Errorf("Get(k) = %q, %v, %v; want v, true, nil", v, ok, err)
	}

	now = now.Add(time.Minute)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("Get(k) after TTL ok = true, want false")
	}
}

func TestCache_Evict(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := newCache(func() time.Time { return now })
	ctx := context.Background()

	c.Set(ctx, "short", "1", time.Second) //nolint:errcheck
	c.Set(ctx, "long", "2", time.Hour)    //nolint:errcheck

	now = now.Add(time.Minute)
	c.evict()

	stats := c.Stats()
	if stats["total_keys"] != 1 {
		t.Errorf("total_keys = %v, want 1", stats["total_keys"])
	}
	if stats["active_keys"] != 1 {
		t.Errorf("active_keys = %v, want 1", stats["active_keys"])
	}
}
