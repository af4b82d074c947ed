package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemory_GetSetAndExpiry(t *testing.T) {
	c := NewMemory(time.Minute)
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if _, ok, _ := c.GetUserID(ctx, "k"); ok {
		t.Fatalf("expected miss on empty cache")
	}

	if err := c.SetUserID(ctx, "k", "u1"); err != nil {
		t.Fatalf("set: %v", err)
	}

	id, ok, err := c.GetUserID(ctx, "k")
	if err != nil || !ok || id != "u1" {
		t.Fatalf("got (%q, %v, %v), want (u1, true, nil)", id, ok, err)
	}

	now = now.Add(2 * time.Minute)

	if _, ok, _ := c.GetUserID(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestMemory_Delete(t *testing.T) {
	c := NewMemory(0)
	ctx := context.Background()

	_ = c.SetUserID(ctx, "k", "u1")
	c.Delete("k")

	if _, ok, _ := c.GetUserID(ctx, "k"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestRedis_GetSetAndTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	c := NewRedis(rdb, time.Minute)
	ctx := context.Background()

	if _, ok, err := c.GetUserID(ctx, "k"); ok || err != nil {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	if err := c.SetUserID(ctx, "k", "u1"); err != nil {
		t.Fatalf("set: %v", err)
	}

	id, ok, err := c.GetUserID(ctx, "k")
	if err != nil || !ok || id != "u1" {
		t.Fatalf("got (%q, %v, %v), want (u1, true, nil)", id, ok, err)
	}

	if ttl := mr.TTL(tokenKeyPrefix + "k"); ttl != time.Minute {
		t.Fatalf("got ttl %v, want 1m", ttl)
	}

	mr.FastForward(2 * time.Minute)

	if _, ok, _ := c.GetUserID(ctx, "k"); ok {
		t.Fatalf("expected key to expire")
	}
}

func TestRedis_ErrorsSurface(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	c := NewRedis(rdb, time.Minute)
	mr.SetError("server down")

	if _, _, err := c.GetUserID(context.Background(), "k"); err == nil {
		t.Fatalf("expected redis error to surface")
	}
}
