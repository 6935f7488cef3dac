package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/pkg/config"
)

func TestLocalCache_SetGet(t *testing.T) {
	c := NewLocalCache(time.Hour, 0, zap.NewNop())
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "tts:abc", []byte("mp3"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := c.Set(ctx, "order", map[string]int{"eta_minutes": 20}, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := c.Get(ctx, "tts:abc")
	if err != nil || got != "mp3" {
		t.Errorf("expected mp3, got %q (%v)", got, err)
	}
	got, _ = c.Get(ctx, "order")
	if got != `{"eta_minutes":20}` {
		t.Errorf("expected JSON value, got %q", got)
	}
}

func TestLocalCache_MissAndExpiry(t *testing.T) {
	c := NewLocalCache(time.Hour, 0, zap.NewNop())
	defer c.Close()
	ctx := context.Background()

	if _, err := c.Get(ctx, "absent"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss, got %v", err)
	}

	c.Set(ctx, "short", "v", time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if _, err := c.Get(ctx, "short"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected expired key to miss, got %v", err)
	}

	c.sweep()
	if c.Len() != 0 {
		t.Errorf("expected sweep to drop expired entry, got %d", c.Len())
	}
}

func TestLocalCache_DeleteAndDoubleClose(t *testing.T) {
	c := NewLocalCache(time.Hour, 0, zap.NewNop())
	ctx := context.Background()

	c.Set(ctx, "k", "v", 0)
	c.Delete(ctx, "k")
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected deleted key to miss, got %v", err)
	}

	c.Close()
	if err := c.Close(); err != nil {
		t.Errorf("expected second Close to be a no-op, got %v", err)
	}
}

func TestLocalCache_EvictsOldestWhenFull(t *testing.T) {
	// Arrange
	c := NewLocalCache(time.Hour, 2, zap.NewNop())
	defer c.Close()
	ctx := context.Background()

	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	c.Set(ctx, "first", "1", 0)
	clock = clock.Add(time.Second)
	c.Set(ctx, "second", "2", 0)
	clock = clock.Add(time.Second)

	// Act
	c.Set(ctx, "third", "3", 0)

	// Assert
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	if _, err := c.Get(ctx, "first"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected oldest entry evicted, got %v", err)
	}
	if got, _ := c.Get(ctx, "third"); got != "3" {
		t.Errorf("expected newest entry kept, got %q", got)
	}

	// Overwriting an existing key never evicts.
	c.Set(ctx, "second", "2b", 0)
	if got, _ := c.Get(ctx, "third"); got != "3" {
		t.Errorf("expected overwrite to keep other entries, got %q", got)
	}
}

func TestLocalCache_FullCachePrefersExpired(t *testing.T) {
	c := NewLocalCache(time.Hour, 2, zap.NewNop())
	defer c.Close()
	ctx := context.Background()

	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	c.Set(ctx, "keep", "k", 0)
	clock = clock.Add(time.Second)
	c.Set(ctx, "stale", "s", time.Second)
	clock = clock.Add(2 * time.Second)

	c.Set(ctx, "fresh", "f", 0)

	if _, err := c.Get(ctx, "keep"); err != nil {
		t.Errorf("expected sweep of expired entry instead of eviction, got %v", err)
	}
}

func TestNew_SelectsDriver(t *testing.T) {
	c, err := New(config.CacheConfig{Driver: "local", CleanupInterval: time.Minute}, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("expected local cache, got %v", err)
	}
	defer c.Close()
	if _, ok := c.(*LocalCache); !ok {
		t.Errorf("expected *LocalCache, got %T", c)
	}

	if _, err := New(config.CacheConfig{Driver: "redis"}, nil, zap.NewNop()); err == nil {
		t.Error("expected error for redis driver without client")
	}
	if _, err := New(config.CacheConfig{Driver: "memcached"}, nil, zap.NewNop()); err == nil {
		t.Error("expected error for unknown driver")
	}
}
