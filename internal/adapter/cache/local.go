package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultMaxEntries = 1000

type localEntry struct {
	value    string
	storedAt time.Time
	deadline time.Time // zero means no expiry
}

func (e localEntry) live(now time.Time) bool {
	return e.deadline.IsZero() || now.Before(e.deadline)
}

// LocalCache is a bounded in-process cache. When full, the oldest entry is
// evicted to make room; expired entries are swept on a timer.
type LocalCache struct {
	mu         sync.Mutex
	entries    map[string]localEntry
	maxEntries int
	now        func() time.Time
	log        *zap.Logger

	done      chan struct{}
	closeOnce sync.Once
}

func NewLocalCache(sweepEvery time.Duration, maxEntries int, log *zap.Logger) *LocalCache {
	if sweepEvery <= 0 {
		sweepEvery = time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}

	c := &LocalCache{
		entries:    make(map[string]localEntry),
		maxEntries: maxEntries,
		now:        time.Now,
		log:        log,
		done:       make(chan struct{}),
	}
	go c.sweepLoop(sweepEvery)

	log.Info("Using local audio cache",
		zap.Duration("sweep_every", sweepEvery),
		zap.Int("max_entries", maxEntries),
	)
	return c
}

// encode stores strings and byte slices as-is and anything else as JSON.
func encode(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("cache: encode value: %w", err)
	}
	return string(data), nil
}

func (c *LocalCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !e.live(c.now()) {
		return "", ErrMiss
	}
	return e.value, nil
}

func (c *LocalCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	s, err := encode(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.sweepLocked(now)
		if len(c.entries) >= c.maxEntries {
			c.evictOldestLocked()
		}
	}

	e := localEntry{value: s, storedAt: now}
	if ttl > 0 {
		e.deadline = now.Add(ttl)
	}
	c.entries[key] = e
	return nil
}

func (c *LocalCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Ping() error { return nil }

func (c *LocalCache) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

// Len counts stored entries, expired ones included until the next sweep.
func (c *LocalCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *LocalCache) evictOldestLocked() {
	var (
		victim string
		oldest time.Time
	)
	for k, e := range c.entries {
		if victim == "" || e.storedAt.Before(oldest) {
			victim, oldest = k, e.storedAt
		}
	}
	delete(c.entries, victim)
	c.log.Debug("Evicted cache entry", zap.String("key", victim))
}

func (c *LocalCache) sweepLocked(now time.Time) int {
	n := 0
	for k, e := range c.entries {
		if !e.live(now) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func (c *LocalCache) sweep() {
	c.mu.Lock()
	n := c.sweepLocked(c.now())
	c.mu.Unlock()

	if n > 0 {
		c.log.Debug("Swept expired cache entries", zap.Int("count", n))
	}
}

func (c *LocalCache) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}
