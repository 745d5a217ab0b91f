// Package cache implements a process-local key-value store with per-entry expiry.
package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// InMemoryCache stores values until their TTL elapses. Expired entries are invisible
// to Get immediately and are reclaimed by the cleanup loop.
type InMemoryCache struct {
	mu          sync.RWMutex
	items       map[string]entry
	ttl         time.Duration
	cleanupFreq time.Duration
	now         func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewInMemoryCache creates a cache whose entries live for ttl by default.
func NewInMemoryCache(ttl, cleanupFreq time.Duration) *InMemoryCache {
	return &InMemoryCache{
		items:       make(map[string]entry),
		ttl:         ttl,
		cleanupFreq: cleanupFreq,
		now:         time.Now,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Set stores value under key with the default TTL.
func (c *InMemoryCache) Set(ctx context.Context, key string, value interface{}) {
	c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL stores value under key, replacing any previous entry.
func (c *InMemoryCache) SetWithTTL(_ context.Context, key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
}

// Get returns the live value stored under key.
func (c *InMemoryCache) Get(_ context.Context, key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Take returns the live value under key and removes it in the same step, so a value
// can be consumed at most once.
func (c *InMemoryCache) Take(_ context.Context, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	delete(c.items, key)
	if !c.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (c *InMemoryCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Len reports the number of stored entries, including expired ones not yet reclaimed.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// DeleteExpired removes every expired entry and returns how many were removed.
func (c *InMemoryCache) DeleteExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for k, e := range c.items {
		if !now.Before(e.expiresAt) {
			delete(c.items, k)
			removed++
		}
	}
	return removed
}

// StartCleanup runs DeleteExpired every cleanupFreq until ctx is done or StopCleanup is called.
func (c *InMemoryCache) StartCleanup(ctx context.Context) {
	if c.cleanupFreq <= 0 {
		close(c.done)
		return
	}
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.cleanupFreq)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.DeleteExpired()
			case <-c.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// StopCleanup stops the cleanup loop and waits for it to exit. It must only be
// called after StartCleanup.
func (c *InMemoryCache) StopCleanup() {
	c.stopOnce.Do(func() {
		close(c.stop)
		<-c.done
	})
}
