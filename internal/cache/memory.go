// internal/cache/memory.go
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// InMemoryCache is a process-local Store. Expired entries are hidden from
// Get immediately and reclaimed by the cleanup goroutine.
type InMemoryCache struct {
	mu          sync.RWMutex
	items       map[string]entry
	ttl         time.Duration
	cleanupFreq time.Duration
	now         func() time.Time

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

var _ Store = (*InMemoryCache)(nil)

// NewInMemoryCache creates a cache whose entries default to ttl.
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

func (c *InMemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expiresAt) {
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores value for ttl, or for the cache default when ttl is zero.
func (c *InMemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.mu.Lock()
	c.items[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *InMemoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.items, k)
	}
	c.mu.Unlock()
	return nil
}

// Len counts stored entries, expired or not.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// StartCleanup runs the janitor until ctx is done or StopCleanup is called.
func (c *InMemoryCache) StartCleanup(ctx context.Context) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
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
				c.deleteExpired()
			case <-ctx.Done():
				return
			case <-c.stop:
				return
			}
		}
	}()
}

// StopCleanup stops the janitor and waits for it to exit.
func (c *InMemoryCache) StopCleanup() {
	c.stopOnce.Do(func() {
		close(c.stop)
		if c.started.Load() {
			<-c.done
		}
	})
}

func (c *InMemoryCache) Close() error {
	c.StopCleanup()
	return nil
}

func (c *InMemoryCache) deleteExpired() {
	now := c.now()
	c.mu.Lock()
	for k, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, k)
		}
	}
	c.mu.Unlock()
}
