package snapshot

import (
	"context"
	"time"

	"github.com/1broseidon/xswitcher/internal/metrics"
)

// DefaultTTL bounds how long a snapshot is reused. Launchers re-query on
// every keystroke; two seconds keeps typing responsive while still picking
// up newly opened windows quickly.
const DefaultTTL = 2 * time.Second

// BuildFunc produces a fresh snapshot.
type BuildFunc func(ctx context.Context) (*Snapshot, error)

// Cache memoizes one snapshot for a fixed TTL. The caller supplies the
// current time, so the cache never reads a clock.
//
// Cache is not safe for concurrent use; callers must synchronize externally.
type Cache struct {
	build   BuildFunc
	ttl     time.Duration
	metrics *metrics.Metrics

	snap    *Snapshot
	builtAt time.Time
}

// NewCache wraps build with a TTL. A ttl <= 0 disables caching.
func NewCache(build BuildFunc, ttl time.Duration, m *metrics.Metrics) *Cache {
	return &Cache{build: build, ttl: ttl, metrics: m}
}

// Get returns the cached snapshot while it is younger than the TTL, and
// builds a new one otherwise. Failed builds are not cached.
func (c *Cache) Get(ctx context.Context, now time.Time) (*Snapshot, error) {
	if c.fresh(now) {
		c.metrics.CacheLookup(true)
		return c.snap, nil
	}
	c.metrics.CacheLookup(false)

	snap, err := c.build(ctx)
	if err != nil {
		return nil, err
	}
	c.snap = snap
	c.builtAt = now
	return snap, nil
}

// Invalidate drops the cached snapshot so the next Get rebuilds.
func (c *Cache) Invalidate() {
	c.snap = nil
	c.builtAt = time.Time{}
}

// BuiltAt returns when the cached snapshot was built, or the zero time.
func (c *Cache) BuiltAt() time.Time {
	return c.builtAt
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// SetTTL changes the time-to-live, e.g. after a config reload.
func (c *Cache) SetTTL(ttl time.Duration) {
	c.ttl = ttl
}

func (c *Cache) fresh(now time.Time) bool {
	if c.snap == nil || c.ttl <= 0 {
		return false
	}
	age := now.Sub(c.builtAt)
	// A clock that moved backwards invalidates the entry.
	return age >= 0 && age < c.ttl
}
