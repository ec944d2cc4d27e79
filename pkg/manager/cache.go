package manager

import (
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/permkit/permctx/pkg/contexts"
)

// staticFlightKey is the singleflight key for the static path, which has a
// single cache slot.
const staticFlightKey = "static"

// subjectEntry is a cached per-subject resolution with its storage time.
// Expiry is checked on read rather than evicted by a background goroutine,
// matching the short TTL: a stale entry only wastes a cache slot until the
// LRU pushes it out.
type subjectEntry struct {
	value    *contexts.Contexts
	storedAt time.Time
}

// subjectCache caches per-subject resolutions keyed by subject ID, bounded by
// an LRU and expired by TTL. Concurrent misses for the same subject collapse
// into a single resolution via singleflight.
type subjectCache struct {
	ttl     time.Duration
	entries *lru.Cache[uuid.UUID, subjectEntry]
	group   singleflight.Group
}

func newSubjectCache(maxEntries int, ttl time.Duration) (*subjectCache, error) {
	entries, err := lru.New[uuid.UUID, subjectEntry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &subjectCache{
		ttl:     ttl,
		entries: entries,
	}, nil
}

// get returns the cached value for id, resolving it at most once across
// concurrent callers when absent or expired.
func (c *subjectCache) get(id uuid.UUID, resolve func() *contexts.Contexts) *contexts.Contexts {
	if entry, ok := c.entries.Get(id); ok && time.Since(entry.storedAt) < c.ttl {
		return entry.value
	}

	value, _, _ := c.group.Do(id.String(), func() (interface{}, error) {
		// A concurrent caller may have stored a fresh entry while this one
		// waited on the flight group.
		if entry, ok := c.entries.Get(id); ok && time.Since(entry.storedAt) < c.ttl {
			return entry.value, nil
		}
		resolved := resolve()
		c.entries.Add(id, subjectEntry{value: resolved, storedAt: time.Now()})
		return resolved, nil
	})
	return value.(*contexts.Contexts)
}

// invalidate drops the cached entry for id. An in-flight resolution for the
// same id is forgotten so the next caller triggers a fresh one.
func (c *subjectCache) invalidate(id uuid.UUID) {
	c.entries.Remove(id)
	c.group.Forget(id.String())
}

// purge drops every cached entry.
func (c *subjectCache) purge() {
	c.entries.Purge()
}

// staticCache is the single-slot counterpart of subjectCache for the
// subject-independent path.
type staticCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	value    *contexts.Contexts
	storedAt time.Time
	group    singleflight.Group
}

func newStaticCache(ttl time.Duration) *staticCache {
	return &staticCache{ttl: ttl}
}

func (c *staticCache) get(resolve func() *contexts.Contexts) *contexts.Contexts {
	c.mu.Lock()
	if c.value != nil && time.Since(c.storedAt) < c.ttl {
		value := c.value
		c.mu.Unlock()
		return value
	}
	c.mu.Unlock()

	value, _, _ := c.group.Do(staticFlightKey, func() (interface{}, error) {
		c.mu.Lock()
		if c.value != nil && time.Since(c.storedAt) < c.ttl {
			value := c.value
			c.mu.Unlock()
			return value, nil
		}
		c.mu.Unlock()

		resolved := resolve()

		c.mu.Lock()
		c.value = resolved
		c.storedAt = time.Now()
		c.mu.Unlock()
		return resolved, nil
	})
	return value.(*contexts.Contexts)
}

func (c *staticCache) invalidate() {
	c.mu.Lock()
	c.value = nil
	c.mu.Unlock()
	c.group.Forget(staticFlightKey)
}
