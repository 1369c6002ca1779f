// Package memo provides process-lifetime memoization for pure computations
// keyed by their arguments.
package memo

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache retains successful results for the life of the process. Errors are
// returned to every caller waiting on the same key but are never stored.
// There is no eviction; keys are expected to come from a small space.
type Cache[K comparable, V any] struct {
	mu     sync.RWMutex
	values map[K]V
	group  singleflight.Group
	hits   int64
	misses int64
}

// New constructs an empty Cache.
func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{values: make(map[K]V)}
}

// Get returns the cached value for key or computes it with fn. Concurrent
// calls for the same key share a single invocation of fn, which runs on a
// context detached from any one caller's cancellation; each caller stops
// waiting when its own ctx is done. fn must bound its own duration.
func (c *Cache[K, V]) Get(ctx context.Context, key K, fn func(context.Context) (V, error)) (V, error) {
	var zero V
	c.mu.RLock()
	v, ok := c.values[key]
	c.mu.RUnlock()
	if ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return v, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(fmt.Sprint(key), func() (any, error) {
		c.mu.RLock()
		v, ok := c.values[key]
		c.mu.RUnlock()
		if ok {
			return v, nil
		}
		v, err := fn(shared)
		if err != nil {
			return v, err
		}
		c.mu.Lock()
		c.values[key] = v
		c.misses++
		c.mu.Unlock()
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

// Peek returns a cached value without computing it.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Len returns the number of retained entries.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// Stats reports hit and miss counters.
func (c *Cache[K, V]) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
