package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sellout/backend/internal/domain/sellout"
)

// InMemoryReferenceCache holds a single snapshot in process memory.
// It suits single-instance deployments and tests.
type InMemoryReferenceCache struct {
	mu        sync.RWMutex
	snapshot  *sellout.ReferenceSnapshot
	expiresAt time.Time
	now       func() time.Time
}

// NewInMemoryReferenceCache creates an empty cache
func NewInMemoryReferenceCache() *InMemoryReferenceCache {
	return &InMemoryReferenceCache{now: time.Now}
}

// Get returns the snapshot while it has not expired
func (c *InMemoryReferenceCache) Get(_ context.Context) (*sellout.ReferenceSnapshot, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.snapshot == nil || !c.now().Before(c.expiresAt) {
		return nil, false, nil
	}
	return c.snapshot, true, nil
}

// Set replaces the snapshot
func (c *InMemoryReferenceCache) Set(_ context.Context, snapshot *sellout.ReferenceSnapshot, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshot = snapshot
	c.expiresAt = c.now().Add(ttl)
	return nil
}

// Invalidate drops the snapshot
func (c *InMemoryReferenceCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshot = nil
	return nil
}

// Close is a no-op
func (c *InMemoryReferenceCache) Close() error {
	return nil
}

var _ ReferenceCache = (*InMemoryReferenceCache)(nil)
