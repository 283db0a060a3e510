package cache

import (
	"context"
	"sync"
	"time"

	"github.com/johnquangdev/qualcoder/internal/domain/entities"
)

// MemoryVerdictCache is an in-process verdict cache with expiration,
// used when Redis is not configured.
type MemoryVerdictCache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]*memoryItem
}

type memoryItem struct {
	verdict    entities.DomainVerdict
	expireTime time.Time
}

// NewMemoryVerdictCache creates a new in-memory verdict cache
func NewMemoryVerdictCache(ttl time.Duration) *MemoryVerdictCache {
	store := &MemoryVerdictCache{
		ttl:   ttl,
		items: make(map[string]*memoryItem),
	}

	// Start cleanup goroutine to remove expired items
	go store.cleanupExpired()

	return store
}

// GetVerdict returns the cached verdict, or nil on a miss.
func (c *MemoryVerdictCache) GetVerdict(_ context.Context, key string) (*entities.DomainVerdict, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists {
		return nil, nil
	}
	if time.Now().After(item.expireTime) {
		return nil, nil
	}

	verdict := item.verdict
	return &verdict, nil
}

// SetVerdict caches a verdict under the transcript hash key.
func (c *MemoryVerdictCache) SetVerdict(_ context.Context, key string, verdict *entities.DomainVerdict) error {
	if verdict == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &memoryItem{
		verdict:    *verdict,
		expireTime: time.Now().Add(c.ttl),
	}
	return nil
}

// Delete removes a key
func (c *MemoryVerdictCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// cleanupExpired periodically removes expired items
func (c *MemoryVerdictCache) cleanupExpired() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		now := time.Now()
		for key, item := range c.items {
			if now.After(item.expireTime) {
				delete(c.items, key)
			}
		}
		c.mu.Unlock()
	}
}
