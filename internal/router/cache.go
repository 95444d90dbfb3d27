package router

import (
	"sync"
	"time"

	"github.com/opengovchat/decision-bot-go/internal/domain"
)

type cacheEntry struct {
	result    *domain.ClassificationResult
	provider  string
	timestamp time.Time
}

// resultCache memoizes classification results by normalized input text.
// Classification is deterministic, so entries never go stale semantically;
// the TTL mainly bounds memory and caps how long an LLM-assisted parse is
// reused without re-consulting the model.
type resultCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	ttl     time.Duration
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
	}
}

func (c *resultCache) get(key string) (*cacheEntry, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if time.Since(entry.timestamp) >= c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}

	return entry, true
}

func (c *resultCache) set(key string, result *domain.ClassificationResult, provider string) {
	if c == nil || c.ttl <= 0 || key == "" || result == nil {
		return
	}

	c.mu.Lock()
	c.entries[key] = &cacheEntry{
		result:    result,
		provider:  provider,
		timestamp: time.Now(),
	}
	c.mu.Unlock()
}

func (c *resultCache) size() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
