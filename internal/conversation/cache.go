package conversation

import (
	"sync"
	"time"
)

// ResponseCache holds generated replies keyed by the raw user input,
// expiring after a fixed TTL. It is shared across tenants: two tenants
// asking an identical phrase share one cached answer. Knowledge updates
// clear it wholesale.
type ResponseCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	reply   string
	expires time.Time
}

// NewResponseCache creates a cache with the given TTL (1 hour if zero).
func NewResponseCache(ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ResponseCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached reply for input if present and not expired.
// Keys are the raw input text, deliberately unnormalized.
func (c *ResponseCache) Get(input string) (string, bool) {
	key := input

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().After(entry.expires) {
		delete(c.entries, key)
		return "", false
	}
	return entry.reply, true
}

// Put stores a reply for input.
func (c *ResponseCache) Put(input, reply string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[input] = cacheEntry{reply: reply, expires: c.now().Add(c.ttl)}
}

// Clear drops every cached reply. Called when any knowledge base changes.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len reports the number of live entries, for tests and diagnostics.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
