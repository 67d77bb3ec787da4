// Package sessioncache implements the bounded session-counter map used to
// carry per-session traffic counters across the APPTRACK_SESSION_CREATE /
// APPTRACK_SESSION_CLOSE message pair, grounded on
// StructuredSyslogConfig::session_config_map_ in the original collector.
package sessioncache

import "sync"

// Cache is a bounded map of session-key to named u64 counters. Admission
// policy: accepted if the key already exists, or the map is below limit;
// on overflow the new key is refused without evicting anything.
type Cache struct {
	mu      sync.Mutex
	limit   int
	entries map[string]map[string]uint64
}

// New creates a Cache admitting at most limit distinct session keys.
func New(limit int) *Cache {
	return &Cache{
		limit:   limit,
		entries: make(map[string]map[string]uint64),
	}
}

// Put inserts or replaces the counters for key. Returns false without
// modifying the cache if key is new and the cache is already at limit.
func (c *Cache) Put(key string, counters map[string]uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.limit {
		return false
	}
	cp := make(map[string]uint64, len(counters))
	for k, v := range counters {
		cp[k] = v
	}
	c.entries[key] = cp
	return true
}

// Get returns a copy of the counters stored for key, and whether key was
// found.
func (c *Cache) Get(key string) (map[string]uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	counters, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	cp := make(map[string]uint64, len(counters))
	for k, v := range counters {
		cp[k] = v
	}
	return cp, true
}

// Remove deletes key and returns 1 if it was present, 0 otherwise
// (mirrors std::map::erase's return value in the original).
func (c *Cache) Remove(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		return 0
	}
	delete(c.entries, key)
	return 1
}

// Len reports the number of distinct session keys currently tracked.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
