package service

import (
	"sync"
	"time"
)

// ValidationCache holds per-user account-validation verdicts with
// per-entry TTLs. It is shared by every in-flight request, so access
// is guarded by an RWMutex; two requests refreshing the same key race
// benignly (last write wins, the duplicate remote check is idempotent).
// Constructed once at startup and cleared wholesale on invalidation.
type ValidationCache struct {
	mu      sync.RWMutex
	entries map[string]validationEntry

	// now is overridable for tests.
	now func() time.Time
}

type validationEntry struct {
	isValid   bool
	timestamp time.Time
	ttl       time.Duration
}

// NewValidationCache constructs an empty cache.
func NewValidationCache() *ValidationCache {
	return &ValidationCache{
		entries: make(map[string]validationEntry),
		now:     time.Now,
	}
}

// Get returns the cached verdict for userID. An entry older than its
// TTL is treated as absent; eviction is left to the next Set.
func (c *ValidationCache) Get(userID string) (isValid, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, found := c.entries[userID]
	if !found {
		return false, false
	}
	if c.now().Sub(entry.timestamp) >= entry.ttl {
		return false, false
	}
	return entry.isValid, true
}

// Set records a verdict for userID with the given TTL.
func (c *ValidationCache) Set(userID string, isValid bool, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = validationEntry{isValid: isValid, timestamp: c.now(), ttl: ttl}
}

// Delete removes the entry for a single user.
func (c *ValidationCache) Delete(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}

// Clear drops every entry. Called when a session is invalidated; the
// session is being destroyed anyway, so wholesale clearing is the
// simplest behavior that cannot leave a stale verdict behind.
func (c *ValidationCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]validationEntry)
}

// Len reports the number of stored entries, live or expired.
func (c *ValidationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
