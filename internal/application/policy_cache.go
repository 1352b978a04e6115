package application

import (
	"context"
	"sync"
	"time"

	"github.com/example/desk-booking/internal/persistence"
	"github.com/example/desk-booking/internal/policy"
)

// policyCache stores recently resolved effective booking windows so that
// availability and booking paths do not re-query policy rows on every
// request. Policy edits call Invalidate, so a short TTL only bounds
// staleness across processes.
type policyCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]policyCacheEntry
}

type policyCacheEntry struct {
	window    policy.Window
	expiresAt time.Time
}

func newPolicyCache(ttl time.Duration, maxEntries int, now func() time.Time) *policyCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 128
	}
	if now == nil {
		now = time.Now
	}
	return &policyCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]policyCacheEntry),
	}
}

func (c *policyCache) Get(officeID string) (policy.Window, bool) {
	if c == nil {
		return policy.Window{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[officeID]
	c.mu.RUnlock()
	if !ok {
		return policy.Window{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, officeID)
		c.mu.Unlock()
		return policy.Window{}, false
	}
	return entry.window, true
}

func (c *policyCache) Store(officeID string, window policy.Window) {
	if c == nil {
		return
	}
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[officeID] = policyCacheEntry{window: window, expiresAt: expiry}
}

func (c *policyCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]policyCacheEntry)
	c.mu.Unlock()
}

func (c *policyCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *policyCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

// windowFromPolicy converts a stored policy row into an evaluated window.
// Malformed time-of-day columns fall back to the built-in defaults so a bad
// policy row degrades booking behavior instead of breaking it.
func windowFromPolicy(office persistence.Office, stored persistence.BookingPolicy) policy.Window {
	window := policy.DefaultWindow()
	window.Timezone = office.Timezone

	if stored.ID == "" {
		return window
	}

	window.CheckInAllowedFrom = policy.ParseTimeOfDayOrDefault(stored.CheckInAllowedFrom, policy.DefaultCheckInAllowedFrom)
	window.CheckInCutoff = policy.ParseTimeOfDayOrDefault(stored.CheckInCutoff, policy.DefaultCheckInCutoff)
	if stored.CancellationDeadlineHours >= 0 {
		window.CancellationDeadlineHours = stored.CancellationDeadlineHours
	}
	if stored.MaxAdvanceDays > 0 {
		window.MaxAdvanceDays = stored.MaxAdvanceDays
	}
	return window
}

// resolveWindow loads the effective booking window for an office through the
// cache.
func resolveWindow(ctx context.Context, offices persistence.OfficeRepository, cache *policyCache, officeID string) (policy.Window, error) {
	if window, ok := cache.Get(officeID); ok {
		return window, nil
	}

	office, stored, err := offices.GetEffectivePolicy(ctx, officeID)
	if err != nil {
		return policy.Window{}, err
	}

	window := windowFromPolicy(office, stored)
	cache.Store(officeID, window)
	return window, nil
}
