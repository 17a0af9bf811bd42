package cache

import (
	"bytes"
	"container/list"
	"context"
	"sync"
	"time"
)

// Memory is a bounded in-memory store with LRU eviction and per-entry TTLs.
//
// Expired entries are collected lazily: the first access past the deadline
// removes the entry and counts as a miss. CleanupExpired sweeps the rest.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // front = most recently used
	maxSize    int
	defaultTTL time.Duration
	hits       int64
	misses     int64
	closed     bool
}

type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time // zero = never expires
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewMemory creates an in-memory store holding at most maxSize entries.
// maxSize <= 0 means unbounded. defaultTTL applies when Set receives
// DefaultTTL; a zero default means such entries never expire.
func NewMemory(maxSize int, defaultTTL time.Duration) *Memory {
	if maxSize < 0 {
		maxSize = 0
	}
	return &Memory{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
	}
}

// Get retrieves a value and marks it most recently used.
// Returns (nil, false) on miss or expiry.
func (c *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}

	entry := elem.Value.(*memoryEntry)
	if entry.expired(time.Now()) {
		c.removeLocked(elem)
		c.misses++
		return nil, false
	}

	c.order.MoveToFront(elem)
	c.hits++
	// Copy so callers cannot mutate the cached bytes.
	return bytes.Clone(entry.value), true
}

// Set stores a value. Overwriting an existing key refreshes its recency.
// When the store is full the least recently used entry is evicted first.
func (c *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	expiresAt := deadlineFor(ttl, c.defaultTTL, time.Now())

	stored := bytes.Clone(value)
	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*memoryEntry)
		entry.value = stored
		entry.expiresAt = expiresAt
		c.order.MoveToFront(elem)
		return nil
	}

	if c.maxSize > 0 && c.order.Len() >= c.maxSize {
		c.evictOldestLocked()
	}

	elem := c.order.PushFront(&memoryEntry{key: key, value: stored, expiresAt: expiresAt})
	c.entries[key] = elem
	return nil
}

// Delete removes a value from the store. Idempotent - no error on miss.
func (c *Memory) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.removeLocked(elem)
	}
	return nil
}

// Clear removes all entries. Hit and miss counters are lifetime counters
// and survive a Clear.
func (c *Memory) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
	return nil
}

// Len reports the number of stored entries, including expired entries that
// have not been collected yet.
func (c *Memory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// SetDefaultTTL changes the TTL applied to future DefaultTTL writes.
// Existing entries keep their recorded deadlines.
func (c *Memory) SetDefaultTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultTTL = ttl
}

// CleanupExpired removes every expired entry and reports how many were
// dropped. Callers decide the cadence; the store never sweeps on its own.
func (c *Memory) CleanupExpired() int {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, elem := range c.entries {
		if elem.Value.(*memoryEntry).expired(now) {
			c.removeLocked(elem)
			removed++
		}
	}
	return removed
}

// Stats returns a snapshot of the store's counters.
func (c *Memory) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return buildStats(len(c.entries), c.maxSize, c.hits, c.misses)
}

// Close drops all entries and rejects further writes. Idempotent.
func (c *Memory) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.entries = make(map[string]*list.Element)
	c.order.Init()
	return nil
}

func (c *Memory) evictOldestLocked() {
	if elem := c.order.Back(); elem != nil {
		c.removeLocked(elem)
	}
}

func (c *Memory) removeLocked(elem *list.Element) {
	entry := c.order.Remove(elem).(*memoryEntry)
	delete(c.entries, entry.key)
}

// Ensure Memory implements Store
var _ Store = (*Memory)(nil)
