package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// TTL sentinels accepted by Store.Set.
const (
	// DefaultTTL defers to the store's configured default.
	DefaultTTL time.Duration = 0

	// NoExpiry stores the entry without an expiration time.
	NoExpiry time.Duration = -1
)

// Sentinel errors for cache operations.
var (
	ErrNilStore   = errors.New("cache: store is nil")
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
	ErrClosed     = errors.New("cache: store is closed")
)

// Store is the interface shared by all caching tiers.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods should honor cancellation/deadlines where applicable.
// - Errors: Get never errors; it returns (nil, false) on miss. Every miss
//   and hit is reflected in Stats.
// - TTL: ttl == DefaultTTL applies the store default; ttl == NoExpiry (or
//   any negative value) stores the entry without an expiration.
type Store interface {
	// Get retrieves a cached value. Returns (nil, false) on miss or expiry.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value under key, subject to the TTL convention above.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a cached value. Idempotent - no error on miss.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry owned by the store.
	Clear(ctx context.Context) error

	// Len reports the number of stored entries, including expired entries
	// that have not been collected yet.
	Len() int

	// Stats returns a snapshot of the store's counters.
	Stats() Stats

	// Close releases the store's resources. Idempotent.
	Close() error
}

// Stats is a point-in-time snapshot of a store's counters.
type Stats struct {
	Size        int     `json:"size"`
	MaxSize     int     `json:"max_size"`
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	HitRate     float64 `json:"hit_rate"`
	Utilization float64 `json:"utilization"`
}

// buildStats derives the ratio fields. HitRate is 0 before any access and
// Utilization is 0 for unbounded stores.
func buildStats(size, maxSize int, hits, misses int64) Stats {
	s := Stats{Size: size, MaxSize: maxSize, Hits: hits, Misses: misses}
	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total)
	}
	if maxSize > 0 {
		s.Utilization = float64(size) / float64(maxSize)
	}
	return s
}

// resolveTTL applies the Set TTL convention against a store default.
// The result is NoExpiry when the entry should never expire.
func resolveTTL(ttl, def time.Duration) time.Duration {
	if ttl == DefaultTTL {
		ttl = def
	}
	if ttl <= 0 {
		return NoExpiry
	}
	return ttl
}

// deadlineFor converts a requested TTL into an absolute expiry.
// The zero time means the entry never expires.
func deadlineFor(ttl, def time.Duration, now time.Time) time.Time {
	resolved := resolveTTL(ttl, def)
	if resolved == NoExpiry {
		return time.Time{}
	}
	return now.Add(resolved)
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
