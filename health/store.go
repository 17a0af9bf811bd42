package health

import (
	"bytes"
	"context"
	"strconv"
	"time"

	"github.com/jonwraymond/bastion/cache"
)

// probeTTL bounds how long an orphaned probe entry can linger when the
// delete after a successful round trip does not run.
const probeTTL = time.Minute

// StoreChecker verifies a cache store with a write-read-delete round
// trip. A store that cannot complete the round trip reads as unhealthy.
//
// The probe goes through the store's public operations, so each check
// adds one hit to the store's stats.
type StoreChecker struct {
	name  string
	store cache.Store
}

// NewStoreChecker creates a checker probing the named cache store.
func NewStoreChecker(name string, store cache.Store) *StoreChecker {
	return &StoreChecker{name: name, store: store}
}

// Name returns the cache name.
func (c *StoreChecker) Name() string {
	return c.name
}

// Check writes a probe entry, reads it back, and deletes it.
func (c *StoreChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	key := "health:probe:" + c.name
	value := []byte(strconv.FormatInt(time.Now().UnixNano(), 10))

	if err := c.store.Set(ctx, key, value, probeTTL); err != nil {
		return Unhealthy("probe write failed", err)
	}

	got, ok := c.store.Get(ctx, key)
	if !ok {
		return Unhealthy("probe read missed", ErrCheckFailed)
	}
	if !bytes.Equal(got, value) {
		return Unhealthy("probe read returned a different value", ErrCheckFailed)
	}

	if err := c.store.Delete(ctx, key); err != nil {
		return Degraded("probe delete failed: " + err.Error())
	}

	s := c.store.Stats()
	return Healthy("probe round trip ok").WithDetails(map[string]any{
		"size":     s.Size,
		"hits":     s.Hits,
		"misses":   s.Misses,
		"hit_rate": s.HitRate,
	})
}

var _ Checker = (*StoreChecker)(nil)
