package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// Tiered layers a fast store over a slow one: reads check fast first and
// promote slow hits, writes land in both.
//
// Len, Size, and MaxSize reflect the slow tier, which holds the full set.
// Hit and miss counters are the pair's own: a hit in either tier counts
// as one tiered hit.
type Tiered struct {
	fast   Store
	slow   Store
	hits   atomic.Int64
	misses atomic.Int64
}

// NewTiered composes two stores. Both must be non-nil.
func NewTiered(fast, slow Store) (*Tiered, error) {
	if fast == nil || slow == nil {
		return nil, ErrNilStore
	}
	return &Tiered{fast: fast, slow: slow}, nil
}

// Get checks the fast tier, then the slow tier. A slow hit is promoted
// into the fast tier with the fast tier's default TTL; the entry's
// remaining TTL is not recoverable through the Store interface.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool) {
	if value, ok := t.fast.Get(ctx, key); ok {
		t.hits.Add(1)
		return value, ok
	}
	value, ok := t.slow.Get(ctx, key)
	if !ok {
		t.misses.Add(1)
		return nil, false
	}
	_ = t.fast.Set(ctx, key, value, DefaultTTL)
	t.hits.Add(1)
	return value, true
}

// Set writes through to both tiers. The slow tier is authoritative: its
// error fails the write, the fast tier's is dropped.
func (t *Tiered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := t.slow.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	_ = t.fast.Set(ctx, key, value, ttl)
	return nil
}

// Delete removes the key from both tiers.
func (t *Tiered) Delete(ctx context.Context, key string) error {
	return errors.Join(t.fast.Delete(ctx, key), t.slow.Delete(ctx, key))
}

// Clear empties both tiers.
func (t *Tiered) Clear(ctx context.Context) error {
	return errors.Join(t.fast.Clear(ctx), t.slow.Clear(ctx))
}

// Len reports the slow tier's entry count.
func (t *Tiered) Len() int {
	return t.slow.Len()
}

// Stats combines the slow tier's population with the pair's own hit and
// miss counters.
func (t *Tiered) Stats() Stats {
	s := t.slow.Stats()
	return buildStats(s.Size, s.MaxSize, t.hits.Load(), t.misses.Load())
}

// Close closes both tiers.
func (t *Tiered) Close() error {
	return errors.Join(t.fast.Close(), t.slow.Close())
}

// Ensure Tiered implements Store
var _ Store = (*Tiered)(nil)
