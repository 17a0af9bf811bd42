package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// FetchFunc is the function signature wrapped by Cached: a fetch keyed by
// a single argument value.
type FetchFunc[A any, T any] func(ctx context.Context, arg A) (T, error)

type cachedOptions struct {
	keyer  Keyer
	policy Policy
	bypass func(ctx context.Context) bool
	onHit  func(key string)
	onMiss func(key string)
}

// CachedOption configures a Cached wrapper.
type CachedOption func(*cachedOptions)

// WithKeyer overrides key derivation.
func WithKeyer(k Keyer) CachedOption {
	return func(o *cachedOptions) {
		if k != nil {
			o.keyer = k
		}
	}
}

// WithPolicy bounds the TTLs the wrapper writes with.
func WithPolicy(p Policy) CachedOption {
	return func(o *cachedOptions) {
		o.policy = p
	}
}

// WithBypass skips the cache entirely when fn reports true, e.g. for a
// force-refresh flag carried in the context.
func WithBypass(fn func(ctx context.Context) bool) CachedOption {
	return func(o *cachedOptions) {
		o.bypass = fn
	}
}

// WithHooks observes cache hits and misses. Hooks receive the derived key
// and must not call back into the store.
func WithHooks(onHit, onMiss func(key string)) CachedOption {
	return func(o *cachedOptions) {
		o.onHit = onHit
		o.onMiss = onMiss
	}
}

// Cached wraps fetch with read-through caching.
//
// On hit the cached value is decoded and returned without invoking fetch.
// On miss, concurrent callers for the same key are collapsed into one
// fetch and share its result. Errors are never cached; the store write
// after a successful fetch is best-effort. Values round-trip through JSON,
// so T must marshal losslessly.
//
// A nil store disables caching and fetch is called directly.
func Cached[A any, T any](store Store, fn string, ttl time.Duration, fetch FetchFunc[A, T], opts ...CachedOption) FetchFunc[A, T] {
	o := cachedOptions{keyer: NewDefaultKeyer()}
	for _, opt := range opts {
		opt(&o)
	}
	if store == nil {
		return fetch
	}

	group := new(singleflight.Group)

	return func(ctx context.Context, arg A) (T, error) {
		if o.bypass != nil && o.bypass(ctx) {
			return fetch(ctx, arg)
		}

		key, err := o.keyer.Key(fn, arg)
		if err != nil {
			// Key derivation failed - fetch without caching
			return fetch(ctx, arg)
		}

		if data, ok := store.Get(ctx, key); ok {
			var out T
			if err := json.Unmarshal(data, &out); err == nil {
				if o.onHit != nil {
					o.onHit(key)
				}
				return out, nil
			}
			// Undecodable entry (stale schema) - drop it and refetch
			_ = store.Delete(ctx, key)
		}

		if o.onMiss != nil {
			o.onMiss(key)
		}

		// The first caller's context drives the fetch; duplicates wait on
		// its outcome.
		v, err, _ := group.Do(key, func() (any, error) {
			out, err := fetch(ctx, arg)
			if err != nil {
				// Don't cache errors
				return nil, err
			}
			if payload, merr := json.Marshal(out); merr == nil {
				_ = store.Set(ctx, key, payload, o.policy.EffectiveTTL(ttl))
			}
			return out, nil
		})
		if err != nil {
			var zero T
			return zero, err
		}

		out, ok := v.(T)
		if !ok {
			var zero T
			return zero, fmt.Errorf("cache: unexpected cached value type %T", v)
		}
		return out, nil
	}
}
