package cache

import "time"

// Policy bounds the TTLs a cache owner writes with. The zero value passes
// requested TTLs through unchanged.
type Policy struct {
	// DefaultTTL replaces a DefaultTTL request. Zero defers the decision
	// to the store's own default.
	DefaultTTL time.Duration

	// MaxTTL is a ceiling applied to every write, including NoExpiry
	// requests. Zero means no ceiling.
	MaxTTL time.Duration
}

// EffectiveTTL resolves a requested TTL against the policy.
func (p Policy) EffectiveTTL(requested time.Duration) time.Duration {
	ttl := requested
	if ttl == DefaultTTL {
		ttl = p.DefaultTTL
	}
	if ttl < 0 {
		ttl = NoExpiry
	}
	if p.MaxTTL > 0 && (ttl == NoExpiry || ttl > p.MaxTTL) {
		ttl = p.MaxTTL
	}
	return ttl
}
