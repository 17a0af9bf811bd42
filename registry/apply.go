package registry

import (
	"time"

	"github.com/jonwraymond/bastion/config"
	"github.com/jonwraymond/bastion/observe"
)

// ttlSetter is satisfied by stores whose default TTL can change at
// runtime. Memory and disk stores qualify; valkey and tiered stores keep
// the TTL they were built with, though Policy still reflects the update.
type ttlSetter interface {
	SetDefaultTTL(ttl time.Duration)
}

// Apply folds a reloaded configuration into the running instances. Only
// fields that are safe to change without tearing down state are applied:
// rate limits retune in place and cache default TTLs take effect for new
// writes. Everything else, including added or removed names and cache
// kind changes, needs a rebuild and is logged and skipped.
//
// The typical caller is a config.Watcher OnChange callback.
func (r *Registry) Apply(cfg config.Config) error {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for name, dep := range cfg.Dependencies {
		exec, ok := r.executors[name]
		if !ok {
			r.logWarn("new dependency needs a restart",
				observe.Field{Key: "dependency", Value: name})
			continue
		}

		if lim := exec.Limiter(); lim != nil && dep.RateLimit.Rate > 0 {
			lim.Update(dep.RateLimit.Rate, dep.RateLimit.Burst)
			r.logInfo("rate limit updated",
				observe.Field{Key: "dependency", Value: name},
				observe.Field{Key: "rate", Value: dep.RateLimit.Rate},
				observe.Field{Key: "burst", Value: dep.RateLimit.Burst})
		}

		r.cfg.Dependencies[name] = dep
	}

	for name, cc := range cfg.Caches {
		store, ok := r.stores[name]
		if !ok {
			r.logWarn("new cache needs a restart",
				observe.Field{Key: "cache", Value: name})
			continue
		}
		if old := r.cfg.Caches[name]; cc.Kind != old.Kind {
			r.logWarn("cache kind change needs a restart",
				observe.Field{Key: "cache", Value: name},
				observe.Field{Key: "from", Value: old.Kind},
				observe.Field{Key: "to", Value: cc.Kind})
			continue
		}

		if s, ok := store.(ttlSetter); ok {
			s.SetDefaultTTL(cc.DefaultTTL)
		}

		r.cfg.Caches[name] = cc
	}

	return nil
}
