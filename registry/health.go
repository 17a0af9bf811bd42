package registry

import (
	"github.com/jonwraymond/bastion/health"
)

// Checkers returns a health checker per owned instance: a breaker reader
// for every dependency whose circuit is enabled and a round-trip probe
// for every cache. Store checkers are named "cache:<name>" so a cache and
// a dependency can share a name without colliding in an aggregator.
//
// The order is deterministic: dependencies first, then caches, each
// sorted by name.
func (r *Registry) Checkers() []health.Checker {
	deps := r.DependencyNames()
	caches := r.CacheNames()

	checkers := make([]health.Checker, 0, len(deps)+len(caches))
	for _, name := range deps {
		if cb := r.executors[name].Breaker(); cb != nil {
			checkers = append(checkers, health.NewBreakerChecker(name, cb))
		}
	}
	for _, name := range caches {
		checkers = append(checkers, health.NewStoreChecker("cache:"+name, r.stores[name]))
	}
	return checkers
}
