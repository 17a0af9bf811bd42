package registry

import (
	"github.com/jonwraymond/bastion/cache"
	"github.com/jonwraymond/bastion/resilience"
)

// Stats is a point-in-time snapshot across every owned instance: one
// cache.Stats per store and one CircuitBreakerMetrics per dependency
// that carries a breaker.
type Stats struct {
	Caches   map[string]cache.Stats
	Breakers map[string]resilience.CircuitBreakerMetrics
}

// Stats snapshots every cache and breaker. Dependencies whose breaker is
// disabled in config do not appear in Breakers.
func (r *Registry) Stats() Stats {
	s := Stats{
		Caches:   make(map[string]cache.Stats, len(r.stores)),
		Breakers: make(map[string]resilience.CircuitBreakerMetrics, len(r.executors)),
	}

	for name, store := range r.stores {
		s.Caches[name] = store.Stats()
	}
	for name, exec := range r.executors {
		if cb := exec.Breaker(); cb != nil {
			s.Breakers[name] = cb.Metrics()
		}
	}
	return s
}
