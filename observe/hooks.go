package observe

import (
	"context"
	"time"

	"github.com/jonwraymond/bastion/resilience"
)

// The hook factories below bridge telemetry into the resilience and cache
// packages without those packages importing observe. Each returns a plain
// callback shaped for the config field it feeds. A nil log or metrics
// argument disables that half of the hook.

// RetryHook returns a callback for resilience RetryConfig.OnRetry that logs
// each retry and counts it against the named dependency.
func RetryHook(dependency string, log Logger, m Metrics) func(attempt int, err error, delay time.Duration) {
	meta := CallMeta{Dependency: dependency}

	return func(attempt int, err error, delay time.Duration) {
		ctx := context.Background()

		if m != nil {
			m.RecordRetry(ctx, meta, attempt)
		}
		if log != nil {
			log.Warn(ctx, "retrying dependency call",
				Field{Key: "call.dependency", Value: dependency},
				Field{Key: "retry.attempt", Value: attempt},
				Field{Key: "retry.delay_ms", Value: float64(delay.Milliseconds())},
				Field{Key: "error", Value: err.Error()},
			)
		}
	}
}

// StateChangeHook returns a callback for resilience CircuitBreakerConfig.OnStateChange.
// The breaker invokes it under its lock, so the callback only records and
// returns; it must not call back into the breaker.
func StateChangeHook(dependency string, log Logger, m Metrics) func(from, to resilience.State) {
	return func(from, to resilience.State) {
		ctx := context.Background()

		if m != nil {
			m.RecordBreakerTransition(ctx, dependency, from.String(), to.String())
		}
		if log != nil {
			fields := []Field{
				{Key: "call.dependency", Value: dependency},
				{Key: "breaker.from", Value: from.String()},
				{Key: "breaker.to", Value: to.String()},
			}
			if to == resilience.StateOpen {
				log.Warn(ctx, "circuit opened", fields...)
			} else {
				log.Info(ctx, "circuit state changed", fields...)
			}
		}
	}
}

// CacheHooks returns onHit/onMiss callbacks for the cache decorator's
// WithHooks option, bound to a named cache domain.
func CacheHooks(name string, log Logger, m Metrics) (onHit, onMiss func(key string)) {
	onHit = func(key string) {
		ctx := context.Background()

		if m != nil {
			m.RecordCacheHit(ctx, name)
		}
		if log != nil {
			log.Debug(ctx, "cache hit",
				Field{Key: "cache.name", Value: name},
				Field{Key: "cache.key", Value: key},
			)
		}
	}

	onMiss = func(key string) {
		ctx := context.Background()

		if m != nil {
			m.RecordCacheMiss(ctx, name)
		}
		if log != nil {
			log.Debug(ctx, "cache miss",
				Field{Key: "cache.name", Value: name},
				Field{Key: "cache.key", Value: key},
			)
		}
	}

	return onHit, onMiss
}
