package registry

import (
	"context"
	"time"

	"github.com/jonwraymond/bastion/cache"
	"github.com/jonwraymond/bastion/observe"
)

// Guard runs op through the named dependency's executor, wrapped in the
// observability middleware when an observer was supplied. The operation
// string names the call for spans and logs; it may be empty.
func (r *Registry) Guard(ctx context.Context, dependency, operation string, op func(context.Context) error) error {
	exec, err := r.Executor(dependency)
	if err != nil {
		return err
	}

	run := func(ctx context.Context) error {
		return exec.Execute(ctx, op)
	}

	if r.middleware == nil {
		return run(ctx)
	}
	meta := observe.CallMeta{Dependency: dependency, Operation: operation}
	return r.middleware.Do(ctx, meta, run)
}

// GuardValue runs op through the named dependency's executor and returns
// its value.
func GuardValue[T any](ctx context.Context, r *Registry, dependency, operation string, op func(context.Context) (T, error)) (T, error) {
	var result T
	err := r.Guard(ctx, dependency, operation, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

// CachedFetch wraps fetch with read-through caching against the named
// cache, applying that cache's TTL policy and hit/miss telemetry. The fn
// string namespaces derived keys; ttl follows the cache.Cached convention.
func CachedFetch[A any, T any](r *Registry, name, fn string, ttl time.Duration, fetch cache.FetchFunc[A, T]) (cache.FetchFunc[A, T], error) {
	store, err := r.Cache(name)
	if err != nil {
		return nil, err
	}
	policy, err := r.Policy(name)
	if err != nil {
		return nil, err
	}

	onHit, onMiss := observe.CacheHooks(name, r.log, r.metrics)
	return cache.Cached(store, fn, ttl, fetch,
		cache.WithPolicy(policy),
		cache.WithHooks(onHit, onMiss),
	), nil
}
