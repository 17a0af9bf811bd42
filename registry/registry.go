package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jonwraymond/bastion/cache"
	"github.com/jonwraymond/bastion/config"
	"github.com/jonwraymond/bastion/observe"
	"github.com/jonwraymond/bastion/resilience"
)

// Sentinel errors for registry lookups.
var (
	ErrUnknownCache      = errors.New("registry: unknown cache")
	ErrUnknownDependency = errors.New("registry: unknown dependency")
)

// Registry owns the long-lived instances built from configuration: one
// cache.Store per configured cache and one resilience.Executor per
// configured dependency. There are no package-level singletons; callers
// hold a *Registry and pass it where needed.
//
// Contract:
//   - Concurrency: all methods are safe for concurrent use.
//   - Ownership: the registry owns cfg's maps and every instance it
//     builds. Close releases them; the observer stays with the caller.
//   - Errors: lookups by unknown name return ErrUnknownCache or
//     ErrUnknownDependency.
type Registry struct {
	mu  sync.RWMutex // guards cfg, which Apply rewrites
	cfg config.Config

	stores    map[string]cache.Store
	executors map[string]*resilience.Executor

	middleware *observe.Middleware
	log        observe.Logger
	metrics    observe.Metrics

	closeOnce sync.Once
	closeErr  error
}

// New builds every configured cache store and dependency executor. The
// config is normalized and validated first; a nil observer disables
// telemetry without changing behavior.
//
// Tiered caches compose the named stores they reference, so a promotion
// into the fast tier is visible through that store's own name.
func New(cfg config.Config, obs observe.Observer) (*Registry, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Registry{
		cfg:       cfg,
		stores:    make(map[string]cache.Store, len(cfg.Caches)),
		executors: make(map[string]*resilience.Executor, len(cfg.Dependencies)),
	}

	if obs != nil {
		mw, err := observe.MiddlewareFromObserver(obs)
		if err != nil {
			return nil, err
		}
		m, err := observe.NewMetrics(obs.Meter())
		if err != nil {
			return nil, err
		}
		r.middleware = mw
		r.log = obs.Logger()
		r.metrics = m
	}

	for name, dep := range cfg.Dependencies {
		r.executors[name] = r.buildExecutor(name, dep)
	}

	// Tiered caches reference other caches by name, so plain stores are
	// built first and tiered ones composed over them.
	for name, cc := range cfg.Caches {
		if cc.Kind == config.KindTiered {
			continue
		}
		store, err := buildStore(cc)
		if err != nil {
			r.closeStores()
			return nil, fmt.Errorf("registry: build cache %q: %w", name, err)
		}
		r.stores[name] = store
	}
	for name, cc := range cfg.Caches {
		if cc.Kind != config.KindTiered {
			continue
		}
		tiered, err := cache.NewTiered(r.stores[cc.Fast], r.stores[cc.Slow])
		if err != nil {
			r.closeStores()
			return nil, fmt.Errorf("registry: build cache %q: %w", name, err)
		}
		r.stores[name] = tiered
	}

	return r, nil
}

// buildExecutor assembles the guard stack for one dependency. Sections
// disabled in config are left out entirely: a negative threshold means no
// breaker, a negative rate no limiter, MaxAttempts 1 no retry layer.
func (r *Registry) buildExecutor(name string, dep config.DependencyConfig) *resilience.Executor {
	opts := make([]resilience.ExecutorOption, 0, 5)

	if dep.RateLimit.Rate > 0 {
		opts = append(opts, resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Rate:  dep.RateLimit.Rate,
			Burst: dep.RateLimit.Burst,
		})))
	}

	if dep.Bulkhead.MaxConcurrent > 0 {
		opts = append(opts, resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{
			MaxConcurrent: dep.Bulkhead.MaxConcurrent,
			MaxWait:       dep.Bulkhead.MaxWait,
		})))
	}

	if dep.Circuit.FailureThreshold > 0 {
		opts = append(opts, resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			MaxFailures:   dep.Circuit.FailureThreshold,
			ResetTimeout:  dep.Circuit.RecoveryTimeout,
			OnStateChange: observe.StateChangeHook(name, r.log, r.metrics),
		})))
	}

	if dep.Retry.MaxAttempts > 1 {
		opts = append(opts, resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  dep.Retry.MaxAttempts,
			InitialDelay: dep.Retry.BaseDelay,
			MaxDelay:     dep.Retry.MaxDelay,
			Multiplier:   dep.Retry.Multiplier,
			Jitter:       !dep.Retry.DisableJitter,
			OnRetry:      observe.RetryHook(name, r.log, r.metrics),
		})))
	}

	if dep.Timeout > 0 {
		opts = append(opts, resilience.WithTimeout(dep.Timeout))
	}

	return resilience.NewExecutor(opts...)
}

func buildStore(cc config.CacheConfig) (cache.Store, error) {
	switch cc.Kind {
	case config.KindMemory:
		return cache.NewMemory(cc.MaxSize, cc.DefaultTTL), nil
	case config.KindDisk:
		return cache.NewDisk(cc.Dir, cc.DefaultTTL)
	case config.KindValkey:
		return cache.NewValkey(cache.ValkeyConfig{
			Address:    cc.Valkey.Address,
			Username:   cc.Valkey.Username,
			Password:   cc.Valkey.Password,
			DB:         cc.Valkey.DB,
			KeyPrefix:  cc.Valkey.KeyPrefix,
			DefaultTTL: cc.DefaultTTL,
		})
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownCacheKind, cc.Kind)
	}
}

// Cache returns the store built for the named cache.
func (r *Registry) Cache(name string) (cache.Store, error) {
	store, ok := r.stores[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCache, name)
	}
	return store, nil
}

// Executor returns the guard stack built for the named dependency.
func (r *Registry) Executor(name string) (*resilience.Executor, error) {
	exec, ok := r.executors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDependency, name)
	}
	return exec, nil
}

// Policy returns the TTL policy for the named cache, for use with the
// cache decorator's WithPolicy option.
func (r *Registry) Policy(name string) (cache.Policy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cc, ok := r.cfg.Caches[name]
	if !ok {
		return cache.Policy{}, fmt.Errorf("%w: %q", ErrUnknownCache, name)
	}
	return cache.Policy{DefaultTTL: cc.DefaultTTL, MaxTTL: cc.MaxTTL}, nil
}

// CacheNames returns the configured cache names, sorted.
func (r *Registry) CacheNames() []string {
	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DependencyNames returns the configured dependency names, sorted.
func (r *Registry) DependencyNames() []string {
	names := make([]string, 0, len(r.executors))
	for name := range r.executors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close releases every store the registry built. Idempotent; later calls
// return the first result. Tiered stores close their tiers, so a shared
// tier may be closed twice, which the Store contract permits.
func (r *Registry) Close(ctx context.Context) error {
	r.closeOnce.Do(func() {
		if err := ctx.Err(); err != nil {
			r.closeErr = err
			return
		}
		r.closeErr = r.closeStores()
	})
	return r.closeErr
}

func (r *Registry) closeStores() error {
	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if err := r.stores[name].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) logInfo(msg string, fields ...observe.Field) {
	if r.log != nil {
		r.log.Info(context.Background(), msg, fields...)
	}
}

func (r *Registry) logWarn(msg string, fields ...observe.Field) {
	if r.log != nil {
		r.log.Warn(context.Background(), msg, fields...)
	}
}
