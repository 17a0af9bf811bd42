package registry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/bastion/cache"
	"github.com/jonwraymond/bastion/config"
	"github.com/jonwraymond/bastion/resilience"
)

func fastRetryDependency(attempts int) config.DependencyConfig {
	d := disabledDependency()
	d.Retry = config.RetryConfig{
		MaxAttempts:   attempts,
		BaseDelay:     time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		Multiplier:    2.0,
		DisableJitter: true,
	}
	return d
}

func TestGuard_RetriesUntilSuccess(t *testing.T) {
	reg := newTestRegistry(t, map[string]config.DependencyConfig{
		"card_api": fastRetryDependency(3),
	}, nil)

	var calls int32
	err := reg.Guard(context.Background(), "card_api", "get_card", func(ctx context.Context) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return resilience.Retryable(errors.New("flaky"))
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Guard() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestGuard_NonRetryableSurfacesOnce(t *testing.T) {
	reg := newTestRegistry(t, map[string]config.DependencyConfig{
		"card_api": fastRetryDependency(3),
	}, nil)

	permanent := errors.New("malformed request")
	var calls int32
	err := reg.Guard(context.Background(), "card_api", "", func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return permanent
	})

	if !errors.Is(err, permanent) {
		t.Errorf("Guard() error = %v, want the permanent error", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestGuard_ExhaustionWrapsLastError(t *testing.T) {
	reg := newTestRegistry(t, map[string]config.DependencyConfig{
		"card_api": fastRetryDependency(2),
	}, nil)

	var calls int32
	err := reg.Guard(context.Background(), "card_api", "", func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return resilience.Retryable(errors.New("still down"))
	})

	if !errors.Is(err, resilience.ErrMaxRetriesExceeded) {
		t.Errorf("Guard() error = %v, want ErrMaxRetriesExceeded", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestGuard_CircuitOpensAndFailsFast(t *testing.T) {
	dep := disabledDependency()
	dep.Circuit = config.CircuitConfig{FailureThreshold: 2, RecoveryTimeout: time.Minute}

	reg := newTestRegistry(t, map[string]config.DependencyConfig{
		"card_api": dep,
	}, nil)

	var calls int32
	failing := func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("upstream down")
	}

	for i := 0; i < 2; i++ {
		_ = reg.Guard(context.Background(), "card_api", "", failing)
	}

	err := reg.Guard(context.Background(), "card_api", "", failing)
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("Guard() error = %v, want ErrCircuitOpen", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (open circuit must not invoke the operation)", calls)
	}
}

func TestGuard_TimeoutBoundsAttempt(t *testing.T) {
	dep := disabledDependency()
	dep.Timeout = 20 * time.Millisecond

	reg := newTestRegistry(t, map[string]config.DependencyConfig{
		"card_api": dep,
	}, nil)

	err := reg.Guard(context.Background(), "card_api", "", func(ctx context.Context) error {
		select {
		case <-time.After(200 * time.Millisecond):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	if !errors.Is(err, resilience.ErrTimeout) {
		t.Errorf("Guard() error = %v, want ErrTimeout", err)
	}
}

func TestGuard_RateLimiterPaces(t *testing.T) {
	dep := disabledDependency()
	dep.RateLimit = config.RateLimitConfig{Rate: 50, Burst: 1}

	reg := newTestRegistry(t, map[string]config.DependencyConfig{
		"card_api": dep,
	}, nil)

	noop := func(ctx context.Context) error { return nil }

	start := time.Now()
	for i := 0; i < 2; i++ {
		if err := reg.Guard(context.Background(), "card_api", "", noop); err != nil {
			t.Fatalf("Guard() error = %v", err)
		}
	}
	elapsed := time.Since(start)

	// The burst token covers the first call; the second waits for a
	// refill at 50/s, about 20ms.
	if elapsed < 15*time.Millisecond {
		t.Errorf("elapsed = %v, want the second call paced by the limiter", elapsed)
	}
}

func TestGuard_UnknownDependency(t *testing.T) {
	reg := newTestRegistry(t, nil, nil)

	err := reg.Guard(context.Background(), "nope", "", func(ctx context.Context) error {
		return nil
	})
	if !errors.Is(err, ErrUnknownDependency) {
		t.Errorf("Guard() error = %v, want ErrUnknownDependency", err)
	}
}

func TestGuardValue(t *testing.T) {
	reg := newTestRegistry(t, map[string]config.DependencyConfig{
		"card_api": disabledDependency(),
	}, nil)

	got, err := GuardValue(context.Background(), reg, "card_api", "get_card", func(ctx context.Context) (string, error) {
		return "Black Lotus", nil
	})
	if err != nil {
		t.Fatalf("GuardValue() error = %v", err)
	}
	if got != "Black Lotus" {
		t.Errorf("GuardValue() = %q, want 'Black Lotus'", got)
	}

	fail := errors.New("not found")
	got, err = GuardValue(context.Background(), reg, "card_api", "get_card", func(ctx context.Context) (string, error) {
		return "ignored", fail
	})
	if !errors.Is(err, fail) {
		t.Errorf("GuardValue() error = %v, want the operation error", err)
	}
	if got != "" {
		t.Errorf("GuardValue() = %q on error, want zero value", got)
	}
}

func TestCachedFetch(t *testing.T) {
	reg := newTestRegistry(t, nil, map[string]config.CacheConfig{
		"deck": {Kind: config.KindMemory, MaxSize: 10, DefaultTTL: time.Minute},
	})

	var calls int32
	fetch := func(ctx context.Context, id string) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "analysis of " + id, nil
	}

	analyze, err := CachedFetch(reg, "deck", "analyze_deck", cache.DefaultTTL, fetch)
	if err != nil {
		t.Fatalf("CachedFetch() error = %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		got, err := analyze(ctx, "deck-1")
		if err != nil {
			t.Fatalf("analyze() error = %v", err)
		}
		if got != "analysis of deck-1" {
			t.Errorf("analyze() = %q", got)
		}
	}
	if calls != 1 {
		t.Errorf("calls = %d after repeat, want 1 (second read served from cache)", calls)
	}

	if _, err := analyze(ctx, "deck-2"); err != nil {
		t.Fatalf("analyze() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d after new argument, want 2", calls)
	}
}

func TestCachedFetch_UnknownCache(t *testing.T) {
	reg := newTestRegistry(t, nil, nil)

	_, err := CachedFetch(reg, "nope", "analyze_deck", cache.DefaultTTL, func(ctx context.Context, id string) (string, error) {
		return "", nil
	})
	if !errors.Is(err, ErrUnknownCache) {
		t.Errorf("CachedFetch() error = %v, want ErrUnknownCache", err)
	}
}
