package resilience_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/bastion/resilience"
)

func ExampleNewCircuitBreaker() {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures:  3,
		ResetTimeout: time.Second,
	})

	ctx := context.Background()
	err := cb.Execute(ctx, func(ctx context.Context) error {
		// Call the card pricing API here.
		return nil
	})

	if err == nil {
		fmt.Println("price lookup succeeded")
	}
	// Output:
	// price lookup succeeded
}

func ExampleCircuitBreaker_State() {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures:  2,
		ResetTimeout: time.Minute,
	})

	ctx := context.Background()
	fmt.Println("initial:", cb.State())

	apiDown := &resilience.UnavailableError{Err: errors.New("card api 503")}
	for i := 0; i < 2; i++ {
		_ = cb.Execute(ctx, func(ctx context.Context) error {
			return apiDown
		})
	}
	fmt.Println("after failures:", cb.State())

	cb.Reset()
	fmt.Println("after reset:", cb.State())
	// Output:
	// initial: closed
	// after failures: open
	// after reset: closed
}

func ExampleNewCircuitBreaker_withStateChange() {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures:  1,
		ResetTimeout: time.Minute,
		OnStateChange: func(from, to resilience.State) {
			fmt.Printf("card_api circuit: %s -> %s\n", from, to)
		},
	})

	ctx := context.Background()
	_ = cb.Execute(ctx, func(ctx context.Context) error {
		return errors.New("card api timeout")
	})
	// Output:
	// card_api circuit: closed -> open
}

func ExampleNewRetry() {
	retry := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
		Strategy:     resilience.BackoffExponential,
		Jitter:       false, // deterministic delays for the example
	})

	ctx := context.Background()
	attempts := 0

	err := retry.Execute(ctx, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return &resilience.NetworkError{Err: errors.New("connection reset")}
		}
		return nil
	})

	if err == nil {
		fmt.Printf("fetched card after %d attempts\n", attempts)
	}
	// Output:
	// fetched card after 3 attempts
}

func ExampleNewRetry_withCallback() {
	retry := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		Jitter:       false,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			fmt.Printf("attempt %d failed, backing off\n", attempt)
		},
	})

	ctx := context.Background()
	attempts := 0

	_ = retry.Execute(ctx, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return resilience.Retryable(errors.New("search index warming up"))
		}
		return nil
	})

	fmt.Println("done")
	// Output:
	// attempt 1 failed, backing off
	// attempt 2 failed, backing off
	// done
}

func ExampleClassify() {
	fmt.Println(resilience.Classify(&resilience.NetworkError{Err: errors.New("connection reset")}))
	fmt.Println(resilience.Classify(&resilience.UnavailableError{Err: errors.New("503")}))
	fmt.Println(resilience.Classify(errors.New("invalid deck list")))
	fmt.Println(resilience.Classify(resilience.ErrCircuitOpen))
	// Output:
	// retry
	// trip
	// halt
	// halt
}

func ExampleNewRateLimiter() {
	// The card API allows 100 requests per second with short bursts.
	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{
		Rate:  100,
		Burst: 5,
	})

	if rl.Allow() {
		fmt.Println("single lookup admitted")
	}
	if rl.AllowN(3) {
		fmt.Println("batch of 3 admitted")
	}
	// Output:
	// single lookup admitted
	// batch of 3 admitted
}

func ExampleRateLimiter_Execute() {
	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{
		Rate:  100,
		Burst: 2,
	})

	ctx := context.Background()
	successCount := 0

	// Execute paces admission: the third call waits for a refill
	// instead of being rejected.
	for i := 0; i < 3; i++ {
		err := rl.Execute(ctx, func(ctx context.Context) error {
			return nil
		})
		if err == nil {
			successCount++
		}
	}

	fmt.Printf("Successful executions: %d\n", successCount)
	// Output:
	// Successful executions: 3
}

func ExampleNewBulkhead() {
	// At most two deck analyses in flight; extra callers are turned away.
	bh := resilience.NewBulkhead(resilience.BulkheadConfig{
		MaxConcurrent: 2,
	})

	ctx := context.Background()

	first := bh.Acquire(ctx)
	second := bh.Acquire(ctx)
	third := bh.Acquire(ctx)

	fmt.Println("first admitted:", first == nil)
	fmt.Println("second admitted:", second == nil)
	fmt.Println("third rejected:", errors.Is(third, resilience.ErrBulkheadFull))

	bh.Release()
	fmt.Println("after release:", bh.Acquire(ctx) == nil)
	// Output:
	// first admitted: true
	// second admitted: true
	// third rejected: true
	// after release: true
}

func ExampleBulkhead_Metrics() {
	bh := resilience.NewBulkhead(resilience.BulkheadConfig{
		MaxConcurrent: 5,
	})

	ctx := context.Background()
	_ = bh.Acquire(ctx)
	_ = bh.Acquire(ctx)

	m := bh.Metrics()
	fmt.Printf("active %d of %d, %d free\n", m.Active, m.MaxConcurrent, m.Available)
	// Output:
	// active 2 of 5, 3 free
}

func ExampleNewTimeout() {
	timeout := resilience.NewTimeout(resilience.TimeoutConfig{
		Timeout: 100 * time.Millisecond,
	})

	ctx := context.Background()

	err := timeout.Execute(ctx, func(ctx context.Context) error {
		return nil
	})
	fmt.Println("fast lookup error:", err)

	err = timeout.Execute(ctx, func(ctx context.Context) error {
		// A stuck upstream; the attempt budget cuts it off.
		<-ctx.Done()
		return ctx.Err()
	})
	fmt.Println("stuck lookup timed out:", errors.Is(err, resilience.ErrTimeout))
	// Output:
	// fast lookup error: <nil>
	// stuck lookup timed out: true
}

func ExampleExecuteWithTimeout() {
	ctx := context.Background()

	err := resilience.ExecuteWithTimeout(ctx, 50*time.Millisecond, func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	})

	fmt.Println("completed in budget:", err == nil)
	// Output:
	// completed in budget: true
}

func ExampleNewExecutor() {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures:  5,
		ResetTimeout: time.Minute,
	})
	retry := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 10 * time.Millisecond,
		Jitter:       false,
	})
	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{
		Rate:  100,
		Burst: 10,
	})

	// One guard for every card API call: the limiter admits, the breaker
	// trips on repeated failures, the retry absorbs transient ones, and
	// the timeout bounds each attempt.
	executor := resilience.NewExecutor(
		resilience.WithRateLimiter(rl),
		resilience.WithCircuitBreaker(cb),
		resilience.WithRetry(retry),
		resilience.WithTimeout(time.Second),
	)

	ctx := context.Background()
	err := executor.Execute(ctx, func(ctx context.Context) error {
		return nil
	})

	fmt.Println("guarded call succeeded:", err == nil)
	// Output:
	// guarded call succeeded: true
}

func ExampleExecutor_fallbacks() {
	retry := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		Jitter:       false,
	})

	executor := resilience.NewExecutor(resilience.WithRetry(retry))

	ctx := context.Background()
	err := executor.Execute(ctx, func(ctx context.Context) error {
		return &resilience.NetworkError{Err: errors.New("connection reset")}
	})

	// Callers pick a different fallback per outcome
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		fmt.Println("circuit open: serve stale data")
	case errors.Is(err, resilience.ErrMaxRetriesExceeded):
		fmt.Println("retries exhausted: degrade the response")
	default:
		fmt.Println("permanent failure: surface to the caller")
	}
	// Output:
	// retries exhausted: degrade the response
}

func ExampleExecutor_withBulkhead() {
	bh := resilience.NewBulkhead(resilience.BulkheadConfig{
		MaxConcurrent: 10,
	})

	executor := resilience.NewExecutor(
		resilience.WithBulkhead(bh),
		resilience.WithTimeout(time.Second),
	)

	ctx := context.Background()
	err := executor.Execute(ctx, func(ctx context.Context) error {
		// Deck analysis capped at ten concurrent runs.
		return nil
	})

	fmt.Println("analysis admitted:", err == nil)
	// Output:
	// analysis admitted: true
}
