package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// Rate is the token refill rate per second.
	// Default: 100
	Rate float64

	// Burst is the bucket capacity.
	// Default: 10
	Burst int
}

// RateLimiter implements a token bucket rate limiter. Tokens accrue
// lazily from elapsed wall-clock time on each call; there is no
// background refill timer. The bucket starts full.
type RateLimiter struct {
	config RateLimiterConfig

	mu          sync.Mutex
	tokens      float64
	lastRefresh time.Time
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	// Apply defaults
	if config.Rate <= 0 {
		config.Rate = 100
	}
	if config.Burst <= 0 {
		config.Burst = 10
	}

	return &RateLimiter{
		config:      config,
		tokens:      float64(config.Burst),
		lastRefresh: time.Now(),
	}
}

// Allow checks if a request is allowed under the rate limit.
func (rl *RateLimiter) Allow() bool {
	return rl.AllowN(1)
}

// AllowN checks if n requests are allowed without waiting.
func (rl *RateLimiter) AllowN(n int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillLocked()

	if rl.tokens >= float64(n) {
		rl.tokens -= float64(n)
		return true
	}

	return false
}

// Acquire suspends the caller until a token is available, then consumes
// it. Returns ctx.Err() if the context is cancelled while waiting.
func (rl *RateLimiter) Acquire(ctx context.Context) error {
	return rl.WaitN(ctx, 1)
}

// Wait blocks until a token is available or the context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.WaitN(ctx, 1)
}

// WaitN blocks until n tokens are available. The lock is never held
// across a sleep; a woken waiter races newer arrivals for the refilled
// tokens, so FIFO ordering is not guaranteed.
func (rl *RateLimiter) WaitN(ctx context.Context, n int) error {
	// Check context first
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	for {
		rl.mu.Lock()
		if burst := rl.config.Burst; n > burst {
			rl.mu.Unlock()
			return fmt.Errorf("resilience: rate limiter burst %d cannot satisfy %d tokens", burst, n)
		}
		rl.refillLocked()

		if rl.tokens >= float64(n) {
			rl.tokens -= float64(n)
			rl.mu.Unlock()
			return nil
		}

		tokensNeeded := float64(n) - rl.tokens
		waitTime := time.Duration(tokensNeeded / rl.config.Rate * float64(time.Second))
		rl.mu.Unlock()

		timer := time.NewTimer(waitTime)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			// Refill and try again
		}
	}
}

// Execute acquires a token, waiting if necessary, then runs the
// operation. The operation itself runs outside the limiter's lock.
func (rl *RateLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := rl.Acquire(ctx); err != nil {
		return err
	}

	return op(ctx)
}

func (rl *RateLimiter) refillLocked() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefresh)
	rl.lastRefresh = now

	// Add tokens based on elapsed time
	tokensToAdd := elapsed.Seconds() * rl.config.Rate
	rl.tokens += tokensToAdd

	// Cap at burst size
	if rl.tokens > float64(rl.config.Burst) {
		rl.tokens = float64(rl.config.Burst)
	}
}

// Tokens returns the current number of available tokens.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillLocked()
	return rl.tokens
}

// Update replaces the rate and burst, keeping accrued tokens up to the
// new capacity. Safe to call while waiters are asleep; they refill at
// the new rate on wake.
func (rl *RateLimiter) Update(rate float64, burst int) {
	if rate <= 0 || burst <= 0 {
		return
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillLocked()
	rl.config.Rate = rate
	rl.config.Burst = burst
	if rl.tokens > float64(burst) {
		rl.tokens = float64(burst)
	}
}

// Reset refills the bucket to full capacity.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.tokens = float64(rl.config.Burst)
	rl.lastRefresh = time.Now()
}
