package wunderground

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrRateLimited marks a provider-side throttling rejection (HTTP 429).
// The Limiter retries these; everything else propagates immediately.
var ErrRateLimited = errors.New("rate limited by provider")

// Provider rate contract and retry policy.
const (
	windowCalls   = 30
	windowPeriod  = 60 * time.Second
	maxAttempts   = 3
	baseRetryWait = 500 * time.Millisecond
)

// Limiter wraps outbound provider calls with two policies: a sliding-window
// cap of windowCalls per windowPeriod, enforced by blocking the caller, and
// an exponential-backoff retry of rate-limited calls up to maxAttempts total.
type Limiter struct {
	mu    sync.Mutex
	calls []time.Time

	limit  int
	window time.Duration

	attempts  int
	baseDelay time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLimiter returns a Limiter with the provider's published rate contract.
func NewLimiter() *Limiter {
	return &Limiter{
		limit:     windowCalls,
		window:    windowPeriod,
		attempts:  maxAttempts,
		baseDelay: baseRetryWait,
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

// Do runs call, blocking first until the sliding window has capacity. A call
// failing with ErrRateLimited is retried with doubling delays; any other
// error returns immediately.
func (l *Limiter) Do(ctx context.Context, call func() error) error {
	var lastErr error

	for attempt := 0; attempt < l.attempts; attempt++ {
		if attempt > 0 {
			delay := l.baseDelay << (attempt - 1)
			if err := l.sleep(ctx, delay); err != nil {
				return err
			}
		}

		if err := l.reserve(ctx); err != nil {
			return err
		}

		err := call()
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrRateLimited) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("giving up after %d attempts: %w", l.attempts, lastErr)
}

// reserve blocks until a call slot is free within the sliding window, then
// records the call timestamp.
func (l *Limiter) reserve(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.prune(now)

		if len(l.calls) < l.limit {
			l.calls = append(l.calls, now)
			l.mu.Unlock()
			return nil
		}

		wait := l.window - now.Sub(l.calls[0])
		l.mu.Unlock()

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// prune drops call timestamps that have aged out of the window. The caller
// must hold the mutex.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.calls) && !l.calls[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.calls = l.calls[i:]
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
