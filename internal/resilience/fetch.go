package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// FetchPolicy governs one external fetch: a per-call timeout and bounded
// retries with exponential backoff and jitter. After the attempts are
// exhausted the source is treated as failed and skipped by the caller.
type FetchPolicy struct {
	// Timeout applies to each individual attempt. Default: 10s.
	Timeout time.Duration

	// MaxAttempts is the total number of attempts including the first.
	// Default: 3.
	MaxAttempts int

	// InitialBackoff is the delay before the first retry. Default: 500ms.
	InitialBackoff time.Duration

	// MaxBackoff caps the backoff. Default: 30s.
	MaxBackoff time.Duration

	// Multiplier scales the backoff after each attempt. Default: 2.0.
	Multiplier float64

	// JitterFraction randomizes the delay by ±fraction. Default: 0.25.
	JitterFraction float64

	// ShouldRetry overrides the transient check. Nil uses IsTransient.
	ShouldRetry func(err error) bool
}

// DefaultFetchPolicy returns the reference external-fetch policy.
func DefaultFetchPolicy() FetchPolicy {
	return FetchPolicy{
		Timeout:        10 * time.Second,
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.25,
	}
}

func (p FetchPolicy) withDefaults() FetchPolicy {
	d := DefaultFetchPolicy()
	if p.Timeout <= 0 {
		p.Timeout = d.Timeout
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = d.InitialBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = d.MaxBackoff
	}
	if p.Multiplier <= 0 {
		p.Multiplier = d.Multiplier
	}
	if p.JitterFraction < 0 {
		p.JitterFraction = 0
	}
	return p
}

// Fetch runs fn under the policy and returns its value. Each attempt gets
// its own timeout; only transient errors are retried; context cancellation
// stops everything immediately.
func Fetch[T any](ctx context.Context, policy FetchPolicy, source string, fn func(ctx context.Context) (T, error)) (T, error) {
	policy = policy.withDefaults()

	shouldRetry := policy.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsTransient
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, policy.Timeout)
		val, err := fn(attemptCtx)
		cancel()
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, lastErr
		}
		if !shouldRetry(lastErr) {
			return zero, lastErr
		}
		if attempt >= policy.MaxAttempts-1 {
			break
		}

		zap.L().Warn("resilience: retrying fetch",
			zap.String("source", source),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr),
		)

		delay := backoff(attempt, policy)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	return zero, lastErr
}

func backoff(attempt int, policy FetchPolicy) time.Duration {
	delay := float64(policy.InitialBackoff) * math.Pow(policy.Multiplier, float64(attempt))
	if delay > float64(policy.MaxBackoff) {
		delay = float64(policy.MaxBackoff)
	}
	if policy.JitterFraction > 0 {
		jitterRange := delay * policy.JitterFraction
		delay += (rand.Float64()*2 - 1) * jitterRange
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
