// Package resilience provides bounded retry with a fixed backoff schedule
// and the transient-vs-fatal error classification used by every network call.
package resilience

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Policy controls retry behavior. Backoff is a fixed, ordered schedule with
// no jitter so tests can assert the exact sleep sequence.
type Policy struct {
	// MaxAttempts is the total number of attempts (including the first try).
	// A value of 1 means no retries. Default: 3.
	MaxAttempts int

	// Backoff is the ordered delay schedule between attempts. When attempts
	// outnumber entries the last entry is reused. Default: 300ms, 800ms, 1.5s.
	Backoff []time.Duration

	// ShouldRetry optionally overrides the default transient-error check.
	// If nil, IsTransient is used.
	ShouldRetry func(err error) bool

	// OnRetry is called before each backoff sleep with attempt number and error.
	OnRetry func(attempt int, err error)
}

// DefaultPolicy returns the retry policy used for geodata and scrape calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Backoff:     []time.Duration{300 * time.Millisecond, 800 * time.Millisecond, 1500 * time.Millisecond},
	}
}

// Delay returns the backoff before retry number attempt (0-based). The last
// schedule entry is reused when the schedule is shorter than MaxAttempts.
func (p Policy) Delay(attempt int) time.Duration {
	if len(p.Backoff) == 0 {
		return 0
	}
	if attempt >= len(p.Backoff) {
		attempt = len(p.Backoff) - 1
	}
	return p.Backoff[attempt]
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if len(p.Backoff) == 0 {
		p.Backoff = DefaultPolicy().Backoff
	}
	return p
}

// Do executes fn under the policy. Only errors classified as transient are
// retried; anything else propagates immediately. After exhausting attempts
// the last transient error is returned. Context cancellation stops retries
// between attempts.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal executes fn returning a value under the policy. Same semantics as Do
// but preserves the return value from the successful call.
func DoVal[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	shouldRetry := p.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsTransient
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		val, err := fn(ctx)
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
		if attempt >= p.MaxAttempts-1 {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt+1, lastErr)
		}

		timer := time.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	return zero, lastErr
}

// RetryLogger returns an OnRetry callback that logs each retry attempt.
func RetryLogger(service, operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying operation",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
