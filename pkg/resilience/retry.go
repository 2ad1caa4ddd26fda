package resilience

import (
	"context"
	"time"

	"github.com/lookatitude/orchestrator-core/pkg/orcherr"
)

func defaultRetryable(err error) bool { return orcherr.IsRetryable(err) }

// RetryPolicy configures the exponential-backoff retry wrapper.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	// Zero is normalized to DefaultRetryPolicy's value.
	MaxAttempts int
	// InitialDelay is the delay before the second attempt; delay before
	// attempt k+1 is InitialDelay * 2^(k-1).
	InitialDelay time.Duration
}

// DefaultRetryPolicy allows up to 3 attempts, with exponential backoff
// starting at the configured delay.
func DefaultRetryPolicy(initialDelay time.Duration) RetryPolicy {
	if initialDelay <= 0 {
		initialDelay = time.Second
	}
	return RetryPolicy{MaxAttempts: 3, InitialDelay: initialDelay}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = time.Second
	}
	return p
}

// Retry calls fn up to policy.MaxAttempts times. The delay before attempt
// k+1 (1-indexed) is InitialDelay * 2^(k-1). Only orcherr-dependency failures (anything orcherr.IsRetryable accepts)
// are retried; any other error, or a non-nil ctx.Err(), returns
// immediately. isRetryable lets callers substitute their own predicate
// (e.g. gating on a circuit breaker's verdict); a nil predicate defaults to
// orcherr.IsRetryable.
func Retry[T any](ctx context.Context, policy RetryPolicy, isRetryable func(error) bool, fn func(context.Context) (T, error)) (T, error) {
	policy = policy.normalized()
	if isRetryable == nil {
		isRetryable = defaultRetryable
	}

	var zero T
	var lastErr error
	delay := policy.InitialDelay

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == policy.MaxAttempts || !isRetryable(err) {
			return zero, lastErr
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return zero, lastErr
}
