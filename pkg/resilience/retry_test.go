package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookatitude/orchestrator-core/pkg/orcherr"
)

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	fn := func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", orcherr.Dependency("op", "transient", errors.New("timeout"))
		}
		return "ok", nil
	}

	result, err := Retry(context.Background(), RetryPolicy{MaxAttempts: 5, InitialDelay: time.Millisecond}, nil, fn)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestRetry_NonRetryableFailsImmediately(t *testing.T) {
	attempts := 0
	fn := func(ctx context.Context) (string, error) {
		attempts++
		return "", orcherr.Validation("op", "bad input")
	}

	_, err := Retry(context.Background(), RetryPolicy{MaxAttempts: 5, InitialDelay: time.Millisecond}, nil, fn)
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetry_ExhaustsMaxAttempts(t *testing.T) {
	attempts := 0
	fn := func(ctx context.Context) (string, error) {
		attempts++
		return "", orcherr.Dependency("op", "always fails", nil)
	}

	_, err := Retry(context.Background(), RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond}, nil, fn)
	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fn := func(ctx context.Context) (string, error) {
		return "", orcherr.Dependency("op", "should not run", nil)
	}

	_, err := Retry(ctx, DefaultRetryPolicy(time.Millisecond), nil, fn)
	assert.ErrorIs(t, err, context.Canceled)
}
