// Package resilience provides the reliability primitives shared by every
// external dependency call the orchestration core makes: a circuit breaker,
// an exponential-backoff retry wrapper, and a per-(operation, identity)
// rate limiter.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/lookatitude/orchestrator-core/pkg/orcherr"
)

// BreakerState mirrors the CLOSED/OPEN/HALF_OPEN vocabulary of the
// orchestration core's design, translated from gobreaker's own state type.
type BreakerState string

const (
	StateClosed   BreakerState = "CLOSED"
	StateOpen     BreakerState = "OPEN"
	StateHalfOpen BreakerState = "HALF_OPEN"
)

// DefaultFailureThreshold and DefaultRecoveryTimeout are applied when a
// caller passes a non-positive value to NewCircuitBreaker.
const (
	DefaultFailureThreshold uint32 = 5
	DefaultRecoveryTimeout         = 60 * time.Second
)

// CircuitBreaker guards calls to a single external dependency. It wraps
// sony/gobreaker rather than reimplementing the CLOSED/OPEN/HALF_OPEN state
// machine by hand.
type CircuitBreaker struct {
	name string
	cb   *gobreaker.CircuitBreaker
}

// NewCircuitBreaker constructs a breaker for the named dependency.
// failureThreshold <= 0 uses DefaultFailureThreshold; recoveryTimeout <= 0
// uses DefaultRecoveryTimeout.
func NewCircuitBreaker(name string, failureThreshold uint32, recoveryTimeout time.Duration) *CircuitBreaker {
	if failureThreshold == 0 {
		failureThreshold = DefaultFailureThreshold
	}
	if recoveryTimeout <= 0 {
		recoveryTimeout = DefaultRecoveryTimeout
	}

	settings := gobreaker.Settings{
		Name:    name,
		Timeout: recoveryTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
	}

	return &CircuitBreaker{name: name, cb: gobreaker.NewCircuitBreaker(settings)}
}

// State returns the breaker's current state.
func (b *CircuitBreaker) State() BreakerState {
	switch b.cb.State() {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

// Execute runs fn if the breaker admits the call. While OPEN it rejects
// immediately with orcherr.CircuitOpen, without invoking fn. While
// HALF_OPEN it admits exactly one probe.
func (b *CircuitBreaker) Execute(ctx context.Context, op string, fn func(context.Context) (any, error)) (any, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, orcherr.CircuitOpen(op, b.name)
		}
		return nil, err
	}
	return result, nil
}
