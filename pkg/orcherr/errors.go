// Package orcherr provides the typed error kinds shared across the
// orchestration core. Every component wraps failures in one of these types
// so callers can dispatch on kind with errors.As instead of string matching.
package orcherr

import (
	"errors"
	"fmt"
)

// Code categorizes an error for programmatic handling: retry decisions,
// HTTP/RPC status mapping at the edge, and alerting.
type Code string

const (
	CodeValidation        Code = "validation"
	CodeNotFound          Code = "not_found"
	CodeIllegalTransition Code = "illegal_transition"
	CodeDependency        Code = "dependency"
	CodeCircuitOpen       Code = "circuit_open"
	CodeCancelled         Code = "cancelled"
)

// Error is the structured error every orcherr constructor returns. Op names
// the operation that failed (e.g. "tasks.assign"), Code categorizes it, and
// Err carries the optional wrapped cause.
type Error struct {
	Op      string
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s [%s]: %s: %v", e.Op, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Op, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches by Code, so errors.Is(err, orcherr.New("", orcherr.CodeNotFound, "", nil)) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// New constructs an Error.
func New(op string, code Code, msg string, cause error) *Error {
	return &Error{Op: op, Code: code, Message: msg, Err: cause}
}

// Validation reports bad input shape, an unknown workflow_type with no
// default template, or a rate limit hit.
func Validation(op, msg string) *Error { return New(op, CodeValidation, msg, nil) }

// NotFound reports an unknown workflow, task, or agent id.
func NotFound(op, msg string) *Error { return New(op, CodeNotFound, msg, nil) }

// IllegalTransition reports a state change that violates a state machine.
func IllegalTransition(op, msg string) *Error { return New(op, CodeIllegalTransition, msg, nil) }

// Dependency reports an external client or memory-store failure. Counted by
// the circuit breaker and retried per the retry wrapper.
func Dependency(op, msg string, cause error) *Error { return New(op, CodeDependency, msg, cause) }

// CircuitOpen reports a request rejected while a dependency's breaker is
// OPEN. Never retried.
func CircuitOpen(op, dependency string) *Error {
	return New(op, CodeCircuitOpen, fmt.Sprintf("circuit open for %s", dependency), nil)
}

// Cancelled reports an expected cancellation; not an error surfaced to end
// users as a failure, but still typed so callers can special-case it.
func Cancelled(op, msg string) *Error { return New(op, CodeCancelled, msg, nil) }

// Is reports whether err carries the given Code anywhere in its chain.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsRetryable reports whether err should be retried by the reliability
// layer. Only dependency failures are retryable; everything else (bad
// input, illegal transitions, an already-open circuit, cancellation) is
// not.
func IsRetryable(err error) bool {
	return Is(err, CodeDependency)
}
