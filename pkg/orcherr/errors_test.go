package orcherr

import (
	"errors"
	"testing"
)

func TestErrorIs(t *testing.T) {
	err := NotFound("tasks.get", "task abc not found")
	if !Is(err, CodeNotFound) {
		t.Fatalf("expected CodeNotFound, got %v", err)
	}
	if Is(err, CodeValidation) {
		t.Fatalf("did not expect CodeValidation")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Dependency("external.execute", "automation failed", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to satisfy errors.Is")
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{Dependency("op", "msg", nil), true},
		{Validation("op", "msg"), false},
		{CircuitOpen("op", "dep"), false},
		{Cancelled("op", "msg"), false},
		{errors.New("plain"), false},
	}
	for _, c := range cases {
		if got := IsRetryable(c.err); got != c.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	err := IllegalTransition("tasks.start", "cannot start a completed task")
	if err.Error() == "" {
		t.Fatal("expected non-empty error message")
	}
}
