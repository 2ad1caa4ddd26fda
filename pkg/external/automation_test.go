package external

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryAutomationClient_RegisteredOutcome(t *testing.T) {
	c := NewInMemoryAutomationClient()
	c.RegisterOutcome("flow-1", func(payload map[string]any) (Execution, error) {
		return Execution{Status: ExecutionCompleted, ResultData: payload["x"]}, nil
	})

	exec, err := c.Execute(context.Background(), "flow-1", map[string]any{"x": 42})
	require.NoError(t, err)
	assert.Equal(t, ExecutionCompleted, exec.Status)
	assert.Equal(t, 42, exec.ResultData)
	assert.NotEmpty(t, exec.ExecutionID)
}

func TestInMemoryAutomationClient_UnknownFlow(t *testing.T) {
	c := NewInMemoryAutomationClient()
	_, err := c.Execute(context.Background(), "ghost", nil)
	assert.ErrorIs(t, err, ErrUnknownFlow)
}

func TestInMemoryAutomationClient_OutcomeError(t *testing.T) {
	c := NewInMemoryAutomationClient()
	want := errors.New("flow exploded")
	c.RegisterOutcome("flow-1", func(map[string]any) (Execution, error) {
		return Execution{}, want
	})

	_, err := c.Execute(context.Background(), "flow-1", nil)
	assert.ErrorIs(t, err, want)
}

func TestNoopMemoryStore(t *testing.T) {
	var s MemoryStore = NoopMemoryStore{}
	ctx, err := s.Retrieve(context.Background(), "agent-1", []string{"k"}, "query")
	require.NoError(t, err)
	assert.Empty(t, ctx.ShortTerm)
	assert.Empty(t, ctx.LongTerm)
}
