package external

import (
	"context"
	"errors"
)

// ErrUnknownFlow is returned by InMemoryAutomationClient.Execute for a flow
// id with no registered outcome.
var ErrUnknownFlow = errors.New("external: no outcome registered for flow")

// MemoryContext is the decision layer's optional context input, combining a
// short-lived working set with longer-lived recall entries.
type MemoryContext struct {
	ShortTerm map[string]any
	LongTerm  []map[string]any
}

// MemoryStore is the optional memory/context collaborator used only by the
// decision layer. Its absence is tolerated everywhere it's consulted.
type MemoryStore interface {
	Retrieve(ctx context.Context, agentID string, contextKeys []string, semanticQuery string) (MemoryContext, error)
}

// NoopMemoryStore always returns an empty context, satisfying "absence is
// tolerated" without requiring callers to nil-check a MemoryStore.
type NoopMemoryStore struct{}

// Retrieve implements MemoryStore.
func (NoopMemoryStore) Retrieve(context.Context, string, []string, string) (MemoryContext, error) {
	return MemoryContext{}, nil
}
