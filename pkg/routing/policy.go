package routing

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/lookatitude/orchestrator-core/pkg/agents"
	"github.com/lookatitude/orchestrator-core/pkg/external"
)

// Decider is the pluggable routing contract: given a workflow description,
// the candidate agents available for it, and optional memory context, pick
// a target. The layer is pure — it never mutates the registry or queue.
type Decider interface {
	Decide(ctx context.Context, workflowType string, candidates []agents.Agent, memory *external.MemoryContext) (Decision, error)
}

// FlowDirectory resolves a workflow type to a registered external
// automation flow id, if any.
type FlowDirectory interface {
	FlowFor(workflowType string) (flowID string, ok bool)
}

// StaticFlowDirectory is a FlowDirectory backed by a fixed map, sufficient
// for the core's in-process deployment model.
type StaticFlowDirectory map[string]string

// FlowFor implements FlowDirectory.
func (d StaticFlowDirectory) FlowFor(workflowType string) (string, bool) {
	id, ok := d[workflowType]
	return id, ok
}

// DefaultPolicy implements the default decision policy:
//  1. no active candidates + a registered external flow -> route to workflow
//  2. candidates exist -> highest performance_score, ties by lowest id -> route to agent
//  3. otherwise -> escalate to human
type DefaultPolicy struct {
	Flows FlowDirectory
}

// NewDefaultPolicy constructs the default policy against the given flow
// directory (may be nil, meaning no external flows are known).
func NewDefaultPolicy(flows FlowDirectory) *DefaultPolicy {
	return &DefaultPolicy{Flows: flows}
}

// Decide implements Decider.
func (p *DefaultPolicy) Decide(ctx context.Context, workflowType string, candidates []agents.Agent, memory *external.MemoryContext) (Decision, error) {
	if len(candidates) == 0 {
		if p.Flows != nil {
			if flowID, ok := p.Flows.FlowFor(workflowType); ok {
				return Decision{
					TargetType: TargetWorkflow,
					Target:     flowID,
					Reasoning:  fmt.Sprintf("no active agents for workflow type %q; routing to registered external flow %q", workflowType, flowID),
					Confidence: 0.7,
				}, nil
			}
		}
		return Decision{
			TargetType:   TargetHuman,
			EscalationID: uuid.NewString(),
			Reasoning:    fmt.Sprintf("no active agents and no external flow registered for workflow type %q", workflowType),
			Confidence:   0,
		}, nil
	}

	best := bestAgent(candidates)
	return Decision{
		TargetType: TargetAgent,
		Target:     best.ID,
		Reasoning:  fmt.Sprintf("agent %q has the highest performance score (%.2f) among %d candidates", best.ID, best.PerformanceScore, len(candidates)),
		Confidence: best.PerformanceScore,
	}, nil
}

// bestAgent picks the candidate with the highest performance score, ties
// broken by the lowest id.
func bestAgent(candidates []agents.Agent) agents.Agent {
	sorted := make([]agents.Agent, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].PerformanceScore != sorted[j].PerformanceScore {
			return sorted[i].PerformanceScore > sorted[j].PerformanceScore
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted[0]
}
