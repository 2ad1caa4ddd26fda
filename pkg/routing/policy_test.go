package routing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookatitude/orchestrator-core/pkg/agents"
)

func TestDefaultPolicy_RoutesToBestAgent(t *testing.T) {
	p := NewDefaultPolicy(nil)
	candidates := []agents.Agent{
		{ID: "b", PerformanceScore: 0.5},
		{ID: "a", PerformanceScore: 0.9},
	}

	d, err := p.Decide(context.Background(), "site_recreation", candidates, nil)
	require.NoError(t, err)
	assert.Equal(t, TargetAgent, d.TargetType)
	assert.Equal(t, "a", d.Target)
}

func TestDefaultPolicy_TiesBrokenByID(t *testing.T) {
	p := NewDefaultPolicy(nil)
	candidates := []agents.Agent{
		{ID: "zeta", PerformanceScore: 0.7},
		{ID: "alpha", PerformanceScore: 0.7},
	}

	d, err := p.Decide(context.Background(), "site_recreation", candidates, nil)
	require.NoError(t, err)
	assert.Equal(t, "alpha", d.Target)
}

func TestDefaultPolicy_RoutesToExternalFlowWhenNoCandidates(t *testing.T) {
	flows := StaticFlowDirectory{"automation": "n8n-flow-1"}
	p := NewDefaultPolicy(flows)

	d, err := p.Decide(context.Background(), "automation", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, TargetWorkflow, d.TargetType)
	assert.Equal(t, "n8n-flow-1", d.Target)
}

func TestDefaultPolicy_EscalatesToHumanWhenNoOptions(t *testing.T) {
	p := NewDefaultPolicy(nil)

	d, err := p.Decide(context.Background(), "unknown_type", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, TargetHuman, d.TargetType)
	assert.NotEmpty(t, d.EscalationID)
}
