package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookatitude/orchestrator-core/pkg/agents"
	"github.com/lookatitude/orchestrator-core/pkg/external"
	"github.com/lookatitude/orchestrator-core/pkg/resilience"
	"github.com/lookatitude/orchestrator-core/pkg/routing"
	"github.com/lookatitude/orchestrator-core/pkg/tasks"
	"github.com/lookatitude/orchestrator-core/pkg/workflow"
)

type fakeSink struct {
	mu               sync.Mutex
	workflowCounts   map[string]int
	agentPerformance map[string]float64
	securityAlerts   int
}

func newFakeSink() *fakeSink {
	return &fakeSink{workflowCounts: map[string]int{}, agentPerformance: map[string]float64{}}
}

func (s *fakeSink) SetWorkflowCount(status string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflowCounts[status] = n
}
func (s *fakeSink) SetBreakerState(string, string) {}
func (s *fakeSink) SetRateLimiterSaturation(int)   {}
func (s *fakeSink) SetAgentPerformance(agentID string, score float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agentPerformance[agentID] = score
}
func (s *fakeSink) IncSecurityAlert(string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.securityAlerts++
}

func (s *fakeSink) performanceFor(id string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.agentPerformance[id]
	return v, ok
}

func newTestEngine() (*workflow.Engine, *agents.Registry) {
	registry := agents.NewRegistry(nil)
	q := tasks.NewQueue()
	decider := routing.NewDefaultPolicy(nil)
	e := workflow.NewEngine(registry, q, decider, external.NoopMemoryStore{}, external.NewInMemoryAutomationClient(), nil, workflow.Config{
		PollInterval: 5 * time.Millisecond,
		RetryPolicy:  resilience.RetryPolicy{MaxAttempts: 1, InitialDelay: time.Millisecond},
	})
	return e, registry
}

func TestMonitor_PerformanceLoopPublishesScores(t *testing.T) {
	engine, registry := newTestEngine()
	registry.Register(agents.Agent{ID: "agent-1", Status: agents.StatusActive, PerformanceScore: 0.2})

	sink := newFakeSink()
	m := New(engine, registry, sink, nil, Config{PerformanceInterval: 5 * time.Millisecond, HealthInterval: time.Hour, MetricsInterval: time.Hour, SecurityInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop()

	require.Eventually(t, func() bool {
		score, ok := sink.performanceFor("agent-1")
		return ok && score == 0.2
	}, time.Second, 5*time.Millisecond)
}

func TestMonitor_MetricsLoopPublishesWorkflowCounts(t *testing.T) {
	engine, _ := newTestEngine()
	_, err := engine.Start(workflow.Workflow{WorkflowType: "site_recreation"})
	require.NoError(t, err)

	sink := newFakeSink()
	m := New(engine, agents.NewRegistry(nil), sink, nil, Config{MetricsInterval: 5 * time.Millisecond, HealthInterval: time.Hour, PerformanceInterval: time.Hour, SecurityInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop()

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		total := 0
		for _, n := range sink.workflowCounts {
			total += n
		}
		return total > 0
	}, time.Second, 5*time.Millisecond)
}

func TestMonitor_HealthLoopRunsRegisteredCheckers(t *testing.T) {
	engine, registry := newTestEngine()
	m := New(engine, registry, NoopSink{}, nil, Config{HealthInterval: 5 * time.Millisecond, MetricsInterval: time.Hour, PerformanceInterval: time.Hour, SecurityInterval: time.Hour})

	var called int32
	var mu sync.Mutex
	m.RegisterHealthCheck("dummy", HealthCheckerFunc(func(ctx context.Context) HealthResult {
		mu.Lock()
		called++
		mu.Unlock()
		return HealthResult{Status: Healthy}
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return called > 0
	}, time.Second, 5*time.Millisecond)
}

func TestMonitor_StopIsIdempotentSafe(t *testing.T) {
	engine, registry := newTestEngine()
	m := New(engine, registry, NoopSink{}, nil, Config{})
	m.Start(context.Background())
	m.Stop()
	assert.NotPanics(t, func() { m.Stop() })
}
