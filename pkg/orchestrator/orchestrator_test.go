package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookatitude/orchestrator-core/pkg/agents"
	"github.com/lookatitude/orchestrator-core/pkg/config"
	"github.com/lookatitude/orchestrator-core/pkg/monitor"
	"github.com/lookatitude/orchestrator-core/pkg/orcherr"
)

func testOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.TaskPollIntervalMillis = 1000
	o, err := New(cfg, Deps{Sink: monitor.NoopSink{}}, nil)
	require.NoError(t, err)
	return o
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DefaultTimeoutSeconds = 0
	_, err := New(cfg, Deps{}, nil)
	assert.Error(t, err)
}

func TestSubmitWorkflow_ValidatesRequest(t *testing.T) {
	o := testOrchestrator(t)

	_, err := o.SubmitWorkflow(WorkflowRequest{})
	require.Error(t, err)
	assert.True(t, orcherr.Is(err, orcherr.CodeValidation))

	_, err = o.SubmitWorkflow(WorkflowRequest{WorkflowType: "site_recreation", Priority: "NOT_A_PRIORITY"})
	require.Error(t, err)
	assert.True(t, orcherr.Is(err, orcherr.CodeValidation))
}

func TestSubmitWorkflow_AdmitsValidRequest(t *testing.T) {
	o := testOrchestrator(t)

	id, err := o.SubmitWorkflow(WorkflowRequest{WorkflowType: "business_analysis"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	wf, err := o.WorkflowStatus(id)
	require.NoError(t, err)
	assert.Equal(t, "business_analysis", wf.WorkflowType)

	assert.Len(t, o.ListWorkflows(), 1)
}

func TestWorkflowStatus_UnknownIDIsNotFound(t *testing.T) {
	o := testOrchestrator(t)
	_, err := o.WorkflowStatus("does-not-exist")
	require.Error(t, err)
	assert.True(t, orcherr.Is(err, orcherr.CodeNotFound))
}

func TestCancelWorkflow_StopsARunningWorkflow(t *testing.T) {
	o := testOrchestrator(t)
	// an agent able to serve the workflow keeps it running until cancelled
	require.NoError(t, o.RegisterAgent(AgentRegistration{ID: "agent-1", Capabilities: []string{"Portfolio analysis", "Financial analysis", "Data analysis"}}))
	id, err := o.SubmitWorkflow(WorkflowRequest{WorkflowType: "business_analysis"})
	require.NoError(t, err)

	require.NoError(t, o.CancelWorkflow(id))

	require.Eventually(t, func() bool {
		wf, err := o.WorkflowStatus(id)
		return err == nil && wf.Status.IsTerminal()
	}, time.Second, 5*time.Millisecond)
}

func TestRegisterAgent_ValidatesAndStores(t *testing.T) {
	o := testOrchestrator(t)

	err := o.RegisterAgent(AgentRegistration{})
	require.Error(t, err)
	assert.True(t, orcherr.Is(err, orcherr.CodeValidation))

	err = o.RegisterAgent(AgentRegistration{ID: "agent-1", Capabilities: []string{"Business analysis"}, PerformanceScore: 0.8})
	require.NoError(t, err)

	list := o.ListAgents()
	require.Len(t, list, 1)
	assert.Equal(t, "agent-1", list[0].ID)
	assert.Equal(t, agents.StatusActive, list[0].Status)
}

func TestRegisterAgent_RejectsOutOfRangeScore(t *testing.T) {
	o := testOrchestrator(t)
	err := o.RegisterAgent(AgentRegistration{ID: "agent-1", Capabilities: []string{"x"}, PerformanceScore: 1.5})
	require.Error(t, err)
	assert.True(t, orcherr.Is(err, orcherr.CodeValidation))
}

func TestDeregisterAgent_RemovesFromList(t *testing.T) {
	o := testOrchestrator(t)
	require.NoError(t, o.RegisterAgent(AgentRegistration{ID: "agent-1", Capabilities: []string{"x"}}))
	o.DeregisterAgent("agent-1")
	assert.Empty(t, o.ListAgents())
}

func TestUpdateAgentStatus_ChangesFilterResults(t *testing.T) {
	o := testOrchestrator(t)
	require.NoError(t, o.RegisterAgent(AgentRegistration{ID: "agent-1", Capabilities: []string{"x"}}))

	o.UpdateAgentStatus("agent-1", agents.StatusDraining)
	assert.Empty(t, o.ListAgents(agents.StatusActive))
	assert.Len(t, o.ListAgents(agents.StatusDraining), 1)
}

func TestStartAndShutdown_LifecycleCompletes(t *testing.T) {
	o := testOrchestrator(t)

	ctx, cancel := context.WithCancel(context.Background())
	o.Start(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
	defer shutdownCancel()
	assert.NoError(t, o.Shutdown(shutdownCtx))
	cancel()
}

func TestRegisterHealthCheck_IsForwardedToMonitor(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.HealthIntervalSeconds = 1
	o, err := New(cfg, Deps{Sink: monitor.NoopSink{}}, nil)
	require.NoError(t, err)

	called := make(chan struct{}, 1)
	assert.NotPanics(t, func() {
		o.RegisterHealthCheck("dummy", monitor.HealthCheckerFunc(func(ctx context.Context) monitor.HealthResult {
			select {
			case called <- struct{}{}:
			default:
			}
			return monitor.HealthResult{Status: monitor.Healthy}
		}))
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)
	defer o.monitor.Stop()

	select {
	case <-called:
	case <-time.After(3 * time.Second):
		t.Fatal("registered health check was never run by the monitor's health loop")
	}
}

func TestStats_ReflectsSubmittedWorkflows(t *testing.T) {
	o := testOrchestrator(t)
	_, err := o.SubmitWorkflow(WorkflowRequest{WorkflowType: "business_analysis"})
	require.NoError(t, err)

	stats := o.Stats()
	assert.Equal(t, 1, stats["total_workflows"])
}
