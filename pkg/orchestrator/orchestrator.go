// Package orchestrator is the facade: it wires the agent registry, task
// queue, workflow engine, routing policy, reliability layer, and monitor
// into a single entry point and is the only package that validates
// external-facing DTOs.
package orchestrator

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/lookatitude/orchestrator-core/pkg/agents"
	"github.com/lookatitude/orchestrator-core/pkg/config"
	"github.com/lookatitude/orchestrator-core/pkg/external"
	"github.com/lookatitude/orchestrator-core/pkg/monitor"
	"github.com/lookatitude/orchestrator-core/pkg/resilience"
	"github.com/lookatitude/orchestrator-core/pkg/routing"
	"github.com/lookatitude/orchestrator-core/pkg/tasks"
	"github.com/lookatitude/orchestrator-core/pkg/workflow"
)

// Orchestrator is the orchestration core's single entry point.
type Orchestrator struct {
	cfg config.Config

	registry *agents.Registry
	queue    *tasks.Queue
	engine   *workflow.Engine
	monitor  *monitor.Monitor

	validate *validator.Validate
	logger   *slog.Logger
}

// Deps are the Orchestrator's outside collaborators: the external
// automation platform client, an optional memory store, a routing flow
// directory for workflow-type -> external-flow mapping, and a metrics sink.
// Any of them may be nil: Automation then defaults to an in-memory client
// with no registered flows, Memory to a no-op store, Flows to none, and
// Sink to a no-op sink.
type Deps struct {
	Automation external.AutomationClient
	Memory     external.MemoryStore
	Flows      routing.FlowDirectory
	Sink       monitor.MetricsSink
}

// New wires every component per cfg and deps.
func New(cfg config.Config, deps Deps, logger *slog.Logger) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Memory == nil {
		deps.Memory = external.NoopMemoryStore{}
	}
	if deps.Automation == nil {
		deps.Automation = external.NewInMemoryAutomationClient()
	}

	registry := agents.NewRegistry(logger)
	queue := tasks.NewQueue()
	decider := routing.NewDefaultPolicy(deps.Flows)

	engine := workflow.NewEngine(registry, queue, decider, deps.Memory, deps.Automation, logger, workflow.Config{
		PollInterval:     cfg.TaskPollInterval(),
		RateLimitWindow:  cfg.RateLimitWindow(),
		RateLimitMax:     cfg.RateLimitMax,
		BreakerThreshold: cfg.CircuitBreakerFailureThreshold,
		BreakerTimeout:   cfg.CircuitBreakerRecovery(),
		RetryPolicy: resilience.RetryPolicy{
			MaxAttempts:  cfg.RetryMaxAttempts,
			InitialDelay: cfg.RetryInitialDelay(),
		},
	})

	mon := monitor.New(engine, registry, deps.Sink, logger, monitor.Config{
		HealthInterval:       cfg.HealthInterval(),
		MetricsInterval:      cfg.MetricsInterval(),
		PerformanceInterval:  cfg.PerformanceInterval(),
		SecurityInterval:     cfg.SecurityInterval(),
		PerformanceThreshold: cfg.PerformanceThreshold,
	})

	return &Orchestrator{
		cfg:      cfg,
		registry: registry,
		queue:    queue,
		engine:   engine,
		monitor:  mon,
		validate: validator.New(),
		logger:   logger,
	}, nil
}

// Start launches the monitor's background loops. The engine needs no
// explicit start: workflows run as soon as they're submitted.
func (o *Orchestrator) Start(ctx context.Context) {
	o.monitor.Start(ctx)
}

// Shutdown stops the monitor, cancels every in-flight workflow, and waits
// for their goroutines to return (or ctx to expire).
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.monitor.Stop()
	return o.engine.Shutdown(ctx)
}

// SubmitWorkflow validates req and admits it to the workflow engine,
// returning the assigned workflow id.
func (o *Orchestrator) SubmitWorkflow(req WorkflowRequest) (string, error) {
	if err := o.validate.Struct(req); err != nil {
		return "", translateValidation("orchestrator.submit_workflow", err)
	}
	return o.engine.Start(workflow.Workflow{
		WorkflowType:   req.WorkflowType,
		Payload:        req.Payload,
		Priority:       req.Priority,
		TimeoutSeconds: req.TimeoutSeconds,
	})
}

// WorkflowStatus returns a snapshot of a workflow.
func (o *Orchestrator) WorkflowStatus(id string) (workflow.Workflow, error) {
	return o.engine.Status(id)
}

// ListWorkflows returns a snapshot of every known workflow.
func (o *Orchestrator) ListWorkflows() []workflow.Workflow {
	return o.engine.List()
}

// CancelWorkflow requests cancellation of a running workflow.
func (o *Orchestrator) CancelWorkflow(id string) error {
	return o.engine.Cancel(id)
}

// RegisterAgent validates req and adds (or replaces) an agent in the
// registry.
func (o *Orchestrator) RegisterAgent(req AgentRegistration) error {
	if err := o.validate.Struct(req); err != nil {
		return translateValidation("orchestrator.register_agent", err)
	}
	o.registry.Register(agents.Agent{
		ID:               req.ID,
		Capabilities:     req.Capabilities,
		Status:           agents.StatusActive,
		PerformanceScore: req.PerformanceScore,
		Specialization:   req.Specialization,
	})
	return nil
}

// DeregisterAgent removes an agent from the registry.
func (o *Orchestrator) DeregisterAgent(id string) {
	o.registry.Deregister(id)
}

// ListAgents returns a snapshot of registered agents, optionally filtered
// by status.
func (o *Orchestrator) ListAgents(statusFilter ...agents.Status) []agents.Agent {
	return o.registry.List(statusFilter...)
}

// UpdateAgentStatus transitions an agent's status (e.g. into DRAINING
// ahead of a planned removal).
func (o *Orchestrator) UpdateAgentStatus(id string, status agents.Status) {
	o.registry.UpdateStatus(id, status)
}

// RegisterHealthCheck adds a named component check to the monitor's health
// loop.
func (o *Orchestrator) RegisterHealthCheck(name string, checker monitor.HealthChecker) {
	o.monitor.RegisterHealthCheck(name, checker)
}

// Stats exposes the engine's live counters for callers that want them
// without standing up a full metrics sink (e.g. a debug endpoint).
func (o *Orchestrator) Stats() map[string]any {
	return o.engine.Stats()
}
