package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lookatitude/orchestrator-core/pkg/agents"
	"github.com/lookatitude/orchestrator-core/pkg/external"
	"github.com/lookatitude/orchestrator-core/pkg/orcherr"
	"github.com/lookatitude/orchestrator-core/pkg/resilience"
	"github.com/lookatitude/orchestrator-core/pkg/routing"
	"github.com/lookatitude/orchestrator-core/pkg/tasks"
)

// DefaultPollInterval is the task-monitor's polling cadence.
const DefaultPollInterval = time.Second

// Config tunes the engine's reliability primitives. Zero values take the
// package defaults.
type Config struct {
	PollInterval     time.Duration
	RateLimitWindow  time.Duration
	RateLimitMax     int // 0 = unlimited
	BreakerThreshold uint32
	BreakerTimeout   time.Duration
	RetryPolicy      resilience.RetryPolicy
}

func (c Config) normalized() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.RateLimitWindow <= 0 {
		c.RateLimitWindow = time.Minute
	}
	if c.RetryPolicy.MaxAttempts == 0 && c.RetryPolicy.InitialDelay == 0 {
		c.RetryPolicy = resilience.DefaultRetryPolicy(0)
	}
	return c
}

// Engine is the Workflow Engine: it owns every Workflow, drives each
// through the five-phase state machine on its own goroutine, and is the
// sole writer of Task records dispatched on a workflow's behalf (agent
// assignment of those tasks is delegated to the queue, which still owns
// the tasks themselves).
type Engine struct {
	registry   *agents.Registry
	queue      *tasks.Queue
	decider    routing.Decider
	memory     external.MemoryStore
	automation external.AutomationClient

	automationBreaker *resilience.CircuitBreaker
	retryPolicy       resilience.RetryPolicy
	limiter           *resilience.RateLimiter

	pollInterval time.Duration
	logger       *slog.Logger

	mu        sync.RWMutex
	workflows map[string]*Workflow
	cancels   map[string]context.CancelFunc
	closed    bool
	wg        sync.WaitGroup
}

// NewEngine wires the engine's collaborators. memory may be
// external.NoopMemoryStore{} when no memory store is configured.
func NewEngine(registry *agents.Registry, queue *tasks.Queue, decider routing.Decider, memory external.MemoryStore, automation external.AutomationClient, logger *slog.Logger, cfg Config) *Engine {
	cfg = cfg.normalized()
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		registry:          registry,
		queue:             queue,
		decider:           decider,
		memory:            memory,
		automation:        automation,
		automationBreaker: resilience.NewCircuitBreaker("automation", cfg.BreakerThreshold, cfg.BreakerTimeout),
		retryPolicy:       cfg.RetryPolicy,
		limiter:           resilience.NewRateLimiter(cfg.RateLimitWindow, cfg.RateLimitMax),
		pollInterval:      cfg.PollInterval,
		logger:            logger,
		workflows:         make(map[string]*Workflow),
		cancels:           make(map[string]context.CancelFunc),
	}
}

// Start validates and admits a workflow, then runs its five-phase
// pipeline on a new goroutine. Returns the assigned workflow id.
func (e *Engine) Start(wf Workflow) (string, error) {
	if wf.WorkflowType == "" {
		return "", orcherr.Validation("workflow.start", "workflow_type is required")
	}
	if err := e.limiter.Allow("workflow.start", wf.WorkflowType); err != nil {
		return "", err
	}

	if wf.ID == "" {
		wf.ID = uuid.NewString()
	}
	if wf.TimeoutSeconds <= 0 {
		wf.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if wf.Priority == "" {
		wf.Priority = "NORMAL"
	}
	if wf.Payload == nil {
		wf.Payload = map[string]any{}
	}
	wf.Status = StatusPending
	wf.CurrentPhase = PhaseInitialization
	wf.Results = map[string]any{}
	wf.Metadata = map[string]any{}
	wf.CreatedAt = time.Now()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return "", errShuttingDown("workflow.start")
	}
	stored := wf
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(wf.TimeoutSeconds)*time.Second)
	e.workflows[wf.ID] = &stored
	e.cancels[wf.ID] = cancel
	e.mu.Unlock()

	e.wg.Add(1)
	go e.run(ctx, wf.ID)

	return wf.ID, nil
}

// Status returns a snapshot of a workflow, or orcherr.NotFound.
func (e *Engine) Status(id string) (Workflow, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	wf, ok := e.workflows[id]
	if !ok {
		return Workflow{}, errNotFound("workflow.status", id)
	}
	return wf.Clone(), nil
}

// List returns a snapshot of every known workflow.
func (e *Engine) List() []Workflow {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Workflow, 0, len(e.workflows))
	for _, wf := range e.workflows {
		out = append(out, wf.Clone())
	}
	return out
}

// Stats summarizes the engine's live state for the monitor.
func (e *Engine) Stats() map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()

	byStatus := map[Status]int{}
	for _, wf := range e.workflows {
		byStatus[wf.Status]++
	}
	return map[string]any{
		"total_workflows":        len(e.workflows),
		"by_status":              byStatus,
		"automation_breaker":     e.automationBreaker.State(),
		"rate_limiter_saturated": e.limiter.Saturated(),
	}
}

// Cancel requests cancellation of a running workflow. The workflow's own
// goroutine observes context cancellation and finalizes it as CANCELLED;
// any tasks already dispatched to it are cancelled in the queue
// immediately.
func (e *Engine) Cancel(id string) error {
	e.mu.Lock()
	cancel, ok := e.cancels[id]
	wf, wfOK := e.workflows[id]
	var snapshot Workflow
	if wfOK {
		snapshot = wf.Clone()
	}
	e.mu.Unlock()
	if !ok || !wfOK {
		return errNotFound("workflow.cancel", id)
	}
	if snapshot.Status.IsTerminal() {
		return errIllegalTransition("workflow.cancel", snapshot.Status, StatusCancelled)
	}

	cancel()
	for _, taskID := range snapshot.Tasks {
		e.queue.Cancel(taskID)
	}
	return nil
}

// Shutdown cancels every in-flight workflow and waits for their goroutines
// to finish, or for ctx to expire first.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	for _, cancel := range e.cancels {
		cancel()
	}
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// mutate applies fn to the workflow under the engine lock, holding the
// lock only for the duration of fn — callers must never block inside it.
func (e *Engine) mutate(id string, fn func(*Workflow)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if wf, ok := e.workflows[id]; ok {
		fn(wf)
	}
}

func (e *Engine) run(ctx context.Context, id string) {
	defer e.wg.Done()
	defer func() {
		e.mu.Lock()
		delete(e.cancels, id)
		e.mu.Unlock()
	}()

	e.mutate(id, func(wf *Workflow) {
		wf.Status = StatusRunning
		wf.StartedAt = time.Now()
	})

	outcome := e.initialization(ctx, id)
	if outcome == nil {
		outcome = e.agentSelection(ctx, id)
	}
	if outcome == nil {
		outcome = e.taskExecution(ctx, id)
	}
	outcome = e.resultProcessing(id, outcome)
	e.finalize(id, outcome)
}

// phaseOutcome carries a terminal decision reached mid-pipeline (failure,
// cancellation, human escalation, which ends FAILED, or a resolved
// external-automation route). nil means "continue to the next
// phase, no terminal decision yet".
type phaseOutcome struct {
	status Status
	err    error
}

func (e *Engine) initialization(ctx context.Context, id string) *phaseOutcome {
	if err := ctx.Err(); err != nil {
		return ctxOutcome(err)
	}
	e.mutate(id, func(wf *Workflow) {
		wf.CurrentPhase = PhaseInitialization
		wf.Metadata["complexity"] = complexity(*wf)
	})
	return nil
}

func (e *Engine) agentSelection(ctx context.Context, id string) *phaseOutcome {
	if err := ctx.Err(); err != nil {
		return ctxOutcome(err)
	}

	var workflowType string
	e.mutate(id, func(wf *Workflow) {
		wf.CurrentPhase = PhaseAgentSelection
		workflowType = wf.WorkflowType
	})

	candidates := e.candidatesFor(workflowType)

	var memCtx *external.MemoryContext
	if e.memory != nil {
		if m, err := e.memory.Retrieve(ctx, "", nil, workflowType); err == nil {
			memCtx = &m
		} else {
			e.logger.Warn("memory retrieve failed, proceeding without context", "workflow_type", workflowType, "error", err)
		}
	}

	decision, err := e.decider.Decide(ctx, workflowType, candidates, memCtx)
	if err != nil {
		return &phaseOutcome{status: StatusFailed, err: err}
	}

	e.mutate(id, func(wf *Workflow) {
		wf.Metadata["routing_target_type"] = string(decision.TargetType)
		wf.Metadata["routing_reasoning"] = decision.Reasoning
		wf.Metadata["routing_confidence"] = decision.Confidence
	})

	switch decision.TargetType {
	case routing.TargetAgent:
		e.mutate(id, func(wf *Workflow) {
			wf.AssignedAgents = []string{decision.Target}
		})
		return nil
	case routing.TargetWorkflow:
		return e.runAutomation(ctx, id, decision.Target)
	default: // routing.TargetHuman
		e.mutate(id, func(wf *Workflow) {
			wf.Metadata["escalation_id"] = decision.EscalationID
			wf.Results["escalation"] = true
		})
		return &phaseOutcome{status: StatusFailed, err: errors.New("no executor available")}
	}
}

func (e *Engine) candidatesFor(workflowType string) []agents.Agent {
	caps := capabilitiesFor(workflowType)
	if len(caps) == 0 {
		return nil
	}
	byID := map[string]agents.Agent{}
	for _, a := range e.registry.FindByCapability(caps[0]) {
		byID[a.ID] = a
	}
	for _, c := range caps[1:] {
		next := map[string]agents.Agent{}
		for _, a := range e.registry.FindByCapability(c) {
			if _, ok := byID[a.ID]; ok {
				next[a.ID] = a
			}
		}
		byID = next
	}
	out := make([]agents.Agent, 0, len(byID))
	for _, a := range byID {
		out = append(out, a)
	}
	return out
}

func (e *Engine) runAutomation(ctx context.Context, id, flowID string) *phaseOutcome {
	var payload map[string]any
	e.mutate(id, func(wf *Workflow) {
		wf.Metadata["n8n_workflow_id"] = flowID
		payload = wf.Payload
	})

	result, err := e.automationBreaker.Execute(ctx, "workflow.automation", func(ctx context.Context) (any, error) {
		return resilience.Retry(ctx, e.retryPolicy, nil, func(ctx context.Context) (external.Execution, error) {
			exec, err := e.automation.Execute(ctx, flowID, payload)
			if err != nil {
				return exec, orcherr.Dependency("workflow.automation", "automation execute failed", err)
			}
			return exec, nil
		})
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxOutcome(ctxErr)
		}
		return &phaseOutcome{status: StatusFailed, err: err}
	}

	exec := result.(external.Execution)
	e.mutate(id, func(wf *Workflow) {
		wf.Results["n8n_execution"] = exec
	})
	if exec.Status == external.ExecutionFailed {
		return &phaseOutcome{status: StatusFailed, err: errors.New(exec.ErrorMessage)}
	}
	return &phaseOutcome{status: StatusCompleted}
}

func (e *Engine) taskExecution(ctx context.Context, id string) *phaseOutcome {
	if err := ctx.Err(); err != nil {
		return ctxOutcome(err)
	}

	var workflowType, agentID, priority string
	e.mutate(id, func(wf *Workflow) {
		wf.CurrentPhase = PhaseTaskExecution
		workflowType = wf.WorkflowType
		priority = wf.Priority
		if len(wf.AssignedAgents) > 0 {
			agentID = wf.AssignedAgents[0]
		}
	})

	tmpl := templateFor(workflowType)
	taskPriority := mapPriority(priority)

	var prev any
	for i, spec := range tmpl.Tasks {
		if err := ctx.Err(); err != nil {
			return ctxOutcome(err)
		}

		payload := map[string]any{}
		var source map[string]any
		e.mutate(id, func(wf *Workflow) { source = wf.Payload })
		for _, k := range spec.PayloadKeys {
			if v, ok := source[k]; ok {
				payload[k] = v
			}
		}
		if tmpl.Sequential && i > 0 {
			payload["_prev"] = prev
		}

		taskID := e.queue.Enqueue(tasks.Task{Type: spec.Type, Payload: payload, Priority: taskPriority})
		e.mutate(id, func(wf *Workflow) { wf.Tasks = append(wf.Tasks, taskID) })

		if err := e.queue.Assign(taskID, agentID); err != nil {
			return &phaseOutcome{status: StatusFailed, err: err}
		}
		if err := e.queue.Start(taskID); err != nil {
			return &phaseOutcome{status: StatusFailed, err: err}
		}

		finished, err := e.waitForTask(ctx, taskID)
		if err != nil {
			e.queue.Cancel(taskID)
			return ctxOutcome(err)
		}

		if finished.Status == tasks.StatusFailed {
			e.mutate(id, func(wf *Workflow) { wf.Results[taskID] = finished.Error })
			if tmpl.Strict {
				return &phaseOutcome{status: StatusFailed, err: errors.New(finished.Error)}
			}
			prev = nil
			continue
		}

		e.mutate(id, func(wf *Workflow) { wf.Results[taskID] = finished.Result })
		prev = finished.Result
	}

	return &phaseOutcome{status: StatusCompleted}
}

// waitForTask polls the queue at the engine's poll interval until taskID
// reaches a terminal state or ctx is done.
func (e *Engine) waitForTask(ctx context.Context, taskID string) (tasks.Task, error) {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		if t, ok := e.queue.Status(taskID); ok && t.Status.IsTerminal() {
			return t, nil
		}
		select {
		case <-ctx.Done():
			return tasks.Task{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// resultProcessing records in metadata ("result_count") how many results
// the earlier phases stored; the results themselves are written by those
// phases as each task or route finishes. It always runs, whatever outcome the earlier phases reached, so
// current_phase advances through RESULT_PROCESSING before COMPLETION is
// ever recorded.
func (e *Engine) resultProcessing(id string, outcome *phaseOutcome) *phaseOutcome {
	e.mutate(id, func(wf *Workflow) {
		wf.CurrentPhase = PhaseResultProcessing
		wf.Metadata["result_count"] = len(wf.Results)
	})
	return outcome
}

func (e *Engine) finalize(id string, outcome *phaseOutcome) {
	if outcome == nil {
		outcome = &phaseOutcome{status: StatusCompleted}
	}
	e.mutate(id, func(wf *Workflow) {
		wf.CurrentPhase = PhaseCompletion
		wf.CompletedAt = time.Now()
		wf.Status = outcome.status
		if outcome.err != nil {
			wf.Error = outcome.err.Error()
		}
	})

	e.mu.RLock()
	wf := e.workflows[id]
	e.mu.RUnlock()

	level := slog.LevelInfo
	if outcome.status == StatusFailed {
		level = slog.LevelWarn
	}
	e.logger.Log(context.Background(), level, "workflow finished", "workflow_id", id, "workflow_type", wf.WorkflowType, "status", outcome.status)
}

func ctxOutcome(err error) *phaseOutcome {
	if errors.Is(err, context.Canceled) {
		return &phaseOutcome{status: StatusCancelled, err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &phaseOutcome{status: StatusFailed, err: errors.New("timeout")}
	}
	return &phaseOutcome{status: StatusFailed, err: err}
}

func mapPriority(p string) tasks.Priority {
	switch p {
	case "CRITICAL":
		return tasks.PriorityCritical
	case "HIGH":
		return tasks.PriorityHigh
	case "LOW":
		return tasks.PriorityLow
	default:
		return tasks.PriorityNormal
	}
}
