// Package workflow implements the Workflow Engine: a five-phase state
// machine per workflow, template-driven task decomposition, and result
// aggregation.
package workflow

import "time"

// Status is the lifecycle state of a workflow.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// IsTerminal reports whether status is one a workflow never leaves.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Phase is a named stage in a workflow's lifecycle.
type Phase string

const (
	PhaseInitialization   Phase = "INITIALIZATION"
	PhaseAgentSelection   Phase = "AGENT_SELECTION"
	PhaseTaskExecution    Phase = "TASK_EXECUTION"
	PhaseResultProcessing Phase = "RESULT_PROCESSING"
	PhaseCompletion       Phase = "COMPLETION"
)

// DefaultTimeoutSeconds is applied when a workflow request omits one.
const DefaultTimeoutSeconds = 1800

// Workflow is a top-level unit of orchestration, decomposed into an ordered
// chain of tasks. The engine exclusively owns workflows and the task-ids
// list inside each; per-workflow fields are mutated only by that
// workflow's own execution goroutine.
type Workflow struct {
	ID             string
	WorkflowType   string
	Payload        map[string]any
	Priority       string // mirrors tasks.Priority's vocabulary: LOW/NORMAL/HIGH/CRITICAL
	TimeoutSeconds int

	Status       Status
	CurrentPhase Phase

	AssignedAgents []string
	Tasks          []string
	Results        map[string]any
	Metadata       map[string]any
	Error          string

	CreatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time
}

// Clone returns a deep-enough copy safe to hand to callers outside the
// engine's lock and outside the owning goroutine.
func (w Workflow) Clone() Workflow {
	w.AssignedAgents = append([]string(nil), w.AssignedAgents...)
	w.Tasks = append([]string(nil), w.Tasks...)

	results := make(map[string]any, len(w.Results))
	for k, v := range w.Results {
		results[k] = v
	}
	w.Results = results

	meta := make(map[string]any, len(w.Metadata))
	for k, v := range w.Metadata {
		meta[k] = v
	}
	w.Metadata = meta

	payload := make(map[string]any, len(w.Payload))
	for k, v := range w.Payload {
		payload[k] = v
	}
	w.Payload = payload

	return w
}
