package orchestrator

// WorkflowRequest is the external-facing shape for submitting a workflow.
// Validated at the facade boundary so every internal component can assume
// well-formed input.
type WorkflowRequest struct {
	WorkflowType   string         `validate:"required"`
	Payload        map[string]any `validate:"omitempty"`
	Priority       string         `validate:"omitempty,oneof=LOW NORMAL HIGH CRITICAL"`
	TimeoutSeconds int            `validate:"omitempty,min=1"`
}

// AgentRegistration is the external-facing shape for registering an agent.
type AgentRegistration struct {
	ID               string   `validate:"required"`
	Capabilities     []string `validate:"required,min=1,dive,required"`
	Specialization   string   `validate:"omitempty"`
	PerformanceScore float64  `validate:"omitempty,min=0,max=1"`
}
