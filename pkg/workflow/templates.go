package workflow

import (
	"encoding/json"

	"github.com/lookatitude/orchestrator-core/pkg/tasks"
)

// TaskSpec is one step of a task template: a task type plus the payload
// keys it reads directly from the workflow payload. "_prev" is injected by
// the engine at dispatch time for sequential templates, carrying the
// previous task's result.
type TaskSpec struct {
	Type        string
	PayloadKeys []string
}

// Template is a workflow_type's task decomposition.
type Template struct {
	Tasks []TaskSpec
	// Sequential, when true, injects the previous task's result into each
	// later task's payload under "_prev". The engine runs a template's
	// tasks one at a time, each to a terminal state before the next is
	// enqueued, whatever this flag says; there is no batch-enqueue mode.
	Sequential bool
	// Strict, when true, fails the whole workflow as soon as any of its
	// tasks reaches FAILED; the template's remaining tasks are never
	// enqueued.
	Strict bool
}

// templates is the fixed workflow type -> task-template mapping.
var templates = map[string]Template{
	"site_recreation": {
		Sequential: true,
		Strict:     true,
		Tasks: []TaskSpec{
			{Type: "analyze_site", PayloadKeys: []string{"url"}},
			{Type: "design_interface", PayloadKeys: []string{"requirements"}},
			{Type: "generate_code", PayloadKeys: []string{}},
			{Type: "test_quality", PayloadKeys: []string{}},
		},
	},
	"business_analysis": {
		Sequential: true,
		Tasks: []TaskSpec{
			{Type: "analyze_portfolio", PayloadKeys: []string{"businesses"}},
			{Type: "financial_analysis", PayloadKeys: []string{}},
			{Type: "generate_report", PayloadKeys: []string{}},
		},
	},
	"content_creation": {
		Sequential: true,
		Tasks: []TaskSpec{
			{Type: "draft_strategy", PayloadKeys: []string{"brief"}},
			{Type: "write_copy", PayloadKeys: []string{}},
			{Type: "optimize_seo", PayloadKeys: []string{}},
		},
	},
	"research_processing": {
		Sequential: true,
		Tasks: []TaskSpec{
			{Type: "gather_sources", PayloadKeys: []string{"topic"}},
			{Type: "extract_knowledge", PayloadKeys: []string{}},
			{Type: "synthesize_findings", PayloadKeys: []string{}},
		},
	},
	"automation": {
		Sequential: true,
		Tasks: []TaskSpec{
			{Type: "scrape_targets", PayloadKeys: []string{"targets"}},
			{Type: "drive_browser", PayloadKeys: []string{}},
			{Type: "finalize_automation", PayloadKeys: []string{}},
		},
	},
}

const defaultTaskType = "execute_workflow"

// templateFor returns the template for workflowType, falling back to a
// single-task default template for any type without one registered.
func templateFor(workflowType string) Template {
	if t, ok := templates[workflowType]; ok {
		return t
	}
	return Template{
		Sequential: true,
		Tasks:      []TaskSpec{{Type: defaultTaskType}},
	}
}

// requiredCapabilities is the static workflow type -> capability mapping
// consulted during agent selection.
var requiredCapabilities = map[string][]string{
	"site_recreation":     {"Project management", "Interface design", "Code generation", "Quality assurance"},
	"business_analysis":   {"Portfolio analysis", "Financial analysis", "Data analysis"},
	"content_creation":    {"Content strategy", "Copywriting", "SEO optimization"},
	"research_processing": {"Research analysis", "Knowledge extraction", "Document processing"},
	"automation":          {"Web scraping", "Browser automation", "Workflow automation"},
}

func capabilitiesFor(workflowType string) []string {
	if caps, ok := requiredCapabilities[workflowType]; ok {
		return caps
	}
	return []string{"General capabilities"}
}

// complexityBase is the workflow type -> base complexity mapping.
var complexityBase = map[string]int{
	"simple":          2,
	"data_processing": 4,
	"automation":      5,
	"integration":     6,
	"complex":         8,
	"critical":        10,
}

// complexity computes the workflow's complexity heuristic (1-10): base by
// type, +2 if payload > 10000 bytes (+1 if > 1000), +1 for HIGH priority,
// +2 for CRITICAL, clamped to [1, 10].
func complexity(w Workflow) int {
	score, ok := complexityBase[w.WorkflowType]
	if !ok {
		score = 3
	}

	if b, err := json.Marshal(w.Payload); err == nil {
		switch {
		case len(b) > 10000:
			score += 2
		case len(b) > 1000:
			score++
		}
	}

	switch w.Priority {
	case priorityName(tasks.PriorityHigh):
		score++
	case priorityName(tasks.PriorityCritical):
		score += 2
	}

	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}
	return score
}

func priorityName(p tasks.Priority) string {
	switch p {
	case tasks.PriorityCritical:
		return "CRITICAL"
	case tasks.PriorityHigh:
		return "HIGH"
	case tasks.PriorityNormal:
		return "NORMAL"
	default:
		return "LOW"
	}
}
