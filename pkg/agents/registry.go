package agents

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Registry tracks agent identities, declared capabilities, status, and
// performance scores. All operations are safe for concurrent use; reads
// dominate writes so a single RWMutex guards the whole table, following the
// shared-resource policy of the orchestration core.
type Registry struct {
	mu           sync.RWMutex
	agents       map[string]Agent
	byCapability map[string]map[string]struct{} // capability -> set of agent ids
	logger       *slog.Logger
}

// NewRegistry constructs an empty agent registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		agents:       make(map[string]Agent),
		byCapability: make(map[string]map[string]struct{}),
		logger:       logger,
	}
}

// Register inserts or replaces an agent by id, atomically updating the
// capability indexes. Double-registration replaces silently and is logged.
func (r *Registry) Register(agent Agent) {
	if agent.RegisteredAt.IsZero() {
		agent.RegisteredAt = time.Now()
	}
	agent.LastStatusChange = time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.agents[agent.ID]; ok {
		r.removeFromCapabilityIndexLocked(existing)
		r.logger.Warn("agent re-registered, replacing existing record", "agent_id", agent.ID)
	} else {
		r.logger.Info("agent registered", "agent_id", agent.ID, "capabilities", agent.Capabilities)
	}

	r.agents[agent.ID] = agent.Clone()
	r.addToCapabilityIndexLocked(agent)
}

// Deregister removes an agent and every capability-index entry for it.
// Outstanding task assignments are not rewritten; the caller's scheduler is
// expected to skip reassignment to a deregistered agent.
func (r *Registry) Deregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	agent, ok := r.agents[id]
	if !ok {
		return
	}
	r.removeFromCapabilityIndexLocked(agent)
	delete(r.agents, id)
	r.logger.Info("agent deregistered", "agent_id", id)
}

// List returns a snapshot of all agents, optionally filtered by status.
// Order is unspecified beyond being stable across calls with the same
// underlying data (sorted by id) to keep tests deterministic.
func (r *Registry) List(statusFilter ...Status) []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var want map[Status]bool
	if len(statusFilter) > 0 {
		want = make(map[Status]bool, len(statusFilter))
		for _, s := range statusFilter {
			want[s] = true
		}
	}

	out := make([]Agent, 0, len(r.agents))
	for _, a := range r.agents {
		if want != nil && !want[a.Status] {
			continue
		}
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns the agent for id. Lookup of an unknown id returns a zero
// Agent and false, never an error.
func (r *Registry) Get(id string) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[id]
	if !ok {
		return Agent{}, false
	}
	return a.Clone(), true
}

// FindByCapability returns all active agents whose capability set contains
// the tag. It is O(k) in the number of matches via the capability index,
// not O(n) over the whole registry.
func (r *Registry) FindByCapability(capability string) []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byCapability[capability]
	out := make([]Agent, 0, len(ids))
	for id := range ids {
		a := r.agents[id]
		if a.Status == StatusActive {
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UpdateStatus transitions an agent to a new status. Lookup of an unknown
// id is a silent no-op, matching the registry's "never error on lookup"
// contract.
func (r *Registry) UpdateStatus(id string, status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[id]
	if !ok {
		return
	}
	a.Status = status
	a.LastStatusChange = time.Now()
	r.agents[id] = a
}

// UpdatePerformance sets an agent's performance score.
func (r *Registry) UpdatePerformance(id string, score float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[id]
	if !ok {
		return
	}
	a.PerformanceScore = score
	r.agents[id] = a
}

func (r *Registry) addToCapabilityIndexLocked(agent Agent) {
	for _, c := range agent.Capabilities {
		set, ok := r.byCapability[c]
		if !ok {
			set = make(map[string]struct{})
			r.byCapability[c] = set
		}
		set[agent.ID] = struct{}{}
	}
}

func (r *Registry) removeFromCapabilityIndexLocked(agent Agent) {
	for _, c := range agent.Capabilities {
		if set, ok := r.byCapability[c]; ok {
			delete(set, agent.ID)
			if len(set) == 0 {
				delete(r.byCapability, c)
			}
		}
	}
}
