// Package agents implements the Agent Registry: executor identities,
// declared capabilities, status, and performance scores.
package agents

import "time"

// Status is the lifecycle state of an agent in the registry.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusDraining Status = "draining"
)

// Agent is an executor that advertises capability tags and consumes tasks.
type Agent struct {
	ID               string
	Capabilities     []string
	Status           Status
	PerformanceScore float64
	Specialization   string
	RegisteredAt     time.Time
	LastStatusChange time.Time
}

// HasCapability reports whether the agent declares the given capability tag.
func (a Agent) HasCapability(capability string) bool {
	for _, c := range a.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// Clone returns a deep-enough copy safe to hand to callers outside the
// registry's lock.
func (a Agent) Clone() Agent {
	caps := make([]string, len(a.Capabilities))
	copy(caps, a.Capabilities)
	a.Capabilities = caps
	return a
}
