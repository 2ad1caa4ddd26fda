package tasks

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Queue is the Task Queue: it owns every Task exclusively. Workflows
// reference tasks by id only.
type Queue struct {
	mu      sync.Mutex
	tasks   map[string]Task
	buckets map[Priority][]string // priority -> ordered task ids (FIFO by enqueue order)
	nextSeq uint64
}

// NewQueue constructs an empty task queue.
func NewQueue() *Queue {
	return &Queue{
		tasks:   make(map[string]Task),
		buckets: make(map[Priority][]string),
	}
}

// Enqueue assigns an id, sets status=PENDING, and places the task in its
// priority bucket. Returns the assigned id.
func (q *Queue) Enqueue(t Task) string {
	q.mu.Lock()
	defer q.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.Status = StatusPending
	t.CreatedAt = time.Now()
	q.nextSeq++
	t.seq = q.nextSeq

	q.tasks[t.ID] = t
	q.buckets[t.Priority] = append(q.buckets[t.Priority], t.ID)
	return t.ID
}

// Assign transitions PENDING -> ASSIGNED. Fails if the task is not PENDING.
func (q *Queue) Assign(taskID, agentID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.tasks[taskID]
	if !ok {
		return errNotFound("tasks.assign", taskID)
	}
	if t.Status != StatusPending {
		return errIllegalTransition("tasks.assign", t.Status, StatusAssigned)
	}
	t.Status = StatusAssigned
	t.AssignedAgent = agentID
	q.tasks[taskID] = t
	return nil
}

// Start transitions ASSIGNED -> RUNNING and sets StartedAt.
func (q *Queue) Start(taskID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.tasks[taskID]
	if !ok {
		return errNotFound("tasks.start", taskID)
	}
	if t.Status != StatusAssigned {
		return errIllegalTransition("tasks.start", t.Status, StatusRunning)
	}
	t.Status = StatusRunning
	t.StartedAt = time.Now()
	q.tasks[taskID] = t
	return nil
}

// Complete transitions RUNNING -> COMPLETED (errMsg empty) or -> FAILED
// (errMsg non-empty), sets CompletedAt. Rejects (idempotent) if the task is
// already terminal.
func (q *Queue) Complete(taskID string, result any, errMsg string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.tasks[taskID]
	if !ok {
		return errNotFound("tasks.complete", taskID)
	}
	if t.Status != StatusRunning {
		return errIllegalTransition("tasks.complete", t.Status, StatusCompleted)
	}
	t.Result = result
	t.Error = errMsg
	t.CompletedAt = time.Now()
	if errMsg == "" {
		t.Status = StatusCompleted
	} else {
		t.Status = StatusFailed
	}
	q.tasks[taskID] = t
	return nil
}

// Cancel transitions any non-terminal task to CANCELLED. Returns false if
// the task is already terminal or unknown.
func (q *Queue) Cancel(taskID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.tasks[taskID]
	if !ok || t.Status.IsTerminal() {
		return false
	}
	t.Status = StatusCancelled
	t.CompletedAt = time.Now()
	q.tasks[taskID] = t
	return true
}

// Status returns a snapshot of the task, or false if unknown.
func (q *Queue) Status(taskID string) (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	t, ok := q.tasks[taskID]
	if !ok {
		return Task{}, false
	}
	return t.Clone(), true
}

// NextForAgent returns the highest-priority task already assigned to agentID
// that is still in ASSIGNED state, or false if none.
func (q *Queue) NextForAgent(agentID string) (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, p := range []Priority{PriorityCritical, PriorityHigh, PriorityNormal, PriorityLow} {
		for _, id := range q.buckets[p] {
			t := q.tasks[id]
			if t.AssignedAgent == agentID && t.Status == StatusAssigned {
				return t.Clone(), true
			}
		}
	}
	return Task{}, false
}

// Dispatchable returns PENDING task ids in strict priority order
// (CRITICAL > HIGH > NORMAL > LOW), FIFO within a class by enqueue order.
// Enqueue order is total, so no further tie-break is applied.
func (q *Queue) Dispatchable() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []string
	for _, p := range []Priority{PriorityCritical, PriorityHigh, PriorityNormal, PriorityLow} {
		for _, id := range q.buckets[p] {
			if q.tasks[id].Status == StatusPending {
				out = append(out, id)
			}
		}
	}
	return out
}
