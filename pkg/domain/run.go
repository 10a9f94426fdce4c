package domain

import "time"

// RunStatus is the lifecycle state of a run.
// Transitions: pending -> running -> {completed, failed}. The terminal
// statuses are never left.
type RunStatus string

const (
	StatusPending   RunStatus = "pending"
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Terminal reports whether the status is one of the two end states.
func (s RunStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// StepOutcome classifies a recorded step.
type StepOutcome string

const (
	OutcomeOK        StepOutcome = "ok"
	OutcomeToolError StepOutcome = "tool_error"
)

// Step is one committed unit of traversal: the node that executed, the
// state around it, and how it went. Steps are immutable once appended
// to a run's log.
type Step struct {
	Seq         int         `json:"sequence_no"`
	NodeID      string      `json:"node_id"`
	StateBefore State       `json:"state_before"`
	StateAfter  State       `json:"state_after"`
	Outcome     StepOutcome `json:"outcome"`
}

// Run is one execution of a graph. Exactly one execution path mutates a
// run at any instant; readers only ever see committed snapshots.
type Run struct {
	ID          string    `json:"run_id"`
	GraphID     string    `json:"graph_id"`
	Status      RunStatus `json:"status"`
	CurrentNode string    `json:"current_node,omitempty"`
	State       State     `json:"state"`
	Log         []Step    `json:"log"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Snapshot returns a deep copy of the run safe to hand to readers while
// the run is still executing.
func (r *Run) Snapshot() *Run {
	out := *r
	out.State = r.State.Clone()
	out.Log = make([]Step, len(r.Log))
	copy(out.Log, r.Log)
	return &out
}
