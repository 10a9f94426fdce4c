package domain

import (
	"errors"
	"fmt"
)

// ErrGraphNotFound is returned when a graph id is not registered.
var ErrGraphNotFound = errors.New("graph not found")

// ErrRunNotFound is returned when a run id cannot be found.
var ErrRunNotFound = errors.New("run not found")

// ErrDuplicateTool is returned when a tool name is registered twice.
var ErrDuplicateTool = errors.New("tool already registered")

// ErrUnknownTool is returned when a node references an unregistered tool.
var ErrUnknownTool = errors.New("tool not registered")

// ErrInvalidRunState is returned when a run is started while it is not
// pending (already running or already terminal).
var ErrInvalidRunState = errors.New("run is not in a runnable state")

// ErrIterationLimit is returned when a run exceeds the configured
// maximum step count. It is the engine's only guard against graphs that
// never reach a terminal node.
var ErrIterationLimit = errors.New("iteration limit exceeded")

// ErrCancelled is returned when a run is stopped at a step boundary
// after cancellation was requested.
var ErrCancelled = errors.New("run cancelled")

// InvalidGraphError reports a structural problem in a graph definition.
type InvalidGraphError struct {
	Reason string
}

func (e *InvalidGraphError) Error() string {
	return "invalid graph: " + e.Reason
}

// DeadEndError reports a non-terminal node with no matching outgoing edge.
type DeadEndError struct {
	NodeID string
}

func (e *DeadEndError) Error() string {
	return fmt.Sprintf("dead end: no matching edge from node %q", e.NodeID)
}

// ToolExecutionError wraps a failure raised by a tool invocation.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %q failed: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}
