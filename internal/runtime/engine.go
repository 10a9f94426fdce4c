// Package runtime implements the graph traversal core: one node at a
// time, tool invocation, conditional edge selection and the iteration
// guard. It knows nothing about run identity, status or storage; that
// bookkeeping belongs to internal/runs.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/rill/internal/logging"
	"github.com/aretw0/rill/pkg/domain"
	"github.com/aretw0/rill/pkg/registry"
)

// DefaultIterationLimit is the maximum number of steps per run unless
// configured otherwise.
const DefaultIterationLimit = 100

// StepSink receives each step as soon as it is committed. The sink is
// called synchronously between steps, so implementations must not block
// for long.
type StepSink func(domain.Step)

// Engine drives a single traversal of a graph. It is stateless across
// calls and safe for concurrent use by multiple runs.
type Engine struct {
	registry *registry.Registry
	limit    int
	logger   *slog.Logger
}

// Option configures the engine.
type Option func(*Engine)

// WithIterationLimit sets the hard maximum step count per run.
func WithIterationLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.limit = n
		}
	}
}

// WithLogger sets a structured logger for per-step debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an engine backed by the given tool registry.
func New(reg *registry.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: reg,
		limit:    DefaultIterationLimit,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IterationLimit returns the configured maximum step count per run.
func (e *Engine) IterationLimit() int {
	return e.limit
}

// StepResult is the outcome of a single traversal step.
type StepResult struct {
	// Terminal is true when the current node ends the run; no tool ran
	// and NextNodeID is empty.
	Terminal bool
	// NextNodeID is the target of the first matching outgoing edge.
	NextNodeID string
	// State is the state after the tool invocation.
	State domain.State
	// Outcome classifies the step.
	Outcome domain.StepOutcome
}

// RunStep executes exactly one step at the given node: invoke the tool,
// then select the next node from the updated state. It does not record
// anything; Execute layers sequencing and snapshots on top.
func (e *Engine) RunStep(ctx context.Context, graph domain.GraphDefinition, nodeID string, state domain.State) (StepResult, error) {
	node, ok := graph.NodeByID(nodeID)
	if !ok {
		return StepResult{}, fmt.Errorf("node %q is not part of graph %q", nodeID, graph.ID)
	}

	if node.IsTerminal() {
		return StepResult{Terminal: true, State: state, Outcome: domain.OutcomeOK}, nil
	}

	updated, err := e.registry.Invoke(ctx, node.Tool, state)
	if err != nil {
		outcome := domain.OutcomeOK
		var toolErr *domain.ToolExecutionError
		if errors.As(err, &toolErr) {
			outcome = domain.OutcomeToolError
		}
		return StepResult{State: state, Outcome: outcome}, err
	}

	next, err := nextNodeID(graph, nodeID, updated)
	if err != nil {
		return StepResult{State: updated, Outcome: domain.OutcomeOK}, err
	}

	return StepResult{NextNodeID: next, State: updated, Outcome: domain.OutcomeOK}, nil
}

// Execute traverses the graph from its entry node until a terminal node
// is reached, emitting each committed step to sink. It returns the final
// state. Each call starts a fresh traversal; the produced sequence of
// steps is finite by construction of the iteration limit.
//
// On failure the returned error is one of: *domain.ToolExecutionError
// (a step with outcome tool_error was emitted first), *domain.DeadEndError,
// domain.ErrIterationLimit, domain.ErrCancelled, or a condition
// evaluation error. The caller owns mapping these onto run status.
func (e *Engine) Execute(ctx context.Context, graph domain.GraphDefinition, initial domain.State, sink StepSink) (domain.State, error) {
	if sink == nil {
		sink = func(domain.Step) {}
	}

	state := initial
	if state == nil {
		state = domain.State{}
	}

	current := graph.EntryNodeID
	steps := 0

	for {
		// Cancellation is honored only between steps; an in-flight tool
		// call is allowed to finish so state stays consistent.
		if ctx.Err() != nil {
			return state, domain.ErrCancelled
		}

		node, ok := graph.NodeByID(current)
		if !ok {
			return state, fmt.Errorf("node %q is not part of graph %q", current, graph.ID)
		}

		if node.IsTerminal() {
			e.logger.Debug("terminal node reached", "node", current, "steps", steps)
			return state, nil
		}

		if steps >= e.limit {
			return state, fmt.Errorf("no terminal node within %d steps: %w", e.limit, domain.ErrIterationLimit)
		}

		before := state.Clone()

		updated, err := e.registry.Invoke(ctx, node.Tool, state)
		if err != nil {
			var toolErr *domain.ToolExecutionError
			if errors.As(err, &toolErr) {
				// The failure is recorded as the run's last step; the log
				// up to this point stays available for inspection.
				sink(domain.Step{
					Seq:         steps + 1,
					NodeID:      current,
					StateBefore: before,
					StateAfter:  before,
					Outcome:     domain.OutcomeToolError,
				})
			}
			return state, err
		}
		state = updated

		next, err := nextNodeID(graph, current, state)
		if err != nil {
			return state, err
		}

		steps++
		sink(domain.Step{
			Seq:         steps,
			NodeID:      current,
			StateBefore: before,
			StateAfter:  state.Clone(),
			Outcome:     domain.OutcomeOK,
		})

		e.logger.Debug("step committed", "seq", steps, "node", current, "next", next)
		current = next
	}
}
