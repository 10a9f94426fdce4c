package rill

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aretw0/rill/internal/adapters/memory"
	"github.com/aretw0/rill/internal/logging"
	"github.com/aretw0/rill/internal/runs"
	"github.com/aretw0/rill/internal/runtime"
	"github.com/aretw0/rill/pkg/domain"
	"github.com/aretw0/rill/pkg/ports"
	"github.com/aretw0/rill/pkg/registry"
)

// Engine is the high-level entry point for the rill library. It wraps
// the internal runtime and run manager behind a simplified API.
type Engine struct {
	registry *registry.Registry
	graphs   ports.GraphStore
	manager  *runs.Manager
	logger   *slog.Logger

	iterationLimit int
	maxRuns        int
	archive        ports.RunArchive
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRegistry injects a pre-populated tool registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(e *Engine) {
		if reg != nil {
			e.registry = reg
		}
	}
}

// WithIterationLimit sets the hard maximum step count per run.
func WithIterationLimit(n int) Option {
	return func(e *Engine) {
		e.iterationLimit = n
	}
}

// WithMaxRuns bounds the in-memory run table. Zero means unbounded.
func WithMaxRuns(n int) Option {
	return func(e *Engine) {
		e.maxRuns = n
	}
}

// WithArchive sets the durable store that receives finished and evicted
// runs.
func WithArchive(archive ports.RunArchive) Option {
	return func(e *Engine) {
		e.archive = archive
	}
}

// New initializes a rill Engine with an in-memory graph store.
func New(opts ...Option) *Engine {
	e := &Engine{
		registry:       registry.New(),
		graphs:         memory.NewGraphStore(),
		logger:         logging.NewNop(),
		iterationLimit: runtime.DefaultIterationLimit,
		maxRuns:        runs.DefaultMaxRuns,
	}
	for _, opt := range opts {
		opt(e)
	}

	rt := runtime.New(e.registry,
		runtime.WithIterationLimit(e.iterationLimit),
		runtime.WithLogger(e.logger),
	)

	managerOpts := []runs.Option{
		runs.WithMaxRuns(e.maxRuns),
		runs.WithLogger(e.logger),
	}
	if e.archive != nil {
		managerOpts = append(managerOpts, runs.WithArchive(e.archive))
	}
	e.manager = runs.NewManager(e.graphs, rt, managerOpts...)

	return e
}

// Registry returns the tool registry backing this engine.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// CreateGraph validates and stores a graph definition, allocating an id
// when the definition carries none. Returns *domain.InvalidGraphError
// on structural problems.
func (e *Engine) CreateGraph(def domain.GraphDefinition) (string, error) {
	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	if err := e.graphs.Put(def); err != nil {
		return "", err
	}
	e.logger.Debug("graph created", "graph", def.ID, "nodes", len(def.Nodes))
	return def.ID, nil
}

// Graph returns a copy of a stored graph definition.
func (e *Engine) Graph(id string) (domain.GraphDefinition, error) {
	return e.graphs.Get(id)
}

// Graphs returns all stored graph ids.
func (e *Engine) Graphs() ([]string, error) {
	return e.graphs.List()
}

// CreateRun allocates a pending run for a graph.
func (e *Engine) CreateRun(graphID string, initial domain.State) (string, error) {
	return e.manager.CreateRun(graphID, initial)
}

// RunSync executes a pending run to completion, blocking the caller.
// The final run snapshot is returned; for failed runs the execution
// error is returned alongside it.
func (e *Engine) RunSync(ctx context.Context, runID string) (*domain.Run, error) {
	return e.manager.RunSync(ctx, runID)
}

// RunAsync schedules a pending run in the background and returns once
// scheduled.
func (e *Engine) RunAsync(runID string) error {
	return e.manager.RunAsync(runID)
}

// RunGraph is the create+run (sync) convenience: it allocates a run for
// the graph and drives it to completion.
func (e *Engine) RunGraph(ctx context.Context, graphID string, initial domain.State) (*domain.Run, error) {
	runID, err := e.CreateRun(graphID, initial)
	if err != nil {
		return nil, err
	}
	return e.RunSync(ctx, runID)
}

// StartGraph is the create+run (async) convenience: it allocates a run
// and schedules it in the background, returning the run id immediately.
func (e *Engine) StartGraph(graphID string, initial domain.State) (string, error) {
	runID, err := e.CreateRun(graphID, initial)
	if err != nil {
		return "", err
	}
	if err := e.RunAsync(runID); err != nil {
		return "", err
	}
	return runID, nil
}

// GetState returns a read-only snapshot of a run.
func (e *Engine) GetState(ctx context.Context, runID string) (*domain.Run, error) {
	return e.manager.GetState(ctx, runID)
}

// Cancel marks a running run for stop at the next step boundary.
func (e *Engine) Cancel(runID string) error {
	return e.manager.Cancel(runID)
}

// Subscribe returns a live stream of a run's steps from this point
// forward, plus an unsubscribe function. The stream ends when the run
// reaches a terminal status.
func (e *Engine) Subscribe(runID string) (<-chan domain.Step, func(), error) {
	return e.manager.Subscribe(runID)
}

// Wait blocks until all background runs have finished.
func (e *Engine) Wait() {
	e.manager.Wait()
}
