// Package runs owns the mutable lifecycle of runs: creation, sync and
// background execution, state queries, cancellation, and the bounded
// in-memory run table with archive offload.
package runs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/rill/internal/broadcast"
	"github.com/aretw0/rill/internal/logging"
	"github.com/aretw0/rill/internal/metrics"
	"github.com/aretw0/rill/internal/runtime"
	"github.com/aretw0/rill/pkg/domain"
	"github.com/aretw0/rill/pkg/ports"
)

// DefaultMaxRuns bounds the in-memory run table. When the table is
// full, the oldest terminal runs are evicted (to the archive, when one
// is configured). Active runs are never evicted.
const DefaultMaxRuns = 1000

// entry pairs a run with its write lock and cancellation handle.
// The lock serializes the single execution path against readers; each
// step is appended under it, so readers never observe a partial step.
type entry struct {
	mu     sync.Mutex
	run    *domain.Run
	runCtx context.Context
	cancel context.CancelFunc
}

// Manager creates and executes runs. Multiple runs proceed fully
// independently; within one run execution is strictly sequential.
type Manager struct {
	graphs  ports.GraphStore
	engine  *runtime.Engine
	bcast   *broadcast.Broadcaster
	archive ports.RunArchive
	maxRuns int
	logger  *slog.Logger

	mu      sync.RWMutex
	entries map[string]*entry
	order   []string // creation order, scanned for eviction candidates

	wg sync.WaitGroup
}

// Option configures the manager.
type Option func(*Manager)

// WithArchive sets the durable collaborator that receives terminal and
// evicted runs.
func WithArchive(archive ports.RunArchive) Option {
	return func(m *Manager) {
		m.archive = archive
	}
}

// WithMaxRuns bounds the in-memory run table. Zero or negative means
// unbounded.
func WithMaxRuns(n int) Option {
	return func(m *Manager) {
		m.maxRuns = n
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a run manager on top of a graph store and an
// execution engine.
func NewManager(graphs ports.GraphStore, engine *runtime.Engine, opts ...Option) *Manager {
	m := &Manager{
		graphs:  graphs,
		engine:  engine,
		bcast:   broadcast.New(),
		maxRuns: DefaultMaxRuns,
		logger:  logging.NewNop(),
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateRun allocates a pending run for a registered graph. The initial
// state is deep-copied so later caller mutations cannot alias into the
// run.
func (m *Manager) CreateRun(graphID string, initial domain.State) (string, error) {
	if _, err := m.graphs.Get(graphID); err != nil {
		return "", err
	}

	run := &domain.Run{
		ID:        uuid.NewString(),
		GraphID:   graphID,
		Status:    domain.StatusPending,
		State:     initial.Clone(),
		CreatedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	m.evictLocked()
	m.entries[run.ID] = &entry{run: run}
	m.order = append(m.order, run.ID)
	m.mu.Unlock()

	m.logger.Debug("run created", "run", run.ID, "graph", graphID)
	return run.ID, nil
}

// evictLocked makes room in the run table by dropping the oldest
// terminal runs. Runs are archived before eviction when an archive is
// configured; archiving failures block the eviction of that run rather
// than losing it.
func (m *Manager) evictLocked() {
	if m.maxRuns <= 0 || len(m.entries) < m.maxRuns {
		return
	}

	kept := m.order[:0]
	for _, id := range m.order {
		e, ok := m.entries[id]
		if !ok {
			continue
		}
		if len(m.entries) < m.maxRuns {
			kept = append(kept, id)
			continue
		}

		e.mu.Lock()
		terminal := e.run.Status.Terminal()
		snapshot := e.run.Snapshot()
		e.mu.Unlock()

		if !terminal {
			kept = append(kept, id)
			continue
		}

		if m.archive != nil {
			if err := m.archive.Save(context.Background(), snapshot); err != nil {
				m.logger.Warn("archive save failed, keeping run in memory", "run", id, "error", err)
				kept = append(kept, id)
				continue
			}
		}

		delete(m.entries, id)
		metrics.RunsEvicted.Inc()
		m.logger.Debug("run evicted", "run", id)
	}
	m.order = kept
}

// RunSync executes a pending run to completion in the calling context.
// It returns the final run snapshot; for failed runs the execution error
// is returned alongside it.
func (m *Manager) RunSync(ctx context.Context, runID string) (*domain.Run, error) {
	e, graph, err := m.begin(ctx, runID)
	if err != nil {
		return nil, err
	}
	return m.execute(e, graph)
}

// RunAsync schedules a pending run to execute in the background and
// returns once it is scheduled. Progress is observable via GetState or
// Subscribe only; execution errors never surface to this caller.
func (m *Manager) RunAsync(runID string) error {
	// The background run owns its own context; it is detached from the
	// caller and stopped only via Cancel.
	e, graph, err := m.begin(context.Background(), runID)
	if err != nil {
		return err
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if _, err := m.execute(e, graph); err != nil {
			m.logger.Debug("background run failed", "run", runID, "error", err)
		}
	}()
	return nil
}

// begin gates the pending -> running transition and resolves the graph.
// A second RunSync/RunAsync on the same run fails here with
// domain.ErrInvalidRunState without touching the in-flight run.
func (m *Manager) begin(ctx context.Context, runID string) (*entry, domain.GraphDefinition, error) {
	m.mu.RLock()
	e, ok := m.entries[runID]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.GraphDefinition{}, fmt.Errorf("run %q: %w", runID, domain.ErrRunNotFound)
	}

	e.mu.Lock()
	if e.run.Status != domain.StatusPending {
		status := e.run.Status
		e.mu.Unlock()
		return nil, domain.GraphDefinition{}, fmt.Errorf("run %q is %s: %w", runID, status, domain.ErrInvalidRunState)
	}

	graph, err := m.graphs.Get(e.run.GraphID)
	if err != nil {
		e.mu.Unlock()
		return nil, domain.GraphDefinition{}, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.run.Status = domain.StatusRunning
	e.run.CurrentNode = graph.EntryNodeID
	e.runCtx = runCtx
	e.cancel = cancel
	e.mu.Unlock()

	metrics.RunsStarted.Inc()
	metrics.ActiveRuns.Inc()
	return e, graph, nil
}

// execute drives the engine over one run, appending and broadcasting
// each step as it is produced, then commits the terminal status.
func (m *Manager) execute(e *entry, graph domain.GraphDefinition) (*domain.Run, error) {
	e.mu.Lock()
	runID := e.run.ID
	initial := e.run.State.Clone()
	e.mu.Unlock()

	sink := func(step domain.Step) {
		e.mu.Lock()
		e.run.Log = append(e.run.Log, step)
		e.run.State = step.StateAfter.Clone()
		e.run.CurrentNode = step.NodeID
		m.bcast.Publish(runID, step)
		e.mu.Unlock()
		metrics.StepsExecuted.Inc()
	}

	final, execErr := m.engine.Execute(e.runCtx, graph, initial, sink)

	e.mu.Lock()
	e.run.State = final.Clone()
	if execErr != nil {
		e.run.Status = domain.StatusFailed
		e.run.Error = execErr.Error()
	} else {
		e.run.Status = domain.StatusCompleted
		e.run.CurrentNode = ""
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	// Closing the stream under the entry lock keeps Subscribe's
	// terminal-status check atomic with respect to this transition.
	m.bcast.Close(runID)
	snapshot := e.run.Snapshot()
	e.mu.Unlock()

	metrics.ActiveRuns.Dec()
	metrics.RunsFinished.WithLabelValues(string(snapshot.Status)).Inc()

	if execErr != nil {
		m.logger.Info("run failed", "run", runID, "steps", len(snapshot.Log), "error", execErr)
	} else {
		m.logger.Info("run completed", "run", runID, "steps", len(snapshot.Log))
	}

	if m.archive != nil {
		if err := m.archive.Save(context.Background(), snapshot); err != nil {
			m.logger.Warn("archive save failed", "run", runID, "error", err)
		}
	}

	return snapshot, execErr
}

// GetState returns a read-only snapshot of a run: status, state and the
// full log committed so far. It never blocks on an in-flight run beyond
// the per-step append lock. Runs evicted from memory are served from the
// archive when one is configured.
func (m *Manager) GetState(ctx context.Context, runID string) (*domain.Run, error) {
	m.mu.RLock()
	e, ok := m.entries[runID]
	m.mu.RUnlock()

	if ok {
		e.mu.Lock()
		snapshot := e.run.Snapshot()
		e.mu.Unlock()
		return snapshot, nil
	}

	if m.archive != nil {
		run, err := m.archive.Load(ctx, runID)
		if err == nil {
			return run, nil
		}
		if !errors.Is(err, domain.ErrRunNotFound) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("run %q: %w", runID, domain.ErrRunNotFound)
}

// Cancel marks a running run for stop. The engine honors the mark at
// the next step boundary; the in-flight tool call is allowed to finish.
func (m *Manager) Cancel(runID string) error {
	m.mu.RLock()
	e, ok := m.entries[runID]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("run %q: %w", runID, domain.ErrRunNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.run.Status != domain.StatusRunning || e.cancel == nil {
		return fmt.Errorf("run %q is %s: %w", runID, e.run.Status, domain.ErrInvalidRunState)
	}
	e.cancel()
	return nil
}

// Subscribe returns a live stream of the run's steps from this point
// forward (no backfill) and an unsubscribe function. The stream ends
// when the run reaches a terminal status; subscribing to an already
// finished run yields an immediately closed stream.
func (m *Manager) Subscribe(runID string) (<-chan domain.Step, func(), error) {
	m.mu.RLock()
	e, ok := m.entries[runID]
	m.mu.RUnlock()
	if !ok {
		// Archived runs are terminal by construction.
		if m.archive != nil {
			if _, err := m.archive.Load(context.Background(), runID); err == nil {
				return closedStepChan(), func() {}, nil
			}
		}
		return nil, nil, fmt.Errorf("run %q: %w", runID, domain.ErrRunNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.run.Status.Terminal() {
		return closedStepChan(), func() {}, nil
	}

	ch, cancel := m.bcast.Subscribe(runID)
	return ch, cancel, nil
}

// Wait blocks until all background runs have finished. Used during
// shutdown.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func closedStepChan() <-chan domain.Step {
	ch := make(chan domain.Step)
	close(ch)
	return ch
}
