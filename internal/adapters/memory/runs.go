package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/rill/pkg/domain"
)

// RunArchive implements ports.RunArchive in memory. Useful for tests
// and for deployments that only want bounded-table eviction without a
// durable backend.
type RunArchive struct {
	mu   sync.RWMutex
	runs map[string]*domain.Run
}

// NewRunArchive creates an empty archive.
func NewRunArchive() *RunArchive {
	return &RunArchive{
		runs: make(map[string]*domain.Run),
	}
}

// Save stores a deep copy of the run, overwriting any previous entry.
func (a *RunArchive) Save(ctx context.Context, run *domain.Run) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runs[run.ID] = run.Snapshot()
	return nil
}

// Load returns a deep copy of an archived run.
func (a *RunArchive) Load(ctx context.Context, runID string) (*domain.Run, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	run, ok := a.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %q: %w", runID, domain.ErrRunNotFound)
	}
	return run.Snapshot(), nil
}

// Delete removes an archived run. Unknown ids are a no-op.
func (a *RunArchive) Delete(ctx context.Context, runID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.runs, runID)
	return nil
}

// List returns the ids of all archived runs.
func (a *RunArchive) List(ctx context.Context) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	ids := make([]string, 0, len(a.runs))
	for id := range a.runs {
		ids = append(ids, id)
	}
	return ids, nil
}
