package ports

import (
	"context"

	"github.com/aretw0/rill/pkg/domain"
)

// GraphStore holds immutable graph definitions keyed by graph id.
// Implementations must validate definitions on Put and hand out copies,
// never references into their own storage.
type GraphStore interface {
	// Put stores a definition. Returns *domain.InvalidGraphError if the
	// definition fails validation.
	Put(def domain.GraphDefinition) error

	// Get retrieves a copy of a definition.
	// Returns domain.ErrGraphNotFound if the id is unknown.
	Get(id string) (domain.GraphDefinition, error)

	// List returns the ids of all stored definitions.
	List() ([]string, error)
}

// RunArchive is the external durable collaborator for finished runs.
// The run manager saves terminal runs here (and evicted ones, when the
// in-memory table is bounded); Load backs get_state for runs that are
// no longer in memory.
type RunArchive interface {
	// Save persists a run snapshot. Saving the same id again overwrites.
	Save(ctx context.Context, run *domain.Run) error

	// Load retrieves a run snapshot.
	// Returns domain.ErrRunNotFound if the id is unknown.
	Load(ctx context.Context, runID string) (*domain.Run, error)

	// Delete removes a run. It is a no-op for unknown ids.
	Delete(ctx context.Context, runID string) error

	// List returns the ids of all archived runs.
	List(ctx context.Context) ([]string, error)
}
