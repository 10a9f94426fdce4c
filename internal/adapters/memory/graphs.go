// Package memory provides the in-memory implementations of the rill
// storage ports: the graph definition table and a run archive.
// Both are safe for concurrent use and hand out copies, never internal
// references.
package memory

import (
	"fmt"
	"sync"

	"github.com/aretw0/rill/pkg/domain"
)

// GraphStore implements ports.GraphStore in memory.
type GraphStore struct {
	mu   sync.RWMutex
	defs map[string]domain.GraphDefinition
}

// NewGraphStore creates an empty graph store.
func NewGraphStore() *GraphStore {
	return &GraphStore{
		defs: make(map[string]domain.GraphDefinition),
	}
}

// Put validates and stores a definition. Definitions are immutable:
// storing an id twice is rejected.
func (s *GraphStore) Put(def domain.GraphDefinition) error {
	if def.ID == "" {
		return &domain.InvalidGraphError{Reason: "graph_id is required"}
	}
	if err := def.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.defs[def.ID]; exists {
		return &domain.InvalidGraphError{Reason: fmt.Sprintf("graph %q already exists", def.ID)}
	}
	s.defs[def.ID] = def.Clone()
	return nil
}

// Get returns a copy of a stored definition.
func (s *GraphStore) Get(id string) (domain.GraphDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.defs[id]
	if !ok {
		return domain.GraphDefinition{}, fmt.Errorf("graph %q: %w", id, domain.ErrGraphNotFound)
	}
	return def.Clone(), nil
}

// List returns all stored graph ids.
func (s *GraphStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.defs))
	for id := range s.defs {
		ids = append(ids, id)
	}
	return ids, nil
}
