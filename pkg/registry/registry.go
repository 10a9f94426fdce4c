// Package registry manages the tools available to the execution engine.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/rill/pkg/domain"
)

// ToolFunc is a named, callable unit of work: it receives the run's
// current state and returns the updated state. Blocking and suspending
// tools are registered uniformly; a suspending tool simply blocks inside
// the call (on I/O, a timer, or ctx) and the engine awaits it before the
// next step proceeds. Steps are never interleaved within one run.
type ToolFunc func(ctx context.Context, state domain.State) (domain.State, error)

// Registry maps tool names to implementations. It is process-wide,
// written at registration time and read-mostly afterwards; safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]ToolFunc
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		tools: make(map[string]ToolFunc),
	}
}

// Register adds a tool under a unique name. Registering a name twice
// fails with domain.ErrDuplicateTool and leaves the original in place;
// silent replacement would change the behavior of already-created
// graphs.
func (r *Registry) Register(name string, fn ToolFunc) error {
	if fn == nil {
		return fmt.Errorf("tool %q: nil function", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q: %w", name, domain.ErrDuplicateTool)
	}
	r.tools[name] = fn
	return nil
}

// Resolve looks up a tool by name.
// Returns domain.ErrUnknownTool if absent.
func (r *Registry) Resolve(name string) (ToolFunc, error) {
	r.mu.RLock()
	fn, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("tool %q: %w", name, domain.ErrUnknownTool)
	}
	return fn, nil
}

// Invoke resolves a tool and calls it with the given state. A failure
// raised by the tool is not swallowed here; it propagates wrapped in
// *domain.ToolExecutionError. A tool returning a nil state keeps the
// input state.
func (r *Registry) Invoke(ctx context.Context, name string, state domain.State) (domain.State, error) {
	fn, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}

	out, err := fn(ctx, state)
	if err != nil {
		return nil, &domain.ToolExecutionError{Tool: name, Err: err}
	}
	if out == nil {
		out = state
	}
	return out, nil
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
