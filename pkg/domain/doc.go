// Package domain contains the core types of the rill workflow engine:
// graph definitions, execution state, runs and their step logs, and the
// error taxonomy shared by all layers.
//
// Types here carry no behavior beyond validation and copying. Traversal
// logic lives in internal/runtime, lifecycle logic in internal/runs.
package domain
