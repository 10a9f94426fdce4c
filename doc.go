// Package rill is a small graph-based workflow execution engine.
//
// A workflow is a directed graph of nodes backed by registered tools.
// Executing a graph walks it from the entry node: invoke the node's
// tool against a shared mutable state, pick the next node by evaluating
// edge predicates against the updated state, and repeat (revisiting
// nodes is allowed, which is how loops are expressed) until a terminal
// node is reached or the iteration guard trips. Each run produces an
// ordered step log and can stream steps to live subscribers.
//
// The root package is the high-level entry point; it wires together the
// tool registry, the graph store, the traversal runtime and the run
// manager. See cmd/rill for the CLI and the HTTP server.
package rill
