package domain

import "fmt"

// NodeKind constants define how the engine treats a node.
const (
	// NodeKindAction invokes the node's tool and continues along an edge.
	NodeKindAction = "action"
	// NodeKindTerminal ends the run. Terminal nodes have no tool and
	// produce no step.
	NodeKindTerminal = "terminal"
)

// Condition operators, matching the predicate model of the wire format.
const (
	OpEq  = "eq"
	OpNe  = "ne"
	OpLt  = "lt"
	OpGt  = "gt"
	OpLte = "lte"
	OpGte = "gte"
)

// Node is a unit of work in the graph, backed by a registered tool.
type Node struct {
	ID   string `json:"id" yaml:"id"`
	Tool string `json:"tool,omitempty" yaml:"tool,omitempty"`
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"` // "action" (default) or "terminal"
}

// IsTerminal reports whether the node ends a run.
func (n Node) IsTerminal() bool {
	return n.Kind == NodeKindTerminal
}

// Condition is a simple predicate over the state: state[Key] <Op> Value.
// A nil *Condition on an edge is the always-true default predicate.
// Conditions are pure functions of the current state only; they cannot
// reference prior steps or external data.
type Condition struct {
	Key   string `json:"key" yaml:"key"`
	Op    string `json:"op,omitempty" yaml:"op,omitempty"` // eq (default), ne, lt, gt, lte, gte
	Value any    `json:"value" yaml:"value"`
}

// Edge connects two nodes. Outgoing edges of a node are evaluated in
// Priority ascending order, declaration order breaking ties; the first
// edge whose condition holds is taken.
type Edge struct {
	From      string     `json:"from" yaml:"from"`
	To        string     `json:"to" yaml:"to"`
	Condition *Condition `json:"condition,omitempty" yaml:"condition,omitempty"`
	Priority  int        `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// GraphDefinition is an immutable description of a workflow graph.
// Stores hand out copies; nothing mutates a definition after creation.
type GraphDefinition struct {
	ID          string `json:"graph_id" yaml:"graph_id"`
	EntryNodeID string `json:"entry_node_id" yaml:"entry_node_id"`
	Nodes       []Node `json:"nodes" yaml:"nodes"`
	Edges       []Edge `json:"edges" yaml:"edges"`
}

// NodeByID looks up a node. The second return is false if the id is not
// part of the graph.
func (g GraphDefinition) NodeByID(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Validate checks the structural invariants of the definition: node ids
// are unique and non-empty, the entry node exists, every edge endpoint
// exists, and condition operators are known. Tool names are not checked
// here; they are resolved lazily at execution time so the registry may
// grow after a graph is created.
func (g GraphDefinition) Validate() error {
	if len(g.Nodes) == 0 {
		return &InvalidGraphError{Reason: "graph has no nodes"}
	}

	seen := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			return &InvalidGraphError{Reason: "node with empty id"}
		}
		if _, dup := seen[n.ID]; dup {
			return &InvalidGraphError{Reason: fmt.Sprintf("duplicate node id %q", n.ID)}
		}
		seen[n.ID] = struct{}{}

		switch n.Kind {
		case "", NodeKindAction, NodeKindTerminal:
		default:
			return &InvalidGraphError{Reason: fmt.Sprintf("node %q has unknown kind %q", n.ID, n.Kind)}
		}
	}

	if g.EntryNodeID == "" {
		return &InvalidGraphError{Reason: "entry_node_id is required"}
	}
	if _, ok := seen[g.EntryNodeID]; !ok {
		return &InvalidGraphError{Reason: fmt.Sprintf("entry node %q is not among the nodes", g.EntryNodeID)}
	}

	for i, e := range g.Edges {
		if _, ok := seen[e.From]; !ok {
			return &InvalidGraphError{Reason: fmt.Sprintf("edge %d references unknown source node %q", i, e.From)}
		}
		if _, ok := seen[e.To]; !ok {
			return &InvalidGraphError{Reason: fmt.Sprintf("edge %d references unknown target node %q", i, e.To)}
		}
		if e.Condition != nil {
			switch e.Condition.Op {
			case "", OpEq, OpNe, OpLt, OpGt, OpLte, OpGte:
			default:
				return &InvalidGraphError{Reason: fmt.Sprintf("edge %d has unknown operator %q", i, e.Condition.Op)}
			}
		}
	}

	return nil
}

// Clone returns an independent copy of the definition. Condition values
// are scalars in practice; the pointer itself is duplicated so callers
// cannot reach back into a stored definition.
func (g GraphDefinition) Clone() GraphDefinition {
	out := g
	out.Nodes = make([]Node, len(g.Nodes))
	copy(out.Nodes, g.Nodes)
	out.Edges = make([]Edge, len(g.Edges))
	for i, e := range g.Edges {
		if e.Condition != nil {
			c := *e.Condition
			e.Condition = &c
		}
		out.Edges[i] = e
	}
	return out
}
