package runtime

import (
	"sort"

	"github.com/aretw0/rill/pkg/domain"
)

// outgoingEdges returns the edges leaving a node in evaluation order:
// priority ascending, declaration order breaking ties.
func outgoingEdges(graph domain.GraphDefinition, nodeID string) []domain.Edge {
	var out []domain.Edge
	for _, e := range graph.Edges {
		if e.From == nodeID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}

// nextNodeID selects the target of the first outgoing edge whose
// condition holds against the given state. A node with no matching edge
// is a dead end; callers are expected to have excluded terminal nodes
// already.
func nextNodeID(graph domain.GraphDefinition, nodeID string, state domain.State) (string, error) {
	for _, e := range outgoingEdges(graph, nodeID) {
		ok, err := evalCondition(e.Condition, state)
		if err != nil {
			return "", err
		}
		if ok {
			return e.To, nil
		}
	}
	return "", &domain.DeadEndError{NodeID: nodeID}
}
