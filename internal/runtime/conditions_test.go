package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/rill/pkg/domain"
)

func TestEvalCondition(t *testing.T) {
	state := domain.State{
		"score":   float64(6),
		"count":   3,
		"name":    "beta",
		"enabled": true,
	}

	tests := []struct {
		name string
		cond *domain.Condition
		want bool
	}{
		{"NilConditionIsAlwaysTrue", nil, true},
		{"EqDefaultOperator", &domain.Condition{Key: "name", Value: "beta"}, true},
		{"EqNumericCoercion", &domain.Condition{Key: "score", Op: domain.OpEq, Value: 6}, true},
		{"EqIntAgainstFloat", &domain.Condition{Key: "count", Op: domain.OpEq, Value: float64(3)}, true},
		{"EqBool", &domain.Condition{Key: "enabled", Op: domain.OpEq, Value: true}, true},
		{"NeMismatch", &domain.Condition{Key: "name", Op: domain.OpNe, Value: "alpha"}, true},
		{"LtHolds", &domain.Condition{Key: "score", Op: domain.OpLt, Value: 7}, true},
		{"LtFails", &domain.Condition{Key: "score", Op: domain.OpLt, Value: 6}, false},
		{"LteBoundary", &domain.Condition{Key: "score", Op: domain.OpLte, Value: 6}, true},
		{"GtFails", &domain.Condition{Key: "score", Op: domain.OpGt, Value: 9}, false},
		{"GteBoundary", &domain.Condition{Key: "score", Op: domain.OpGte, Value: 6}, true},
		{"StringOrdering", &domain.Condition{Key: "name", Op: domain.OpGt, Value: "alpha"}, true},
		{"MissingKeyEqNil", &domain.Condition{Key: "absent", Op: domain.OpEq, Value: nil}, true},
		{"MissingKeyNeValue", &domain.Condition{Key: "absent", Op: domain.OpNe, Value: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evalCondition(tt.cond, state)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalCondition_Errors(t *testing.T) {
	state := domain.State{"name": "beta"}

	t.Run("OrderingAcrossTypes", func(t *testing.T) {
		_, err := evalCondition(&domain.Condition{Key: "name", Op: domain.OpLt, Value: 5}, state)
		assert.Error(t, err)
	})

	t.Run("OrderingOnMissingKey", func(t *testing.T) {
		_, err := evalCondition(&domain.Condition{Key: "absent", Op: domain.OpGt, Value: 5}, state)
		assert.Error(t, err)
	})

	t.Run("UnknownOperator", func(t *testing.T) {
		_, err := evalCondition(&domain.Condition{Key: "name", Op: "regex", Value: "b.*"}, state)
		assert.Error(t, err)
	})
}

func TestOutgoingEdges_Order(t *testing.T) {
	graph := domain.GraphDefinition{
		ID:          "g",
		EntryNodeID: "a",
		Nodes: []domain.Node{
			{ID: "a", Tool: "t"},
			{ID: "b", Tool: "t"},
			{ID: "c", Tool: "t"},
		},
		Edges: []domain.Edge{
			{From: "a", To: "b", Priority: 5},
			{From: "a", To: "c", Priority: 0},
			{From: "a", To: "b", Priority: 0},
			{From: "b", To: "c"},
		},
	}

	edges := outgoingEdges(graph, "a")
	require.Len(t, edges, 3)
	// Priority ascending, declaration order breaking the tie between
	// the two priority-0 edges.
	assert.Equal(t, "c", edges[0].To)
	assert.Equal(t, 0, edges[0].Priority)
	assert.Equal(t, "b", edges[1].To)
	assert.Equal(t, 0, edges[1].Priority)
	assert.Equal(t, 5, edges[2].Priority)
}
