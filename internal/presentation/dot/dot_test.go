package dot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/rill/internal/presentation/dot"
	"github.com/aretw0/rill/pkg/domain"
)

func TestExport(t *testing.T) {
	def := domain.GraphDefinition{
		ID:          "g",
		EntryNodeID: "check",
		Nodes: []domain.Node{
			{ID: "check", Tool: "check"},
			{ID: "done", Kind: domain.NodeKindTerminal},
		},
		Edges: []domain.Edge{
			{From: "check", To: "check", Condition: &domain.Condition{Key: "quality_score", Op: domain.OpLt, Value: 7}},
			{From: "check", To: "done", Condition: &domain.Condition{Key: "quality_score", Op: domain.OpGte, Value: 7}, Priority: 1},
		},
	}

	out, err := dot.Export(def)
	require.NoError(t, err)

	assert.Contains(t, out, "digraph workflow")
	assert.Contains(t, out, `"check"`)
	assert.Contains(t, out, `"done"`)
	assert.Contains(t, out, "doublecircle")
	assert.Contains(t, out, "bold")
	assert.Contains(t, out, `"check"->"done"`)
	assert.Contains(t, out, "quality_score gte 7")
}

func TestExport_DefaultConditionOperator(t *testing.T) {
	def := domain.GraphDefinition{
		ID:          "g",
		EntryNodeID: "a",
		Nodes: []domain.Node{
			{ID: "a", Tool: "t"},
			{ID: "b", Kind: domain.NodeKindTerminal},
		},
		Edges: []domain.Edge{
			{From: "a", To: "b", Condition: &domain.Condition{Key: "ready", Value: true}},
		},
	}

	out, err := dot.Export(def)
	require.NoError(t, err)
	assert.Contains(t, out, "ready eq true")
}
