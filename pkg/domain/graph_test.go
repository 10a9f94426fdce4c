package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/rill/pkg/domain"
)

func validGraph() domain.GraphDefinition {
	return domain.GraphDefinition{
		ID:          "g",
		EntryNodeID: "a",
		Nodes: []domain.Node{
			{ID: "a", Tool: "t"},
			{ID: "b", Kind: domain.NodeKindTerminal},
		},
		Edges: []domain.Edge{
			{From: "a", To: "b"},
		},
	}
}

func TestGraphDefinition_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.GraphDefinition)
		valid  bool
	}{
		{"Valid", func(g *domain.GraphDefinition) {}, true},
		{"NoNodes", func(g *domain.GraphDefinition) { g.Nodes = nil }, false},
		{"EmptyNodeID", func(g *domain.GraphDefinition) { g.Nodes[0].ID = "" }, false},
		{"DuplicateNodeID", func(g *domain.GraphDefinition) { g.Nodes[1].ID = "a" }, false},
		{"UnknownKind", func(g *domain.GraphDefinition) { g.Nodes[0].Kind = "weird" }, false},
		{"MissingEntry", func(g *domain.GraphDefinition) { g.EntryNodeID = "" }, false},
		{"EntryNotANode", func(g *domain.GraphDefinition) { g.EntryNodeID = "zzz" }, false},
		{"EdgeUnknownSource", func(g *domain.GraphDefinition) { g.Edges[0].From = "zzz" }, false},
		{"EdgeUnknownTarget", func(g *domain.GraphDefinition) { g.Edges[0].To = "zzz" }, false},
		{"EdgeUnknownOperator", func(g *domain.GraphDefinition) {
			g.Edges[0].Condition = &domain.Condition{Key: "k", Op: "matches", Value: 1}
		}, false},
		{"EdgeDefaultOperator", func(g *domain.GraphDefinition) {
			g.Edges[0].Condition = &domain.Condition{Key: "k", Value: 1}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := validGraph()
			tt.mutate(&g)
			err := g.Validate()
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			var invalid *domain.InvalidGraphError
			assert.ErrorAs(t, err, &invalid)
		})
	}
}

func TestGraphDefinition_Clone(t *testing.T) {
	g := validGraph()
	g.Edges[0].Condition = &domain.Condition{Key: "k", Op: domain.OpEq, Value: 1}

	c := g.Clone()
	c.Nodes[0].ID = "mutated"
	c.Edges[0].Condition.Value = 99

	assert.Equal(t, "a", g.Nodes[0].ID)
	assert.Equal(t, 1, g.Edges[0].Condition.Value)
}

func TestState_Clone(t *testing.T) {
	s := domain.State{
		"scalar": 1,
		"nested": map[string]any{"inner": []any{"a", "b"}},
	}

	c := s.Clone()
	c["scalar"] = 2
	c["nested"].(map[string]any)["inner"].([]any)[0] = "mutated"

	assert.Equal(t, 1, s["scalar"])
	assert.Equal(t, "a", s["nested"].(map[string]any)["inner"].([]any)[0])
}

func TestState_CloneNil(t *testing.T) {
	var s domain.State
	c := s.Clone()
	require.NotNil(t, c)
	c["k"] = "v"
	assert.Empty(t, s)
}

func TestRun_Snapshot(t *testing.T) {
	run := &domain.Run{
		ID:     "r",
		Status: domain.StatusRunning,
		State:  domain.State{"k": "v"},
		Log: []domain.Step{
			{Seq: 1, NodeID: "a", Outcome: domain.OutcomeOK},
		},
	}

	snap := run.Snapshot()
	snap.State["k"] = "mutated"
	snap.Log[0].NodeID = "mutated"
	snap.Log = append(snap.Log, domain.Step{Seq: 2})

	assert.Equal(t, "v", run.State["k"])
	assert.Equal(t, "a", run.Log[0].NodeID)
	assert.Len(t, run.Log, 1)
}

func TestRunStatus_Terminal(t *testing.T) {
	assert.False(t, domain.StatusPending.Terminal())
	assert.False(t, domain.StatusRunning.Terminal())
	assert.True(t, domain.StatusCompleted.Terminal())
	assert.True(t, domain.StatusFailed.Terminal())
}
