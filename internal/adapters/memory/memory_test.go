package memory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/rill/internal/adapters/memory"
	"github.com/aretw0/rill/pkg/domain"
	"github.com/aretw0/rill/pkg/ports"
)

func sampleGraph(id string) domain.GraphDefinition {
	return domain.GraphDefinition{
		ID:          id,
		EntryNodeID: "a",
		Nodes: []domain.Node{
			{ID: "a", Tool: "t"},
			{ID: "b", Kind: domain.NodeKindTerminal},
		},
		Edges: []domain.Edge{{From: "a", To: "b"}},
	}
}

func TestGraphStore_PutGet(t *testing.T) {
	store := memory.NewGraphStore()
	require.NoError(t, store.Put(sampleGraph("g1")))

	def, err := store.Get("g1")
	require.NoError(t, err)
	assert.Equal(t, "g1", def.ID)
	assert.Len(t, def.Nodes, 2)
}

func TestGraphStore_RejectsDuplicateID(t *testing.T) {
	store := memory.NewGraphStore()
	require.NoError(t, store.Put(sampleGraph("g1")))

	err := store.Put(sampleGraph("g1"))
	var invalid *domain.InvalidGraphError
	assert.ErrorAs(t, err, &invalid)
}

func TestGraphStore_RejectsInvalidGraph(t *testing.T) {
	store := memory.NewGraphStore()

	bad := sampleGraph("g1")
	bad.EntryNodeID = "ghost"
	var invalid *domain.InvalidGraphError
	assert.ErrorAs(t, store.Put(bad), &invalid)

	noID := sampleGraph("")
	assert.ErrorAs(t, store.Put(noID), &invalid)
}

func TestGraphStore_GetNotFound(t *testing.T) {
	store := memory.NewGraphStore()
	_, err := store.Get("nope")
	assert.ErrorIs(t, err, domain.ErrGraphNotFound)
}

func TestGraphStore_StoredDefinitionIsImmutable(t *testing.T) {
	store := memory.NewGraphStore()

	def := sampleGraph("g1")
	require.NoError(t, store.Put(def))

	// Mutations on the caller's copy, before or after Get, must not
	// leak into the store.
	def.Nodes[0].Tool = "mutated"

	got, err := store.Get("g1")
	require.NoError(t, err)
	assert.Equal(t, "t", got.Nodes[0].Tool)

	got.Nodes[0].Tool = "mutated-again"
	again, err := store.Get("g1")
	require.NoError(t, err)
	assert.Equal(t, "t", again.Nodes[0].Tool)
}

func TestGraphStore_List(t *testing.T) {
	store := memory.NewGraphStore()
	require.NoError(t, store.Put(sampleGraph("g1")))
	require.NoError(t, store.Put(sampleGraph("g2")))

	ids, err := store.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"g1", "g2"}, ids)
}

func TestRunArchive_Contract(t *testing.T) {
	ports.RunArchiveContract(t, memory.NewRunArchive())
}
