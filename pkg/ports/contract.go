package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/rill/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunArchiveContract runs a suite of tests verifying that a RunArchive
// implementation adheres to the interface contract. Adapter tests call
// this with a freshly constructed store.
func RunArchiveContract(t *testing.T, archive RunArchive) {
	ctx := context.Background()
	runID := "contract-run-" + time.Now().Format("20060102150405.000")

	sample := func(id string) *domain.Run {
		return &domain.Run{
			ID:      id,
			GraphID: "g-1",
			Status:  domain.StatusCompleted,
			State:   domain.State{"quality_score": float64(9), "done": true},
			Log: []domain.Step{
				{
					Seq:         1,
					NodeID:      "extract",
					StateBefore: domain.State{"quality_score": float64(3)},
					StateAfter:  domain.State{"quality_score": float64(9)},
					Outcome:     domain.OutcomeOK,
				},
			},
			CreatedAt: time.Now().UTC().Truncate(time.Second),
		}
	}

	t.Run("SaveAndLoad", func(t *testing.T) {
		run := sample(runID)
		require.NoError(t, archive.Save(ctx, run))

		loaded, err := archive.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, run.ID, loaded.ID)
		assert.Equal(t, run.GraphID, loaded.GraphID)
		assert.Equal(t, domain.StatusCompleted, loaded.Status)
		require.Len(t, loaded.Log, 1)
		assert.Equal(t, "extract", loaded.Log[0].NodeID)
		// JSON round-trips turn numbers into float64; compare loosely.
		assert.EqualValues(t, 9, loaded.State["quality_score"])
	})

	t.Run("SaveOverwrites", func(t *testing.T) {
		run := sample(runID)
		run.Status = domain.StatusFailed
		run.Error = "tool \"check\" failed: boom"
		require.NoError(t, archive.Save(ctx, run))

		loaded, err := archive.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusFailed, loaded.Status)
		assert.Equal(t, run.Error, loaded.Error)
	})

	t.Run("LoadNonExistent", func(t *testing.T) {
		_, err := archive.Load(ctx, "missing-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("List", func(t *testing.T) {
		other := sample(runID + "-b")
		require.NoError(t, archive.Save(ctx, other))
		defer func() { _ = archive.Delete(ctx, other.ID) }()

		ids, err := archive.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, runID)
		assert.Contains(t, ids, other.ID)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, archive.Delete(ctx, runID))

		_, err := archive.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)

		// Deleting again must stay a no-op.
		require.NoError(t, archive.Delete(ctx, runID))
	})
}
