package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/rill/internal/adapters/redis"
	"github.com/aretw0/rill/pkg/domain"
	"github.com/aretw0/rill/pkg/ports"
)

func newArchive(t *testing.T, opts ...redis.Option) (*redis.RunArchive, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return redis.NewFromClient(client, opts...), srv
}

func TestRunArchive_Contract(t *testing.T) {
	archive, _ := newArchive(t)
	ports.RunArchiveContract(t, archive)
}

func TestRunArchive_TTLExpiry(t *testing.T) {
	archive, srv := newArchive(t, redis.WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, archive.Save(ctx, &domain.Run{
		ID:      "r1",
		GraphID: "g1",
		Status:  domain.StatusCompleted,
	}))

	ids, err := archive.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "r1")

	srv.FastForward(2 * time.Minute)

	_, err = archive.Load(ctx, "r1")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)

	// The index entry is pruned lazily on List.
	ids, err = archive.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids, "r1")
}

func TestRunArchive_CustomPrefix(t *testing.T) {
	archive, srv := newArchive(t, redis.WithPrefix("other:"))
	ctx := context.Background()

	require.NoError(t, archive.Save(ctx, &domain.Run{
		ID:     "r1",
		Status: domain.StatusFailed,
	}))

	assert.True(t, srv.Exists("other:r1"))

	run, err := archive.Load(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, run.Status)
}
