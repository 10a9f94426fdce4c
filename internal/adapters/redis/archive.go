// Package redis provides a RunArchive backed by Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/rill/pkg/domain"
	"github.com/aretw0/rill/pkg/ports"
)

// RunArchive implements ports.RunArchive using Redis. Runs are stored
// as JSON values with an optional TTL, plus a ZSET index for listing.
type RunArchive struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

var _ ports.RunArchive = (*RunArchive)(nil)

// Option configures the archive.
type Option func(*RunArchive)

// WithTTL sets the expiration for archived runs. Zero means keep
// forever.
func WithTTL(ttl time.Duration) Option {
	return func(a *RunArchive) {
		a.ttl = ttl
	}
}

// WithPrefix sets the key prefix for archived runs.
func WithPrefix(prefix string) Option {
	return func(a *RunArchive) {
		a.prefix = prefix
	}
}

// New creates a Redis archive with its own client.
func New(address, password string, db int, opts ...Option) *RunArchive {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a Redis archive from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *RunArchive {
	a := &RunArchive{
		client: client,
		prefix: "rill:run:",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *RunArchive) key(runID string) string {
	return a.prefix + runID
}

func (a *RunArchive) indexKey() string {
	return a.prefix + "index"
}

// Save persists a run snapshot.
func (a *RunArchive) Save(ctx context.Context, run *domain.Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	pipe := a.client.Pipeline()
	pipe.Set(ctx, a.key(run.ID), data, a.ttl)

	// Index score = expiry time, used for lazy cleanup on List.
	score := float64(time.Now().Add(a.ttl).Unix())
	if a.ttl == 0 {
		score = 4102444800 // 2100-01-01, effectively "never"
	}
	pipe.ZAdd(ctx, a.indexKey(), backend.Z{
		Score:  score,
		Member: run.ID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save to redis: %w", err)
	}
	return nil
}

// Load retrieves a run snapshot.
func (a *RunArchive) Load(ctx context.Context, runID string) (*domain.Run, error) {
	val, err := a.client.Get(ctx, a.key(runID)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("run %q: %w", runID, domain.ErrRunNotFound)
		}
		return nil, fmt.Errorf("get from redis: %w", err)
	}

	var run domain.Run
	if err := json.Unmarshal([]byte(val), &run); err != nil {
		return nil, fmt.Errorf("unmarshal run: %w", err)
	}
	return &run, nil
}

// Delete removes a run. Unknown ids are a no-op.
func (a *RunArchive) Delete(ctx context.Context, runID string) error {
	pipe := a.client.Pipeline()
	pipe.Del(ctx, a.key(runID))
	pipe.ZRem(ctx, a.indexKey(), runID)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns the ids of archived runs, pruning expired index entries
// first.
func (a *RunArchive) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := a.client.ZRemRangeByScore(ctx, a.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("prune expired runs: %w", err)
	}

	ids, err := a.client.ZRange(ctx, a.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return ids, nil
}

// Close closes the underlying client.
func (a *RunArchive) Close() error {
	return a.client.Close()
}
