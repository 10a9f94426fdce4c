// Package sqlite provides a RunArchive backed by SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/rill/pkg/domain"
	"github.com/aretw0/rill/pkg/ports"
)

// RunArchive is a ports.RunArchive backed by SQLite.
//
// It expects an *sql.DB using a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing the
// driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type RunArchive struct {
	db *sql.DB
}

var _ ports.RunArchive = (*RunArchive)(nil)

// NewRunArchive initializes the required schema in the given database
// and returns a new RunArchive.
func NewRunArchive(db *sql.DB) (*RunArchive, error) {
	a := &RunArchive{db: db}
	if err := a.initSchema(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *RunArchive) initSchema() error {
	_, err := a.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			graph_id TEXT NOT NULL,
			status TEXT NOT NULL,
			current_node TEXT NOT NULL DEFAULT '',
			state BLOB,
			log BLOB,
			error TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`,
	)
	return err
}

// Save persists a run snapshot, overwriting any previous row.
func (a *RunArchive) Save(ctx context.Context, run *domain.Run) error {
	state, err := json.Marshal(run.State)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	log, err := json.Marshal(run.Log)
	if err != nil {
		return fmt.Errorf("marshal log: %w", err)
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO runs (id, graph_id, status, current_node, state, log, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			graph_id = excluded.graph_id,
			status = excluded.status,
			current_node = excluded.current_node,
			state = excluded.state,
			log = excluded.log,
			error = excluded.error,
			created_at = excluded.created_at`,
		run.ID,
		run.GraphID,
		string(run.Status),
		run.CurrentNode,
		state,
		log,
		run.Error,
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Load retrieves a run snapshot.
func (a *RunArchive) Load(ctx context.Context, runID string) (*domain.Run, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT id, graph_id, status, current_node, state, log, error, created_at
		FROM runs WHERE id = ?`, runID)

	var (
		run       domain.Run
		status    string
		state     []byte
		log       []byte
		createdAt string
	)
	err := row.Scan(&run.ID, &run.GraphID, &status, &run.CurrentNode, &state, &log, &run.Error, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %q: %w", runID, domain.ErrRunNotFound)
	}
	if err != nil {
		return nil, err
	}

	run.Status = domain.RunStatus(status)
	if len(state) > 0 {
		if err := json.Unmarshal(state, &run.State); err != nil {
			return nil, fmt.Errorf("unmarshal state: %w", err)
		}
	}
	if len(log) > 0 {
		if err := json.Unmarshal(log, &run.Log); err != nil {
			return nil, fmt.Errorf("unmarshal log: %w", err)
		}
	}
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		run.CreatedAt = ts
	}

	return &run, nil
}

// Delete removes a run. Unknown ids are a no-op.
func (a *RunArchive) Delete(ctx context.Context, runID string) error {
	_, err := a.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
	return err
}

// List returns the ids of all archived runs.
func (a *RunArchive) List(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT id FROM runs ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
