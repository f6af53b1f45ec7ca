// Package history is a persistent journal of executed operations. It records
// metadata only (never captured output); the in-memory log store remains the
// sole home of archived output and keeps its process-lifetime semantics.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record is one journaled execution.
type Record struct {
	ID         string `json:"id"`
	Op         string `json:"op"`
	Command    string `json:"command"`
	ExitCode   int    `json:"exit_code"`
	DurationMs int64  `json:"duration_ms"`
	CreatedAt  string `json:"created_at"`
}

// Store persists execution records in SQLite.
type Store struct {
	db *sql.DB
}

// New creates a Store over an opened database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append journals one completed execution and returns the record id.
func (s *Store) Append(ctx context.Context, op, command string, exitCode int, duration time.Duration) (string, error) {
	if op == "" {
		return "", fmt.Errorf("op is empty")
	}

	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(ctx, `
INSERT INTO exec_history(id, op, command, exit_code, duration_ms, created_at)
VALUES(?, ?, ?, ?, ?, ?);
`, id, op, command, exitCode, duration.Milliseconds(), now)
	if err != nil {
		return "", fmt.Errorf("append history: %w", err)
	}
	return id, nil
}

// Recent returns up to limit records, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, op, command, exit_code, duration_ms, created_at
FROM exec_history
ORDER BY created_at DESC, rowid DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Op, &r.Command, &r.ExitCode, &r.DurationMs, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
