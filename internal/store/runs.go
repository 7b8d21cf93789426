package store

// runs.go records sync run outcomes in the sync_runs table. Runs are
// written outside the data transaction so failed runs stay visible for the
// operator.

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run statuses.
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// SyncRun is one recorded reconciliation run with its outcome counters.
type SyncRun struct {
	ID         uuid.UUID `json:"id"`
	Source     string    `json:"source"` // "csv" or "api"
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Created    int       `json:"created"`
	Updated    int       `json:"updated"`
	Restored   int       `json:"restored"`
	Deleted    int       `json:"deleted"`
	Delisted   int       `json:"delisted"`
	Skipped    int       `json:"skipped"`
	Processed  int       `json:"processed"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
}

// RecordRun persists one run outcome.
func (s *Store) RecordRun(ctx context.Context, run SyncRun) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO sync_runs (id, source, started_at, finished_at, created_count, updated_count, restored_count, deleted_count, delisted_count, skipped_count, processed_count, status, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		run.ID, run.Source, run.StartedAt, run.FinishedAt,
		run.Created, run.Updated, run.Restored, run.Deleted, run.Delisted, run.Skipped, run.Processed,
		run.Status, textValue(run.Error))
	if err != nil {
		return fmt.Errorf("store: record run %s: %w", run.ID, err)
	}
	return nil
}

// RecentRuns lists the latest runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, source, started_at, finished_at, created_count, updated_count, restored_count, deleted_count, delisted_count, skipped_count, processed_count, status, error
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var runs []SyncRun
	for rows.Next() {
		var (
			run    SyncRun
			errMsg *string
		)
		if err := rows.Scan(&run.ID, &run.Source, &run.StartedAt, &run.FinishedAt,
			&run.Created, &run.Updated, &run.Restored, &run.Deleted, &run.Delisted, &run.Skipped, &run.Processed,
			&run.Status, &errMsg); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		if errMsg != nil {
			run.Error = *errMsg
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	return runs, nil
}
