package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/alperaydin/kapmirror/internal/mirror"
	"github.com/alperaydin/kapmirror/internal/progress"
)

// Consume persists one flushed batch of refresh progress entries, satisfying
// progress.Sink. The whole batch commits atomically so a crash mid-flush
// cannot leave a partial batch behind.
func (s *Store) Consume(ctx context.Context, runID uuid.UUID, batch []progress.Entry) error {
	if len(batch) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &mirror.StorageError{Op: "refresh_log", Err: err}
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	stmt := fmt.Sprintf(
		`INSERT INTO %s (run_id, seq, record_id, attempts, resolved_at) VALUES ($1,$2,$3,$4,$5)`,
		s.refreshLog,
	)
	for _, entry := range batch {
		if _, err := tx.Exec(ctx, stmt,
			runID,
			entry.Seq,
			entry.RecordID,
			entry.Attempts,
			entry.ResolvedAt,
		); err != nil {
			return &mirror.StorageError{Op: "refresh_log", ID: entry.RecordID, Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return &mirror.StorageError{Op: "refresh_log", Err: err}
	}
	return nil
}
