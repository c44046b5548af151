package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type RunHistoryStore struct {
	db *sqlx.DB
}

func (rh *RunHistoryStore) InsertRun(ctx context.Context, run *ReconciliationRun) error {
	query := `INSERT INTO reconciliation_runs (
		batch_id,
		contract,
		kind,
		trigger_type,
		status,
		output_path,
		error_message,
		line_count
	) VALUES (
		:batch_id,
		:contract,
		:kind,
		:trigger_type,
		:status,
		:output_path,
		:error_message,
		:line_count
	) RETURNING id, processed_at, updated_at`

	rows, err := rh.db.NamedQueryContext(ctx, query, run)
	if err != nil {
		return fmt.Errorf("failed to insert run for contract %d: %w", run.Contract, err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&run.ID, &run.ProcessedAt, &run.UpdatedAt); err != nil {
			return err
		}
	}
	return rows.Err()
}

// FinishRun stores the final status, output and error of a run.
func (rh *RunHistoryStore) FinishRun(ctx context.Context, run *ReconciliationRun) error {
	run.UpdatedAt = time.Now()
	query := `UPDATE reconciliation_runs SET
		status = :status,
		output_path = :output_path,
		error_message = :error_message,
		line_count = :line_count,
		updated_at = :updated_at
	WHERE id = :id`

	res, err := rh.db.NamedExecContext(ctx, query, run)
	if err != nil {
		return fmt.Errorf("failed to finish run %d: %w", run.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %d not found", run.ID)
	}
	return nil
}

func (rh *RunHistoryStore) GetLatest(ctx context.Context, limit int) ([]ReconciliationRun, error) {
	if limit <= 0 {
		limit = 10
	}
	var runs []ReconciliationRun
	query := `SELECT * FROM reconciliation_runs ORDER BY processed_at DESC, id DESC LIMIT $1`
	if err := rh.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, err
	}
	return runs, nil
}

func (rh *RunHistoryStore) GetBatch(ctx context.Context, batchID string) ([]ReconciliationRun, error) {
	var runs []ReconciliationRun
	query := `SELECT * FROM reconciliation_runs WHERE batch_id = $1 ORDER BY contract`
	if err := rh.db.SelectContext(ctx, &runs, query, batchID); err != nil {
		return nil, err
	}
	return runs, nil
}

// GetLatestByContracts returns the most recent run of each contract for a report kind.
func (rh *RunHistoryStore) GetLatestByContracts(ctx context.Context, kind string, contracts []int64) ([]ReconciliationRun, error) {
	var runs []ReconciliationRun
	query := `SELECT DISTINCT ON (contract) *
		FROM reconciliation_runs
		WHERE kind = $1 AND contract = ANY($2)
		ORDER BY contract, processed_at DESC, id DESC`
	if err := rh.db.SelectContext(ctx, &runs, query, kind, pq.Array(contracts)); err != nil {
		return nil, err
	}
	return runs, nil
}
