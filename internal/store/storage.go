package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Storage struct {
	Runs interface {
		InsertRun(ctx context.Context, run *ReconciliationRun) error
		FinishRun(ctx context.Context, run *ReconciliationRun) error
		GetLatest(ctx context.Context, limit int) ([]ReconciliationRun, error)
		GetBatch(ctx context.Context, batchID string) ([]ReconciliationRun, error)
		GetLatestByContracts(ctx context.Context, kind string, contracts []int64) ([]ReconciliationRun, error)
	}

	Lines interface {
		InsertLines(ctx context.Context, runID int64, lines []ResultLine) error
		GetLatestLines(ctx context.Context, contract int64, kind string) ([]ResultLine, error)
	}
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{
		Runs:  &RunHistoryStore{db: db},
		Lines: &LineStore{db: db},
	}
}
