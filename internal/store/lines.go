package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/farxc/anexo_c_reconciler/internal/reconcile"
)

type LineStore struct {
	db *sqlx.DB
}

// NewResultLines converts pipeline output into rows of a run.
func NewResultLines(runID, contract int64, lines []reconcile.Line) []ResultLine {
	out := make([]ResultLine, len(lines))
	for i, l := range lines {
		out[i] = ResultLine{
			RunID:       runID,
			Contract:    contract,
			Position:    i,
			YearLabel:   l.Year.String(),
			Tributo:     l.Tributo,
			AccountName: l.AccountName,
			CosifName:   l.CosifName,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Net:         l.Net,
			Description: l.Description,
		}
	}
	return out
}

// ToLine converts a stored row back into a pipeline line.
func (r ResultLine) ToLine() (reconcile.Line, error) {
	y, err := reconcile.ParseYear(r.YearLabel)
	if err != nil {
		return reconcile.Line{}, err
	}
	return reconcile.Line{
		Year:        y,
		Tributo:     r.Tributo,
		AccountName: r.AccountName,
		CosifName:   r.CosifName,
		Debit:       r.Debit,
		Credit:      r.Credit,
		Net:         r.Net,
		Description: r.Description,
	}, nil
}

// InsertLines replaces the lines of a run inside one transaction.
func (ls *LineStore) InsertLines(ctx context.Context, runID int64, lines []ResultLine) error {
	tx, err := ls.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reconciliation_lines WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("failed to clear lines of run %d: %w", runID, err)
	}

	stmt, err := tx.PrepareNamedContext(ctx, `INSERT INTO reconciliation_lines (
		run_id,
		contract,
		position,
		year_label,
		tributo,
		account_name,
		cosif_name,
		debit,
		credit,
		net_movement,
		description
	) VALUES (
		:run_id,
		:contract,
		:position,
		:year_label,
		:tributo,
		:account_name,
		:cosif_name,
		:debit,
		:credit,
		:net_movement,
		:description
	)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range lines {
		lines[i].RunID = runID
		if _, err := stmt.ExecContext(ctx, lines[i]); err != nil {
			return fmt.Errorf("failed to insert line %d of run %d: %w", i, runID, err)
		}
	}
	return tx.Commit()
}

// GetLatestLines returns the lines of the contract's latest successful run.
func (ls *LineStore) GetLatestLines(ctx context.Context, contract int64, kind string) ([]ResultLine, error) {
	var lines []ResultLine
	query := `SELECT l.* FROM reconciliation_lines l
		WHERE l.run_id = (
			SELECT r.id FROM reconciliation_runs r
			WHERE r.contract = $1 AND r.kind = $2 AND r.status = $3
			ORDER BY r.processed_at DESC, r.id DESC
			LIMIT 1
		)
		ORDER BY l.position`
	if err := ls.db.SelectContext(ctx, &lines, query, contract, kind, StatusSuccess); err != nil {
		return nil, err
	}
	return lines, nil
}
