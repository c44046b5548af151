package store

import (
	"time"
)

var (
	StatusInProgress = "in_progress"
	StatusSuccess    = "success"
	StatusFailure    = "failure"
	StatusSkipped    = "skipped"
)

var (
	TriggerTypeManual = "manual"
	TriggerTypeAPI    = "api"
)

// ReconciliationRun represents the 'reconciliation_runs' table.
type ReconciliationRun struct {
	ID           int64     `db:"id" json:"id"`
	BatchID      string    `db:"batch_id" json:"batch_id"`
	Contract     int64     `db:"contract" json:"contract"`
	Kind         string    `db:"kind" json:"kind"`
	TriggerType  string    `db:"trigger_type" json:"trigger_type"`
	Status       string    `db:"status" json:"status"`
	OutputPath   string    `db:"output_path" json:"output_path"`
	ErrorMessage string    `db:"error_message" json:"error_message,omitempty"`
	LineCount    int       `db:"line_count" json:"line_count"`
	ProcessedAt  time.Time `db:"processed_at" json:"processed_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ResultLine represents the 'reconciliation_lines' table. Nil pointers are NULL.
type ResultLine struct {
	ID          int64    `db:"id" json:"-"`
	RunID       int64    `db:"run_id" json:"run_id"`
	Contract    int64    `db:"contract" json:"contract"`
	Position    int      `db:"position" json:"position"`
	YearLabel   string   `db:"year_label" json:"year"`
	Tributo     string   `db:"tributo" json:"tributo"`
	AccountName *string  `db:"account_name" json:"account_name"`
	CosifName   *string  `db:"cosif_name" json:"cosif_name"`
	Debit       *float64 `db:"debit" json:"debit"`
	Credit      *float64 `db:"credit" json:"credit"`
	Net         float64  `db:"net_movement" json:"net_movement"`
	Description string   `db:"description" json:"description"`
}
