package ledger

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"

	"github.com/farxc/anexo_c_reconciler/internal/reconcile"
)

// columns holds the string records of a frame, read once per column.
// Per-cell access through the frame copies the whole series on every call.
type columns map[string][]string

func readColumns(df dataframe.DataFrame, names ...string) columns {
	cols := make(columns, len(names))
	present := df.Names()
	for _, name := range names {
		if containsString(present, name) {
			cols[name] = df.Col(name).Records()
		}
	}
	return cols
}

func containsString(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}

func (c columns) str(col string, rowIdx int) string {
	records, ok := c[col]
	if !ok || rowIdx >= len(records) {
		return ""
	}
	s := records[rowIdx]
	if isNull(s) {
		return ""
	}
	return s
}

func (c columns) integer(col string, rowIdx int) int {
	v, err := ParseInt64(c.str(col, rowIdx))
	if err != nil {
		return 0
	}
	return int(v)
}

func (c columns) amount(col string, rowIdx int) (float64, error) {
	v, err := ParseAmount(c.str(col, rowIdx))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", col, err)
	}
	return v, nil
}

func ledgerColumns(df dataframe.DataFrame, categories []string) columns {
	names := []string{
		reconcile.ColContract, reconcile.ColYearMonth,
		reconcile.ColAccountName, reconcile.ColCosifName,
		reconcile.ColDebit, reconcile.ColCredit, reconcile.ColNet,
	}
	return readColumns(df, append(names, categories...)...)
}

func (c columns) ledgerRow(rowIdx int, categories []string) (reconcile.LedgerRow, error) {
	yearMonth, err := ParseInt64(c.str(reconcile.ColYearMonth, rowIdx))
	if err != nil {
		return reconcile.LedgerRow{}, fmt.Errorf("%s: %w", reconcile.ColYearMonth, err)
	}

	row := reconcile.LedgerRow{
		Contract:    int64(c.integer(reconcile.ColContract, rowIdx)),
		YearMonth:   int(yearMonth),
		Categories:  make(map[string]string, len(categories)),
		AccountName: c.str(reconcile.ColAccountName, rowIdx),
		CosifName:   c.str(reconcile.ColCosifName, rowIdx),
	}
	for _, cat := range categories {
		row.Categories[cat] = c.str(cat, rowIdx)
	}

	if row.Debit, err = c.amount(reconcile.ColDebit, rowIdx); err != nil {
		return reconcile.LedgerRow{}, err
	}
	if row.Credit, err = c.amount(reconcile.ColCredit, rowIdx); err != nil {
		return reconcile.LedgerRow{}, err
	}
	if row.Net, err = c.amount(reconcile.ColNet, rowIdx); err != nil {
		return reconcile.LedgerRow{}, err
	}
	return row, nil
}

// DfRowToLedgerRow converts a single row. Use Extract.Rows for whole frames.
func DfRowToLedgerRow(df dataframe.DataFrame, rowIdx int, categories []string) (reconcile.LedgerRow, error) {
	return ledgerColumns(df, categories).ledgerRow(rowIdx, categories)
}
