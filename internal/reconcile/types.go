package reconcile

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrConfig marks a misconfigured pipeline call. It aborts the contract being processed.
var ErrConfig = errors.New("invalid reconciliation configuration")

// SentinelYear is the ledger's "all years" summary bucket.
const SentinelYear = 9999

const (
	ColContract    = "NumContrato"
	ColYear        = "Ano"
	ColYearMonth   = "AnoMes"
	ColAccountName = "Conta_Nome"
	ColCosifName   = "Cosif_Nome"
	ColDebit       = "ValorDebito"
	ColCredit      = "ValorCredito"
	ColNet         = "Movimentacao"
	ColDescription = "Descrição"
	ColTributo     = "Tributo"
)

var (
	DetailColumns = []string{ColAccountName, ColCosifName}
	ValueColumns  = []string{ColDebit, ColCredit, ColNet}
)

type LedgerRow struct {
	Contract    int64
	YearMonth   int
	Categories  map[string]string
	AccountName string
	CosifName   string
	Debit       float64
	Credit      float64
	Net         float64
}

func (r LedgerRow) Year() int {
	return r.YearMonth / 100
}

func (r LedgerRow) detail(col string) string {
	switch col {
	case ColAccountName:
		return r.AccountName
	case ColCosifName:
		return r.CosifName
	}
	return ""
}

func (r *LedgerRow) setDetail(col, val string) {
	switch col {
	case ColAccountName:
		r.AccountName = val
	case ColCosifName:
		r.CosifName = val
	}
}

func (r LedgerRow) value(col string) float64 {
	switch col {
	case ColDebit:
		return r.Debit
	case ColCredit:
		return r.Credit
	case ColNet:
		return r.Net
	}
	return 0
}

func (r *LedgerRow) setValue(col string, v float64) {
	switch col {
	case ColDebit:
		r.Debit = v
	case ColCredit:
		r.Credit = v
	case ColNet:
		r.Net = v
	}
}

func isDetailColumn(col string) bool {
	return col == ColAccountName || col == ColCosifName
}

func isValueColumn(col string) bool {
	return col == ColDebit || col == ColCredit || col == ColNet
}

// BlockRow is one aggregated (year, account, COSIF) row of a report block.
type BlockRow struct {
	Year        int
	AccountName string
	CosifName   string
	Debit       float64
	Credit      float64
	Net         float64
	Section     string
	Description string
}

// Year labels a pivot row: a calendar year or GrandTotal.
type Year int

const GrandTotal Year = -1

const grandTotalLabel = "Grand Total"

func (y Year) String() string {
	if y == GrandTotal {
		return grandTotalLabel
	}
	return strconv.Itoa(int(y))
}

func ParseYear(s string) (Year, error) {
	if s == grandTotalLabel {
		return GrandTotal, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid year label %q: %w", s, err)
	}
	return Year(n), nil
}

func (y Year) MarshalJSON() ([]byte, error) {
	if y == GrandTotal {
		return json.Marshal(grandTotalLabel)
	}
	return json.Marshal(int(y))
}

// Line is a row of the long-form output table. Nil pointers are empty cells.
type Line struct {
	Year        Year     `json:"year"`
	Tributo     string   `json:"tributo,omitempty"`
	AccountName *string  `json:"account_name"`
	CosifName   *string  `json:"cosif_name"`
	Debit       *float64 `json:"debit"`
	Credit      *float64 `json:"credit"`
	Net         float64  `json:"net_movement"`
	Description string   `json:"description"`
}

func strPtr(s string) *string {
	return &s
}

func floatPtr(f float64) *float64 {
	return &f
}
