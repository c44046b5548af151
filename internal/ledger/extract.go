package ledger

import (
	"fmt"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/farxc/anexo_c_reconciler/internal/reconcile"
)

// Extract is a decoded dashboard extract with canonical column names and the
// contract column typed as integers.
type Extract struct {
	Frame      dataframe.DataFrame
	Categories []string
}

// Load opens the dashboard CSV at path.
func Load(path string, categories []string) (*Extract, error) {
	df, err := OpenFileAndDecode(path)
	if err != nil {
		return nil, err
	}
	return FromFrame(df, categories)
}

// FromFrame canonicalizes a decoded frame.
func FromFrame(df dataframe.DataFrame, categories []string) (*Extract, error) {
	if categories == nil {
		categories = DefaultCategories
	}
	df, present, err := canonicalize(df, categories)
	if err != nil {
		return nil, err
	}

	raw := df.Col(reconcile.ColContract).Records()
	contracts := make([]int, len(raw))
	for i, s := range raw {
		n, err := ParseInt64(s)
		if err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", i+1, reconcile.ColContract, err)
		}
		contracts[i] = int(n)
	}
	df = df.Mutate(series.New(contracts, series.Int, reconcile.ColContract))
	if df.Err != nil {
		return nil, fmt.Errorf("failed to type contract column: %w", df.Err)
	}
	return &Extract{Frame: df, Categories: present}, nil
}

func (e *Extract) Nrow() int {
	return e.Frame.Nrow()
}

// Contracts lists the distinct contract numbers, ascending.
func (e *Extract) Contracts() []int64 {
	cols := readColumns(e.Frame, reconcile.ColContract)
	seen := make(map[int64]struct{})
	for i := 0; i < e.Frame.Nrow(); i++ {
		seen[int64(cols.integer(reconcile.ColContract, i))] = struct{}{}
	}
	out := make([]int64, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Select keeps the rows of the given contracts.
func (e *Extract) Select(contracts []int64) (*Extract, error) {
	codes := make([]int, len(contracts))
	for i, c := range contracts {
		codes[i] = int(c)
	}
	filter := dataframe.F{
		Colname:    reconcile.ColContract,
		Comparator: series.In,
		Comparando: codes,
	}
	matching := e.Frame.Filter(filter)
	if matching.Err != nil {
		return nil, fmt.Errorf("failed to filter contracts: %w", matching.Err)
	}
	return &Extract{Frame: matching, Categories: e.Categories}, nil
}

// Rows converts the frame into ledger rows.
func (e *Extract) Rows() ([]reconcile.LedgerRow, error) {
	cols := ledgerColumns(e.Frame, e.Categories)
	rows := make([]reconcile.LedgerRow, 0, e.Frame.Nrow())
	for i := 0; i < e.Frame.Nrow(); i++ {
		r, err := cols.ledgerRow(i, e.Categories)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// ByContract converts the frame and splits the rows per contract, keeping the
// contracts in first-seen order.
func (e *Extract) ByContract() ([]int64, map[int64][]reconcile.LedgerRow, error) {
	rows, err := e.Rows()
	if err != nil {
		return nil, nil, err
	}
	var order []int64
	groups := make(map[int64][]reconcile.LedgerRow)
	for _, r := range rows {
		if _, ok := groups[r.Contract]; !ok {
			order = append(order, r.Contract)
		}
		groups[r.Contract] = append(groups[r.Contract], r)
	}
	return order, groups, nil
}
