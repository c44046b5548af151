package reconcile

import (
	"fmt"
	"sort"
	"strings"
)

// Dimension lists the categories accepted for one tax column.
type Dimension struct {
	Name    string   `json:"name"`
	Allowed []string `json:"allowed"`
}

// TaxFilter selects ledger rows by tax category. With two or more dimensions a
// row passes only when its tuple of values is one of the allowed combinations.
type TaxFilter []Dimension

// FilterFromMap builds a TaxFilter with dimensions ordered by name.
func FilterFromMap(m map[string][]string) TaxFilter {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	f := make(TaxFilter, 0, len(names))
	for _, name := range names {
		f = append(f, Dimension{Name: name, Allowed: m[name]})
	}
	return f
}

func (f TaxFilter) Names() []string {
	names := make([]string, len(f))
	for i, d := range f {
		names[i] = d.Name
	}
	return names
}

func (f TaxFilter) String() string {
	parts := make([]string, len(f))
	for i, d := range f {
		parts[i] = fmt.Sprintf("%s=%v", d.Name, d.Allowed)
	}
	return strings.Join(parts, " ")
}

const tupleSep = "\x1f"

type taxMask struct {
	names  []string
	tuples map[string]struct{}
}

// compile expands the filter into its set of allowed tuples. columns holds the
// category columns present in the input; nil skips the presence check.
func (f TaxFilter) compile(columns map[string]struct{}) (*taxMask, error) {
	if len(f) == 0 {
		return nil, fmt.Errorf("%w: tax filter has no dimensions", ErrConfig)
	}

	var missing []string
	for _, d := range f {
		if _, ok := columns[d.Name]; columns != nil && !ok {
			missing = append(missing, d.Name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: filter columns not in input: %v", ErrConfig, missing)
	}

	combos := []string{""}
	for i, d := range f {
		next := make([]string, 0, len(combos)*len(d.Allowed))
		for _, prefix := range combos {
			for _, v := range d.Allowed {
				if i == 0 {
					next = append(next, v)
				} else {
					next = append(next, prefix+tupleSep+v)
				}
			}
		}
		combos = next
	}

	m := &taxMask{names: f.Names(), tuples: make(map[string]struct{}, len(combos))}
	for _, c := range combos {
		m.tuples[c] = struct{}{}
	}
	return m, nil
}

func (m *taxMask) match(r LedgerRow) bool {
	_, ok := m.tuples[tupleKey(r, m.names)]
	return ok
}

func tupleKey(r LedgerRow, names []string) string {
	if len(names) == 1 {
		return r.Categories[names[0]]
	}
	vals := make([]string, len(names))
	for i, n := range names {
		vals[i] = r.Categories[n]
	}
	return strings.Join(vals, tupleSep)
}

func categoryColumns(rows []LedgerRow) map[string]struct{} {
	cols := make(map[string]struct{})
	for _, r := range rows {
		for k := range r.Categories {
			cols[k] = struct{}{}
		}
	}
	return cols
}

// Apply returns the rows accepted by the filter, in input order.
func (f TaxFilter) Apply(rows []LedgerRow) ([]LedgerRow, error) {
	if len(rows) == 0 {
		if len(f) == 0 {
			return nil, fmt.Errorf("%w: tax filter has no dimensions", ErrConfig)
		}
		return nil, nil
	}
	mask, err := f.compile(categoryColumns(rows))
	if err != nil {
		return nil, err
	}
	out := make([]LedgerRow, 0, len(rows))
	for _, r := range rows {
		if mask.match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}
