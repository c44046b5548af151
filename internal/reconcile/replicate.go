package reconcile

import (
	"fmt"
	"strings"
)

type comboYear struct {
	combo string
	year  int
}

// ReplicateYears expands every (dimension tuple, detail tuple) group to one row
// per year of the contiguous range spanned by the input, filling years without
// activity with fill. Rows in the SentinelYear bucket are returned unchanged
// after the replicated rows.
func ReplicateYears(rows []LedgerRow, dimensions, detailColumns, valueColumns []string, fill float64) ([]LedgerRow, error) {
	span, _ := YearSpan(rows)
	return ReplicateYearsOver(rows, span, dimensions, detailColumns, valueColumns, fill)
}

// YearRange is an inclusive range of calendar years.
type YearRange struct {
	First, Last int
}

// YearSpan returns the range covered by the non-sentinel rows. ok is false
// when there are none.
func YearSpan(rows []LedgerRow) (span YearRange, ok bool) {
	for _, r := range rows {
		y := r.Year()
		if y == SentinelYear {
			continue
		}
		if !ok {
			span, ok = YearRange{First: y, Last: y}, true
			continue
		}
		span.First = min(span.First, y)
		span.Last = max(span.Last, y)
	}
	return span, ok
}

// ReplicateYearsOver replicates like ReplicateYears over a caller-supplied
// range, widened to cover the rows' own years. Run uses it to keep the range of
// the whole contract when the base filter has dropped its first or last years.
func ReplicateYearsOver(rows []LedgerRow, span YearRange, dimensions, detailColumns, valueColumns []string, fill float64) ([]LedgerRow, error) {
	if len(detailColumns) == 0 || len(valueColumns) == 0 {
		return nil, fmt.Errorf("%w: detail and value columns are required", ErrConfig)
	}
	for _, c := range detailColumns {
		if !isDetailColumn(c) {
			return nil, fmt.Errorf("%w: unknown detail column %q", ErrConfig, c)
		}
	}
	for _, c := range valueColumns {
		if !isValueColumn(c) {
			return nil, fmt.Errorf("%w: unknown value column %q", ErrConfig, c)
		}
	}

	var sentinel, regular []LedgerRow
	for _, r := range rows {
		if r.Year() == SentinelYear {
			sentinel = append(sentinel, r)
			continue
		}
		regular = append(regular, r)
	}
	if len(regular) == 0 {
		return sentinel, nil
	}

	minYear, maxYear := regular[0].Year(), regular[0].Year()
	if span.First != 0 || span.Last != 0 {
		minYear, maxYear = min(span.First, minYear), max(span.Last, maxYear)
	}
	var order []string
	templates := make(map[string]LedgerRow)
	sums := make(map[comboYear]map[string]float64)

	for _, r := range regular {
		y := r.Year()
		if y < minYear {
			minYear = y
		}
		if y > maxYear {
			maxYear = y
		}

		key := comboKey(r, dimensions, detailColumns)
		if _, ok := templates[key]; !ok {
			templates[key] = comboTemplate(r, dimensions, detailColumns)
			order = append(order, key)
		}

		cy := comboYear{combo: key, year: y}
		vals, ok := sums[cy]
		if !ok {
			vals = make(map[string]float64, len(valueColumns))
			sums[cy] = vals
		}
		for _, c := range valueColumns {
			vals[c] += r.value(c)
		}
	}

	out := make([]LedgerRow, 0, len(order)*(maxYear-minYear+1)+len(sentinel))
	for _, key := range order {
		for y := minYear; y <= maxYear; y++ {
			row := templates[key]
			row.Categories = copyCategories(row.Categories)
			row.YearMonth = y * 100
			vals, ok := sums[comboYear{combo: key, year: y}]
			for _, c := range valueColumns {
				if ok {
					row.setValue(c, vals[c])
				} else {
					row.setValue(c, fill)
				}
			}
			out = append(out, row)
		}
	}
	return append(out, sentinel...), nil
}

func comboKey(r LedgerRow, dimensions, detailColumns []string) string {
	parts := make([]string, 0, len(dimensions)+len(detailColumns))
	for _, d := range dimensions {
		parts = append(parts, r.Categories[d])
	}
	for _, c := range detailColumns {
		parts = append(parts, r.detail(c))
	}
	return strings.Join(parts, tupleSep)
}

// comboTemplate keeps only the grouping fields of r.
func comboTemplate(r LedgerRow, dimensions, detailColumns []string) LedgerRow {
	t := LedgerRow{Contract: r.Contract, Categories: make(map[string]string, len(dimensions))}
	for _, d := range dimensions {
		t.Categories[d] = r.Categories[d]
	}
	for _, c := range detailColumns {
		t.setDetail(c, r.detail(c))
	}
	return t
}

func copyCategories(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
