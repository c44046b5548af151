package reconcile

import "sort"

type groupKey struct {
	year    int
	account string
	cosif   string
}

// GroupRevenues filters rows with the tax filter and sums debit, credit and net
// per (year, account, COSIF). Every output row is stamped with
// section = "{pivotSection} {description}".
func GroupRevenues(rows []LedgerRow, filter TaxFilter, pivotSection, description string) ([]BlockRow, error) {
	selected, err := filter.Apply(rows)
	if err != nil {
		return nil, err
	}

	sums := make(map[groupKey]*BlockRow)
	for _, r := range selected {
		k := groupKey{year: r.Year(), account: r.AccountName, cosif: r.CosifName}
		b, ok := sums[k]
		if !ok {
			b = &BlockRow{Year: k.year, AccountName: k.account, CosifName: k.cosif}
			sums[k] = b
		}
		b.Debit += r.Debit
		b.Credit += r.Credit
		b.Net += r.Net
	}

	section := pivotSection + " " + description
	out := make([]BlockRow, 0, len(sums))
	for _, b := range sums {
		b.Section = section
		b.Description = description
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		if out[i].AccountName != out[j].AccountName {
			return out[i].AccountName < out[j].AccountName
		}
		return out[i].CosifName < out[j].CosifName
	})
	return out, nil
}
