package reconcile

import (
	"sort"
	"strings"
)

const (
	resultBeforeTax = "Resultado antes do"
	totalSuffix     = " - Total"
	doubleCountAcct = "8"
)

const (
	ColIRPJAddition    = "IRPJ Adição"
	ColIRPJExclusion   = "IRPJ Exclusão"
	ColIRPJResultTotal = "IRPJ Resultado antes do IR - Total"
	ColCSLLAddition    = "CSLL Adição"
	ColCSLLExclusion   = "CSLL Exclusão"
	ColCSLLResultTotal = "CSLL Resultado antes do CSLL - Total"
	LineLALUR          = "LALUR"
	LineIRBase         = "Base de cálculo - IR"
	LineLACS           = "LACS"
	LineCSLLBase       = "Base de cálculo - CSLL"
	LineBaseDifference = "Diferença na Base de Cálculo entre IR e CS"
)

// DerivedLines lists the computed consolidation lines in output order.
var DerivedLines = []string{LineLALUR, LineIRBase, LineLACS, LineCSLLBase, LineBaseDifference}

// PivotRow is one row of the tributo pivot. Missing tributos read as zero.
type PivotRow struct {
	Year    Year               `json:"year"`
	Values  map[string]float64 `json:"values"`
	Derived map[string]float64 `json:"derived"`
}

func (p PivotRow) Value(tributo string) float64 {
	return p.Values[tributo]
}

type Consolidation struct {
	Tributos []string
	Pivot    []PivotRow
	Lines    []Line
}

// CalculateCSLL consolidates IRPJ/CSLL blocks. The tributo of a row is its
// block section.
func CalculateCSLL(rows []BlockRow) *Consolidation {
	kept := consolidationRows(rows)

	byYear := make(map[int]map[string]float64)
	seen := make(map[string]struct{})
	for _, l := range kept {
		y := int(l.Year)
		vals, ok := byYear[y]
		if !ok {
			vals = make(map[string]float64)
			byYear[y] = vals
		}
		vals[l.Tributo] += l.Net
		seen[l.Tributo] = struct{}{}
	}

	c := &Consolidation{Tributos: make([]string, 0, len(seen))}
	for t := range seen {
		c.Tributos = append(c.Tributos, t)
	}
	sort.Strings(c.Tributos)

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	total := PivotRow{Year: GrandTotal, Values: make(map[string]float64, len(c.Tributos))}
	for _, y := range years {
		row := PivotRow{Year: Year(y), Values: byYear[y]}
		for t, v := range row.Values {
			total.Values[t] += v
		}
		c.Pivot = append(c.Pivot, row)
	}
	c.Pivot = append(c.Pivot, total)

	for i := range c.Pivot {
		c.Pivot[i].Derived = derive(c.Pivot[i])
	}

	c.Lines = kept
	for _, name := range DerivedLines {
		for _, p := range c.Pivot {
			c.Lines = append(c.Lines, Line{
				Year:        p.Year,
				Tributo:     name,
				Net:         p.Derived[name],
				Description: name,
			})
		}
	}
	return c
}

// consolidationRows duplicates the before-tax rows as " - Total" tributos and
// drops the account-8 rows of the original before-tax blocks.
func consolidationRows(rows []BlockRow) []Line {
	lines := make([]Line, 0, len(rows))
	var totals []Line
	for _, r := range rows {
		l := blockLine(r)
		lines = append(lines, l)
		if strings.Contains(r.Description, resultBeforeTax) {
			dup := blockLine(r)
			dup.Tributo += totalSuffix
			totals = append(totals, dup)
		}
	}
	lines = append(lines, totals...)

	kept := lines[:0]
	for _, l := range lines {
		if strings.Contains(l.Description, resultBeforeTax) &&
			l.AccountName != nil && strings.HasPrefix(*l.AccountName, doubleCountAcct) &&
			!strings.Contains(l.Tributo, totalSuffix) {
			continue
		}
		if l.Description == "" {
			l.Description = l.Tributo
		}
		kept = append(kept, l)
	}
	return kept
}

func blockLine(r BlockRow) Line {
	return Line{
		Year:        Year(r.Year),
		Tributo:     r.Section,
		AccountName: strPtr(r.AccountName),
		CosifName:   strPtr(r.CosifName),
		Debit:       floatPtr(r.Debit),
		Credit:      floatPtr(r.Credit),
		Net:         r.Net,
		Description: r.Description,
	}
}

func derive(p PivotRow) map[string]float64 {
	lalur := -p.Value(ColIRPJAddition) - p.Value(ColIRPJExclusion)
	irBase := p.Value(ColIRPJResultTotal) + lalur
	lacs := -p.Value(ColCSLLAddition) - p.Value(ColCSLLExclusion)
	csllBase := p.Value(ColCSLLResultTotal) + lacs
	return map[string]float64{
		LineLALUR:          lalur,
		LineIRBase:         irBase,
		LineLACS:           lacs,
		LineCSLLBase:       csllBase,
		LineBaseDifference: irBase + csllBase,
	}
}
