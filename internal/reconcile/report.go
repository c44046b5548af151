package reconcile

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindCSLL      Kind = "csll"
	KindPISCOFINS Kind = "pis_cofins"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindCSLL:
		return KindCSLL, nil
	case KindPISCOFINS:
		return KindPISCOFINS, nil
	}
	return "", fmt.Errorf("%w: unknown report kind %q", ErrConfig, s)
}

// Category values used by the ledger's tax columns.
const (
	CategoryRAIR      = "RAIR"
	CategoryExclusion = "Exclusão"
	CategoryAddition  = "Adição"
)

// Block is one grouped section of a report.
type Block struct {
	Filter      TaxFilter
	Section     string
	Description string
}

// Report describes how a contract's ledger becomes a reconciled table.
type Report struct {
	Kind       Kind
	Dimensions []string
	BaseFilter TaxFilter
	Blocks     []Block
}

func allCategories() []string {
	return []string{CategoryRAIR, CategoryExclusion, CategoryAddition}
}

// CSLLReport groups the IRPJ and CS columns into the six consolidation blocks.
func CSLLReport() Report {
	all := allCategories()
	filter := func(irpj, cs []string) TaxFilter {
		return TaxFilter{{Name: "IRPJ", Allowed: irpj}, {Name: "CS", Allowed: cs}}
	}
	return Report{
		Kind:       KindCSLL,
		Dimensions: []string{"IRPJ", "CS"},
		BaseFilter: filter(all, all),
		Blocks: []Block{
			{Filter: filter(all, all), Section: "IRPJ", Description: "Resultado antes do IR"},
			{Filter: filter([]string{CategoryAddition}, all), Section: "IRPJ", Description: CategoryAddition},
			{Filter: filter([]string{CategoryExclusion}, all), Section: "IRPJ", Description: CategoryExclusion},
			{Filter: filter(all, all), Section: "CSLL", Description: "Resultado antes do CSLL"},
			{Filter: filter(all, []string{CategoryAddition}), Section: "CSLL", Description: CategoryAddition},
			{Filter: filter(all, []string{CategoryExclusion}), Section: "CSLL", Description: CategoryExclusion},
		},
	}
}

// PISCOFINSReport maps the PIS column onto the total, exclusion and deduction lines.
func PISCOFINSReport(s Settings) Report {
	pis := func(categories ...string) TaxFilter {
		return TaxFilter{{Name: "PIS", Allowed: categories}}
	}
	return Report{
		Kind:       KindPISCOFINS,
		Dimensions: []string{"PIS"},
		BaseFilter: pis(allCategories()...),
		Blocks: []Block{
			{Filter: pis(allCategories()...), Section: "PIS", Description: s.TotalLabel},
			{Filter: pis(CategoryExclusion), Section: "PIS", Description: s.ExclusionLabel},
			{Filter: pis(CategoryAddition), Section: "PIS", Description: s.DeductionLabel},
		},
	}
}

func ReportFor(kind Kind, s Settings) (Report, error) {
	switch kind {
	case KindCSLL:
		return CSLLReport(), nil
	case KindPISCOFINS:
		return PISCOFINSReport(s), nil
	}
	return Report{}, fmt.Errorf("%w: unknown report kind %q", ErrConfig, kind)
}

type Result struct {
	Kind          Kind
	Blocks        []BlockRow
	Lines         []Line
	Consolidation *Consolidation
	Calculation   *TaxCalculation
}

// Run executes the full pipeline for one contract: base filter, year
// replication, one grouping per block and the report's final calculation.
func Run(rows []LedgerRow, report Report, s Settings) (*Result, error) {
	if len(report.Blocks) == 0 {
		return nil, fmt.Errorf("%w: report %q has no blocks", ErrConfig, report.Kind)
	}

	// the year range spans the whole contract, not just the filtered rows
	span, _ := YearSpan(rows)
	filtered, err := report.BaseFilter.Apply(rows)
	if err != nil {
		return nil, fmt.Errorf("base filter: %w", err)
	}

	replicated, err := ReplicateYearsOver(filtered, span, report.Dimensions, DetailColumns, ValueColumns, 0)
	if err != nil {
		return nil, fmt.Errorf("replicate years: %w", err)
	}

	res := &Result{Kind: report.Kind}
	for _, b := range report.Blocks {
		block, err := GroupRevenues(replicated, b.Filter, b.Section, b.Description)
		if err != nil {
			return nil, fmt.Errorf("group %s %s: %w", b.Section, b.Description, err)
		}
		res.Blocks = append(res.Blocks, block...)
	}

	switch report.Kind {
	case KindCSLL:
		res.Consolidation = CalculateCSLL(res.Blocks)
		res.Lines = res.Consolidation.Lines
	case KindPISCOFINS:
		calc, err := CalculatePISCOFINS(res.Blocks, s)
		if err != nil {
			return nil, err
		}
		res.Calculation = calc
		res.Lines = make([]Line, 0, len(res.Blocks)+len(calc.Lines))
		for _, b := range res.Blocks {
			res.Lines = append(res.Lines, blockLine(b))
		}
		res.Lines = append(res.Lines, calc.Lines...)
	default:
		return nil, fmt.Errorf("%w: unknown report kind %q", ErrConfig, report.Kind)
	}
	return res, nil
}
