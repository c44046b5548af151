package reconcile

import (
	"fmt"
	"sort"
	"strings"
)

// Settings holds the statutory rates and fixed labels of the PIS/COFINS calculation.
type Settings struct {
	TotalLabel      string
	ExclusionLabel  string
	DeductionLabel  string
	PISRate         float64
	COFINSRate      float64
	PISLine         string
	COFINSLine      string
	BaseDescription string
}

func DefaultSettings() Settings {
	return Settings{
		TotalLabel:      "(01) Total das Receitas",
		ExclusionLabel:  "(02) Exclusão",
		DeductionLabel:  "(03) Dedução",
		PISRate:         0.0065,
		COFINSRate:      0.04,
		PISLine:         "Cálculo da Contribuição para o PIS  - Alíquota 0,65%",
		COFINSLine:      "Cálculo da Cofins  - Alíquota 4%",
		BaseDescription: "Base de Cálculo (01)-(02)-(03)",
	}
}

func (s Settings) validate() error {
	if s.TotalLabel == "" || s.ExclusionLabel == "" || s.DeductionLabel == "" {
		return fmt.Errorf("%w: total, exclusion and deduction labels are required", ErrConfig)
	}
	if s.PISLine == "" || s.COFINSLine == "" {
		return fmt.Errorf("%w: PIS and COFINS line labels are required", ErrConfig)
	}
	return nil
}

// CalcRow is one year of the pivoted PIS/COFINS table.
type CalcRow struct {
	Year   int                `json:"year"`
	Values map[string]float64 `json:"values"`
	Base   float64            `json:"calculation_base"`
	PIS    float64            `json:"pis_amount"`
	COFINS float64            `json:"cofins_amount"`
}

type TaxCalculation struct {
	Pivot []CalcRow
	Lines []Line
}

// CalculatePISCOFINS pivots the block rows by description and derives the
// calculation base (total - exclusion + deduction) and the PIS and COFINS
// amounts. Deductions arrive negative and are added as they are.
func CalculatePISCOFINS(rows []BlockRow, s Settings) (*TaxCalculation, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	byYear := make(map[int]map[string]float64)
	for _, r := range rows {
		vals, ok := byYear[r.Year]
		if !ok {
			vals = make(map[string]float64)
			byYear[r.Year] = vals
		}
		vals[r.Description] += r.Net
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	calc := &TaxCalculation{
		Pivot: make([]CalcRow, 0, len(years)),
		Lines: make([]Line, 0, 2*len(years)),
	}
	for _, y := range years {
		vals := byYear[y]
		base := vals[s.TotalLabel] - vals[s.ExclusionLabel] + vals[s.DeductionLabel]
		row := CalcRow{
			Year:   y,
			Values: vals,
			Base:   base,
			PIS:    base * s.PISRate,
			COFINS: base * s.COFINSRate,
		}
		calc.Pivot = append(calc.Pivot, row)
		calc.Lines = append(calc.Lines,
			calcLine(y, s.PISLine, row.PIS, base, s),
			calcLine(y, s.COFINSLine, row.COFINS, base, s),
		)
	}
	return calc, nil
}

// calcLine keeps the base in the credit slot of the PIS line only.
func calcLine(year int, name string, amount, base float64, s Settings) Line {
	l := Line{
		Year:        Year(year),
		CosifName:   strPtr(name),
		Net:         amount,
		Description: s.BaseDescription,
	}
	if strings.Contains(name, "PIS") {
		l.Credit = floatPtr(base)
	}
	return l
}
