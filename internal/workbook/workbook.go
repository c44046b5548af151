package workbook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/farxc/anexo_c_reconciler/internal/contracts"
	"github.com/farxc/anexo_c_reconciler/internal/reconcile"
)

const (
	DataSheet        = "Dados"
	PivotSheet       = "Pivot"
	ContractCell     = "C2"
	DefaultPivotName = "PIS_COFINS_ANUAL"
	dataTableName    = "TabelaDados"
)

var ErrSheetNotFound = errors.New("sheet not found")

// Header is the column layout of the data table.
var Header = []string{
	reconcile.ColYear,
	reconcile.ColTributo,
	reconcile.ColAccountName,
	reconcile.ColCosifName,
	reconcile.ColDebit,
	reconcile.ColCredit,
	reconcile.ColNet,
	reconcile.ColDescription,
}

type Options struct {
	TemplatePath string
	OutputDir    string
	PivotName    string
}

type Writer struct {
	opts Options
}

func NewWriter(opts Options) *Writer {
	if opts.PivotName == "" {
		opts.PivotName = DefaultPivotName
	}
	return &Writer{opts: opts}
}

// Write injects lines into the data table, stamps the contract on the pivot
// sheet and saves the workbook as C%07d.xlsx in the output directory.
func (w *Writer) Write(contract int64, lines []reconcile.Line) (string, error) {
	f, err := w.open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := fillDataTable(f, lines); err != nil {
		return "", fmt.Errorf("contract %d: %w", contract, err)
	}
	if err := stampPivot(f, contract, w.opts.PivotName); err != nil {
		return "", fmt.Errorf("contract %d: %w", contract, err)
	}

	if err := os.MkdirAll(w.opts.OutputDir, 0o755); err != nil {
		return "", err
	}
	out := filepath.Join(w.opts.OutputDir, contracts.OutputName(contract))
	if err := f.SaveAs(out); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", out, err)
	}
	return out, nil
}

func (w *Writer) open() (*excelize.File, error) {
	if w.opts.TemplatePath != "" {
		f, err := excelize.OpenFile(w.opts.TemplatePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open template %s: %w", w.opts.TemplatePath, err)
		}
		return f, nil
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", DataSheet); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(PivotSheet); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// fillDataTable replaces the body of the data table with lines and resizes the
// table to fit. A sheet without a table gets one anchored at A1.
func fillDataTable(f *excelize.File, lines []reconcile.Line) error {
	if idx, err := f.GetSheetIndex(DataSheet); err != nil || idx < 0 {
		return fmt.Errorf("%w: %s", ErrSheetNotFound, DataSheet)
	}

	tables, err := f.GetTables(DataSheet)
	if err != nil {
		return err
	}

	hdrCol, hdrRow, lastCol := 1, 1, len(Header)
	header := Header
	table := excelize.Table{Name: dataTableName, StyleName: "TableStyleMedium2"}
	if len(tables) > 0 {
		table = tables[0]
		var oldLast int
		hdrCol, hdrRow, lastCol, oldLast, err = tableBounds(table.Range)
		if err != nil {
			return err
		}
		if header, err = tableHeader(f, hdrCol, lastCol, hdrRow); err != nil {
			return err
		}
		if err := clearRows(f, hdrCol, lastCol, hdrRow+1, oldLast); err != nil {
			return err
		}
		if err := f.DeleteTable(table.Name); err != nil {
			return err
		}
	} else {
		cell, _ := excelize.CoordinatesToCellName(hdrCol, hdrRow)
		values := make([]interface{}, len(Header))
		for i, h := range Header {
			values[i] = h
		}
		if err := f.SetSheetRow(DataSheet, cell, &values); err != nil {
			return err
		}
	}

	for i, l := range lines {
		cell, err := excelize.CoordinatesToCellName(hdrCol, hdrRow+1+i)
		if err != nil {
			return err
		}
		row := arrange(header, lineValues(l))
		if err := f.SetSheetRow(DataSheet, cell, &row); err != nil {
			return err
		}
	}

	// a table needs a body row even when there is nothing to show
	lastRow := hdrRow + max(len(lines), 1)
	first, _ := excelize.CoordinatesToCellName(hdrCol, hdrRow)
	last, _ := excelize.CoordinatesToCellName(lastCol, lastRow)
	table.Range = first + ":" + last
	return f.AddTable(DataSheet, &table)
}

func stampPivot(f *excelize.File, contract int64, pivotName string) error {
	idx, err := f.GetSheetIndex(PivotSheet)
	if err != nil || idx < 0 {
		return fmt.Errorf("%w: %s", ErrSheetNotFound, PivotSheet)
	}
	if err := f.SetCellValue(PivotSheet, ContractCell, contract); err != nil {
		return err
	}
	if pivotName != PivotSheet {
		if err := f.SetSheetName(PivotSheet, pivotName); err != nil {
			return err
		}
	}
	f.SetActiveSheet(idx)
	return f.SetSheetVisible(DataSheet, false)
}

func tableBounds(ref string) (firstCol, firstRow, lastCol, lastRow int, err error) {
	parts := strings.Split(strings.ReplaceAll(ref, "$", ""), ":")
	if len(parts) != 2 {
		return 0, 0, 0, 0, fmt.Errorf("invalid table range %q", ref)
	}
	if firstCol, firstRow, err = excelize.CellNameToCoordinates(parts[0]); err != nil {
		return 0, 0, 0, 0, err
	}
	if lastCol, lastRow, err = excelize.CellNameToCoordinates(parts[1]); err != nil {
		return 0, 0, 0, 0, err
	}
	return firstCol, firstRow, lastCol, lastRow, nil
}

func clearRows(f *excelize.File, firstCol, lastCol, fromRow, toRow int) error {
	blank := make([]interface{}, lastCol-firstCol+1)
	for r := fromRow; r <= toRow; r++ {
		cell, err := excelize.CoordinatesToCellName(firstCol, r)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(DataSheet, cell, &blank); err != nil {
			return err
		}
	}
	return nil
}

// tableHeader reads the column names of a template table.
func tableHeader(f *excelize.File, firstCol, lastCol, row int) ([]string, error) {
	header := make([]string, 0, lastCol-firstCol+1)
	for c := firstCol; c <= lastCol; c++ {
		cell, err := excelize.CoordinatesToCellName(c, row)
		if err != nil {
			return nil, err
		}
		v, err := f.GetCellValue(DataSheet, cell)
		if err != nil {
			return nil, err
		}
		header = append(header, v)
	}
	return header, nil
}

// arrange lays values out under the header by column name. Columns the
// writer does not know about stay blank.
func arrange(header []string, values map[string]interface{}) []interface{} {
	row := make([]interface{}, len(header))
	for i, name := range header {
		row[i] = values[headerKey(name)]
	}
	return row
}

func headerKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func lineValues(l reconcile.Line) map[string]interface{} {
	var year interface{} = int(l.Year)
	if l.Year == reconcile.GrandTotal {
		year = l.Year.String()
	}
	return map[string]interface{}{
		headerKey(reconcile.ColYear):        year,
		headerKey(reconcile.ColTributo):     l.Tributo,
		headerKey(reconcile.ColAccountName): optional(l.AccountName),
		headerKey(reconcile.ColCosifName):   optional(l.CosifName),
		headerKey(reconcile.ColDebit):       optional(l.Debit),
		headerKey(reconcile.ColCredit):      optional(l.Credit),
		headerKey(reconcile.ColNet):         l.Net,
		headerKey(reconcile.ColDescription): l.Description,
	}
}

func optional[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
