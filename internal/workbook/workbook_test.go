package workbook

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/farxc/anexo_c_reconciler/internal/reconcile"
)

func sampleLines() []reconcile.Line {
	account := "7.1.1 Rendas"
	debit, credit := 10.0, 110.0
	return []reconcile.Line{
		{Year: 2019, Tributo: "IRPJ Adição", AccountName: &account, Debit: &debit, Credit: &credit, Net: 100, Description: "Adição"},
		{Year: reconcile.GrandTotal, Tributo: reconcile.LineLALUR, Net: -100.5, Description: reconcile.LineLALUR},
	}
}

func TestWriteWithoutTemplate(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(Options{OutputDir: dir})

	out, err := w.Write(1234, sampleLines())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "C0001234.xlsx"), out)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(DataSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{"2019", "IRPJ Adição", "7.1.1 Rendas", "", "10", "110", "100", "Adição"}, rows[1])
	assert.Equal(t, "Grand Total", rows[2][0])
	assert.Equal(t, "", rows[2][2])

	contract, err := f.GetCellValue(DefaultPivotName, ContractCell)
	require.NoError(t, err)
	assert.Equal(t, "1234", contract)

	visible, err := f.GetSheetVisible(DataSheet)
	require.NoError(t, err)
	assert.False(t, visible)

	tables, err := f.GetTables(DataSheet)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "A1:H3", tables[0].Range)
}

func writeTemplate(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", DataSheet))
	_, err := f.NewSheet(PivotSheet)
	require.NoError(t, err)

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	require.NoError(t, f.SetSheetRow(DataSheet, "B3", &header))
	for r := 4; r <= 8; r++ {
		cell, _ := excelize.CoordinatesToCellName(2, r)
		stale := []interface{}{2000, "old", "old", "old", 1, 1, 1, "old"}
		require.NoError(t, f.SetSheetRow(DataSheet, cell, &stale))
	}
	require.NoError(t, f.AddTable(DataSheet, &excelize.Table{Range: "B3:I8", Name: "Base"}))
	require.NoError(t, f.SaveAs(path))
}

func TestWriteIntoTemplateResizesTable(t *testing.T) {
	dir := t.TempDir()
	tpl := filepath.Join(dir, "template.xlsx")
	writeTemplate(t, tpl)

	w := NewWriter(Options{TemplatePath: tpl, OutputDir: filepath.Join(dir, "out"), PivotName: "CSLL_ANUAL"})
	out, err := w.Write(42, sampleLines())
	require.NoError(t, err)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	tables, err := f.GetTables(DataSheet)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "Base", tables[0].Name)
	assert.Equal(t, "B3:I5", tables[0].Range)

	v, err := f.GetCellValue(DataSheet, "C4")
	require.NoError(t, err)
	assert.Equal(t, "IRPJ Adição", v)
	v, err = f.GetCellValue(DataSheet, "C6")
	require.NoError(t, err)
	assert.Empty(t, v, "stale rows are cleared")

	idx, err := f.GetSheetIndex("CSLL_ANUAL")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, idx, 0)
	v, err = f.GetCellValue("CSLL_ANUAL", ContractCell)
	require.NoError(t, err)
	assert.Equal(t, "42", v)
}

func TestWriteFollowsTemplateHeaderOrder(t *testing.T) {
	dir := t.TempDir()
	tpl := filepath.Join(dir, "template.xlsx")

	header := []interface{}{"Ano", "Conta_Nome", "Cosif_Nome", "ValorDebito", "ValorCredito", "Movimentacao", "Descrição"}
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", DataSheet))
	_, err := f.NewSheet(PivotSheet)
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow(DataSheet, "A1", &header))
	require.NoError(t, f.AddTable(DataSheet, &excelize.Table{Range: "A1:G2", Name: "Base"}))
	require.NoError(t, f.SaveAs(tpl))
	require.NoError(t, f.Close())

	account := "8100"
	lines := []reconcile.Line{{Year: 2019, Tributo: "IRPJ Adição", AccountName: &account, Net: 10, Description: "Adição"}}
	out, err := NewWriter(Options{TemplatePath: tpl, OutputDir: dir}).Write(7, lines)
	require.NoError(t, err)

	f, err = excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(DataSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Ano", "Conta_Nome", "Cosif_Nome", "ValorDebito", "ValorCredito", "Movimentacao", "Descrição"}, rows[0])
	assert.Equal(t, []string{"2019", "8100", "", "", "", "10", "Adição"}, rows[1])

	tables, err := f.GetTables(DataSheet)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "A1:G2", tables[0].Range)
}

func TestArrangeLeavesUnknownColumnsBlank(t *testing.T) {
	row := arrange([]string{" movimentacao ", "Notas", "Tributo"}, lineValues(sampleLines()[0]))
	assert.Equal(t, []interface{}{100.0, nil, "IRPJ Adição"}, row)
}

func TestWriteRejectsTemplateWithoutPivot(t *testing.T) {
	dir := t.TempDir()
	tpl := filepath.Join(dir, "bad.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", DataSheet))
	require.NoError(t, f.SaveAs(tpl))
	require.NoError(t, f.Close())

	_, err := NewWriter(Options{TemplatePath: tpl, OutputDir: dir}).Write(1, sampleLines())
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []ContractLines{{Contract: 77, Lines: sampleLines()}})
	require.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, append([]string{reconcile.ColContract}, Header...), records[0])
	assert.Equal(t, []string{"77", "2019", "IRPJ Adição", "7.1.1 Rendas", "", "10", "110", "100", "Adição"}, records[1])
	assert.Equal(t, []string{"77", "Grand Total", reconcile.LineLALUR, "", "", "", "", "-100.5", reconcile.LineLALUR}, records[2])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
}
