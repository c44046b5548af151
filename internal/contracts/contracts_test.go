package contracts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadTxtIgnoresInvalidLines(t *testing.T) {
	got, err := ReadTxt(strings.NewReader("0001234\n\n  42 \nabc\n12a\n42\n"))
	require.NoError(t, err)
	assert.Equal(t, []int64{42, 1234}, got.Sorted())
}

func TestLoadTxtMissingFile(t *testing.T) {
	got, err := LoadTxt(filepath.Join(t.TempDir(), "nope.txt"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWithoutExcludesAndSorts(t *testing.T) {
	got := NewSet(9, 3, 7, 1).Without(NewSet(7, 100))
	assert.Equal(t, []int64{1, 3, 9}, got)
}

func TestShard(t *testing.T) {
	ids := []int64{10, 11, 12, 13, 14}

	got, err := Shard(ids, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 12, 14}, got)

	got, err = Shard(ids, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{11, 13}, got)

	got, err = Shard(ids, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, ids, got)

	_, err = Shard(ids, 2, 2)
	assert.ErrorIs(t, err, ErrInvalidShard)
	_, err = Shard(ids, -1, 3)
	assert.ErrorIs(t, err, ErrInvalidShard)
}

func TestParseOutputName(t *testing.T) {
	cases := map[string]int64{
		"C0001234.xlsx": 1234,
		" C0000042 ":    42,
		"77":            77,
		"1234.0":        1234,
	}
	for in, want := range cases {
		got, ok := ParseOutputName(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseOutputName("relatorio.xlsx")
	assert.False(t, ok)
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "C0001234.xlsx", OutputName(1234))
}

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "contratos.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadErrorWorkbook(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"arquivo", "erro"},
		{"C0001234.xlsx", "timeout"},
		{"C0000042.xlsx", "template"},
		{"", ""},
		{"resumo", ""},
	})

	got, err := LoadErrorWorkbook(path)
	require.NoError(t, err)
	assert.Equal(t, []int64{42, 1234}, got.Sorted())
}

func TestLoadWorkbookColumnNumericCells(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Contrato"},
		{1234},
		{42},
	})

	got, err := LoadWorkbookColumn(path, "contrato")
	require.NoError(t, err)
	assert.Equal(t, []int64{42, 1234}, got.Sorted())

	_, err = LoadWorkbookColumn(path, "arquivo")
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestLoadWorkbookRejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lista.xls")
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0o600))

	_, err := LoadWorkbookColumn(path, "arquivo")
	assert.Error(t, err)
}

func TestRecordProcessed(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{OutputName(1234), OutputName(42), "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}
	list := filepath.Join(t.TempDir(), "numeros_extraidos.txt")

	n, err := RecordProcessed(dir, list)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := LoadTxt(list)
	require.NoError(t, err)
	assert.Equal(t, []int64{42, 1234}, got.Sorted())
}
