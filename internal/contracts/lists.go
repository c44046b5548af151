package contracts

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
)

var ErrColumnNotFound = errors.New("column not found in workbook")

// Set is a collection of contract numbers.
type Set map[int64]struct{}

func NewSet(ids ...int64) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Set) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the contracts ascending.
func (s Set) Sorted() []int64 {
	out := make([]int64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Without returns the contracts of s missing from excluded, ascending.
func (s Set) Without(excluded Set) []int64 {
	out := make([]int64, 0, len(s))
	for _, id := range s.Sorted() {
		if !excluded.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

// LoadTxt reads one contract per line. Missing files yield an empty set and
// lines that are not plain digits ("0001234" is fine) are ignored.
func LoadTxt(path string) (Set, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Set{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open contract list %s: %w", path, err)
	}
	defer f.Close()
	return ReadTxt(f)
}

func ReadTxt(r io.Reader) (Set, error) {
	out := Set{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		t := strings.TrimSpace(sc.Text())
		if t == "" || !isDigits(t) {
			continue
		}
		id, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			continue
		}
		out[id] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read contract list: %w", err)
	}
	return out, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// LoadWorkbookColumn reads the contracts in the named header column of the
// first sheet of an .xlsx or legacy .xls workbook. Cells such as
// "C0001234.xlsx" are reduced to their number; anything else is skipped.
func LoadWorkbookColumn(path, column string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook %s: %w", path, err)
	}
	rows, err := loadGenericExcel(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse workbook %s: %w", path, err)
	}
	return contractsInColumn(rows, column)
}

// LoadErrorWorkbook reads the "arquivo" column of the failed-output workbook.
func LoadErrorWorkbook(path string) (Set, error) {
	return LoadWorkbookColumn(path, "arquivo")
}

func contractsInColumn(rows [][]string, column string) (Set, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %q (empty sheet)", ErrColumnNotFound, column)
	}
	idx := -1
	for i, h := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(h), column) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}

	out := Set{}
	for _, row := range rows[1:] {
		if idx >= len(row) {
			continue
		}
		if id, ok := ParseOutputName(row[idx]); ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

// ParseOutputName turns "C0001234.xlsx", "C0001234" or "1234" into 1234.
func ParseOutputName(s string) (int64, bool) {
	t := strings.TrimSpace(s)
	t = strings.TrimSuffix(t, filepath.Ext(t))
	t = strings.ReplaceAll(t, "C", "")
	t = strings.TrimSpace(t)
	if !isDigits(t) {
		// numeric cells may come back as "1234.0"
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || f != float64(int64(f)) {
			return 0, false
		}
		return int64(f), true
	}
	id, err := strconv.ParseInt(t, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func loadGenericExcel(data []byte) ([][]string, error) {
	reader := bytes.NewReader(data)

	// tries xlsx
	f, err := excelize.OpenReader(reader)
	if err == nil {
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		return f.GetRows(sheets[0])
	}

	// tries xls
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	workbook, err := xls.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("unsupported workbook file format: %w", err)
	}
	if len(workbook.GetSheets()) == 0 {
		return nil, errors.New("the .xls file has no sheets")
	}
	sheet, err := workbook.GetSheet(0)
	if err != nil {
		return nil, fmt.Errorf("failed to open .xls sheet: %w", err)
	}
	var allRows [][]string
	for _, row := range sheet.GetRows() {
		var cols []string
		for _, cell := range row.GetCols() {
			cols = append(cols, cell.GetString())
		}
		allRows = append(allRows, cols)
	}
	return allRows, nil
}

var digitsRegex = regexp.MustCompile(`\d+`)
