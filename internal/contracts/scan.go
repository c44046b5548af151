package contracts

import (
	"fmt"
	"os"
	"strings"
)

// OutputName is the workbook file name of a contract.
func OutputName(contract int64) string {
	return fmt.Sprintf("C%07d.xlsx", contract)
}

// ScanDir joins the digit runs of every file name in dir, one entry per file
// that has digits.
func ScanDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var found []string
	for _, e := range entries {
		if match := digitsRegex.FindAllString(e.Name(), -1); len(match) > 0 {
			found = append(found, strings.Join(match, ""))
		}
	}
	return found, nil
}

// WriteList writes one entry per line.
func WriteList(path string, entries []string) error {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// RecordProcessed scans dir and writes the contracts found to path.
func RecordProcessed(dir, path string) (int, error) {
	found, err := ScanDir(dir)
	if err != nil {
		return 0, err
	}
	return len(found), WriteList(path, found)
}
