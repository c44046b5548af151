package ledger

import (
	"fmt"
	"strconv"
	"strings"
)

func isNull(s string) bool {
	switch s {
	case "", "NaN", "NA", "<nil>":
		return true
	}
	return false
}

// ParseAmount accepts "1.234,56" as well as "1234.56". Empty cells are zero.
func ParseAmount(valStr string) (float64, error) {
	valStr = strings.TrimSpace(valStr)
	if isNull(valStr) {
		return 0, nil
	}
	cleanStr := valStr
	if strings.Contains(cleanStr, ",") {
		// Remove thousands separator (.) and replace decimal separator (,) with (.)
		cleanStr = strings.ReplaceAll(cleanStr, ".", "")
		cleanStr = strings.ReplaceAll(cleanStr, ",", ".")
	}
	val, err := strconv.ParseFloat(cleanStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", valStr, err)
	}
	return val, nil
}

// ParseInt64 accepts integers written with a trailing ".0" by spreadsheet exports.
func ParseInt64(valStr string) (int64, error) {
	valStr = strings.TrimSpace(valStr)
	if isNull(valStr) {
		return 0, fmt.Errorf("empty integer")
	}
	if i, err := strconv.ParseInt(valStr, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(valStr, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, fmt.Errorf("invalid integer %q", valStr)
	}
	return int64(f), nil
}
