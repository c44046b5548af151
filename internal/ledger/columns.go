package ledger

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-gota/gota/dataframe"
	"github.com/schollz/closestmatch"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/farxc/anexo_c_reconciler/internal/reconcile"
)

var ErrMissingColumn = errors.New("required column missing from extract")

// RequiredColumns must be present in every dashboard extract.
var RequiredColumns = []string{
	reconcile.ColContract,
	reconcile.ColYearMonth,
	reconcile.ColAccountName,
	reconcile.ColCosifName,
	reconcile.ColDebit,
	reconcile.ColCredit,
	reconcile.ColNet,
}

// DefaultCategories are the tax columns read when present.
var DefaultCategories = []string{"IRPJ", "CS", "PIS"}

var nonAlphanumericRegex = regexp.MustCompile(`[^A-Z0-9 ]+`)
var whitespaceRegex = regexp.MustCompile(`\s+`)

func normalizeText(str string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}))
	result, _, _ := transform.String(t, str)
	result = strings.ToUpper(strings.ReplaceAll(result, "_", " "))
	result = nonAlphanumericRegex.ReplaceAllString(result, " ")
	result = whitespaceRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

func firstWord(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}

// resolveHeaders maps each wanted column to the extract header holding it.
// Exact names win, then accent/case-insensitive names, then the closest header
// sharing the first word.
func resolveHeaders(headers, wanted []string) map[string]string {
	byNorm := make(map[string]string, len(headers))
	exact := make(map[string]bool, len(headers))
	for _, h := range headers {
		exact[h] = true
		if _, ok := byNorm[normalizeText(h)]; !ok {
			byNorm[normalizeText(h)] = h
		}
	}

	resolved := make(map[string]string, len(wanted))
	claimed := make(map[string]bool)
	var pending []string
	for _, w := range wanted {
		if exact[w] {
			resolved[w] = w
			claimed[w] = true
			continue
		}
		if h, ok := byNorm[normalizeText(w)]; ok && !claimed[h] {
			resolved[w] = h
			claimed[h] = true
			continue
		}
		pending = append(pending, w)
	}
	if len(pending) == 0 {
		return resolved
	}

	var candidates []string
	for n, h := range byNorm {
		if !claimed[h] {
			candidates = append(candidates, n)
		}
	}
	if len(candidates) == 0 {
		return resolved
	}

	cm := closestmatch.New(candidates, []int{2, 3})
	for _, w := range pending {
		key := normalizeText(w)
		match := cm.Closest(key)
		if match == "" || firstWord(match) != firstWord(key) {
			continue
		}
		if h := byNorm[match]; !claimed[h] {
			resolved[w] = h
			claimed[h] = true
		}
	}
	return resolved
}

// canonicalize renames the extract headers to the pipeline's column names and
// reports which category columns exist.
func canonicalize(df dataframe.DataFrame, categories []string) (dataframe.DataFrame, []string, error) {
	wanted := append(append([]string{}, RequiredColumns...), categories...)
	resolved := resolveHeaders(df.Names(), wanted)

	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := resolved[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return dataframe.DataFrame{}, nil, fmt.Errorf("%w: %v", ErrMissingColumn, missing)
	}

	var present []string
	for _, w := range wanted {
		h, ok := resolved[w]
		if !ok {
			continue
		}
		if h != w {
			df = df.Rename(w, h)
			if df.Err != nil {
				return dataframe.DataFrame{}, nil, fmt.Errorf("failed to rename %q: %w", h, df.Err)
			}
		}
		for _, c := range categories {
			if c == w {
				present = append(present, c)
			}
		}
	}
	return df, present, nil
}
