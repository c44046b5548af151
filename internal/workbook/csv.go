package workbook

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-gota/gota/dataframe"

	"github.com/farxc/anexo_c_reconciler/internal/reconcile"
)

// ContractLines is the reconciled output of one contract.
type ContractLines struct {
	Contract int64
	Lines    []reconcile.Line
}

// Frame stacks the lines of every contract under the data table header plus a
// leading NumContrato column. Values are kept as text so that empty cells stay
// empty.
func Frame(results []ContractLines) dataframe.DataFrame {
	header := append([]string{reconcile.ColContract}, Header...)
	records := [][]string{header}
	for _, r := range results {
		contract := strconv.FormatInt(r.Contract, 10)
		for _, l := range r.Lines {
			records = append(records, append([]string{contract}, lineRecord(l)...))
		}
	}
	return dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
	)
}

// WriteCSV writes the stacked lines. With no lines only the header is written.
func WriteCSV(w io.Writer, results []ContractLines) error {
	if countLines(results) == 0 {
		cw := csv.NewWriter(w)
		if err := cw.Write(append([]string{reconcile.ColContract}, Header...)); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	}
	df := Frame(results)
	if df.Err != nil {
		return df.Err
	}
	return df.WriteCSV(w)
}

func WriteCSVFile(path string, results []ContractLines) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func countLines(results []ContractLines) int {
	n := 0
	for _, r := range results {
		n += len(r.Lines)
	}
	return n
}

func lineRecord(l reconcile.Line) []string {
	return []string{
		l.Year.String(),
		l.Tributo,
		optionalText(l.AccountName),
		optionalText(l.CosifName),
		optionalAmount(l.Debit),
		optionalAmount(l.Credit),
		formatAmount(l.Net),
		l.Description,
	}
}

func optionalText(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func optionalAmount(p *float64) string {
	if p == nil {
		return ""
	}
	return formatAmount(*p)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
