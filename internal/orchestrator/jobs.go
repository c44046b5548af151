package orchestrator

import (
	"fmt"

	"github.com/farxc/anexo_c_reconciler/internal/ledger"
)

// JobsFromExtract splits the extract rows of the selected contracts into jobs,
// in selection order. Contracts with no rows are returned as missing.
func JobsFromExtract(extract *ledger.Extract, selected []int64) ([]Job, []int64, error) {
	subset, err := extract.Select(selected)
	if err != nil {
		return nil, nil, err
	}
	_, groups, err := subset.ByContract()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to convert extract rows: %w", err)
	}

	var jobs []Job
	var missing []int64
	for _, c := range selected {
		rows, ok := groups[c]
		if !ok {
			missing = append(missing, c)
			continue
		}
		jobs = append(jobs, Job{Contract: c, Rows: rows})
	}
	return jobs, missing, nil
}
