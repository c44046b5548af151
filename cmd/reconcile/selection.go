package main

import (
	"path/filepath"
	"strings"

	"github.com/farxc/anexo_c_reconciler/internal/contracts"
)

type selection struct {
	toProcess  string
	errorsBook string
	excluded   string
	shardIndex int
	shardTotal int
}

// loadContractList reads a .txt list or the "Contrato" column of a workbook.
func loadContractList(path string) (contracts.Set, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xls":
		return contracts.LoadWorkbookColumn(path, "Contrato")
	default:
		return contracts.LoadTxt(path)
	}
}

// resolve returns this shard's contracts: to-process list plus the failed outputs, minus
// the excluded list, ascending.
func (s selection) resolve() ([]int64, error) {
	wanted, err := loadContractList(s.toProcess)
	if err != nil {
		return nil, err
	}
	if s.errorsBook != "" {
		failed, err := contracts.LoadErrorWorkbook(s.errorsBook)
		if err != nil {
			return nil, err
		}
		for id := range failed {
			wanted[id] = struct{}{}
		}
	}

	excluded := contracts.Set{}
	if s.excluded != "" {
		if excluded, err = contracts.LoadTxt(s.excluded); err != nil {
			return nil, err
		}
	}
	return contracts.Shard(wanted.Without(excluded), s.shardIndex, s.shardTotal)
}
