package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/farxc/anexo_c_reconciler/internal/contracts"
	"github.com/farxc/anexo_c_reconciler/internal/reconcile"
	"github.com/farxc/anexo_c_reconciler/internal/response"
)

type reconciliationRequest struct {
	Contracts  []int64 `json:"contracts" validate:"required,min=1,max=5000,dive,gt=0"`
	Kind       string  `json:"kind" validate:"required,oneof=csll pis_cofins"`
	ShardIndex int     `json:"shard_index" validate:"gte=0"`
	ShardTotal int     `json:"shard_total" validate:"gte=0,lte=64"`
	Force      bool    `json:"force"`
}

type reconciliationBatch struct {
	BatchID   string `json:"batch_id"`
	Kind      string `json:"kind"`
	Contracts int    `json:"contracts"`
}

type CreateReconciliationResponse = response.APIResponse[reconciliationBatch]

// batchLauncher starts a reconciliation batch in the background and returns
// its identifier.
type batchLauncher interface {
	Launch(kind reconcile.Kind, contracts []int64, force bool) (string, error)
	Running() bool
}

// @Summary		Start a reconciliation batch
// @Description	Reconciles the given contracts in the background and returns the batch identifier.
// @Tags			Reconciliations
// @Accept			json
// @Produce		json
// @Param			request	body		reconciliationRequest			true	"Contracts, report kind and optional shard"
// @Success		202		{object}	CreateReconciliationResponse	"Batch started"
// @Failure		400		{object}	response.ErrorResponse			"Invalid request payload"
// @Failure		429		{object}	response.ErrorResponse			"Too many requests"
// @Failure		500		{object}	response.ErrorResponse			"Failed to start batch"
// @Router			/reconciliations [post]
func (app *application) handleCreateReconciliation(w http.ResponseWriter, r *http.Request) {
	var input reconciliationRequest
	if err := readJSON(w, r, &input); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := app.validate.Struct(input); err != nil {
		writeJSON(w, http.StatusBadRequest, response.Error("invalid request payload", validationDetails(err)...))
		return
	}
	if input.ShardTotal > 1 && input.ShardIndex >= input.ShardTotal {
		writeJSONError(w, http.StatusBadRequest, "shard_index must be lower than shard_total")
		return
	}

	kind, err := reconcile.ParseKind(input.Kind)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	selected, err := contracts.Shard(contracts.NewSet(input.Contracts...).Sorted(), input.ShardIndex, input.ShardTotal)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(selected) == 0 {
		writeJSONError(w, http.StatusBadRequest, "no contracts in the requested shard")
		return
	}

	batchID, err := app.batches.Launch(kind, selected, input.Force)
	if errors.Is(err, errBatchRunning) {
		writeJSONError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to start batch: "+err.Error())
		return
	}

	resp := response.OK("Reconciliation batch started", reconciliationBatch{BatchID: batchID, Kind: string(kind), Contracts: len(selected)})

	if err := writeJSON(w, http.StatusAccepted, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

func validationDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return details
}
