package main

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/farxc/anexo_c_reconciler/internal/reconcile"
	"github.com/farxc/anexo_c_reconciler/internal/response"
	"github.com/farxc/anexo_c_reconciler/internal/store"
)

type GetRunHistoryResponse = response.APIResponse[[]store.ReconciliationRun]
type GetContractLinesResponse = response.APIResponse[[]store.ResultLine]

// @Summary		Get run history
// @Description	Get a list of the latest contract reconciliation runs.
// @Tags			Runs
// @Produce		json
// @Param			limit	query		int						false	"Limit the number of results"	default(10)
// @Success		200		{object}	GetRunHistoryResponse	"Successfully retrieved latest runs"
// @Failure		500		{object}	response.ErrorResponse	"Failed to get run history"
// @Router			/runs/history [get]
func (app *application) handleGetRunHistory(w http.ResponseWriter, r *http.Request) {
	limitParam := r.URL.Query().Get("limit")
	limit := 10
	if limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 {
			limit = min(l, 500)
		}
	}

	data, err := app.store.Runs.GetLatest(r.Context(), limit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to get run history: "+err.Error())
		return
	}

	resp := response.OK("Successfully retrieved latest runs", data)

	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Get batch runs
// @Description	Get every contract run of a reconciliation batch.
// @Tags			Runs
// @Produce		json
// @Param			batchID	path		string					true	"Batch identifier (UUID)"
// @Success		200		{object}	GetRunHistoryResponse	"Successfully retrieved batch runs"
// @Failure		400		{object}	response.ErrorResponse	"Invalid batch identifier"
// @Failure		500		{object}	response.ErrorResponse	"Failed to get batch runs"
// @Router			/runs/batches/{batchID} [get]
func (app *application) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	batchID, err := uuid.Parse(chi.URLParam(r, "batchID"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid batch id")
		return
	}

	data, err := app.store.Runs.GetBatch(r.Context(), batchID.String())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to get batch runs: "+err.Error())
		return
	}

	resp := response.OK("Successfully retrieved batch runs", data)

	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Get contract lines
// @Description	Get the reconciled lines of a contract's latest successful run.
// @Tags			Runs
// @Produce		json
// @Param			contract	path		int							true	"Contract number"
// @Param			kind		query		string						false	"Report kind"	default(csll)
// @Success		200			{object}	GetContractLinesResponse	"Successfully retrieved contract lines"
// @Failure		400			{object}	response.ErrorResponse		"Invalid contract or kind"
// @Failure		404			{object}	response.ErrorResponse		"No successful run for the contract"
// @Failure		500			{object}	response.ErrorResponse		"Failed to get contract lines"
// @Router			/runs/{contract}/lines [get]
func (app *application) handleGetContractLines(w http.ResponseWriter, r *http.Request) {
	contract, err := strconv.ParseInt(chi.URLParam(r, "contract"), 10, 64)
	if err != nil || contract <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid contract parameter")
		return
	}

	kind := reconcile.KindCSLL
	if k := r.URL.Query().Get("kind"); k != "" {
		if kind, err = reconcile.ParseKind(k); err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	data, err := app.store.Lines.GetLatestLines(r.Context(), contract, string(kind))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to get contract lines: "+err.Error())
		return
	}
	if len(data) == 0 {
		writeJSONError(w, http.StatusNotFound, "no successful run for contract "+strconv.FormatInt(contract, 10))
		return
	}

	resp := response.OK("Successfully retrieved contract lines", data)

	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}
