package main

import (
	"net/http"

	"github.com/farxc/anexo_c_reconciler/internal/reconcile"
	"github.com/farxc/anexo_c_reconciler/internal/response"
)

const version = "0.1.0"

type healthStatus struct {
	Status       string   `json:"status"`
	Version      string   `json:"version"`
	Reports      []string `json:"reports"`
	BatchRunning bool     `json:"batch_running"`
}

type HealthResponse = response.APIResponse[healthStatus]

// @Summary		Health check
// @Description	Reports the service version, the supported report kinds and whether a batch is running
// @Tags			Health
// @Produce		json
// @Success		200	{object}	HealthResponse
// @Router			/health [get]
func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	status := healthStatus{
		Status:       "available",
		Version:      version,
		Reports:      []string{string(reconcile.KindCSLL), string(reconcile.KindPISCOFINS)},
		BatchRunning: app.batches.Running(),
	}

	if err := writeJSON(w, http.StatusOK, response.OK("", status)); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}
