package main

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/farxc/anexo_c_reconciler/internal/config"
	"github.com/farxc/anexo_c_reconciler/internal/ledger"
	"github.com/farxc/anexo_c_reconciler/internal/logger"
	"github.com/farxc/anexo_c_reconciler/internal/metrics"
	"github.com/farxc/anexo_c_reconciler/internal/orchestrator"
	"github.com/farxc/anexo_c_reconciler/internal/reconcile"
	"github.com/farxc/anexo_c_reconciler/internal/store"
	"github.com/farxc/anexo_c_reconciler/internal/workbook"
)

var errBatchRunning = errors.New("a reconciliation batch is already running")

// launcher runs API batches against the configured dashboard extract. Batches
// run on ctx, the server's lifetime context.
type launcher struct {
	ctx       context.Context
	cfg       *config.Config
	storage   *store.Storage
	metrics   *metrics.Metrics
	appLogger *logger.Logger

	// held while a batch reads the extract and writes workbooks
	mu      sync.Mutex
	running atomic.Bool
	wg      sync.WaitGroup
}

func (l *launcher) Launch(kind reconcile.Kind, contracts []int64, force bool) (string, error) {
	if !l.mu.TryLock() {
		return "", errBatchRunning
	}
	orch, err := orchestrator.NewOrchestrator(l.storage, workbook.NewWriter(workbook.Options{
		TemplatePath: l.cfg.AnexoC.TemplatePath,
		OutputDir:    l.cfg.AnexoC.OutputDir,
		PivotName:    l.cfg.AnexoC.PivotSheetName,
	}), l.metrics, l.appLogger, orchestrator.Options{
		Kind:        kind,
		Settings:    l.cfg.Settings(),
		Concurrency: l.cfg.Workers(),
		Force:       force,
		Trigger:     store.TriggerTypeAPI,
		BatchID:     uuid.NewString(),
	})
	if err != nil {
		l.mu.Unlock()
		return "", err
	}

	l.running.Store(true)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer l.mu.Unlock()
		defer l.running.Store(false)
		l.run(l.ctx, orch, contracts)
	}()
	return orch.BatchID(), nil
}

func (l *launcher) Running() bool {
	return l.running.Load()
}

// Wait blocks until the running batch, if any, has returned.
func (l *launcher) Wait() {
	l.wg.Wait()
}

func (l *launcher) run(ctx context.Context, orch *orchestrator.Orchestrator, contracts []int64) {
	const component = "Launcher"

	extract, err := ledger.Load(l.cfg.AnexoC.DashboardCSV, ledger.DefaultCategories)
	if err != nil {
		l.appLogger.Error(component, "Failed to load dashboard extract: batch=%s error=%v", orch.BatchID(), err)
		return
	}
	jobs, missing, err := orchestrator.JobsFromExtract(extract, contracts)
	if err != nil {
		l.appLogger.Error(component, "Failed to prepare contracts: batch=%s error=%v", orch.BatchID(), err)
		return
	}
	if len(missing) > 0 {
		l.appLogger.Warn(component, "Contracts absent from the extract: batch=%s count=%d", orch.BatchID(), len(missing))
	}

	if err := orch.InitializeState(ctx, contracts); err != nil {
		l.appLogger.Error(component, "Run history sync failed: batch=%s error=%v", orch.BatchID(), err)
		return
	}
	summary, err := orch.Run(ctx, jobs)
	if err != nil {
		l.appLogger.Warn(component, "Batch interrupted: batch=%s error=%v", orch.BatchID(), err)
	}
	l.appLogger.Info(component, "Batch done: batch=%s success=%d failure=%d skipped=%d",
		summary.BatchID, summary.Succeeded, summary.Failed, summary.Skipped)
}
