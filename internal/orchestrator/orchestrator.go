package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/farxc/anexo_c_reconciler/internal/logger"
	"github.com/farxc/anexo_c_reconciler/internal/metrics"
	"github.com/farxc/anexo_c_reconciler/internal/reconcile"
	"github.com/farxc/anexo_c_reconciler/internal/store"
)

// LineWriter renders the reconciled lines of one contract and returns where
// they were written.
type LineWriter interface {
	Write(contract int64, lines []reconcile.Line) (string, error)
}

type Job struct {
	Contract int64
	Rows     []reconcile.LedgerRow
}

type Result struct {
	Contract   int64
	Status     string
	OutputPath string
	Lines      []reconcile.Line
	Err        error
}

type Summary struct {
	BatchID   string
	Results   []Result
	Succeeded int
	Failed    int
	Skipped   int
}

// Errors lists the failure messages in job order.
func (s *Summary) Errors() []string {
	var errs []string
	for _, r := range s.Results {
		if r.Err != nil {
			errs = append(errs, r.Err.Error())
		}
	}
	return errs
}

type Options struct {
	Kind        reconcile.Kind
	Settings    reconcile.Settings
	Concurrency int
	Force       bool
	Trigger     string
	BatchID     string
}

type Orchestrator struct {
	storage   *store.Storage
	writer    LineWriter
	metrics   *metrics.Metrics
	appLogger *logger.Logger

	// Settings
	report         reconcile.Report
	settings       reconcile.Settings
	maxConcurrency int
	staleTimeout   time.Duration
	force          bool
	trigger        string
	batchID        string

	// Internal State
	statusMap map[int64]store.ReconciliationRun
	mu        sync.RWMutex
}

// NewOrchestrator builds an orchestrator for one report kind. storage may be
// nil, in which case runs are neither recorded nor skipped.
func NewOrchestrator(storage *store.Storage, writer LineWriter, m *metrics.Metrics, appLogger *logger.Logger, opts Options) (*Orchestrator, error) {
	report, err := reconcile.ReportFor(opts.Kind, opts.Settings)
	if err != nil {
		return nil, err
	}
	if writer == nil {
		return nil, fmt.Errorf("%w: a line writer is required", reconcile.ErrConfig)
	}
	if appLogger == nil {
		appLogger = logger.NewNop()
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	trigger := opts.Trigger
	if trigger == "" {
		trigger = store.TriggerTypeManual
	}
	batchID := opts.BatchID
	if batchID == "" {
		batchID = uuid.NewString()
	}
	return &Orchestrator{
		storage:        storage,
		writer:         writer,
		metrics:        m,
		appLogger:      appLogger,
		report:         report,
		settings:       opts.Settings,
		maxConcurrency: concurrency,
		staleTimeout:   30 * time.Minute,
		force:          opts.Force,
		trigger:        trigger,
		batchID:        batchID,
		statusMap:      make(map[int64]store.ReconciliationRun),
	}, nil
}

func (o *Orchestrator) BatchID() string {
	return o.batchID
}

// InitializeState loads the latest run of each contract so that finished
// contracts are not reconciled again.
func (o *Orchestrator) InitializeState(ctx context.Context, contracts []int64) error {
	const component = "Orchestrator-Init"
	if o.storage == nil || len(contracts) == 0 {
		return nil
	}
	o.appLogger.Info(component, "Syncing run history: kind=%s contracts=%d", o.report.Kind, len(contracts))

	runs, err := o.storage.Runs.GetLatestByContracts(ctx, string(o.report.Kind), contracts)
	if err != nil {
		return fmt.Errorf("failed to load run history: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	for _, r := range runs {
		if existing, ok := o.statusMap[r.Contract]; !ok || r.ProcessedAt.After(existing.ProcessedAt) {
			o.statusMap[r.Contract] = r
		}
	}

	o.appLogger.Info(component, "State sync complete: contractsWithHistory=%d", len(o.statusMap))
	return nil
}

func (o *Orchestrator) ShouldProcess(contract int64) bool {
	if o.force {
		return true
	}
	o.mu.RLock()
	defer o.mu.RUnlock()

	r, ok := o.statusMap[contract]
	if !ok {
		return true
	}
	switch r.Status {
	case store.StatusInProgress:
		return time.Since(r.ProcessedAt) > o.staleTimeout
	case store.StatusSuccess, store.StatusSkipped:
		return false
	}
	return true
}

// Run reconciles every job on a bounded pool of workers. A failing contract
// never stops the others; the returned error is only set when ctx ends first.
func (o *Orchestrator) Run(ctx context.Context, jobs []Job) (*Summary, error) {
	const component = "Orchestrator"
	o.appLogger.Info(component, "Starting batch: id=%s kind=%s contracts=%d concurrency=%d",
		o.batchID, o.report.Kind, len(jobs), o.maxConcurrency)

	results := make([]Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxConcurrency)

	for i, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = o.process(gctx, job)
			return nil
		})
	}
	_ = g.Wait()

	summary := &Summary{BatchID: o.batchID}
	for _, r := range results {
		switch r.Status {
		case store.StatusSuccess:
			summary.Succeeded++
		case store.StatusSkipped:
			summary.Skipped++
		case store.StatusFailure:
			summary.Failed++
		default:
			continue
		}
		summary.Results = append(summary.Results, r)
	}

	o.appLogger.Info(component, "Batch finished: id=%s success=%d failure=%d skipped=%d",
		o.batchID, summary.Succeeded, summary.Failed, summary.Skipped)
	return summary, ctx.Err()
}

func (o *Orchestrator) process(ctx context.Context, job Job) Result {
	const component = "Worker"
	kind := string(o.report.Kind)

	if !o.ShouldProcess(job.Contract) {
		o.appLogger.Debug(component, "Contract already reconciled, skipping: contract=%d", job.Contract)
		o.metrics.Skipped(kind)
		return Result{Contract: job.Contract, Status: store.StatusSkipped}
	}

	tracker := o.metrics.Track(kind)
	o.appLogger.Debug(component, "Processing contract: contract=%d rows=%d", job.Contract, len(job.Rows))

	run := &store.ReconciliationRun{
		BatchID:     o.batchID,
		Contract:    job.Contract,
		Kind:        kind,
		TriggerType: o.trigger,
		Status:      store.StatusInProgress,
	}
	if o.storage != nil {
		if err := o.storage.Runs.InsertRun(ctx, run); err != nil {
			o.appLogger.Error(component, "Failed to create IN_PROGRESS record: contract=%d err=%v", job.Contract, err)
			err = fmt.Errorf("contract %d: %w", job.Contract, err)
			return Result{Contract: job.Contract, Status: store.StatusFailure, Err: tracker.End(0, err)}
		}
	}

	result := o.reconcile(job)

	if o.storage != nil {
		if result.Err == nil {
			lines := store.NewResultLines(run.ID, job.Contract, result.Lines)
			if err := o.storage.Lines.InsertLines(ctx, run.ID, lines); err != nil {
				result.Status = store.StatusFailure
				result.Err = fmt.Errorf("contract %d: store lines: %w", job.Contract, err)
			}
		}
		run.Status = result.Status
		run.OutputPath = result.OutputPath
		run.LineCount = len(result.Lines)
		if result.Err != nil {
			run.ErrorMessage = result.Err.Error()
		}
		if err := o.storage.Runs.FinishRun(ctx, run); err != nil {
			o.appLogger.Error(component, "Failed to update final status: id=%d status=%s err=%v", run.ID, run.Status, err)
		}
	}

	if result.Err != nil {
		o.appLogger.Warn(component, "Contract failed: contract=%d err=%v", job.Contract, result.Err)
	} else {
		o.appLogger.Debug(component, "Contract done: contract=%d lines=%d output=%s", job.Contract, len(result.Lines), result.OutputPath)
		o.mu.Lock()
		o.statusMap[job.Contract] = store.ReconciliationRun{Contract: job.Contract, Status: store.StatusSuccess, ProcessedAt: time.Now()}
		o.mu.Unlock()
	}
	result.Err = tracker.End(len(result.Lines), result.Err)
	return result
}

func (o *Orchestrator) reconcile(job Job) Result {
	fail := func(err error) Result {
		return Result{Contract: job.Contract, Status: store.StatusFailure, Err: fmt.Errorf("contract %d: %w", job.Contract, err)}
	}

	res, err := reconcile.Run(job.Rows, o.report, o.settings)
	if err != nil {
		return fail(err)
	}
	path, err := o.writer.Write(job.Contract, res.Lines)
	if err != nil {
		return fail(err)
	}
	return Result{Contract: job.Contract, Status: store.StatusSuccess, OutputPath: path, Lines: res.Lines}
}
