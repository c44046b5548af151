package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farxc/anexo_c_reconciler/internal/metrics"
	"github.com/farxc/anexo_c_reconciler/internal/reconcile"
	"github.com/farxc/anexo_c_reconciler/internal/store"
)

type fakeRuns struct {
	mu       sync.Mutex
	nextID   int64
	runs     map[int64]*store.ReconciliationRun
	history  []store.ReconciliationRun
	failNext bool
}

func newFakeRuns(history ...store.ReconciliationRun) *fakeRuns {
	return &fakeRuns{runs: make(map[int64]*store.ReconciliationRun), history: history}
}

func (f *fakeRuns) InsertRun(_ context.Context, run *store.ReconciliationRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return errors.New("db down")
	}
	f.nextID++
	run.ID = f.nextID
	run.ProcessedAt = time.Now()
	cp := *run
	f.runs[run.ID] = &cp
	return nil
}

func (f *fakeRuns) FinishRun(_ context.Context, run *store.ReconciliationRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *run
	f.runs[run.ID] = &cp
	return nil
}

func (f *fakeRuns) GetLatest(context.Context, int) ([]store.ReconciliationRun, error) {
	return nil, nil
}

func (f *fakeRuns) GetBatch(context.Context, string) ([]store.ReconciliationRun, error) {
	return nil, nil
}

func (f *fakeRuns) GetLatestByContracts(_ context.Context, _ string, _ []int64) ([]store.ReconciliationRun, error) {
	return f.history, nil
}

func (f *fakeRuns) byContract(contract int64) *store.ReconciliationRun {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.runs {
		if r.Contract == contract {
			return r
		}
	}
	return nil
}

type fakeLines struct {
	mu    sync.Mutex
	lines map[int64][]store.ResultLine
}

func (f *fakeLines) InsertLines(_ context.Context, runID int64, lines []store.ResultLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lines == nil {
		f.lines = make(map[int64][]store.ResultLine)
	}
	f.lines[runID] = lines
	return nil
}

func (f *fakeLines) GetLatestLines(context.Context, int64, string) ([]store.ResultLine, error) {
	return nil, nil
}

type fakeWriter struct {
	mu      sync.Mutex
	written map[int64]int
	failOn  int64
}

func (w *fakeWriter) Write(contract int64, lines []reconcile.Line) (string, error) {
	if contract == w.failOn {
		return "", errors.New("template locked")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.written == nil {
		w.written = make(map[int64]int)
	}
	w.written[contract] = len(lines)
	return filepath.Join("out", "C.xlsx"), nil
}

func csllRows(contract int64) []reconcile.LedgerRow {
	row := func(ym int, irpj, cs, account string, net float64) reconcile.LedgerRow {
		return reconcile.LedgerRow{
			Contract:    contract,
			YearMonth:   ym,
			Categories:  map[string]string{"IRPJ": irpj, "CS": cs},
			AccountName: account,
			CosifName:   "Rendas",
			Net:         net,
		}
	}
	return []reconcile.LedgerRow{
		row(201901, reconcile.CategoryRAIR, reconcile.CategoryRAIR, "7.1", 1000),
		row(202001, reconcile.CategoryAddition, reconcile.CategoryRAIR, "7.2", 100),
	}
}

func newTestOrchestrator(t *testing.T, storage *store.Storage, w LineWriter, force bool) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(storage, w, metrics.NewMetrics(prometheus.NewRegistry()), nil, Options{
		Kind:        reconcile.KindCSLL,
		Settings:    reconcile.DefaultSettings(),
		Concurrency: 2,
		Force:       force,
	})
	require.NoError(t, err)
	return o
}

func TestRunRecordsSuccessAndFailure(t *testing.T) {
	runs := newFakeRuns()
	lines := &fakeLines{}
	w := &fakeWriter{failOn: 2}
	o := newTestOrchestrator(t, &store.Storage{Runs: runs, Lines: lines}, w, false)

	summary, err := o.Run(context.Background(), []Job{
		{Contract: 1, Rows: csllRows(1)},
		{Contract: 2, Rows: csllRows(2)},
		{Contract: 3, Rows: csllRows(3)},
	})
	require.NoError(t, err)
	assert.Equal(t, o.BatchID(), summary.BatchID)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Errors(), 1)
	assert.Contains(t, summary.Errors()[0], "contract 2")

	ok := runs.byContract(1)
	require.NotNil(t, ok)
	assert.Equal(t, store.StatusSuccess, ok.Status)
	assert.Equal(t, o.BatchID(), ok.BatchID)
	assert.Positive(t, ok.LineCount)
	assert.Len(t, lines.lines[ok.ID], ok.LineCount)
	assert.Equal(t, ok.LineCount, w.written[1])

	failed := runs.byContract(2)
	require.NotNil(t, failed)
	assert.Equal(t, store.StatusFailure, failed.Status)
	assert.Contains(t, failed.ErrorMessage, "template locked")
}

func TestRunSkipsReconciledContracts(t *testing.T) {
	runs := newFakeRuns(
		store.ReconciliationRun{Contract: 1, Status: store.StatusSuccess, ProcessedAt: time.Now()},
		store.ReconciliationRun{Contract: 2, Status: store.StatusFailure, ProcessedAt: time.Now()},
		store.ReconciliationRun{Contract: 3, Status: store.StatusInProgress, ProcessedAt: time.Now()},
		store.ReconciliationRun{Contract: 4, Status: store.StatusInProgress, ProcessedAt: time.Now().Add(-time.Hour)},
	)
	o := newTestOrchestrator(t, &store.Storage{Runs: runs, Lines: &fakeLines{}}, &fakeWriter{}, false)
	require.NoError(t, o.InitializeState(context.Background(), []int64{1, 2, 3, 4, 5}))

	assert.False(t, o.ShouldProcess(1))
	assert.True(t, o.ShouldProcess(2))
	assert.False(t, o.ShouldProcess(3))
	assert.True(t, o.ShouldProcess(4), "stale runs are retried")
	assert.True(t, o.ShouldProcess(5))

	summary, err := o.Run(context.Background(), []Job{{Contract: 1, Rows: csllRows(1)}, {Contract: 2, Rows: csllRows(2)}})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Succeeded)
	assert.False(t, o.ShouldProcess(2), "finished contracts are remembered")
}

func TestForceReprocesses(t *testing.T) {
	runs := newFakeRuns(store.ReconciliationRun{Contract: 1, Status: store.StatusSuccess, ProcessedAt: time.Now()})
	o := newTestOrchestrator(t, &store.Storage{Runs: runs, Lines: &fakeLines{}}, &fakeWriter{}, true)
	require.NoError(t, o.InitializeState(context.Background(), []int64{1}))
	assert.True(t, o.ShouldProcess(1))
}

func TestRunWithoutStorage(t *testing.T) {
	w := &fakeWriter{}
	o := newTestOrchestrator(t, nil, w, false)
	require.NoError(t, o.InitializeState(context.Background(), []int64{1}))

	summary, err := o.Run(context.Background(), []Job{{Contract: 9, Rows: csllRows(9)}})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	require.Len(t, summary.Results, 1)
	assert.NotEmpty(t, summary.Results[0].Lines)
	assert.Contains(t, w.written, int64(9))
}

func TestRunFailsWhenRunCannotBeRecorded(t *testing.T) {
	runs := newFakeRuns()
	runs.failNext = true
	w := &fakeWriter{}
	o := newTestOrchestrator(t, &store.Storage{Runs: runs, Lines: &fakeLines{}}, w, false)

	summary, err := o.Run(context.Background(), []Job{{Contract: 5, Rows: csllRows(5)}})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.NotContains(t, w.written, int64(5))
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := newTestOrchestrator(t, nil, &fakeWriter{}, false)

	summary, err := o.Run(ctx, []Job{{Contract: 1, Rows: csllRows(1)}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, summary.Results)
}

func TestNewOrchestratorRejectsUnknownKind(t *testing.T) {
	_, err := NewOrchestrator(nil, &fakeWriter{}, nil, nil, Options{Kind: "vat"})
	assert.ErrorIs(t, err, reconcile.ErrConfig)
}

func TestWriteErrorLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ErrorLogName(1))
	assert.Equal(t, "excel_errors_shard1.log", filepath.Base(path))

	require.NoError(t, WriteErrorLog(path, nil))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, WriteErrorLog(path, []string{"contract 1: a", "contract 2: b"}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "contract 1: a\n\ncontract 2: b", string(data))
}
