package main

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farxc/anexo_c_reconciler/internal/config"
	"github.com/farxc/anexo_c_reconciler/internal/logger"
	"github.com/farxc/anexo_c_reconciler/internal/reconcile"
	"github.com/farxc/anexo_c_reconciler/internal/store"
)

func newTestLauncher(t *testing.T, ctx context.Context) *launcher {
	t.Helper()
	dir := t.TempDir()
	defaults := reconcile.DefaultSettings()
	cfg := &config.Config{AnexoC: config.AnexoC{
		DashboardCSV: filepath.Join(dir, "missing.csv"),
		OutputDir:    dir,
		DescTotal:    defaults.TotalLabel,
		DescExclusao: defaults.ExclusionLabel,
		DescDeducao:  defaults.DeductionLabel,
		TaxaPIS:      defaults.PISRate,
		TaxaCOFINS:   defaults.COFINSRate,
	}, MaxWorkers: 1}
	return &launcher{ctx: ctx, cfg: cfg, storage: &store.Storage{}, appLogger: logger.NewNop()}
}

func TestLaunchRejectsSecondBatchWhileRunning(t *testing.T) {
	l := newTestLauncher(t, context.Background())
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.Launch(reconcile.KindCSLL, []int64{1}, false)
	assert.ErrorIs(t, err, errBatchRunning)
}

func TestLaunchReleasesAfterBatchEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := newTestLauncher(t, ctx)

	id, err := l.Launch(reconcile.KindCSLL, []int64{1}, false)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	l.Wait()
	assert.False(t, l.Running())

	_, err = l.Launch(reconcile.KindCSLL, []int64{1}, false)
	require.NoError(t, err)
	l.Wait()
}

func TestCreateReconciliationConflictWhileBatchRuns(t *testing.T) {
	app, _ := newTestApp(&fakeRuns{}, &fakeLines{}, &fakeLauncher{err: errBatchRunning})
	rec := do(t, app.mount(), http.MethodPost, "/v1/reconciliations", map[string]any{"contracts": []int64{1}, "kind": "csll"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}
