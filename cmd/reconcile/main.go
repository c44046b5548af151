package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/farxc/anexo_c_reconciler/internal/config"
	"github.com/farxc/anexo_c_reconciler/internal/contracts"
	"github.com/farxc/anexo_c_reconciler/internal/db"
	"github.com/farxc/anexo_c_reconciler/internal/ledger"
	"github.com/farxc/anexo_c_reconciler/internal/logger"
	"github.com/farxc/anexo_c_reconciler/internal/metrics"
	"github.com/farxc/anexo_c_reconciler/internal/orchestrator"
	"github.com/farxc/anexo_c_reconciler/internal/reconcile"
	"github.com/farxc/anexo_c_reconciler/internal/store"
	"github.com/farxc/anexo_c_reconciler/internal/workbook"
)

func main() {
	const component = "Main"
	startingTime := time.Now()

	bootLogger, err := logger.New(logger.LevelInfo, logger.FormatConsole)
	if err != nil {
		panic(err)
	}
	cfg, err := config.Load(".env")
	if err != nil {
		bootLogger.Fatal(component, "Configuration failed: error=%v", err)
	}

	processarPtr := flag.String("processar", "processar.txt", "TXT (or workbook with a Contrato column) listing contracts to process")
	errosPtr := flag.String("erros", "", "Workbook whose 'arquivo' column lists failed outputs to reprocess")
	naoEncontradosPtr := flag.String("nao-encontrados", "numeros_extraidos.txt", "TXT listing contracts to leave out")
	dashboardPtr := flag.String("dashboard", cfg.AnexoC.DashboardCSV, "Dashboard extract CSV (latin-1, ';' separated)")
	templatePtr := flag.String("template", cfg.AnexoC.TemplatePath, "Workbook template with Dados and Pivot sheets")
	outputPtr := flag.String("output", cfg.AnexoC.OutputDir, "Directory for the C%07d.xlsx workbooks")
	kindPtr := flag.String("kind", string(reconcile.KindCSLL), "Report kind: csll, pis_cofins")
	maxWorkersPtr := flag.Int("max-workers", cfg.Workers(), "Concurrent contracts")
	shardIndexPtr := flag.Int("shard-index", 0, "Shard index (0-based)")
	shardTotalPtr := flag.Int("shard-total", 1, "Total shards")
	finalCSVPtr := flag.String("final-csv", "", "Write every contract's lines to this CSV")
	scanPtr := flag.Bool("scan", false, "Only record the contracts found in the output directory into -nao-encontrados")
	forcePtr := flag.Bool("force", false, "Reprocess contracts already reconciled successfully")
	persistPtr := flag.Bool("persist", false, "Record runs and lines in the database")
	logLevelPtr := flag.String("loglevel", cfg.LogLevel, "Log level: debug, info, warn, error")
	flag.Parse()

	appLogger, err := logger.New(logger.ParseLevel(*logLevelPtr), cfg.LogFormat)
	if err != nil {
		bootLogger.Fatal(component, "Logger setup failed: error=%v", err)
	}
	defer appLogger.Sync()

	monitor := NewMonitor()
	monitor.Start(400*time.Millisecond, appLogger)

	appLogger.Info(component, "Application starting: startTime=%s kind=%s logLevel=%s", startingTime.Format(time.RFC3339), *kindPtr, *logLevelPtr)

	if *scanPtr {
		n, err := contracts.RecordProcessed(*outputPtr, *naoEncontradosPtr)
		if err != nil {
			appLogger.Fatal(component, "Output scan failed: dir=%s error=%v", *outputPtr, err)
		}
		appLogger.Info(component, "Recorded processed contracts: count=%d file=%s", n, *naoEncontradosPtr)
		return
	}

	kind, err := reconcile.ParseKind(*kindPtr)
	if err != nil {
		appLogger.Fatal(component, "Invalid report kind: error=%v", err)
	}

	selected, err := selection{
		toProcess:  *processarPtr,
		errorsBook: *errosPtr,
		excluded:   *naoEncontradosPtr,
		shardIndex: *shardIndexPtr,
		shardTotal: *shardTotalPtr,
	}.resolve()
	if err != nil {
		appLogger.Fatal(component, "Contract selection failed: error=%v", err)
	}
	if len(selected) == 0 {
		appLogger.Info(component, "Nothing to process after exclusions")
		return
	}
	appLogger.Info(component, "Contracts in this shard: count=%d shard=%d/%d", len(selected), *shardIndexPtr+1, max(*shardTotalPtr, 1))

	extract, err := ledger.Load(*dashboardPtr, ledger.DefaultCategories)
	if err != nil {
		appLogger.Fatal(component, "Failed to load dashboard extract: path=%s error=%v", *dashboardPtr, err)
	}
	jobs, missing, err := orchestrator.JobsFromExtract(extract, selected)
	if err != nil {
		appLogger.Fatal(component, "Failed to prepare contracts: error=%v", err)
	}
	if len(missing) > 0 {
		appLogger.Warn(component, "Contracts absent from the extract: count=%d first=%d", len(missing), missing[0])
	}
	if len(jobs) == 0 {
		appLogger.Info(component, "None of the selected contracts is in the extract")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var storage *store.Storage
	if *persistPtr {
		database, err := db.New(cfg.DB.Addr, cfg.DB.MaxOpenConns, cfg.DB.MaxIdleConns, cfg.DB.MaxIdleTime)
		if err != nil {
			appLogger.Fatal(component, "Database connection failed: error=%v", err)
		}
		defer database.Close()
		if err := db.EnsureSchema(ctx, database); err != nil {
			appLogger.Fatal(component, "Database schema failed: error=%v", err)
		}
		storage = store.NewStorage(database)
		appLogger.Info(component, "Database connection pool established")
	}

	writer := workbook.NewWriter(workbook.Options{
		TemplatePath: *templatePtr,
		OutputDir:    *outputPtr,
		PivotName:    cfg.AnexoC.PivotSheetName,
	})
	orch, err := orchestrator.NewOrchestrator(storage, writer, metrics.NewMetrics(nil), appLogger, orchestrator.Options{
		Kind:        kind,
		Settings:    cfg.Settings(),
		Concurrency: *maxWorkersPtr,
		Force:       *forcePtr,
		Trigger:     store.TriggerTypeManual,
	})
	if err != nil {
		appLogger.Fatal(component, "Orchestrator setup failed: error=%v", err)
	}

	ids := make([]int64, len(jobs))
	for i, j := range jobs {
		ids[i] = j.Contract
	}
	if err := orch.InitializeState(ctx, ids); err != nil {
		appLogger.Fatal(component, "Run history sync failed: error=%v", err)
	}

	summary, err := orch.Run(ctx, jobs)
	if err != nil {
		appLogger.Warn(component, "Batch interrupted: error=%v", err)
	}

	if errs := summary.Errors(); len(errs) > 0 {
		logPath := orchestrator.ErrorLogName(*shardIndexPtr)
		if err := orchestrator.WriteErrorLog(logPath, errs); err != nil {
			appLogger.Error(component, "Failed to write error log: path=%s error=%v", logPath, err)
		}
		appLogger.Warn(component, "Finished with errors: count=%d log=%s", len(errs), logPath)
	}

	if *finalCSVPtr != "" {
		var results []workbook.ContractLines
		for _, r := range summary.Results {
			if r.Status == store.StatusSuccess {
				results = append(results, workbook.ContractLines{Contract: r.Contract, Lines: r.Lines})
			}
		}
		if err := os.MkdirAll(filepath.Dir(*finalCSVPtr), 0o755); err != nil {
			appLogger.Error(component, "Failed to create CSV directory: error=%v", err)
		} else if err := workbook.WriteCSVFile(*finalCSVPtr, results); err != nil {
			appLogger.Error(component, "Failed to write consolidated CSV: path=%s error=%v", *finalCSVPtr, err)
		} else {
			appLogger.Info(component, "Consolidated CSV written: path=%s contracts=%d", *finalCSVPtr, len(results))
		}
	}

	stats := monitor.Stop()
	appLogger.Info(component, "Application completed: batch=%s success=%d failure=%d skipped=%d duration=%.2f seconds peakGoroutines=%d peakMemoryMB=%d",
		summary.BatchID, summary.Succeeded, summary.Failed, summary.Skipped, time.Since(startingTime).Seconds(), stats.PeakGoroutines, stats.PeakMemoryMB)
}
