package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/farxc/anexo_c_reconciler/internal/config"
	"github.com/farxc/anexo_c_reconciler/internal/db"
	"github.com/farxc/anexo_c_reconciler/internal/logger"
	"github.com/farxc/anexo_c_reconciler/internal/metrics"
	"github.com/farxc/anexo_c_reconciler/internal/store"
)

func main() {
	const component = "Main"

	bootLogger, err := logger.New(logger.LevelInfo, logger.FormatJSON)
	if err != nil {
		panic(err)
	}
	cfg, err := config.Load(".env")
	if err != nil {
		bootLogger.Fatal(component, "Configuration failed: error=%v", err)
	}

	appLogger, err := logger.New(logger.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	if err != nil {
		bootLogger.Fatal(component, "Logger setup failed: error=%v", err)
	}
	defer appLogger.Sync()

	database, err := db.New(cfg.DB.Addr, cfg.DB.MaxOpenConns, cfg.DB.MaxIdleConns, cfg.DB.MaxIdleTime)
	if err != nil {
		appLogger.Fatal(component, "Database connection failed: error=%v", err)
	}
	defer database.Close()
	if err := db.EnsureSchema(context.Background(), database); err != nil {
		appLogger.Fatal(component, "Database schema failed: error=%v", err)
	}
	appLogger.Info(component, "Database connection pool established")

	storage := store.NewStorage(database)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	batches := &launcher{ctx: ctx, cfg: cfg, storage: storage, metrics: m, appLogger: appLogger}

	app := &application{
		config:      cfg,
		store:       *storage,
		appLogger:   appLogger,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		gatherer:    registry,
		batches:     batches,
		launchLimit: 10,
	}

	mux := app.mount()

	if err := app.run(ctx, mux); err != nil {
		appLogger.Fatal(component, "Server stopped: error=%v", err)
	}
	batches.Wait()
	appLogger.Info(component, "Server stopped")
}
