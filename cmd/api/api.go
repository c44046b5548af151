package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/farxc/anexo_c_reconciler/internal/config"
	"github.com/farxc/anexo_c_reconciler/internal/logger"
	"github.com/farxc/anexo_c_reconciler/internal/store"
)

type application struct {
	config    *config.Config
	store     store.Storage
	appLogger *logger.Logger
	validate  *validator.Validate
	gatherer  prometheus.Gatherer
	batches   batchLauncher

	// requests per minute accepted by POST /v1/reconciliations per client IP
	launchLimit int
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// Set a timeout value on the request context (ctx), that will signal
	// through ctx.Done() that the request has timed out and further
	// processing should be stopped.
	r.Use(middleware.Timeout(60 * time.Second))

	r.Handle("/metrics", promhttp.HandlerFor(app.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)
		r.Route("/runs", func(r chi.Router) {
			r.Get("/history", app.handleGetRunHistory)
			r.Get("/batches/{batchID}", app.handleGetBatch)
			r.Get("/{contract}/lines", app.handleGetContractLines)
		})
		r.With(httprate.LimitByIP(app.launchLimit, time.Minute)).
			Post("/reconciliations", app.handleCreateReconciliation)
	})

	return r
}

// run serves until ctx is cancelled and then drains open requests.
func (app *application) run(ctx context.Context, mux http.Handler) error {
	const component = "Server"

	srv := &http.Server{
		Addr:         app.config.Addr,
		Handler:      mux,
		WriteTimeout: time.Second * 120,
		ReadTimeout:  time.Second * 40,
		IdleTimeout:  time.Minute,
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		app.appLogger.Info(component, "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	app.appLogger.Info(component, "Server started on %s", app.config.Addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-shutdownErr
}
