// cmd/main.go is the application entry point.
// It loads configuration, wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/vehicle-rental-registry/internal/config"
	"github.com/Shivanand-hulikatti/vehicle-rental-registry/internal/database"
	"github.com/Shivanand-hulikatti/vehicle-rental-registry/internal/engine"
	"github.com/Shivanand-hulikatti/vehicle-rental-registry/internal/handler"
	"github.com/Shivanand-hulikatti/vehicle-rental-registry/internal/logger"
	"github.com/Shivanand-hulikatti/vehicle-rental-registry/internal/metrics"
	"github.com/Shivanand-hulikatti/vehicle-rental-registry/internal/repository"
	"github.com/Shivanand-hulikatti/vehicle-rental-registry/internal/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:           "rentald",
		Short:         "Vehicle rental registry HTTP server",
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML or JSON config file")
	return cmd
}

func run(ctx context.Context, configPath string) error {
	// ── 1. Configuration and logging ─────────────────────────────────────
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	log := logger.New("main")

	// ── 2. Engine, optionally restored from PostgreSQL ────────────────────
	company := engine.NewCompany(logger.New("engine"))
	var store service.SnapshotStore
	if cfg.Database.Enabled {
		pool, err := database.NewPool(ctx, cfg.Database, logger.New("database"))
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer pool.Close()
		if err := database.EnsureSchema(ctx, pool); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		repo := repository.NewSnapshotRepository(pool)
		snap, err := repo.Load(ctx)
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		if err := company.Restore(*snap); err != nil {
			return fmt.Errorf("restore snapshot: %w", err)
		}
		log.Infof("restored %d vehicles, %d customers, %d rentals",
			len(snap.Vehicles), len(snap.Customers), len(snap.Rentals))
		store = repo
	}

	// ── 3. Wire up layers ────────────────────────────────────────────────
	var rec metrics.Recorder = metrics.NopRecorder{}
	reg := prometheus.NewRegistry()
	if cfg.Metrics.Enabled {
		prom, err := metrics.NewPromRecorder(reg)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		prom.SetActiveRentals(company.ActiveRentalCount())
		rec = prom
	}
	svc := service.NewRentalService(company, store, rec, logger.New("service"))
	rentalHandler := handler.NewRentalHandler(svc)

	// ── 4. Build the router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(handler.Logger(logger.New("http")))
	r.Use(handler.CORS)

	r.Get("/health", handler.HealthCheck)
	rentalHandler.Routes(r)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	// ── 5. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
		IdleTimeout:  cfg.Server.IdleTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Infof("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Infof("server stopped")
	return nil
}
