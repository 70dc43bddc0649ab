package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/minerva/pkg/governance"
	driftretention "mercator-hq/minerva/pkg/governance/drift/retention"
	"mercator-hq/minerva/pkg/governance/loader"
	"mercator-hq/minerva/pkg/telemetry/metrics"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the governance service",
	Long: `Serve loads the configured policies, watches them for changes, runs
the drift retention scheduler, and exposes metrics and health endpoints
over HTTP. It runs until interrupted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "127.0.0.1:9090", "address for the metrics/health endpoint")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := governance.NewEngine(logger)

	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(nil)
		engine.SetObserver(collector)
	}

	driftStore, err := buildDriftStore(cfg)
	if err != nil {
		return err
	}
	defer driftStore.Close()

	pruner := driftretention.NewPruner(driftStore, &driftretention.Config{
		RetentionDays: cfg.Drift.Retention.Days,
		PruneSchedule: cfg.Drift.Retention.Schedule,
	})
	scheduler := driftretention.NewScheduler(pruner)
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("starting retention scheduler: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	if collector != nil {
		mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
	}

	server := &http.Server{
		Addr:         serveListen,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http endpoint listening", "addr", serveListen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	mgr := loader.NewManager(cfg.Policy.Path, engine, &loader.Config{
		MaxFileSize:       cfg.Policy.MaxFileSize,
		AllowedExtensions: []string{".yaml", ".yml"},
		SkipHidden:        true,
	}, logger)

	if cfg.Policy.Watch {
		go func() { errCh <- mgr.Watch(ctx) }()
	} else {
		if err := mgr.Load(); err != nil {
			return err
		}
	}

	logger.Info("governance service started",
		"policy_path", cfg.Policy.Path,
		"watch", cfg.Policy.Watch,
		"drift_backend", cfg.Drift.Backend)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			stop()
			shutdown(server, logger)
			return err
		}
	}

	logger.Info("shutting down")
	shutdown(server, logger)
	return nil
}

func shutdown(server *http.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
}
