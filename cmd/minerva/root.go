package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/minerva/pkg/config"
	"mercator-hq/minerva/pkg/storage"
	"mercator-hq/minerva/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "minerva",
	Short: "Minerva - hierarchical policy governance engine",
	Long: `Minerva is a multi-tenant hierarchical policy governance engine.

Organizations define compliance, style, and security rules at nested
scopes (company, org, team, project). Minerva resolves which rules apply
to a unit, evaluates submitted context against them, scores policy drift,
and manages the proposal lifecycle by which new rule sets become active.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.SilenceUsage = true
}

// loadConfig loads configuration with environment overrides. A missing
// config file falls back to defaults so single commands work out of the
// box.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		return config.NewDefaultConfig(), nil
	}
	return config.LoadConfigWithEnvOverrides(cfgFile)
}

// buildLogger builds the process logger from configuration, honoring the
// --verbose flag.
func buildLogger(cfg *config.Config) (*slog.Logger, error) {
	logCfg := cfg.Telemetry.Logging
	if verbose {
		logCfg.Level = "debug"
	}
	return logging.New(logCfg, os.Stderr)
}

// buildBackend constructs the configured governance storage backend.
func buildBackend(cfg *config.Config) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return storage.NewMemoryBackend(), nil
	case "sqlite":
		return storage.NewSQLiteBackendWithConfig(storage.SQLiteBackendConfig{
			DBPath:      cfg.Storage.SQLitePath,
			BusyTimeout: cfg.Storage.BusyTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
