package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/minerva/pkg/config"
	"mercator-hq/minerva/pkg/governance"
	"mercator-hq/minerva/pkg/governance/drift"
	driftstorage "mercator-hq/minerva/pkg/governance/drift/storage"
	"mercator-hq/minerva/pkg/governance/loader"
	"mercator-hq/minerva/pkg/hierarchy"
)

var (
	driftTenant      string
	driftUnit        string
	driftLayer       string
	driftContentFile string
	driftDeps        []string
	driftFiles       []string
	driftImports     []string
)

var driftCmd = &cobra.Command{
	Use:   "drift",
	Short: "Check and inspect policy drift for units",
}

var driftCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a drift check for a unit",
	Long: `Check validates the unit's context against its effective policy set,
scores the violations, and persists the drift result. Results scoring
above the review threshold, or containing any blocking violation, are
flagged for manual review.`,
	RunE: runDriftCheck,
}

var driftLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the most recent drift result for a unit",
	RunE:  runDriftLatest,
}

func init() {
	for _, cmd := range []*cobra.Command{driftCheckCmd, driftLatestCmd} {
		cmd.Flags().StringVar(&driftTenant, "tenant", "", "tenant id (required)")
		cmd.Flags().StringVar(&driftUnit, "unit", "", "unit id (required)")
		cmd.MarkFlagRequired("tenant")
		cmd.MarkFlagRequired("unit")
	}

	driftCheckCmd.Flags().StringVar(&driftLayer, "layer", "project", "the unit's layer (company, org, team, project)")
	driftCheckCmd.Flags().StringVar(&driftContentFile, "content-file", "", "file whose contents are checked as code")
	driftCheckCmd.Flags().StringSliceVar(&driftDeps, "dep", nil, "declared dependency (name or name@version), repeatable")
	driftCheckCmd.Flags().StringSliceVar(&driftFiles, "file", nil, "file path present in the unit, repeatable")
	driftCheckCmd.Flags().StringSliceVar(&driftImports, "import", nil, "import path used by the unit, repeatable")

	driftCmd.AddCommand(driftCheckCmd)
	driftCmd.AddCommand(driftLatestCmd)
	rootCmd.AddCommand(driftCmd)
}

// buildDriftStore constructs the configured drift result store.
func buildDriftStore(cfg *config.Config) (drift.Storage, error) {
	switch cfg.Drift.Backend {
	case "memory":
		return driftstorage.NewMemoryStorage(), nil
	case "sqlite":
		sqliteCfg := driftstorage.DefaultSQLiteConfig()
		sqliteCfg.Path = cfg.Drift.SQLitePath
		return driftstorage.NewSQLiteStorage(sqliteCfg)
	default:
		return nil, fmt.Errorf("unknown drift backend %q", cfg.Drift.Backend)
	}
}

func runDriftCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}

	layer, err := governance.ParseLayer(driftLayer)
	if err != nil {
		return err
	}

	engine := governance.NewEngine(logger)
	mgr := loader.NewManager(cfg.Policy.Path, engine, nil, logger)
	if err := mgr.Load(); err != nil {
		return err
	}

	dir := hierarchy.NewMemoryDirectory()
	if err := dir.AddUnit(&hierarchy.Unit{ID: driftUnit, Name: driftUnit, Layer: layer}); err != nil {
		return fmt.Errorf("registering unit: %w", err)
	}

	store, err := buildDriftStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	evalCtx := &governance.Context{
		Dependencies: driftDeps,
		Files:        driftFiles,
		Imports:      driftImports,
	}
	if driftContentFile != "" {
		data, err := os.ReadFile(driftContentFile)
		if err != nil {
			return fmt.Errorf("reading content file: %w", err)
		}
		evalCtx.Content = string(data)
	}

	svc := drift.NewService(engine, dir, store, logger)
	result, err := svc.CheckDrift(cmd.Context(), driftTenant, driftUnit, evalCtx)
	if err != nil {
		return err
	}

	printDriftResult(result)
	return nil
}

func runDriftLatest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := buildDriftStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := store.LatestResult(cmd.Context(), driftTenant, driftUnit)
	if err != nil {
		return err
	}

	printDriftResult(result)
	return nil
}

func printDriftResult(r *drift.Result) {
	fmt.Printf("result:        %s\n", r.ID)
	fmt.Printf("unit:          %s/%s\n", r.TenantID, r.ProjectID)
	fmt.Printf("drift score:   %.4f\n", r.DriftScore)
	fmt.Printf("confidence:    %.4f\n", r.Confidence)
	fmt.Printf("manual review: %v\n", r.RequiresManualReview)
	fmt.Printf("checked at:    %s\n", r.Timestamp.Format("2006-01-02 15:04:05 MST"))
	if len(r.Violations) > 0 {
		fmt.Printf("violations (%d):\n", len(r.Violations))
		for _, v := range r.Violations {
			fmt.Printf("  %-5s  %-30s  %s\n", v.Severity, v.RuleID, v.Message)
		}
	}
	if len(r.SuppressedViolations) > 0 {
		fmt.Printf("suppressed (%d):\n", len(r.SuppressedViolations))
		for _, v := range r.SuppressedViolations {
			fmt.Printf("  %-5s  %-30s  %s\n", v.Severity, v.RuleID, v.Message)
		}
	}
}
