package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/minerva/pkg/governance"
	"mercator-hq/minerva/pkg/governance/loader"
)

var (
	validateLayer       string
	validateContentFile string
	validateDeps        []string
	validateFiles       []string
	validateImports     []string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a context against the policies for a layer",
	Long: `Validate loads the configured policies and evaluates a submitted
context at the given layer. All rules from the layer's ancestors and the
layer itself apply.

The command exits non-zero when the context violates any rule.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateLayer, "layer", "project", "target layer (company, org, team, project)")
	validateCmd.Flags().StringVar(&validateContentFile, "content-file", "", "file whose contents are validated as code")
	validateCmd.Flags().StringSliceVar(&validateDeps, "dep", nil, "declared dependency (name or name@version), repeatable")
	validateCmd.Flags().StringSliceVar(&validateFiles, "file", nil, "file path present in the unit, repeatable")
	validateCmd.Flags().StringSliceVar(&validateImports, "import", nil, "import path used by the unit, repeatable")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}

	layer, err := governance.ParseLayer(validateLayer)
	if err != nil {
		return err
	}

	engine := governance.NewEngine(logger)
	mgr := loader.NewManager(cfg.Policy.Path, engine, &loader.Config{
		MaxFileSize:       cfg.Policy.MaxFileSize,
		AllowedExtensions: []string{".yaml", ".yml"},
		SkipHidden:        true,
	}, logger)
	if err := mgr.Load(); err != nil {
		return err
	}

	evalCtx := &governance.Context{
		Dependencies: validateDeps,
		Files:        validateFiles,
		Imports:      validateImports,
	}
	if validateContentFile != "" {
		data, err := os.ReadFile(validateContentFile)
		if err != nil {
			return fmt.Errorf("reading content file: %w", err)
		}
		evalCtx.Content = string(data)
	}

	result, err := engine.Validate(layer, evalCtx)
	if err != nil {
		return err
	}

	if result.IsValid {
		fmt.Printf("valid: %d rules evaluated, no violations\n", result.RulesEvaluated)
		return nil
	}

	for _, v := range result.Violations {
		fmt.Printf("%-5s  %-30s  %s\n", v.Severity, v.RuleID, v.Message)
	}
	return fmt.Errorf("validation failed with %d violations", len(result.Violations))
}
