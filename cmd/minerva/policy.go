package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/minerva/pkg/governance/loader"
)

var policyPath string

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Lint and inspect policy files",
}

var policyLintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate policy files without loading them into an engine",
	Long: `Lint parses and compiles every policy file under the given path and
reports files that fail to load, parse, or compile.`,
	RunE: runPolicyLint,
}

var policyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the policies defined under a path",
	RunE:  runPolicyList,
}

func init() {
	for _, cmd := range []*cobra.Command{policyLintCmd, policyListCmd} {
		cmd.Flags().StringVar(&policyPath, "path", "", "policy file or directory (defaults to the configured path)")
	}
	policyCmd.AddCommand(policyLintCmd)
	policyCmd.AddCommand(policyListCmd)
	rootCmd.AddCommand(policyCmd)
}

func resolvePolicyPath() (string, error) {
	if policyPath != "" {
		return policyPath, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.Policy.Path, nil
}

func runPolicyLint(cmd *cobra.Command, args []string) error {
	path, err := resolvePolicyPath()
	if err != nil {
		return err
	}

	policies, err := loader.NewLoader(nil).LoadPath(path)
	if err != nil {
		return err
	}

	fmt.Printf("ok: %d policies compiled from %s\n", len(policies), path)
	return nil
}

func runPolicyList(cmd *cobra.Command, args []string) error {
	path, err := resolvePolicyPath()
	if err != nil {
		return err
	}

	policies, err := loader.NewLoader(nil).LoadPath(path)
	if err != nil {
		return err
	}

	for _, p := range policies {
		fmt.Printf("%-8s  %-9s  %-8s  %-30s  %d rules\n",
			p.Layer, p.Mode, p.MergeStrategy, p.ID, len(p.Rules))
	}
	return nil
}
