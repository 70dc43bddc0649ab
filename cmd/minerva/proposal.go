package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mercator-hq/minerva/pkg/governance"
	"mercator-hq/minerva/pkg/governance/proposal"
)

var (
	draftFile           string
	proposalJustify     string
	proposalNotify      []string
	proposalBy          string
	proposalScopeFilter string
)

var proposalCmd = &cobra.Command{
	Use:   "proposal",
	Short: "Manage policy drafts and proposals",
}

var proposalDraftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Create a policy draft from a YAML file",
	Long: `Draft reads a draft definition, compiles its rules to validate them,
and stores it. A draft that compiles is saved as validated and can be
submitted; one that fails is saved as validation_failed.

The file format:

  name: Security hardening
  intent:
    description: forbid eval in all team code
    severity: warn
  rules:
    - id: team-no-eval
      type: deny
      target: code
      operator: must_not_match
      value: 'eval\('
      severity: warn`,
	RunE: runProposalDraft,
}

var proposalSubmitCmd = &cobra.Command{
	Use:   "submit <draft-id>",
	Short: "Submit a validated draft for approval",
	Args:  cobra.ExactArgs(1),
	RunE:  runProposalSubmit,
}

var proposalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending proposals",
	RunE:  runProposalList,
}

func init() {
	proposalDraftCmd.Flags().StringVar(&draftFile, "file", "", "draft definition file (required)")
	proposalDraftCmd.Flags().StringVar(&proposalBy, "by", "", "author identity (required)")
	proposalDraftCmd.MarkFlagRequired("file")
	proposalDraftCmd.MarkFlagRequired("by")

	proposalSubmitCmd.Flags().StringVar(&proposalJustify, "justification", "", "why this rule set should become active")
	proposalSubmitCmd.Flags().StringSliceVar(&proposalNotify, "notify", nil, "extra identities to notify, repeatable")
	proposalSubmitCmd.Flags().StringVar(&proposalBy, "by", "", "proposer identity (required)")
	proposalSubmitCmd.MarkFlagRequired("by")

	proposalListCmd.Flags().StringVar(&proposalScopeFilter, "scope", "", "filter by scope (company, org, team, project)")

	proposalCmd.AddCommand(proposalDraftCmd)
	proposalCmd.AddCommand(proposalSubmitCmd)
	proposalCmd.AddCommand(proposalListCmd)
	rootCmd.AddCommand(proposalCmd)
}

// draftDefinition is the on-disk YAML shape of a draft.
type draftDefinition struct {
	Name   string                  `yaml:"name"`
	Intent proposal.Intent         `yaml:"intent"`
	Rules  []governance.PolicyRule `yaml:"rules"`
}

func runProposalDraft(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(draftFile)
	if err != nil {
		return fmt.Errorf("reading draft file: %w", err)
	}

	var def draftDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return fmt.Errorf("parsing draft file: %w", err)
	}
	if def.Name == "" {
		return fmt.Errorf("draft name cannot be empty")
	}
	if len(def.Rules) == 0 {
		return fmt.Errorf("draft declares no rules")
	}

	status := proposal.DraftValidated
	for i := range def.Rules {
		if err := def.Rules[i].Compile(); err != nil {
			fmt.Fprintf(os.Stderr, "rule %s failed validation: %v\n", def.Rules[i].ID, err)
			status = proposal.DraftValidationFailed
		}
	}

	backend, err := buildBackend(cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	draft := &proposal.Draft{
		ID:        uuid.NewString(),
		Name:      def.Name,
		Rules:     def.Rules,
		Intent:    def.Intent,
		Status:    status,
		CreatedBy: proposalBy,
		CreatedAt: time.Now().UTC(),
	}
	if err := backend.SaveDraft(cmd.Context(), draft); err != nil {
		return err
	}

	fmt.Printf("draft %s saved with status %s\n", draft.ID, draft.Status)
	return nil
}

func runProposalSubmit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}

	backend, err := buildBackend(cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	orch := proposal.NewOrchestrator(
		backend,
		cfg.Approval.ApproverMatrix(),
		proposal.NewLogNotifier(logger),
		logger,
	)

	p, err := orch.Propose(cmd.Context(), args[0], proposalJustify, proposalNotify, proposalBy)
	if err != nil {
		var notifyErr *proposal.NotificationError
		if p != nil && errors.As(err, &notifyErr) {
			fmt.Fprintf(os.Stderr, "warning: %v\n", notifyErr)
		} else {
			return err
		}
	}

	fmt.Printf("proposal %s created\n", p.ProposalID)
	fmt.Printf("scope:     %s (%s approval)\n", p.Scope, p.Workflow.Context.ApprovalMode)
	fmt.Printf("severity:  %s (%s risk)\n", p.Severity, p.Workflow.Context.RiskLevel)
	fmt.Printf("approvers: %v (%d required)\n", p.NotifiedApprovers, p.Workflow.Context.RequiredApprovals)
	fmt.Printf("expires:   %s\n", p.ExpiresAt.Format("2006-01-02 15:04 MST"))
	return nil
}

func runProposalList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}

	backend, err := buildBackend(cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	orch := proposal.NewOrchestrator(backend, cfg.Approval.ApproverMatrix(), proposal.NewLogNotifier(logger), logger)
	pending, err := orch.ListPending(cmd.Context(), proposal.Scope(proposalScopeFilter))
	if err != nil {
		return err
	}

	if len(pending) == 0 {
		fmt.Println("no pending proposals")
		return nil
	}
	for _, p := range pending {
		fmt.Printf("%-36s  %-8s  %-5s  %-30s  expires %s\n",
			p.ProposalID, p.Scope, p.Severity, p.Name,
			p.ExpiresAt.Format("2006-01-02"))
	}
	return nil
}
