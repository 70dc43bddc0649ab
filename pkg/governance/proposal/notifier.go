package proposal

import (
	"context"
	"log/slog"
)

// LogNotifier records notifications through structured logging. It stands
// in for a real delivery channel and never fails.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier constructs a notifier writing to the given logger. A nil
// logger falls back to slog.Default.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "proposal_notifier")}
}

// NotifyApprovers logs the approval request for each approver.
func (n *LogNotifier) NotifyApprovers(ctx context.Context, approvers []string, p *Proposal) error {
	n.logger.Info("approval requested",
		"proposal_id", p.ProposalID,
		"name", p.Name,
		"scope", string(p.Scope),
		"severity", string(p.Severity),
		"approvers", approvers,
		"expires_at", p.ExpiresAt)
	return nil
}

// NotifyProposer logs a status change back to the proposer.
func (n *LogNotifier) NotifyProposer(ctx context.Context, proposer string, p *Proposal, status string, comment string) error {
	n.logger.Info("proposal status changed",
		"proposal_id", p.ProposalID,
		"proposer", proposer,
		"status", status,
		"comment", comment)
	return nil
}
