package approvals

import "context"

// DecisionRepository es el journal local de decisiones del resident.
type DecisionRepository interface {
	RecordDecision(ctx context.Context, d Decision) error
	ListDecisions(ctx context.Context, approvalID string) ([]Decision, error)
}
