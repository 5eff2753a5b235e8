package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"visitor-gate/internal/domain/approvals"
	"visitor-gate/internal/domain/guardrequests"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

var ErrDuplicate = errors.New("journal entry already exists")

type submissionRepo struct {
	mu   sync.RWMutex
	byID map[string]guardrequests.Submission
}

func NewSubmissionRepo() guardrequests.SubmissionRepository {
	return &submissionRepo{
		byID: make(map[string]guardrequests.Submission),
	}
}

func (r *submissionRepo) RecordSubmission(ctx context.Context, s guardrequests.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(s.ID) == "" {
		return errors.New("submission id required")
	}
	if _, exists := r.byID[s.ID]; exists {
		return ErrDuplicate
	}
	r.byID[s.ID] = s
	return nil
}

// ListSubmissions devuelve las más recientes primero.
func (r *submissionRepo) ListSubmissions(ctx context.Context, limit int) ([]guardrequests.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]guardrequests.Submission, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			// los ids son ULID: ordenan por tiempo
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	limit = clampLimit(limit)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type decisionRepo struct {
	mu   sync.RWMutex
	byID map[string]approvals.Decision
}

func NewDecisionRepo() approvals.DecisionRepository {
	return &decisionRepo{
		byID: make(map[string]approvals.Decision),
	}
}

func (r *decisionRepo) RecordDecision(ctx context.Context, d approvals.Decision) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(d.ID) == "" {
		return errors.New("decision id required")
	}
	if _, exists := r.byID[d.ID]; exists {
		return ErrDuplicate
	}
	r.byID[d.ID] = d
	return nil
}

// ListDecisions devuelve las decisiones de approvalID en orden cronológico.
// approvalID vacío lista todas.
func (r *decisionRepo) ListDecisions(ctx context.Context, approvalID string) ([]approvals.Decision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	approvalID = strings.TrimSpace(approvalID)
	out := make([]approvals.Decision, 0)
	for _, d := range r.byID {
		if approvalID != "" && d.ApprovalID != approvalID {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
