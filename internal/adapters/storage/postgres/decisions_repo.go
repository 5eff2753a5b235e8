package postgres

import (
	"context"
	"database/sql"
	"strings"

	"visitor-gate/internal/domain/approvals"
)

type DecisionsRepo struct {
	db *sql.DB
}

func NewDecisionsRepo(db *sql.DB) *DecisionsRepo {
	return &DecisionsRepo{db: db}
}

func (r *DecisionsRepo) RecordDecision(ctx context.Context, d approvals.Decision) error {
	var validUntil sql.NullTime
	if d.ValidUntil != nil {
		validUntil = sql.NullTime{Time: *d.ValidUntil, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO gate_decisions (
			id, approval_id, resident_id,
			action, valid_until, reason,
			created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		d.ID,
		d.ApprovalID,
		d.ResidentID,
		string(d.Action),
		validUntil,
		d.Reason,
		d.CreatedAt,
	)
	return err
}

// ListDecisions con approvalID vacío lista las últimas 200.
func (r *DecisionsRepo) ListDecisions(ctx context.Context, approvalID string) ([]approvals.Decision, error) {
	approvalID = strings.TrimSpace(approvalID)

	const cols = `
		SELECT
			id, approval_id, resident_id,
			action, valid_until, reason,
			created_at
		FROM gate_decisions
	`

	var (
		rows *sql.Rows
		err  error
	)
	if approvalID == "" {
		rows, err = r.db.QueryContext(ctx, cols+` ORDER BY created_at DESC LIMIT 200`)
	} else {
		rows, err = r.db.QueryContext(ctx, cols+` WHERE approval_id = $1 ORDER BY created_at ASC`, approvalID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]approvals.Decision, 0)
	for rows.Next() {
		var d approvals.Decision
		var action string
		var validUntil sql.NullTime

		if err := rows.Scan(
			&d.ID,
			&d.ApprovalID,
			&d.ResidentID,
			&action,
			&validUntil,
			&d.Reason,
			&d.CreatedAt,
		); err != nil {
			return nil, err
		}

		d.Action = approvals.DecisionAction(action)
		if validUntil.Valid {
			t := validUntil.Time.UTC()
			d.ValidUntil = &t
		}
		out = append(out, d)
	}

	return out, rows.Err()
}
