package postgres

import (
	"context"
	"database/sql"

	"visitor-gate/internal/domain/guardrequests"
)

type SubmissionsRepo struct {
	db *sql.DB
}

func NewSubmissionsRepo(db *sql.DB) *SubmissionsRepo {
	return &SubmissionsRepo{db: db}
}

func (r *SubmissionsRepo) RecordSubmission(ctx context.Context, s guardrequests.Submission) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO gate_submissions (
			id, request_id,
			approval_id, visitor_id,
			visitor_name, apt_number,
			face_detected, photo_persisted,
			created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		s.ID,
		s.RequestID,
		s.ApprovalID,
		s.VisitorID,
		s.VisitorName,
		s.AptNumber,
		s.FaceDetected,
		s.PhotoPersisted,
		s.CreatedAt,
	)
	return err
}

func (r *SubmissionsRepo) ListSubmissions(ctx context.Context, limit int) ([]guardrequests.Submission, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, request_id,
			approval_id, visitor_id,
			visitor_name, apt_number,
			face_detected, photo_persisted,
			created_at
		FROM gate_submissions
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]guardrequests.Submission, 0)
	for rows.Next() {
		var s guardrequests.Submission
		if err := rows.Scan(
			&s.ID,
			&s.RequestID,
			&s.ApprovalID,
			&s.VisitorID,
			&s.VisitorName,
			&s.AptNumber,
			&s.FaceDetected,
			&s.PhotoPersisted,
			&s.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}

	return out, rows.Err()
}
