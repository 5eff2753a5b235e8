package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"visitor-gate/internal/domain/approvals"
	"visitor-gate/internal/domain/guardrequests"
)

func TestEnsureSchema_CreatesTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS gate_submissions").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS gate_submissions_created_at_idx").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS gate_decisions").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS gate_decisions_approval_idx").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSubmissionsRepo_RecordAndList(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	repo := NewSubmissionsRepo(db)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := guardrequests.Submission{
		ID:             "01HZX",
		RequestID:      "req-1",
		ApprovalID:     "12",
		VisitorID:      "7",
		VisitorName:    "Ana",
		AptNumber:      "4B",
		FaceDetected:   true,
		PhotoPersisted: false,
		CreatedAt:      at,
	}

	mock.ExpectExec("INSERT INTO gate_submissions").
		WithArgs(s.ID, s.RequestID, s.ApprovalID, s.VisitorID, s.VisitorName, s.AptNumber, true, false, at).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.RecordSubmission(context.Background(), s); err != nil {
		t.Fatalf("RecordSubmission: %v", err)
	}

	cols := []string{"id", "request_id", "approval_id", "visitor_id", "visitor_name", "apt_number", "face_detected", "photo_persisted", "created_at"}
	mock.ExpectQuery("SELECT .* FROM gate_submissions").
		WithArgs(200).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(s.ID, s.RequestID, s.ApprovalID, s.VisitorID, s.VisitorName, s.AptNumber, true, false, at))

	got, err := repo.ListSubmissions(context.Background(), 1000)
	if err != nil {
		t.Fatalf("ListSubmissions: %v", err)
	}
	if len(got) != 1 || got[0] != s {
		t.Fatalf("unexpected submissions: %+v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDecisionsRepo_NullableValidUntil(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	repo := NewDecisionsRepo(db)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	until := at.Add(90 * time.Minute)

	mock.ExpectExec("INSERT INTO gate_decisions").
		WithArgs("d1", "12", "3", "approve", sqlmock.AnyArg(), "", at).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.RecordDecision(context.Background(), approvals.Decision{
		ID:         "d1",
		ApprovalID: "12",
		ResidentID: "3",
		Action:     approvals.ActionApprove,
		ValidUntil: &until,
		CreatedAt:  at,
	})
	if err != nil {
		t.Fatalf("RecordDecision: %v", err)
	}

	cols := []string{"id", "approval_id", "resident_id", "action", "valid_until", "reason", "created_at"}
	mock.ExpectQuery("SELECT .* FROM gate_decisions\\s+WHERE approval_id = \\$1").
		WithArgs("12").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("d1", "12", "3", "approve", until, "", at).
			AddRow("d2", "12", "3", "deny", nil, "unknown visitor", at.Add(time.Minute)))

	got, err := repo.ListDecisions(context.Background(), "12")
	if err != nil {
		t.Fatalf("ListDecisions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 decisions, got %d", len(got))
	}
	if got[0].ValidUntil == nil || !got[0].ValidUntil.Equal(until) {
		t.Fatalf("expected valid_until %v, got %v", until, got[0].ValidUntil)
	}
	if got[1].ValidUntil != nil || got[1].Action != approvals.ActionDeny || got[1].Reason != "unknown visitor" {
		t.Fatalf("unexpected deny decision: %+v", got[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
