package statuscheck

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"visitor-gate/internal/domain/approvals"
	"visitor-gate/internal/platform/httpclient"
)

type fakeAuthority struct {
	results  []Visitor
	err      error
	status   approvals.Approval
	stErr    error
	searches int

	expected []approvals.Approval
	expErr   error
}

func (f *fakeAuthority) ExpectedToday(ctx context.Context) ([]approvals.Approval, error) {
	return f.expected, f.expErr
}

func (f *fakeAuthority) Search(ctx context.Context, query string) ([]Visitor, error) {
	f.searches++
	return f.results, f.err
}

func (f *fakeAuthority) CheckStatus(ctx context.Context, visitorID string) (approvals.Approval, error) {
	return f.status, f.stErr
}

func newTestService(auth Authority, now time.Time) *Service {
	s := NewService(auth)
	s.now = func() time.Time { return now }
	return s
}

func TestService_Search_EmptyQuery_NoNetwork(t *testing.T) {
	auth := &fakeAuthority{}
	s := newTestService(auth, time.Now())

	out, err := s.Search(context.Background(), "   ")
	if err != nil || out.Found {
		t.Fatalf("expected neutral not-found, got %+v %v", out, err)
	}
	if auth.searches != 0 {
		t.Fatalf("no search expected")
	}
}

func TestService_Search_NoResults_IsNotAnError(t *testing.T) {
	s := newTestService(&fakeAuthority{}, time.Now())

	out, err := s.Search(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if out.Found {
		t.Fatalf("expected not found")
	}
}

func TestService_Search_TransportErrorIsDistinct(t *testing.T) {
	s := newTestService(&fakeAuthority{err: errors.New("dial tcp: refused")}, time.Now())

	if _, err := s.Search(context.Background(), "x"); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestService_Search_PrefersExactName_AndResolvesWindow(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	auth := &fakeAuthority{results: []Visitor{
		{ID: "1", Name: "Ahmed Ali", Latest: &approvals.Approval{ID: "a1", Status: approvals.RawApproved, ValidUntil: &future}},
		{ID: "2", Name: "ahmed", Latest: &approvals.Approval{ID: "a2", Status: approvals.RawApproved, ValidUntil: &past, AptNumber: "501"}},
	}}
	s := newTestService(auth, now)

	out, err := s.Search(context.Background(), "Ahmed")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !out.Found || out.Visitor.ID != "2" {
		t.Fatalf("expected exact match id 2, got %+v", out)
	}
	if out.Status != approvals.StatusExpired {
		t.Fatalf("expected EXPIRED, got %s", out.Status)
	}
}

func TestService_Search_MatchesApartment(t *testing.T) {
	auth := &fakeAuthority{results: []Visitor{
		{ID: "1", Name: "Sara", Latest: &approvals.Approval{AptNumber: "300", Status: approvals.RawPending}},
		{ID: "2", Name: "Omar", Latest: &approvals.Approval{AptNumber: "501", Status: approvals.RawDenied}},
	}}
	s := newTestService(auth, time.Now())

	out, _ := s.Search(context.Background(), "501")
	if out.Visitor.ID != "2" || out.Status != approvals.StatusDenied {
		t.Fatalf("expected apartment match, got %+v", out)
	}
}

func TestService_Search_VisitorWithoutApproval(t *testing.T) {
	auth := &fakeAuthority{results: []Visitor{{ID: "7", Name: "Lina"}}}
	s := newTestService(auth, time.Now())

	out, _ := s.Search(context.Background(), "li")
	if !out.Found || out.Approval != nil || out.Status != "" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestService_VisitorStatus_NotFoundIsNeutral(t *testing.T) {
	auth := &fakeAuthority{stErr: fmt.Errorf("upstream: %w", &httpclient.HTTPError{StatusCode: http.StatusNotFound})}
	s := newTestService(auth, time.Now())

	out, err := s.VisitorStatus(context.Background(), "v1")
	if err != nil || out.Found {
		t.Fatalf("expected neutral not-found, got %+v %v", out, err)
	}
}

func TestService_VisitorStatus_Approved(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	vu := now
	auth := &fakeAuthority{status: approvals.Approval{ID: "a1", VisitorName: "Ahmed", Status: approvals.RawApproved, ValidUntil: &vu}}
	s := newTestService(auth, now)

	out, err := s.VisitorStatus(context.Background(), "v1")
	if err != nil {
		t.Fatalf("VisitorStatus: %v", err)
	}
	if out.Status != approvals.StatusApproved || out.Visitor.Name != "Ahmed" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestService_ExpectedToday_ResolvesWindows(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	auth := &fakeAuthority{expected: []approvals.Approval{
		{ID: "1", VisitorName: "A", Status: approvals.RawApproved, ValidUntil: &future},
		{ID: "2", VisitorName: "B", Status: approvals.RawApproved, ValidUntil: &past},
		{ID: "3", VisitorName: "C", Status: approvals.RawPending},
		{ID: "4", VisitorName: "D", Status: approvals.RawDenied},
		{ID: "5", VisitorName: "E", Status: approvals.RawApproved, ValidUntil: &now},
	}}
	s := newTestService(auth, now)

	got, err := s.ExpectedToday(context.Background())
	if err != nil {
		t.Fatalf("ExpectedToday: %v", err)
	}
	want := map[string]approvals.EffectiveStatus{
		"1": approvals.StatusApproved,
		"2": approvals.StatusExpired,
		"3": approvals.StatusPending,
		"5": approvals.StatusApproved,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d arrivals, got %+v", len(want), got)
	}
	for _, a := range got {
		if want[a.Approval.ID] != a.Status {
			t.Fatalf("approval %s: expected %s, got %s", a.Approval.ID, want[a.Approval.ID], a.Status)
		}
	}
	if got[0].Approval.ID != "1" || got[2].Approval.ID != "3" {
		t.Fatalf("order must follow the authority, got %+v", got)
	}
}

func TestService_ExpectedToday_UpstreamError(t *testing.T) {
	boom := errors.New("down")
	s := newTestService(&fakeAuthority{expErr: boom}, time.Now())

	if _, err := s.ExpectedToday(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
