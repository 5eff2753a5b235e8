package approvals

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// -------------------------
// Fake authority
// -------------------------

type fakeAuthority struct {
	mu sync.Mutex

	pending []PendingApproval

	approveCalls int32
	denyCalls    int32
	approveGate  chan struct{} // si no es nil, Approve espera aquí
	approveErr   error
	denyErr      error

	lastValidUntil time.Time
	lastReason     string

	statuses []Approval // respuestas de CheckStatus en orden; la última se repite
	polls    int32
}

func (f *fakeAuthority) PendingApprovals(ctx context.Context, residentID string) ([]PendingApproval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]PendingApproval, len(f.pending))
	copy(out, f.pending)
	return out, nil
}

func (f *fakeAuthority) Approve(ctx context.Context, approvalID string, validUntil time.Time) error {
	atomic.AddInt32(&f.approveCalls, 1)
	if f.approveGate != nil {
		<-f.approveGate
	}
	f.mu.Lock()
	f.lastValidUntil = validUntil
	f.mu.Unlock()
	return f.approveErr
}

func (f *fakeAuthority) Deny(ctx context.Context, approvalID, reason string) error {
	atomic.AddInt32(&f.denyCalls, 1)
	f.mu.Lock()
	f.lastReason = reason
	f.mu.Unlock()
	return f.denyErr
}

func (f *fakeAuthority) CheckStatus(ctx context.Context, visitorID string) (Approval, error) {
	n := int(atomic.AddInt32(&f.polls, 1))
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statuses) == 0 {
		return Approval{}, errors.New("no status")
	}
	if n > len(f.statuses) {
		n = len(f.statuses)
	}
	return f.statuses[n-1], nil
}

type memDecisions struct {
	mu    sync.Mutex
	items []Decision
	err   error
}

func (m *memDecisions) RecordDecision(ctx context.Context, d Decision) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, d)
	return nil
}

func (m *memDecisions) ListDecisions(ctx context.Context, approvalID string) ([]Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Decision{}
	for _, d := range m.items {
		if d.ApprovalID == approvalID {
			out = append(out, d)
		}
	}
	return out, nil
}

func newControllerWith(t *testing.T, auth *fakeAuthority, dec DecisionRepository) *Controller {
	t.Helper()
	c := NewController("r1", auth, dec, nil)
	if _, err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

// -------------------------
// Tests
// -------------------------

func TestController_Refresh_KeepsArrivalOrder(t *testing.T) {
	auth := &fakeAuthority{pending: []PendingApproval{{ID: "b"}, {ID: "a"}, {ID: "c"}, {ID: "a"}}}
	c := newControllerWith(t, auth, nil)

	got := c.Pending()
	if len(got) != 3 || got[0].ID != "b" || got[1].ID != "a" || got[2].ID != "c" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestController_Approve_SecondCallWhileInFlight_IsRejected(t *testing.T) {
	gate := make(chan struct{})
	auth := &fakeAuthority{
		pending:     []PendingApproval{{ID: "ar1"}},
		approveGate: gate,
	}
	c := newControllerWith(t, auth, nil)
	vu := time.Now().Add(90 * time.Minute)

	errCh := make(chan error, 1)
	go func() { errCh <- c.Approve(context.Background(), "ar1", vu) }()

	waitFor(t, func() bool { return c.IsBusy("ar1") })

	if err := c.Approve(context.Background(), "ar1", vu); !errors.Is(err, ErrInFlight) {
		t.Fatalf("expected ErrInFlight, got %v", err)
	}
	if err := c.Deny(context.Background(), "ar1", ""); !errors.Is(err, ErrInFlight) {
		t.Fatalf("expected ErrInFlight for deny, got %v", err)
	}
	if n := atomic.LoadInt32(&auth.approveCalls); n != 1 {
		t.Fatalf("expected exactly 1 network call, got %d", n)
	}
	if atomic.LoadInt32(&auth.denyCalls) != 0 {
		t.Fatalf("deny must not reach the network")
	}

	close(gate)
	if err := <-errCh; err != nil {
		t.Fatalf("first approve: %v", err)
	}
	if len(c.Pending()) != 0 {
		t.Fatalf("expected ar1 removed after ack")
	}
	if c.IsBusy("ar1") {
		t.Fatalf("in-flight marker must be cleared")
	}
}

func TestController_Approve_FailureKeepsItem(t *testing.T) {
	auth := &fakeAuthority{
		pending:    []PendingApproval{{ID: "ar1"}},
		approveErr: errors.New("network down"),
	}
	c := newControllerWith(t, auth, nil)

	err := c.Approve(context.Background(), "ar1", time.Now().Add(time.Hour))
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(c.Pending()) != 1 {
		t.Fatalf("item must remain after failed approve")
	}
	if c.IsBusy("ar1") {
		t.Fatalf("in-flight marker must be cleared on failure")
	}
}

func TestController_Approve_NotInSet(t *testing.T) {
	auth := &fakeAuthority{}
	c := newControllerWith(t, auth, nil)

	err := c.Approve(context.Background(), "nope", time.Now().Add(time.Hour))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if atomic.LoadInt32(&auth.approveCalls) != 0 {
		t.Fatalf("no network call expected")
	}
}

func TestController_Approve_RequiresValidUntil(t *testing.T) {
	auth := &fakeAuthority{pending: []PendingApproval{{ID: "ar1"}}}
	c := newControllerWith(t, auth, nil)

	if err := c.Approve(context.Background(), "ar1", time.Time{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestController_Deny_PassesReason_AndJournals(t *testing.T) {
	auth := &fakeAuthority{pending: []PendingApproval{{ID: "ar1"}, {ID: "ar2"}}}
	dec := &memDecisions{}
	c := newControllerWith(t, auth, dec)

	if err := c.Deny(context.Background(), "ar2", "  unknown person "); err != nil {
		t.Fatalf("Deny: %v", err)
	}
	if auth.lastReason != "unknown person" {
		t.Fatalf("expected trimmed reason, got %q", auth.lastReason)
	}

	got := c.Pending()
	if len(got) != 1 || got[0].ID != "ar1" {
		t.Fatalf("expected only ar1 left, got %+v", got)
	}

	ds, _ := dec.ListDecisions(context.Background(), "ar2")
	if len(ds) != 1 || ds[0].Action != ActionDeny || ds[0].ResidentID != "r1" {
		t.Fatalf("unexpected journal: %+v", ds)
	}
}

func TestController_JournalFailure_DoesNotFailAction(t *testing.T) {
	auth := &fakeAuthority{pending: []PendingApproval{{ID: "ar1"}}}
	c := newControllerWith(t, auth, &memDecisions{err: errors.New("db down")})

	if err := c.Approve(context.Background(), "ar1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("expected success despite journal failure, got %v", err)
	}
}

func TestController_Refresh_DoesNotResurrectResolved(t *testing.T) {
	auth := &fakeAuthority{pending: []PendingApproval{{ID: "ar1"}, {ID: "ar2"}}}
	c := newControllerWith(t, auth, nil)

	if err := c.Approve(context.Background(), "ar1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	// fetch atrasado: la autoridad todavía lo lista
	items, err := c.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(items) != 1 || items[0].ID != "ar2" {
		t.Fatalf("resolved id came back: %+v", items)
	}
}

func TestController_Close_RejectsActions(t *testing.T) {
	auth := &fakeAuthority{pending: []PendingApproval{{ID: "ar1"}}}
	c := newControllerWith(t, auth, nil)
	c.Close()

	if err := c.Deny(context.Background(), "ar1", ""); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestController_Watch_RemovesOnTerminal(t *testing.T) {
	auth := &fakeAuthority{
		pending: []PendingApproval{{ID: "ar1", VisitorID: "v1"}},
		statuses: []Approval{
			{ID: "ar1", Status: RawPending},
			{ID: "ar1", Status: RawApproved},
		},
	}
	c := newControllerWith(t, auth, nil)

	p, err := c.Watch(context.Background(), "ar1", "v1", 10*time.Millisecond)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("watch did not finish")
	}
	if len(c.Pending()) != 0 {
		t.Fatalf("expected ar1 removed after terminal status")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met")
}

func TestController_Watch_DeniedOnThirdPoll_NoFourthPoll(t *testing.T) {
	auth := &fakeAuthority{
		pending: []PendingApproval{{ID: "ar1", VisitorID: "v1"}, {ID: "ar2", VisitorID: "v2"}},
		statuses: []Approval{
			{ID: "ar1", Status: RawPending},
			{ID: "ar1", Status: RawPending},
			{ID: "ar1", Status: RawDenied},
			{ID: "ar1", Status: RawDenied},
		},
	}
	c := newControllerWith(t, auth, nil)

	p, err := c.Watch(context.Background(), "ar1", "v1", 10*time.Millisecond)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	<-p.Done()
	time.Sleep(50 * time.Millisecond)

	if n := atomic.LoadInt32(&auth.polls); n != 3 {
		t.Fatalf("expected 3 polls, got %d", n)
	}
	got := c.Pending()
	if len(got) != 1 || got[0].ID != "ar2" {
		t.Fatalf("expected ar1 removed, got %+v", got)
	}
}

func TestController_Close_StopsWatchers(t *testing.T) {
	auth := &fakeAuthority{
		pending:  []PendingApproval{{ID: "ar1", VisitorID: "v1"}},
		statuses: []Approval{{ID: "ar1", Status: RawPending}},
	}
	c := NewController("r1", auth, nil, nil)
	_, _ = c.Refresh(context.Background())

	p, err := c.Watch(context.Background(), "ar1", "v1", 5*time.Millisecond)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	c.Close()

	select {
	case <-p.Done():
	default:
		t.Fatalf("watcher still running after Close")
	}
	before := atomic.LoadInt32(&auth.polls)
	time.Sleep(30 * time.Millisecond)
	if after := atomic.LoadInt32(&auth.polls); after != before {
		t.Fatalf("orphaned poll fired after Close (%d -> %d)", before, after)
	}
}

func TestController_Follow_RefreshesUntilClose(t *testing.T) {
	auth := &fakeAuthority{}
	c := NewController("r1", auth, nil, nil)

	p, err := c.Follow(context.Background(), 5*time.Millisecond)
	if err != nil {
		t.Fatalf("Follow: %v", err)
	}

	auth.mu.Lock()
	auth.pending = []PendingApproval{{ID: "late"}}
	auth.mu.Unlock()

	waitFor(t, func() bool { return len(c.Pending()) == 1 })

	c.Close()
	<-p.Done()
}

func TestController_ApproveAckAfterClose_DoesNotTouchSet(t *testing.T) {
	gate := make(chan struct{})
	auth := &fakeAuthority{
		pending:     []PendingApproval{{ID: "ar1"}},
		approveGate: gate,
	}
	dec := &memDecisions{}
	c := NewController("r1", auth, dec, nil)
	if _, err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	errc := make(chan error, 1)
	go func() {
		errc <- c.Approve(context.Background(), "ar1", time.Now().Add(time.Hour))
	}()
	waitFor(t, func() bool { return atomic.LoadInt32(&auth.approveCalls) == 1 })

	c.Close()
	close(gate)

	if err := <-errc; err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if got := c.Pending(); len(got) != 1 || got[0].ID != "ar1" {
		t.Fatalf("closed view must not be mutated, got %+v", got)
	}
	if got, _ := dec.ListDecisions(context.Background(), "ar1"); len(got) != 1 {
		t.Fatalf("decision must still be journaled, got %+v", got)
	}
}

func (c *Controller) watcherCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.watchers)
}

func TestController_Watch_FinishedWatcherIsForgotten(t *testing.T) {
	auth := &fakeAuthority{
		pending:  []PendingApproval{{ID: "ar1", VisitorID: "v1"}},
		statuses: []Approval{{ID: "ar1", Status: RawApproved}},
	}
	c := newControllerWith(t, auth, nil)

	p, err := c.Watch(context.Background(), "ar1", "v1", 10*time.Millisecond)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	<-p.Done()

	waitFor(t, func() bool { return c.watcherCount() == 0 })
	if !c.idle() {
		t.Fatalf("expected idle controller after watch finished")
	}
}

func TestController_WatchPending_StartsOnePerItem(t *testing.T) {
	auth := &fakeAuthority{
		pending: []PendingApproval{{ID: "ar1", VisitorID: "v1"}, {ID: "ar2", VisitorID: "v2"}, {ID: "ar3"}},
		statuses: []Approval{
			{ID: "ar1", Status: RawPending},
			{ID: "ar1", Status: RawDenied},
		},
	}
	c := newControllerWith(t, auth, nil)

	n, err := c.WatchPending(context.Background(), 10*time.Millisecond)
	if err != nil {
		t.Fatalf("WatchPending: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 watches (ar3 has no visitor), got %d", n)
	}

	waitFor(t, func() bool {
		got := c.Pending()
		return len(got) == 2 && got[0].ID == "ar2" && got[1].ID == "ar3"
	})

	// ar2 sigue vigilado; ar1 ya salió del set
	if n, _ := c.WatchPending(context.Background(), 10*time.Millisecond); n != 0 {
		t.Fatalf("expected no new watches, got %d", n)
	}

	c.Close()
	if _, err := c.WatchPending(context.Background(), time.Second); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestSessions_EvictsIdleControllers(t *testing.T) {
	auth := &fakeAuthority{
		pending:  []PendingApproval{{ID: "ar1", VisitorID: "v1"}},
		statuses: []Approval{{ID: "ar1", Status: RawPending}},
	}
	s := NewSessions(auth, nil, nil)
	t.Cleanup(s.Close)

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	s.lastSweep = now

	idle := s.For("r1")
	busy := s.For("r2")
	if _, err := busy.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, err := busy.Watch(context.Background(), "ar1", "v1", time.Hour); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if s.For("r1") != idle {
		t.Fatalf("expected same controller while fresh")
	}

	now = now.Add(DefaultSessionIdle + 2*time.Minute)
	_ = s.For("r3")

	if s.Len() != 2 {
		t.Fatalf("expected r1 evicted (r2 busy, r3 new), got %d sessions", s.Len())
	}
	if err := idle.Deny(context.Background(), "x", ""); !errors.Is(err, ErrClosed) {
		t.Fatalf("evicted controller must be closed, got %v", err)
	}
	if s.For("r2") != busy {
		t.Fatalf("busy controller must survive the sweep")
	}
}
