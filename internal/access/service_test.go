package access

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// ownerTable is a fixed ownership map for tests. Keys are "type/id".
type ownerTable map[string]string

func (o ownerTable) OwnerOf(_ context.Context, rt ResourceType, resourceID int64) (string, error) {
	key := fmt.Sprintf("%s/%d", rt, resourceID)
	owner, ok := o[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return owner, nil
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestService(t *testing.T, owners ownerTable, clock *testClock) *Service {
	t.Helper()
	svc, err := NewService(NewInMemory(), owners, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

var testOwners = ownerTable{
	"employee/1":        "alice",
	"employee/2":        "bob",
	"candidate/5":       "alice",
	"leave_request/3":   "", // imported before ownership existed
	"job_application/9": "bob",
}

func TestCreateRequest(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	svc := newTestService(t, testOwners, clock)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, "bob", ResourceEmployee, 1, "payroll check")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if req.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if req.OwnerAdminID != "alice" || req.RequesterAdminID != "bob" {
		t.Fatalf("unexpected parties: owner=%s requester=%s", req.OwnerAdminID, req.RequesterAdminID)
	}
	if req.Status != StatusPending {
		t.Fatalf("expected pending, got %s", req.Status)
	}
	if !req.RequestedAt.Equal(clock.now) {
		t.Fatalf("unexpected requestedAt: %v", req.RequestedAt)
	}
	if req.DecidedAt != nil || req.AllowedUntil != nil {
		t.Fatalf("decision fields must be unset on create")
	}
}

func TestCreateRequestSelfRejected(t *testing.T) {
	clock := &testClock{now: time.Now().UTC()}
	svc := newTestService(t, testOwners, clock)

	_, err := svc.CreateRequest(context.Background(), "alice", ResourceEmployee, 1, "")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for self-request, got %v", err)
	}
}

func TestCreateRequestUnownedResource(t *testing.T) {
	clock := &testClock{now: time.Now().UTC()}
	svc := newTestService(t, testOwners, clock)

	_, err := svc.CreateRequest(context.Background(), "bob", ResourceLeaveRequest, 3, "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unowned resource, got %v", err)
	}

	_, err = svc.CreateRequest(context.Background(), "bob", ResourceEmployee, 404, "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing resource, got %v", err)
	}
}

func TestCreateRequestDuplicatePending(t *testing.T) {
	clock := &testClock{now: time.Now().UTC()}
	svc := newTestService(t, testOwners, clock)
	ctx := context.Background()

	first, err := svc.CreateRequest(ctx, "bob", ResourceEmployee, 1, "")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if _, err := svc.CreateRequest(ctx, "bob", ResourceEmployee, 1, "again"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for duplicate pending, got %v", err)
	}

	// A decided request no longer blocks a fresh one.
	if _, err := svc.Deny(ctx, first.ID, "alice"); err != nil {
		t.Fatalf("Deny: %v", err)
	}
	if _, err := svc.CreateRequest(ctx, "bob", ResourceEmployee, 1, "retry"); err != nil {
		t.Fatalf("CreateRequest after denial: %v", err)
	}
}

func TestApproveSetsWindow(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := newTestService(t, testOwners, clock)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, "bob", ResourceEmployee, 1, "")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	clock.Advance(5 * time.Minute)
	decided, err := svc.Approve(ctx, req.ID, "alice", 30)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if decided.Status != StatusApproved {
		t.Fatalf("expected approved, got %s", decided.Status)
	}
	if decided.DecidedAt == nil || !decided.DecidedAt.Equal(clock.now) {
		t.Fatalf("unexpected decidedAt: %v", decided.DecidedAt)
	}
	want := clock.now.Add(30 * time.Minute)
	if decided.AllowedUntil == nil || !decided.AllowedUntil.Equal(want) {
		t.Fatalf("allowedUntil = %v, want %v", decided.AllowedUntil, want)
	}
}

func TestApproveDefaultWindow(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	svc := newTestService(t, testOwners, clock)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, "bob", ResourceEmployee, 1, "")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	decided, err := svc.Approve(ctx, req.ID, "alice", 0)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	want := clock.now.Add(15 * time.Minute)
	if decided.AllowedUntil == nil || !decided.AllowedUntil.Equal(want) {
		t.Fatalf("allowedUntil = %v, want default window %v", decided.AllowedUntil, want)
	}
}

func TestApproveNegativeMinutesRejected(t *testing.T) {
	clock := &testClock{now: time.Now().UTC()}
	svc := newTestService(t, testOwners, clock)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, "bob", ResourceEmployee, 1, "")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if _, err := svc.Approve(ctx, req.ID, "alice", -1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDecisionGuards(t *testing.T) {
	clock := &testClock{now: time.Now().UTC()}
	svc := newTestService(t, testOwners, clock)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, "bob", ResourceEmployee, 1, "")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	if _, err := svc.Approve(ctx, 999, "alice", 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing request, got %v", err)
	}
	if _, err := svc.Approve(ctx, req.ID, "mallory", 0); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner, got %v", err)
	}

	if _, err := svc.Approve(ctx, req.ID, "alice", 0); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	// Terminal states reject any further decision.
	if _, err := svc.Approve(ctx, req.ID, "alice", 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput on double approve, got %v", err)
	}
	if _, err := svc.Deny(ctx, req.ID, "alice"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput on deny after approve, got %v", err)
	}
}

func TestDenyLeavesWindowUnset(t *testing.T) {
	clock := &testClock{now: time.Now().UTC()}
	svc := newTestService(t, testOwners, clock)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, "bob", ResourceEmployee, 1, "")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	decided, err := svc.Deny(ctx, req.ID, "alice")
	if err != nil {
		t.Fatalf("Deny: %v", err)
	}
	if decided.Status != StatusDenied {
		t.Fatalf("expected denied, got %s", decided.Status)
	}
	if decided.AllowedUntil != nil {
		t.Fatalf("denied request must not carry an access window")
	}
}

func TestInboxOutboxOrdering(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)}
	svc := newTestService(t, testOwners, clock)
	ctx := context.Background()

	first, err := svc.CreateRequest(ctx, "bob", ResourceEmployee, 1, "")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	clock.Advance(time.Minute)
	second, err := svc.CreateRequest(ctx, "bob", ResourceCandidate, 5, "")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	inbox, err := svc.Inbox(ctx, "alice")
	if err != nil {
		t.Fatalf("Inbox: %v", err)
	}
	if len(inbox) != 2 || inbox[0].ID != second.ID || inbox[1].ID != first.ID {
		t.Fatalf("inbox not newest-first: %+v", inbox)
	}

	outbox, err := svc.Outbox(ctx, "bob")
	if err != nil {
		t.Fatalf("Outbox: %v", err)
	}
	if len(outbox) != 2 || outbox[0].ID != second.ID {
		t.Fatalf("outbox not newest-first: %+v", outbox)
	}

	empty, err := svc.Outbox(ctx, "alice")
	if err != nil {
		t.Fatalf("Outbox: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty outbox for alice, got %d", len(empty))
	}
}

func TestCreateDelegationValidation(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)}
	svc := newTestService(t, testOwners, clock)
	ctx := context.Background()

	start := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	if _, err := svc.CreateDelegation(ctx, "alice", "alice", start, end, ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for self-delegation, got %v", err)
	}
	if _, err := svc.CreateDelegation(ctx, "alice", "bob", end, start, ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for reversed dates, got %v", err)
	}

	// Timestamps are truncated to UTC dates; a single-day window is valid.
	d, err := svc.CreateDelegation(ctx, "alice", "bob", start.Add(23*time.Hour), start.Add(time.Hour), "offsite")
	if err != nil {
		t.Fatalf("CreateDelegation: %v", err)
	}
	if !d.StartDate.Equal(start) || !d.EndDate.Equal(start) {
		t.Fatalf("dates not normalized: %v .. %v", d.StartDate, d.EndDate)
	}
	if d.Status != DelegationActive {
		t.Fatalf("expected active, got %s", d.Status)
	}
}

func TestRevokeDelegation(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)}
	svc := newTestService(t, testOwners, clock)
	ctx := context.Background()

	d, err := svc.CreateDelegation(ctx, "alice", "bob",
		clock.now, clock.now.Add(72*time.Hour), "")
	if err != nil {
		t.Fatalf("CreateDelegation: %v", err)
	}

	if err := svc.RevokeDelegation(ctx, d.ID, "bob"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-issuer, got %v", err)
	}
	if err := svc.RevokeDelegation(ctx, d.ID, "alice"); err != nil {
		t.Fatalf("RevokeDelegation: %v", err)
	}
	// Second revoke sees a terminal row and reports it missing.
	if err := svc.RevokeDelegation(ctx, d.ID, "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeat revoke, got %v", err)
	}

	outgoing, err := svc.DelegationsFrom(ctx, "alice")
	if err != nil {
		t.Fatalf("DelegationsFrom: %v", err)
	}
	if len(outgoing) != 1 || outgoing[0].Status != DelegationRevoked {
		t.Fatalf("revoked delegation should stay listed: %+v", outgoing)
	}
}

func TestDelegatedAdminIDsWindow(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)}
	svc := newTestService(t, testOwners, clock)
	ctx := context.Background()

	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	if _, err := svc.CreateDelegation(ctx, "alice", "bob", start, end, ""); err != nil {
		t.Fatalf("CreateDelegation: %v", err)
	}

	check := func(day time.Time, want int) {
		t.Helper()
		clock.now = day
		ids, err := svc.DelegatedAdminIDs(ctx, "bob")
		if err != nil {
			t.Fatalf("DelegatedAdminIDs: %v", err)
		}
		if len(ids) != want {
			t.Fatalf("on %v: got %v, want %d delegators", day, ids, want)
		}
	}

	check(time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC), 0)
	check(start, 1)
	// End date is inclusive right up to the last second of the day.
	check(time.Date(2026, 3, 12, 23, 59, 59, 0, time.UTC), 1)
	check(time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC), 0)
}
