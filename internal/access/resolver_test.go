package access

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCanAccessOwnership(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	svc := newTestService(t, testOwners, clock)
	ctx := context.Background()

	can, err := svc.CanAccess(ctx, "alice", ResourceEmployee, 1)
	if err != nil {
		t.Fatalf("CanAccess: %v", err)
	}
	if !can {
		t.Fatalf("owner must always have access")
	}

	can, err = svc.CanAccess(ctx, "bob", ResourceEmployee, 1)
	if err != nil {
		t.Fatalf("CanAccess: %v", err)
	}
	if can {
		t.Fatalf("non-owner without grants must be denied")
	}
}

func TestCanAccessUnownedAndMissing(t *testing.T) {
	clock := &testClock{now: time.Now().UTC()}
	svc := newTestService(t, testOwners, clock)
	ctx := context.Background()

	// Unowned rows compose no grants, not even for admins with delegations.
	can, err := svc.CanAccess(ctx, "alice", ResourceLeaveRequest, 3)
	if err != nil {
		t.Fatalf("CanAccess: %v", err)
	}
	if can {
		t.Fatalf("unowned resource must deny everyone")
	}

	if _, err := svc.CanAccess(ctx, "alice", ResourceEmployee, 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing resource, got %v", err)
	}
	if _, err := svc.CanAccess(ctx, "  ", ResourceEmployee, 1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank admin, got %v", err)
	}
}

func TestCanAccessThroughDelegation(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	svc := newTestService(t, testOwners, clock)
	ctx := context.Background()

	d, err := svc.CreateDelegation(ctx, "alice", "bob",
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), "vacation")
	if err != nil {
		t.Fatalf("CreateDelegation: %v", err)
	}

	can, err := svc.CanAccess(ctx, "bob", ResourceEmployee, 1)
	if err != nil {
		t.Fatalf("CanAccess: %v", err)
	}
	if !can {
		t.Fatalf("delegation inside window must grant access")
	}

	// Delegation reaches everything the issuer owns, not one resource.
	can, err = svc.CanAccess(ctx, "bob", ResourceCandidate, 5)
	if err != nil {
		t.Fatalf("CanAccess: %v", err)
	}
	if !can {
		t.Fatalf("delegation must cover all issuer-owned resources")
	}

	// The day after the window closes the grant is gone.
	clock.now = time.Date(2026, 3, 13, 0, 0, 1, 0, time.UTC)
	can, err = svc.CanAccess(ctx, "bob", ResourceEmployee, 1)
	if err != nil {
		t.Fatalf("CanAccess: %v", err)
	}
	if can {
		t.Fatalf("lapsed delegation must not grant access")
	}

	// Revocation cuts access immediately, even mid-window.
	clock.now = time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	if err := svc.RevokeDelegation(ctx, d.ID, "alice"); err != nil {
		t.Fatalf("RevokeDelegation: %v", err)
	}
	can, err = svc.CanAccess(ctx, "bob", ResourceEmployee, 1)
	if err != nil {
		t.Fatalf("CanAccess: %v", err)
	}
	if can {
		t.Fatalf("revoked delegation must not grant access")
	}
}

func TestCanAccessThroughApprovedRequest(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	svc := newTestService(t, testOwners, clock)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, "bob", ResourceEmployee, 1, "")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	// Pending grants nothing.
	can, err := svc.CanAccess(ctx, "bob", ResourceEmployee, 1)
	if err != nil {
		t.Fatalf("CanAccess: %v", err)
	}
	if can {
		t.Fatalf("pending request must not grant access")
	}

	if _, err := svc.Approve(ctx, req.ID, "alice", 30); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	can, err = svc.CanAccess(ctx, "bob", ResourceEmployee, 1)
	if err != nil {
		t.Fatalf("CanAccess: %v", err)
	}
	if !can {
		t.Fatalf("approved request inside window must grant access")
	}

	// The grant covers only the requested resource.
	can, err = svc.CanAccess(ctx, "bob", ResourceCandidate, 5)
	if err != nil {
		t.Fatalf("CanAccess: %v", err)
	}
	if can {
		t.Fatalf("grant must not extend to other resources")
	}
}

func TestGrantExpiresExactlyAtBoundary(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	svc := newTestService(t, testOwners, clock)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, "bob", ResourceEmployee, 1, "")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	decided, err := svc.Approve(ctx, req.ID, "alice", 30)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}

	clock.now = decided.AllowedUntil.Add(-time.Second)
	can, err := svc.CanAccess(ctx, "bob", ResourceEmployee, 1)
	if err != nil {
		t.Fatalf("CanAccess: %v", err)
	}
	if !can {
		t.Fatalf("grant must hold one second before the boundary")
	}

	// allowedUntil itself is outside the window.
	clock.now = *decided.AllowedUntil
	can, err = svc.CanAccess(ctx, "bob", ResourceEmployee, 1)
	if err != nil {
		t.Fatalf("CanAccess: %v", err)
	}
	if can {
		t.Fatalf("grant must be expired exactly at allowedUntil")
	}
}

func TestDeniedRequestNeverGrants(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	svc := newTestService(t, testOwners, clock)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, "bob", ResourceEmployee, 1, "")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if _, err := svc.Deny(ctx, req.ID, "alice"); err != nil {
		t.Fatalf("Deny: %v", err)
	}

	can, err := svc.CanAccess(ctx, "bob", ResourceEmployee, 1)
	if err != nil {
		t.Fatalf("CanAccess: %v", err)
	}
	if can {
		t.Fatalf("denied request must not grant access")
	}
}
