package access

import (
	"context"
	"time"
)

// Store describes persistence for access requests and admin delegations.
//
// Mutating operations carry check-then-act semantics: implementations must
// run the guard and the write inside one atomic unit so that two concurrent
// decisions on the same row cannot both succeed.
type Store interface {
	// CreateRequest persists a new pending request and assigns its id.
	// Fails with ErrInvalidInput when a pending request already exists for
	// the same (requester, resource type, resource id) triple.
	CreateRequest(ctx context.Context, req *AccessRequest) error

	// ApproveRequest transitions a pending request to approved.
	// Fails with ErrNotFound when the request is missing, ErrForbidden when
	// ownerAdminID is not the request's owner, and ErrInvalidInput when the
	// request is no longer pending.
	ApproveRequest(ctx context.Context, id int64, ownerAdminID string, decidedAt, allowedUntil time.Time) (AccessRequest, error)

	// DenyRequest transitions a pending request to denied. Guards match
	// ApproveRequest.
	DenyRequest(ctx context.Context, id int64, ownerAdminID string, decidedAt time.Time) (AccessRequest, error)

	// Inbox lists requests addressed to the owner, newest first.
	Inbox(ctx context.Context, ownerAdminID string) ([]AccessRequest, error)

	// Outbox lists requests created by the requester, newest first.
	Outbox(ctx context.Context, requesterAdminID string) ([]AccessRequest, error)

	// ActiveGrantExists reports whether an approved, unexpired request lets
	// the requester act on the resource at the given instant.
	ActiveGrantExists(ctx context.Context, requesterAdminID string, rt ResourceType, resourceID int64, now time.Time) (bool, error)

	// CreateDelegation persists a new active delegation and assigns its id.
	CreateDelegation(ctx context.Context, d *AdminDelegation) error

	// RevokeDelegation marks a delegation revoked. A delegation that is
	// missing or already terminal yields ErrNotFound; a caller other than
	// the issuing admin yields ErrForbidden.
	RevokeDelegation(ctx context.Context, id int64, callerAdminID string) error

	// DelegationsFrom lists delegations issued by the admin, any status.
	DelegationsFrom(ctx context.Context, fromAdminID string) ([]AdminDelegation, error)

	// DelegationsTo lists delegations received by the admin, any status.
	DelegationsTo(ctx context.Context, toAdminID string) ([]AdminDelegation, error)

	// DelegatedAdminIDs returns issuers of delegations to the admin that are
	// active and whose date window contains the given day, inclusive.
	DelegatedAdminIDs(ctx context.Context, toAdminID string, day time.Time) ([]string, error)
}

// OwnerLookup resolves the owning admin of a resource. The directory
// implements it; an unknown resource yields an error wrapping ErrNotFound,
// a legacy unowned row yields an empty owner id with no error.
type OwnerLookup interface {
	OwnerOf(ctx context.Context, rt ResourceType, resourceID int64) (string, error)
}
