package access

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ResourceType identifies the kind of owned record an access request targets.
type ResourceType string

const (
	ResourceEmployee       ResourceType = "employee"
	ResourceCandidate      ResourceType = "candidate"
	ResourceJobApplication ResourceType = "job_application"
	ResourceLeaveRequest   ResourceType = "leave_request"
)

// ParseResourceType normalizes the wire spelling of a resource type.
// Both "JobApplication" and "job_application" are accepted.
func ParseResourceType(raw string) (ResourceType, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "_", "")
	switch normalized {
	case "employee":
		return ResourceEmployee, nil
	case "candidate":
		return ResourceCandidate, nil
	case "jobapplication":
		return ResourceJobApplication, nil
	case "leaverequest":
		return ResourceLeaveRequest, nil
	default:
		return "", fmt.Errorf("%w: unknown resource type %q", ErrInvalidInput, raw)
	}
}

// RequestStatus is the closed state set of an access request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusDenied   RequestStatus = "denied"
)

// AccessRequest is a single-resource, approval-gated, time-boxed grant from
// the owner of a resource to another admin. Pending transitions exactly once
// to Approved or Denied; both are terminal.
type AccessRequest struct {
	ID               int64
	ResourceType     ResourceType
	ResourceID       int64
	OwnerAdminID     string
	RequesterAdminID string
	Status           RequestStatus
	RequestedAt      time.Time
	DecidedAt        *time.Time
	AllowedUntil     *time.Time
	Note             string
}

// IsPending reports whether the request can still be decided.
func (r AccessRequest) IsPending() bool { return r.Status == StatusPending }

// GrantsAt reports whether the request authorizes its requester at the given
// instant. A request whose window ends exactly at now is already expired.
func (r AccessRequest) GrantsAt(now time.Time) bool {
	return r.Status == StatusApproved && r.AllowedUntil != nil && r.AllowedUntil.After(now)
}

const requestIDPrefix = "AR-"

// FormatRequestID renders the external form of an access request id.
func FormatRequestID(id int64) string {
	return requestIDPrefix + strconv.FormatInt(id, 10)
}

// ParseRequestID accepts either the prefixed ("AR-7") or bare ("7") form.
func ParseRequestID(raw string) (int64, error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) >= len(requestIDPrefix) && strings.EqualFold(trimmed[:len(requestIDPrefix)], requestIDPrefix) {
		trimmed = trimmed[len(requestIDPrefix):]
	}
	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: malformed access request id %q", ErrInvalidInput, raw)
	}
	return id, nil
}

// DelegationStatus is the stored state of a delegation. Expiry is computed
// from the date window at read time and never written back.
type DelegationStatus string

const (
	DelegationActive  DelegationStatus = "active"
	DelegationRevoked DelegationStatus = "revoked"
)

// AdminDelegation is a time-boxed blanket grant: while active and inside its
// date window, the recipient may act on everything the issuer owns.
type AdminDelegation struct {
	ID          int64
	FromAdminID string
	ToAdminID   string
	StartDate   time.Time
	EndDate     time.Time
	Status      DelegationStatus
	Reason      string
	CreatedAt   time.Time
}

// ActiveOn reports whether the delegation covers the given day. Both window
// ends are inclusive; comparison is by UTC date.
func (d AdminDelegation) ActiveOn(day time.Time) bool {
	if d.Status != DelegationActive {
		return false
	}
	day = DateOf(day)
	return !day.Before(DateOf(d.StartDate)) && !day.After(DateOf(d.EndDate))
}

// DateOf truncates a timestamp to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
