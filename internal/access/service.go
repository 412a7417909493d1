package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const defaultAllowWindow = 15 * time.Minute

// Service carries the access request state machine and delegation operations.
// It validates input, resolves resource owners through the directory, and
// leaves atomicity of check-then-act sequences to the Store.
type Service struct {
	store  Store
	owners OwnerLookup
	now    func() time.Time

	allowWindow time.Duration
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// WithAllowWindow overrides the default approval window applied when the
// owner does not supply allowMinutes.
func WithAllowWindow(d time.Duration) ServiceOption {
	return func(s *Service) error {
		if d <= 0 {
			return errors.New("access: allow window must be positive")
		}
		s.allowWindow = d
		return nil
	}
}

// NewService constructs a Service with optional configuration.
func NewService(store Store, owners OwnerLookup, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("access: store is required")
	}
	if owners == nil {
		return nil, errors.New("access: owner lookup is required")
	}
	svc := &Service{
		store:       store,
		owners:      owners,
		now:         time.Now,
		allowWindow: defaultAllowWindow,
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// CreateRequest opens a pending access request from requesterAdminID to the
// owner of the resource. Self-requests and duplicate pending requests are
// rejected; a resource without an owner is treated as missing.
func (s *Service) CreateRequest(ctx context.Context, requesterAdminID string, rt ResourceType, resourceID int64, note string) (AccessRequest, error) {
	requesterAdminID = strings.TrimSpace(requesterAdminID)
	if requesterAdminID == "" {
		return AccessRequest{}, fmt.Errorf("%w: requester admin id is required", ErrInvalidInput)
	}
	if resourceID <= 0 {
		return AccessRequest{}, fmt.Errorf("%w: resource id must be positive", ErrInvalidInput)
	}

	owner, err := s.owners.OwnerOf(ctx, rt, resourceID)
	if err != nil {
		return AccessRequest{}, err
	}
	if owner == "" {
		return AccessRequest{}, fmt.Errorf("%w: resource %s/%d has no owner", ErrNotFound, rt, resourceID)
	}
	if owner == requesterAdminID {
		return AccessRequest{}, fmt.Errorf("%w: cannot request access to an owned resource", ErrInvalidInput)
	}

	req := AccessRequest{
		ResourceType:     rt,
		ResourceID:       resourceID,
		OwnerAdminID:     owner,
		RequesterAdminID: requesterAdminID,
		Status:           StatusPending,
		RequestedAt:      s.now().UTC(),
		Note:             strings.TrimSpace(note),
	}
	if err := s.store.CreateRequest(ctx, &req); err != nil {
		return AccessRequest{}, err
	}
	return req, nil
}

// Approve transitions a pending request to approved and opens its access
// window. allowMinutes of zero applies the default window; negative values
// are rejected.
func (s *Service) Approve(ctx context.Context, id int64, ownerAdminID string, allowMinutes int) (AccessRequest, error) {
	ownerAdminID = strings.TrimSpace(ownerAdminID)
	if ownerAdminID == "" {
		return AccessRequest{}, fmt.Errorf("%w: owner admin id is required", ErrInvalidInput)
	}
	window := s.allowWindow
	switch {
	case allowMinutes < 0:
		return AccessRequest{}, fmt.Errorf("%w: allowMinutes must not be negative", ErrInvalidInput)
	case allowMinutes > 0:
		window = time.Duration(allowMinutes) * time.Minute
	}

	decidedAt := s.now().UTC()
	return s.store.ApproveRequest(ctx, id, ownerAdminID, decidedAt, decidedAt.Add(window))
}

// Deny transitions a pending request to denied. The access window stays
// unset.
func (s *Service) Deny(ctx context.Context, id int64, ownerAdminID string) (AccessRequest, error) {
	ownerAdminID = strings.TrimSpace(ownerAdminID)
	if ownerAdminID == "" {
		return AccessRequest{}, fmt.Errorf("%w: owner admin id is required", ErrInvalidInput)
	}
	return s.store.DenyRequest(ctx, id, ownerAdminID, s.now().UTC())
}

// Inbox lists requests awaiting or already decided by the owner, newest first.
func (s *Service) Inbox(ctx context.Context, ownerAdminID string) ([]AccessRequest, error) {
	ownerAdminID = strings.TrimSpace(ownerAdminID)
	if ownerAdminID == "" {
		return nil, fmt.Errorf("%w: owner admin id is required", ErrInvalidInput)
	}
	return s.store.Inbox(ctx, ownerAdminID)
}

// Outbox lists requests the admin has created, newest first.
func (s *Service) Outbox(ctx context.Context, requesterAdminID string) ([]AccessRequest, error) {
	requesterAdminID = strings.TrimSpace(requesterAdminID)
	if requesterAdminID == "" {
		return nil, fmt.Errorf("%w: requester admin id is required", ErrInvalidInput)
	}
	return s.store.Outbox(ctx, requesterAdminID)
}

// CreateDelegation opens an active delegation from one admin to another for
// an inclusive date range.
func (s *Service) CreateDelegation(ctx context.Context, fromAdminID, toAdminID string, startDate, endDate time.Time, reason string) (AdminDelegation, error) {
	fromAdminID = strings.TrimSpace(fromAdminID)
	toAdminID = strings.TrimSpace(toAdminID)
	if fromAdminID == "" {
		return AdminDelegation{}, fmt.Errorf("%w: from admin id is required", ErrInvalidInput)
	}
	if toAdminID == "" {
		return AdminDelegation{}, fmt.Errorf("%w: to admin id is required", ErrInvalidInput)
	}
	if toAdminID == fromAdminID {
		return AdminDelegation{}, fmt.Errorf("%w: cannot delegate to yourself", ErrInvalidInput)
	}
	start := DateOf(startDate)
	end := DateOf(endDate)
	if end.Before(start) {
		return AdminDelegation{}, fmt.Errorf("%w: end date precedes start date", ErrInvalidInput)
	}

	d := AdminDelegation{
		FromAdminID: fromAdminID,
		ToAdminID:   toAdminID,
		StartDate:   start,
		EndDate:     end,
		Status:      DelegationActive,
		Reason:      strings.TrimSpace(reason),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.CreateDelegation(ctx, &d); err != nil {
		return AdminDelegation{}, err
	}
	return d, nil
}

// RevokeDelegation terminates an active delegation issued by the caller.
// Revoking an already revoked delegation reports NotFound.
func (s *Service) RevokeDelegation(ctx context.Context, id int64, callerAdminID string) error {
	callerAdminID = strings.TrimSpace(callerAdminID)
	if callerAdminID == "" {
		return fmt.Errorf("%w: caller admin id is required", ErrInvalidInput)
	}
	if id <= 0 {
		return fmt.Errorf("%w: malformed delegation id", ErrInvalidInput)
	}
	return s.store.RevokeDelegation(ctx, id, callerAdminID)
}

// DelegationsFrom lists delegations issued by the admin, any status.
func (s *Service) DelegationsFrom(ctx context.Context, fromAdminID string) ([]AdminDelegation, error) {
	fromAdminID = strings.TrimSpace(fromAdminID)
	if fromAdminID == "" {
		return nil, fmt.Errorf("%w: from admin id is required", ErrInvalidInput)
	}
	return s.store.DelegationsFrom(ctx, fromAdminID)
}

// DelegationsTo lists delegations received by the admin, any status.
func (s *Service) DelegationsTo(ctx context.Context, toAdminID string) ([]AdminDelegation, error) {
	toAdminID = strings.TrimSpace(toAdminID)
	if toAdminID == "" {
		return nil, fmt.Errorf("%w: to admin id is required", ErrInvalidInput)
	}
	return s.store.DelegationsTo(ctx, toAdminID)
}

// DelegatedAdminIDs returns the admins whose resources the caller may
// currently act on through a delegation.
func (s *Service) DelegatedAdminIDs(ctx context.Context, toAdminID string) ([]string, error) {
	toAdminID = strings.TrimSpace(toAdminID)
	if toAdminID == "" {
		return nil, fmt.Errorf("%w: to admin id is required", ErrInvalidInput)
	}
	return s.store.DelegatedAdminIDs(ctx, toAdminID, DateOf(s.now()))
}
