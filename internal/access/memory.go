package access

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// InMemory implements Store with in-process concurrency safety. It backs the
// HTTP tests and local development without a database.
type InMemory struct {
	mu          sync.RWMutex
	requests    map[int64]*AccessRequest
	delegations map[int64]*AdminDelegation
	nextReqID   int64
	nextDelID   int64
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		requests:    make(map[int64]*AccessRequest),
		delegations: make(map[int64]*AdminDelegation),
	}
}

func (s *InMemory) CreateRequest(ctx context.Context, req *AccessRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.requests {
		if existing.Status == StatusPending &&
			existing.RequesterAdminID == req.RequesterAdminID &&
			existing.ResourceType == req.ResourceType &&
			existing.ResourceID == req.ResourceID {
			return fmt.Errorf("%w: pending request already exists for %s/%d", ErrInvalidInput, req.ResourceType, req.ResourceID)
		}
	}

	s.nextReqID++
	req.ID = s.nextReqID
	stored := *req
	s.requests[req.ID] = &stored
	return nil
}

func (s *InMemory) ApproveRequest(ctx context.Context, id int64, ownerAdminID string, decidedAt, allowedUntil time.Time) (AccessRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.decidable(id, ownerAdminID)
	if err != nil {
		return AccessRequest{}, err
	}
	req.Status = StatusApproved
	req.DecidedAt = &decidedAt
	req.AllowedUntil = &allowedUntil
	return *req, nil
}

func (s *InMemory) DenyRequest(ctx context.Context, id int64, ownerAdminID string, decidedAt time.Time) (AccessRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.decidable(id, ownerAdminID)
	if err != nil {
		return AccessRequest{}, err
	}
	req.Status = StatusDenied
	req.DecidedAt = &decidedAt
	return *req, nil
}

// decidable fetches a request and runs the shared decision guards. Callers
// hold the write lock.
func (s *InMemory) decidable(id int64, ownerAdminID string) (*AccessRequest, error) {
	req, ok := s.requests[id]
	if !ok {
		return nil, fmt.Errorf("%w: access request %d", ErrNotFound, id)
	}
	if req.OwnerAdminID != ownerAdminID {
		return nil, fmt.Errorf("%w: only the resource owner may decide", ErrForbidden)
	}
	if req.Status != StatusPending {
		return nil, fmt.Errorf("%w: request already %s", ErrInvalidInput, req.Status)
	}
	return req, nil
}

func (s *InMemory) Inbox(ctx context.Context, ownerAdminID string) ([]AccessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(r *AccessRequest) bool { return r.OwnerAdminID == ownerAdminID }), nil
}

func (s *InMemory) Outbox(ctx context.Context, requesterAdminID string) ([]AccessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(r *AccessRequest) bool { return r.RequesterAdminID == requesterAdminID }), nil
}

func (s *InMemory) collect(match func(*AccessRequest) bool) []AccessRequest {
	var res []AccessRequest
	for _, req := range s.requests {
		if match(req) {
			res = append(res, *req)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].RequestedAt.Equal(res[j].RequestedAt) {
			return res[i].RequestedAt.After(res[j].RequestedAt)
		}
		return res[i].ID > res[j].ID
	})
	return res
}

func (s *InMemory) ActiveGrantExists(ctx context.Context, requesterAdminID string, rt ResourceType, resourceID int64, now time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, req := range s.requests {
		if req.RequesterAdminID == requesterAdminID &&
			req.ResourceType == rt &&
			req.ResourceID == resourceID &&
			req.GrantsAt(now) {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemory) CreateDelegation(ctx context.Context, d *AdminDelegation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextDelID++
	d.ID = s.nextDelID
	stored := *d
	s.delegations[d.ID] = &stored
	return nil
}

func (s *InMemory) RevokeDelegation(ctx context.Context, id int64, callerAdminID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.delegations[id]
	if !ok {
		return fmt.Errorf("%w: delegation %d", ErrNotFound, id)
	}
	if d.FromAdminID != callerAdminID {
		return fmt.Errorf("%w: only the issuing admin may revoke", ErrForbidden)
	}
	if d.Status != DelegationActive {
		// Terminal delegations behave like missing ones on a second revoke.
		return fmt.Errorf("%w: delegation %d", ErrNotFound, id)
	}
	d.Status = DelegationRevoked
	return nil
}

func (s *InMemory) DelegationsFrom(ctx context.Context, fromAdminID string) ([]AdminDelegation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectDelegations(func(d *AdminDelegation) bool { return d.FromAdminID == fromAdminID }), nil
}

func (s *InMemory) DelegationsTo(ctx context.Context, toAdminID string) ([]AdminDelegation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectDelegations(func(d *AdminDelegation) bool { return d.ToAdminID == toAdminID }), nil
}

func (s *InMemory) collectDelegations(match func(*AdminDelegation) bool) []AdminDelegation {
	var res []AdminDelegation
	for _, d := range s.delegations {
		if match(d) {
			res = append(res, *d)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].CreatedAt.After(res[j].CreatedAt)
		}
		return res[i].ID > res[j].ID
	})
	return res
}

func (s *InMemory) DelegatedAdminIDs(ctx context.Context, toAdminID string, day time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var res []string
	for _, d := range s.delegations {
		if d.ToAdminID != toAdminID || !d.ActiveOn(day) {
			continue
		}
		if _, ok := seen[d.FromAdminID]; ok {
			continue
		}
		seen[d.FromAdminID] = struct{}{}
		res = append(res, d.FromAdminID)
	}
	sort.Strings(res)
	return res, nil
}
