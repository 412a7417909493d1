package directory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"hrportal.org/internal/access"
)

// InMemory implements Directory for tests and local development.
type InMemory struct {
	mu           sync.RWMutex
	employees    map[int64]Employee
	candidates   map[int64]Candidate
	applications map[int64]JobApplication
	leaves       map[int64]LeaveRequest
	nextID       int64
}

var _ Directory = (*InMemory)(nil)

// NewInMemory creates an empty directory.
func NewInMemory() *InMemory {
	return &InMemory{
		employees:    make(map[int64]Employee),
		candidates:   make(map[int64]Candidate),
		applications: make(map[int64]JobApplication),
		leaves:       make(map[int64]LeaveRequest),
	}
}

// AddEmployee stores the record and assigns an id when unset.
func (d *InMemory) AddEmployee(e Employee) Employee {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e.ID == 0 {
		e.ID = d.allocID()
	}
	d.employees[e.ID] = e
	return e
}

// AddCandidate stores the record and assigns an id when unset.
func (d *InMemory) AddCandidate(c Candidate) Candidate {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c.ID == 0 {
		c.ID = d.allocID()
	}
	d.candidates[c.ID] = c
	return c
}

// AddJobApplication stores the record and assigns an id when unset.
func (d *InMemory) AddJobApplication(a JobApplication) JobApplication {
	d.mu.Lock()
	defer d.mu.Unlock()
	if a.ID == 0 {
		a.ID = d.allocID()
	}
	d.applications[a.ID] = a
	return a
}

// AddLeaveRequest stores the record and assigns an id when unset.
func (d *InMemory) AddLeaveRequest(l LeaveRequest) LeaveRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	if l.ID == 0 {
		l.ID = d.allocID()
	}
	d.leaves[l.ID] = l
	return l
}

// allocID hands out ids shared across record kinds. Callers hold the lock.
func (d *InMemory) allocID() int64 {
	d.nextID++
	return d.nextID
}

func (d *InMemory) OwnerOf(ctx context.Context, rt access.ResourceType, resourceID int64) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	switch rt {
	case access.ResourceEmployee:
		if e, ok := d.employees[resourceID]; ok {
			return e.OwnerAdminID, nil
		}
	case access.ResourceCandidate:
		if c, ok := d.candidates[resourceID]; ok {
			return c.OwnerAdminID, nil
		}
	case access.ResourceJobApplication:
		if a, ok := d.applications[resourceID]; ok {
			return a.OwnerAdminID, nil
		}
	case access.ResourceLeaveRequest:
		if l, ok := d.leaves[resourceID]; ok {
			return l.OwnerAdminID, nil
		}
	default:
		return "", fmt.Errorf("%w: unknown resource type %q", access.ErrInvalidInput, rt)
	}
	return "", fmt.Errorf("%w: %s %d", access.ErrNotFound, rt, resourceID)
}

func (d *InMemory) Employee(ctx context.Context, id int64) (Employee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.employees[id]
	if !ok {
		return Employee{}, fmt.Errorf("%w: employee %d", access.ErrNotFound, id)
	}
	return e, nil
}

func (d *InMemory) ListEmployees(ctx context.Context, scope Scope, adminID string) ([]Employee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var res []Employee
	for _, e := range d.employees {
		if scope == ScopeMine && e.OwnerAdminID != adminID {
			continue
		}
		res = append(res, e)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (d *InMemory) Candidate(ctx context.Context, id int64) (Candidate, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.candidates[id]
	if !ok {
		return Candidate{}, fmt.Errorf("%w: candidate %d", access.ErrNotFound, id)
	}
	return c, nil
}

func (d *InMemory) ListCandidates(ctx context.Context, scope Scope, adminID string) ([]Candidate, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var res []Candidate
	for _, c := range d.candidates {
		if scope == ScopeMine && c.OwnerAdminID != adminID {
			continue
		}
		res = append(res, c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (d *InMemory) JobApplication(ctx context.Context, id int64) (JobApplication, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.applications[id]
	if !ok {
		return JobApplication{}, fmt.Errorf("%w: job application %d", access.ErrNotFound, id)
	}
	return a, nil
}

func (d *InMemory) ListJobApplications(ctx context.Context, scope Scope, adminID string) ([]JobApplication, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var res []JobApplication
	for _, a := range d.applications {
		if scope == ScopeMine && a.OwnerAdminID != adminID {
			continue
		}
		res = append(res, a)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (d *InMemory) LeaveRequest(ctx context.Context, id int64) (LeaveRequest, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	l, ok := d.leaves[id]
	if !ok {
		return LeaveRequest{}, fmt.Errorf("%w: leave request %d", access.ErrNotFound, id)
	}
	return l, nil
}

func (d *InMemory) ListLeaveRequests(ctx context.Context, scope Scope, adminID string) ([]LeaveRequest, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var res []LeaveRequest
	for _, l := range d.leaves {
		if scope == ScopeMine && l.OwnerAdminID != adminID {
			continue
		}
		res = append(res, l)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}
