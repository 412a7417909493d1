package directory

import (
	"context"

	"hrportal.org/internal/access"
)

// Directory exposes the owned HR records and the ownership model the access
// subsystem composes grants over. Missing records are reported with errors
// wrapping access.ErrNotFound.
type Directory interface {
	access.OwnerLookup

	Employee(ctx context.Context, id int64) (Employee, error)
	ListEmployees(ctx context.Context, scope Scope, adminID string) ([]Employee, error)

	Candidate(ctx context.Context, id int64) (Candidate, error)
	ListCandidates(ctx context.Context, scope Scope, adminID string) ([]Candidate, error)

	JobApplication(ctx context.Context, id int64) (JobApplication, error)
	ListJobApplications(ctx context.Context, scope Scope, adminID string) ([]JobApplication, error)

	LeaveRequest(ctx context.Context, id int64) (LeaveRequest, error)
	ListLeaveRequests(ctx context.Context, scope Scope, adminID string) ([]LeaveRequest, error)
}
