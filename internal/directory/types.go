package directory

import (
	"fmt"
	"strings"
	"time"

	"hrportal.org/internal/access"
)

// Scope narrows list queries to caller-owned rows. It is advisory: ScopeAll
// performs no grant check and is not a security boundary.
type Scope string

const (
	ScopeAll  Scope = "all"
	ScopeMine Scope = "yours"
)

// ParseScope maps the wire value of the scope query parameter. An empty
// value defaults to ScopeAll.
func ParseScope(raw string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all":
		return ScopeAll, nil
	case "yours", "mine":
		return ScopeMine, nil
	default:
		return "", fmt.Errorf("%w: unknown scope %q", access.ErrInvalidInput, raw)
	}
}

// Employee is an HR record. OwnerAdminID is empty on legacy rows imported
// before ownership was introduced.
type Employee struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	Department   string
	OwnerAdminID string
	CreatedAt    time.Time
}

// Candidate is an applicant tracked by recruiting.
type Candidate struct {
	ID           int64
	FullName     string
	Email        string
	OwnerAdminID string
	CreatedAt    time.Time
}

// JobApplication links a candidate to an open job.
type JobApplication struct {
	ID           int64
	CandidateID  int64
	JobTitle     string
	Stage        string
	OwnerAdminID string
	CreatedAt    time.Time
}

// LeaveRequest is an employee absence request.
type LeaveRequest struct {
	ID           int64
	EmployeeID   int64
	StartDate    time.Time
	EndDate      time.Time
	Status       string
	OwnerAdminID string
	CreatedAt    time.Time
}
