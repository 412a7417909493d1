package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"hrportal.org/internal/access"
)

// PGDirectory implements Directory on top of the relational HR schema.
type PGDirectory struct {
	db *sql.DB
}

var _ Directory = (*PGDirectory)(nil)

// NewPGDirectory wraps an existing connection pool.
func NewPGDirectory(db *sql.DB) *PGDirectory {
	return &PGDirectory{db: db}
}

// resourceTables maps resource types to their backing tables. Values are
// compile-time constants, never caller input.
var resourceTables = map[access.ResourceType]string{
	access.ResourceEmployee:       "employees",
	access.ResourceCandidate:      "candidates",
	access.ResourceJobApplication: "job_applications",
	access.ResourceLeaveRequest:   "leave_requests",
}

func (d *PGDirectory) OwnerOf(ctx context.Context, rt access.ResourceType, resourceID int64) (string, error) {
	table, ok := resourceTables[rt]
	if !ok {
		return "", fmt.Errorf("%w: unknown resource type %q", access.ErrInvalidInput, rt)
	}
	var owner string
	err := d.db.QueryRowContext(ctx,
		fmt.Sprintf(`select coalesce(owner_admin_id,'') from %s where id=$1`, table), resourceID).
		Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s %d", access.ErrNotFound, rt, resourceID)
	}
	if err != nil {
		return "", err
	}
	return owner, nil
}

// scopeClause appends the ownership filter for ScopeMine queries.
func scopeClause(scope Scope) string {
	if scope == ScopeMine {
		return ` where coalesce(owner_admin_id,'')=$1`
	}
	return ``
}

func scopeArgs(scope Scope, adminID string) []any {
	if scope == ScopeMine {
		return []any{adminID}
	}
	return nil
}

func (d *PGDirectory) Employee(ctx context.Context, id int64) (Employee, error) {
	var e Employee
	err := d.db.QueryRowContext(ctx, `
		select id, first_name, last_name, email, coalesce(department,''), coalesce(owner_admin_id,''), created_at
		from employees where id=$1
	`, id).Scan(&e.ID, &e.FirstName, &e.LastName, &e.Email, &e.Department, &e.OwnerAdminID, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Employee{}, fmt.Errorf("%w: employee %d", access.ErrNotFound, id)
	}
	if err != nil {
		return Employee{}, err
	}
	return e, nil
}

func (d *PGDirectory) ListEmployees(ctx context.Context, scope Scope, adminID string) ([]Employee, error) {
	rows, err := d.db.QueryContext(ctx, `
		select id, first_name, last_name, email, coalesce(department,''), coalesce(owner_admin_id,''), created_at
		from employees`+scopeClause(scope)+` order by id`, scopeArgs(scope, adminID)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Email, &e.Department, &e.OwnerAdminID, &e.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func (d *PGDirectory) Candidate(ctx context.Context, id int64) (Candidate, error) {
	var c Candidate
	err := d.db.QueryRowContext(ctx, `
		select id, full_name, email, coalesce(owner_admin_id,''), created_at
		from candidates where id=$1
	`, id).Scan(&c.ID, &c.FullName, &c.Email, &c.OwnerAdminID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Candidate{}, fmt.Errorf("%w: candidate %d", access.ErrNotFound, id)
	}
	if err != nil {
		return Candidate{}, err
	}
	return c, nil
}

func (d *PGDirectory) ListCandidates(ctx context.Context, scope Scope, adminID string) ([]Candidate, error) {
	rows, err := d.db.QueryContext(ctx, `
		select id, full_name, email, coalesce(owner_admin_id,''), created_at
		from candidates`+scopeClause(scope)+` order by id`, scopeArgs(scope, adminID)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.ID, &c.FullName, &c.Email, &c.OwnerAdminID, &c.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (d *PGDirectory) JobApplication(ctx context.Context, id int64) (JobApplication, error) {
	var a JobApplication
	err := d.db.QueryRowContext(ctx, `
		select id, candidate_id, job_title, stage, coalesce(owner_admin_id,''), created_at
		from job_applications where id=$1
	`, id).Scan(&a.ID, &a.CandidateID, &a.JobTitle, &a.Stage, &a.OwnerAdminID, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return JobApplication{}, fmt.Errorf("%w: job application %d", access.ErrNotFound, id)
	}
	if err != nil {
		return JobApplication{}, err
	}
	return a, nil
}

func (d *PGDirectory) ListJobApplications(ctx context.Context, scope Scope, adminID string) ([]JobApplication, error) {
	rows, err := d.db.QueryContext(ctx, `
		select id, candidate_id, job_title, stage, coalesce(owner_admin_id,''), created_at
		from job_applications`+scopeClause(scope)+` order by id`, scopeArgs(scope, adminID)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []JobApplication
	for rows.Next() {
		var a JobApplication
		if err := rows.Scan(&a.ID, &a.CandidateID, &a.JobTitle, &a.Stage, &a.OwnerAdminID, &a.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (d *PGDirectory) LeaveRequest(ctx context.Context, id int64) (LeaveRequest, error) {
	var l LeaveRequest
	err := d.db.QueryRowContext(ctx, `
		select id, employee_id, start_date, end_date, status, coalesce(owner_admin_id,''), created_at
		from leave_requests where id=$1
	`, id).Scan(&l.ID, &l.EmployeeID, &l.StartDate, &l.EndDate, &l.Status, &l.OwnerAdminID, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return LeaveRequest{}, fmt.Errorf("%w: leave request %d", access.ErrNotFound, id)
	}
	if err != nil {
		return LeaveRequest{}, err
	}
	return l, nil
}

func (d *PGDirectory) ListLeaveRequests(ctx context.Context, scope Scope, adminID string) ([]LeaveRequest, error) {
	rows, err := d.db.QueryContext(ctx, `
		select id, employee_id, start_date, end_date, status, coalesce(owner_admin_id,''), created_at
		from leave_requests`+scopeClause(scope)+` order by id`, scopeArgs(scope, adminID)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []LeaveRequest
	for rows.Next() {
		var l LeaveRequest
		if err := rows.Scan(&l.ID, &l.EmployeeID, &l.StartDate, &l.EndDate, &l.Status, &l.OwnerAdminID, &l.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, rows.Err()
}
