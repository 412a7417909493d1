package httpapi

import (
	"time"

	"hrportal.org/internal/access"
	"hrportal.org/internal/directory"
)

const dateLayout = "2006-01-02"

// externalResourceType renders the wire spelling of a resource type.
var externalResourceType = map[access.ResourceType]string{
	access.ResourceEmployee:       "Employee",
	access.ResourceCandidate:      "Candidate",
	access.ResourceJobApplication: "JobApplication",
	access.ResourceLeaveRequest:   "LeaveRequest",
}

type accessRequestDTO struct {
	ID               string     `json:"id"`
	ResourceType     string     `json:"resourceType"`
	ResourceID       int64      `json:"resourceId"`
	OwnerAdminID     string     `json:"ownerAdminId"`
	RequesterAdminID string     `json:"requesterAdminId"`
	Status           string     `json:"status"`
	RequestedAt      time.Time  `json:"requestedAt"`
	DecidedAt        *time.Time `json:"decidedAt,omitempty"`
	AllowedUntil     *time.Time `json:"allowedUntil,omitempty"`
	Note             string     `json:"note,omitempty"`
}

func toAccessRequestDTO(req access.AccessRequest) accessRequestDTO {
	return accessRequestDTO{
		ID:               access.FormatRequestID(req.ID),
		ResourceType:     externalResourceType[req.ResourceType],
		ResourceID:       req.ResourceID,
		OwnerAdminID:     req.OwnerAdminID,
		RequesterAdminID: req.RequesterAdminID,
		Status:           string(req.Status),
		RequestedAt:      req.RequestedAt,
		DecidedAt:        req.DecidedAt,
		AllowedUntil:     req.AllowedUntil,
		Note:             req.Note,
	}
}

type delegationDTO struct {
	ID          int64     `json:"id"`
	FromAdminID string    `json:"fromAdminId"`
	ToAdminID   string    `json:"toAdminId"`
	StartDate   string    `json:"startDate"`
	EndDate     string    `json:"endDate"`
	Status      string    `json:"status"`
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// toDelegationDTO renders a delegation, downgrading active-but-lapsed windows
// to an "expired" status on the wire. Expiry is never stored.
func toDelegationDTO(d access.AdminDelegation, now time.Time) delegationDTO {
	status := string(d.Status)
	if d.Status == access.DelegationActive && access.DateOf(now).After(access.DateOf(d.EndDate)) {
		status = "expired"
	}
	return delegationDTO{
		ID:          d.ID,
		FromAdminID: d.FromAdminID,
		ToAdminID:   d.ToAdminID,
		StartDate:   d.StartDate.Format(dateLayout),
		EndDate:     d.EndDate.Format(dateLayout),
		Status:      status,
		Reason:      d.Reason,
		CreatedAt:   d.CreatedAt,
	}
}

type employeeDTO struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	Department   string    `json:"department,omitempty"`
	OwnerAdminID string    `json:"ownerAdminId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toEmployeeDTO(e directory.Employee) employeeDTO {
	return employeeDTO{
		ID:           e.ID,
		FirstName:    e.FirstName,
		LastName:     e.LastName,
		Email:        e.Email,
		Department:   e.Department,
		OwnerAdminID: e.OwnerAdminID,
		CreatedAt:    e.CreatedAt,
	}
}

type candidateDTO struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	OwnerAdminID string    `json:"ownerAdminId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toCandidateDTO(c directory.Candidate) candidateDTO {
	return candidateDTO{
		ID:           c.ID,
		FullName:     c.FullName,
		Email:        c.Email,
		OwnerAdminID: c.OwnerAdminID,
		CreatedAt:    c.CreatedAt,
	}
}

type jobApplicationDTO struct {
	ID           int64     `json:"id"`
	CandidateID  int64     `json:"candidateId"`
	JobTitle     string    `json:"jobTitle"`
	Stage        string    `json:"stage"`
	OwnerAdminID string    `json:"ownerAdminId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toJobApplicationDTO(ja directory.JobApplication) jobApplicationDTO {
	return jobApplicationDTO{
		ID:           ja.ID,
		CandidateID:  ja.CandidateID,
		JobTitle:     ja.JobTitle,
		Stage:        ja.Stage,
		OwnerAdminID: ja.OwnerAdminID,
		CreatedAt:    ja.CreatedAt,
	}
}

type leaveRequestDTO struct {
	ID           int64     `json:"id"`
	EmployeeID   int64     `json:"employeeId"`
	StartDate    string    `json:"startDate"`
	EndDate      string    `json:"endDate"`
	Status       string    `json:"status"`
	OwnerAdminID string    `json:"ownerAdminId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toLeaveRequestDTO(lr directory.LeaveRequest) leaveRequestDTO {
	return leaveRequestDTO{
		ID:           lr.ID,
		EmployeeID:   lr.EmployeeID,
		StartDate:    lr.StartDate.Format(dateLayout),
		EndDate:      lr.EndDate.Format(dateLayout),
		Status:       lr.Status,
		OwnerAdminID: lr.OwnerAdminID,
		CreatedAt:    lr.CreatedAt,
	}
}
