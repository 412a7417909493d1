package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"hrportal.org/internal/access"
	"hrportal.org/internal/directory"
)

// listResources serves the collection endpoint for one resource kind. The
// scope parameter narrows to caller-owned rows; "all" performs no grant
// checks and exists for directory-style browsing.
func (a *API) listResources(rt access.ResourceType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		scope, err := directory.ParseScope(r.URL.Query().Get("scope"))
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		var adminID string
		if scope == directory.ScopeMine {
			var ok bool
			adminID, ok = a.requireAdmin(w, r)
			if !ok {
				return
			}
		}

		ctx := r.Context()
		var payload any
		switch rt {
		case access.ResourceEmployee:
			rows, listErr := a.dir.ListEmployees(ctx, scope, adminID)
			err = listErr
			dtos := make([]employeeDTO, 0, len(rows))
			for _, row := range rows {
				dtos = append(dtos, toEmployeeDTO(row))
			}
			payload = dtos
		case access.ResourceCandidate:
			rows, listErr := a.dir.ListCandidates(ctx, scope, adminID)
			err = listErr
			dtos := make([]candidateDTO, 0, len(rows))
			for _, row := range rows {
				dtos = append(dtos, toCandidateDTO(row))
			}
			payload = dtos
		case access.ResourceJobApplication:
			rows, listErr := a.dir.ListJobApplications(ctx, scope, adminID)
			err = listErr
			dtos := make([]jobApplicationDTO, 0, len(rows))
			for _, row := range rows {
				dtos = append(dtos, toJobApplicationDTO(row))
			}
			payload = dtos
		case access.ResourceLeaveRequest:
			rows, listErr := a.dir.ListLeaveRequests(ctx, scope, adminID)
			err = listErr
			dtos := make([]leaveRequestDTO, 0, len(rows))
			for _, row := range rows {
				dtos = append(dtos, toLeaveRequestDTO(row))
			}
			payload = dtos
		}
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)
	}
}

// getResource serves the single-record endpoint for one resource kind,
// gated by the access-grant resolver.
func (a *API) getResource(rt access.ResourceType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		rawID := strings.Trim(r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:], "/")
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, r, http.StatusBadRequest, fmt.Sprintf("malformed resource id %q", rawID))
			return
		}
		adminID, ok := a.requireAdmin(w, r)
		if !ok {
			return
		}

		can, err := a.svc.CanAccess(r.Context(), adminID, rt, id)
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		if !can {
			writeError(w, r, http.StatusForbidden, "access denied")
			return
		}

		ctx := r.Context()
		var payload any
		switch rt {
		case access.ResourceEmployee:
			row, getErr := a.dir.Employee(ctx, id)
			err = getErr
			payload = toEmployeeDTO(row)
		case access.ResourceCandidate:
			row, getErr := a.dir.Candidate(ctx, id)
			err = getErr
			payload = toCandidateDTO(row)
		case access.ResourceJobApplication:
			row, getErr := a.dir.JobApplication(ctx, id)
			err = getErr
			payload = toJobApplicationDTO(row)
		case access.ResourceLeaveRequest:
			row, getErr := a.dir.LeaveRequest(ctx, id)
			err = getErr
			payload = toLeaveRequestDTO(row)
		}
		if err != nil {
			handleAccessError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)
	}
}
