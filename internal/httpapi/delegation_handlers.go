package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hrportal.org/internal/access"
	"hrportal.org/internal/audit"
	"hrportal.org/internal/stream"
)

type createDelegationBody struct {
	ToAdminID string `json:"toAdminId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Reason    string `json:"reason"`
}

func (a *API) handleDelegations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	a.createDelegation(w, r)
}

// handleDelegationResource dispatches /api/delegations/ subpaths: outgoing,
// incoming, delegated-admins, {id}/revoke.
func (a *API) handleDelegationResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/delegations/"), "/")
	switch rest {
	case "outgoing":
		a.listDelegations(w, r, a.svc.DelegationsFrom)
		return
	case "incoming":
		a.listDelegations(w, r, a.svc.DelegationsTo)
		return
	case "delegated-admins":
		a.delegatedAdmins(w, r)
		return
	}

	rawID, action, ok := strings.Cut(rest, "/")
	if !ok || action != "revoke" {
		http.NotFound(w, r)
		return
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("malformed delegation id %q", rawID))
		return
	}
	a.revokeDelegation(w, r, id)
}

func (a *API) createDelegation(w http.ResponseWriter, r *http.Request) {
	adminID, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	var body createDelegationBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	start, err := time.Parse(dateLayout, body.StartDate)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("malformed startDate %q, want YYYY-MM-DD", body.StartDate))
		return
	}
	end, err := time.Parse(dateLayout, body.EndDate)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("malformed endDate %q, want YYYY-MM-DD", body.EndDate))
		return
	}

	d, err := a.svc.CreateDelegation(r.Context(), adminID, body.ToAdminID, start, end, body.Reason)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}

	ctx := audit.WithRequestID(r.Context(), RequestIDFromContext(r.Context()))
	_ = audit.LogEvent(ctx, "delegation.created", map[string]any{
		"delegation_id": d.ID,
		"to_admin_id":   d.ToAdminID,
		"start_date":    d.StartDate.Format(dateLayout),
		"end_date":      d.EndDate.Format(dateLayout),
	})
	a.publish(stream.AccessEvent{
		Kind:         stream.EventDelegationCreated,
		DelegationID: d.ID,
		ActorAdminID: d.FromAdminID,
		OwnerAdminID: d.FromAdminID,
	})

	writeJSON(w, http.StatusOK, toDelegationDTO(d, a.now()))
}

func (a *API) listDelegations(w http.ResponseWriter, r *http.Request, list func(ctx context.Context, adminID string) ([]access.AdminDelegation, error)) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	adminID, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	delegations, err := list(r.Context(), adminID)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	now := a.now()
	dtos := make([]delegationDTO, 0, len(delegations))
	for _, d := range delegations {
		dtos = append(dtos, toDelegationDTO(d, now))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (a *API) delegatedAdmins(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	adminID, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	adminIDs, err := a.svc.DelegatedAdminIDs(r.Context(), adminID)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	if adminIDs == nil {
		adminIDs = []string{}
	}
	writeJSON(w, http.StatusOK, adminIDs)
}

func (a *API) revokeDelegation(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	adminID, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	if err := a.svc.RevokeDelegation(r.Context(), id, adminID); err != nil {
		handleAccessError(w, r, err)
		return
	}

	ctx := audit.WithRequestID(r.Context(), RequestIDFromContext(r.Context()))
	_ = audit.LogEvent(ctx, "delegation.revoked", map[string]any{
		"delegation_id": id,
	})
	a.publish(stream.AccessEvent{
		Kind:         stream.EventDelegationRevoked,
		DelegationID: id,
		ActorAdminID: adminID,
		OwnerAdminID: adminID,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "delegation revoked",
	})
}
