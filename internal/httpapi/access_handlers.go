package httpapi

import (
	"net/http"
	"strings"

	"hrportal.org/internal/access"
	"hrportal.org/internal/audit"
	"hrportal.org/internal/stream"
)

type createAccessRequestBody struct {
	ResourceType string `json:"resourceType"`
	ResourceID   int64  `json:"resourceId"`
	Note         string `json:"note"`
}

type decideAccessRequestBody struct {
	AllowMinutes int `json:"allowMinutes"`
}

func (a *API) handleAccessRequests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	a.createAccessRequest(w, r)
}

// handleAccessRequestResource dispatches /api/accessrequests/ subpaths:
// inbox, outbox, {id}/approve, {id}/deny.
func (a *API) handleAccessRequestResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/accessrequests/"), "/")
	switch rest {
	case "inbox":
		a.accessRequestInbox(w, r)
		return
	case "outbox":
		a.accessRequestOutbox(w, r)
		return
	}

	rawID, action, ok := strings.Cut(rest, "/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	id, err := access.ParseRequestID(rawID)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	switch action {
	case "approve":
		a.approveAccessRequest(w, r, id)
	case "deny":
		a.denyAccessRequest(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (a *API) createAccessRequest(w http.ResponseWriter, r *http.Request) {
	adminID, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	var body createAccessRequestBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	rt, err := access.ParseResourceType(body.ResourceType)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}

	req, err := a.svc.CreateRequest(r.Context(), adminID, rt, body.ResourceID, body.Note)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}

	ctx := audit.WithRequestID(r.Context(), RequestIDFromContext(r.Context()))
	_ = audit.LogEvent(ctx, "access_request.created", map[string]any{
		"access_request_id": access.FormatRequestID(req.ID),
		"resource_type":     string(req.ResourceType),
		"resource_id":       req.ResourceID,
		"owner_admin_id":    req.OwnerAdminID,
	})
	a.publish(stream.AccessEvent{
		Kind:         stream.EventRequestCreated,
		RequestID:    access.FormatRequestID(req.ID),
		ActorAdminID: req.RequesterAdminID,
		OwnerAdminID: req.OwnerAdminID,
		ResourceType: string(req.ResourceType),
		ResourceID:   req.ResourceID,
	})

	writeJSON(w, http.StatusOK, toAccessRequestDTO(req))
}

func (a *API) accessRequestInbox(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	adminID, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	reqs, err := a.svc.Inbox(r.Context(), adminID)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccessRequestDTOs(reqs))
}

func (a *API) accessRequestOutbox(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	adminID, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	reqs, err := a.svc.Outbox(r.Context(), adminID)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccessRequestDTOs(reqs))
}

func (a *API) approveAccessRequest(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	adminID, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	var body decideAccessRequestBody
	if err := decodeJSONOptional(w, r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	req, err := a.svc.Approve(r.Context(), id, adminID, body.AllowMinutes)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}

	ctx := audit.WithRequestID(r.Context(), RequestIDFromContext(r.Context()))
	_ = audit.LogEvent(ctx, "access_request.approved", map[string]any{
		"access_request_id": access.FormatRequestID(req.ID),
		"allowed_until":     req.AllowedUntil,
	})
	a.publish(stream.AccessEvent{
		Kind:         stream.EventRequestApproved,
		RequestID:    access.FormatRequestID(req.ID),
		ActorAdminID: req.OwnerAdminID,
		OwnerAdminID: req.OwnerAdminID,
		ResourceType: string(req.ResourceType),
		ResourceID:   req.ResourceID,
	})

	writeJSON(w, http.StatusOK, toAccessRequestDTO(req))
}

func (a *API) denyAccessRequest(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	adminID, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}

	req, err := a.svc.Deny(r.Context(), id, adminID)
	if err != nil {
		handleAccessError(w, r, err)
		return
	}

	ctx := audit.WithRequestID(r.Context(), RequestIDFromContext(r.Context()))
	_ = audit.LogEvent(ctx, "access_request.denied", map[string]any{
		"access_request_id": access.FormatRequestID(req.ID),
	})
	a.publish(stream.AccessEvent{
		Kind:         stream.EventRequestDenied,
		RequestID:    access.FormatRequestID(req.ID),
		ActorAdminID: req.OwnerAdminID,
		OwnerAdminID: req.OwnerAdminID,
		ResourceType: string(req.ResourceType),
		ResourceID:   req.ResourceID,
	})

	writeJSON(w, http.StatusOK, toAccessRequestDTO(req))
}

func (a *API) publish(evt stream.AccessEvent) {
	if a.stream != nil {
		a.stream.Publish(evt)
	}
}

func toAccessRequestDTOs(reqs []access.AccessRequest) []accessRequestDTO {
	dtos := make([]accessRequestDTO, 0, len(reqs))
	for _, req := range reqs {
		dtos = append(dtos, toAccessRequestDTO(req))
	}
	return dtos
}
