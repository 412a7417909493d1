package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"hrportal.org/internal/access"
	"hrportal.org/internal/directory"
	"hrportal.org/internal/identity"
	"hrportal.org/internal/obs"
	"hrportal.org/internal/stream"
)

// ReadyProbe reports readiness, pinging the database when one is configured.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the access subsystem and the directory.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	svc    *access.Service
	dir    directory.Directory
	admins identity.CurrentAdminProvider
	stream *stream.Stream

	now func() time.Time

	rateBurst  int
	ratePerSec int
}

func New(rp ReadyProbe, version string, svc *access.Service, dir directory.Directory, admins identity.CurrentAdminProvider, st *stream.Stream) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		svc:        svc,
		dir:        dir,
		admins:     admins,
		stream:     st,
		now:        time.Now,
		rateBurst:  20,
		ratePerSec: 10,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/api/accessrequests", a.handleAccessRequests)
	a.mux.HandleFunc("/api/accessrequests/", a.handleAccessRequestResource)
	a.mux.HandleFunc("/api/delegations", a.handleDelegations)
	a.mux.HandleFunc("/api/delegations/", a.handleDelegationResource)

	a.mux.HandleFunc("/api/employees", a.listResources(access.ResourceEmployee))
	a.mux.HandleFunc("/api/employees/", a.getResource(access.ResourceEmployee))
	a.mux.HandleFunc("/api/candidates", a.listResources(access.ResourceCandidate))
	a.mux.HandleFunc("/api/candidates/", a.getResource(access.ResourceCandidate))
	a.mux.HandleFunc("/api/jobapplications", a.listResources(access.ResourceJobApplication))
	a.mux.HandleFunc("/api/jobapplications/", a.getResource(access.ResourceJobApplication))
	a.mux.HandleFunc("/api/leaverequests", a.listResources(access.ResourceLeaveRequest))
	a.mux.HandleFunc("/api/leaverequests/", a.getResource(access.ResourceLeaveRequest))

	a.mux.HandleFunc("/api/events", a.Events)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler composes the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	h := http.Handler(a.mux)
	h = a.withAdmin(h)
	h = LoggingJSON(h)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// withAdmin resolves the acting admin once per request and stores it in the
// context. Resolution failures are deferred to the handlers: endpoints that
// need an identity report them, public ones ignore them.
func (a *API) withAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.admins != nil {
			if adminID, err := a.admins.AdminID(r); err == nil {
				r = r.WithContext(identity.ContextWithAdminID(r.Context(), adminID))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// requireAdmin extracts the resolved admin id or writes a 400 and reports
// false. The identity header is the whole authentication mechanism here;
// hardening lives behind identity.CurrentAdminProvider.
func (a *API) requireAdmin(w http.ResponseWriter, r *http.Request) (string, bool) {
	adminID, ok := identity.AdminIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusBadRequest, "admin identity is required")
		return "", false
	}
	return adminID, true
}

// --- probes ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "hrportal-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// decodeJSONOptional behaves like decodeJSON but treats an absent body as
// all-defaults.
func decodeJSONOptional(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleAccessError is the single sentinel-to-status translator. Anything
// outside the taxonomy becomes a generic 500; the detail stays in the log.
func handleAccessError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, access.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, access.ErrForbidden):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, access.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		obs.LogRequest(map[string]any{
			"ts":         time.Now().UTC().Format(time.RFC3339Nano),
			"level":      "error",
			"msg":        "request_failed",
			"request_id": RequestIDFromContext(r.Context()),
			"path":       r.URL.Path,
			"error":      err.Error(),
		})
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
