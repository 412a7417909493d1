package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"/":                                 "/",
		"/healthz":                          "/healthz",
		"/metrics":                          "/metrics",
		"/api/accessrequests":               "/api/accessrequests",
		"/api/accessrequests/inbox":         "/api/accessrequests/inbox",
		"/api/accessrequests/outbox":        "/api/accessrequests/outbox",
		"/api/accessrequests/AR-7/approve":  "/api/accessrequests/:id/approve",
		"/api/accessrequests/42/deny":       "/api/accessrequests/:id/deny",
		"/api/delegations/outgoing":         "/api/delegations/outgoing",
		"/api/delegations/incoming":         "/api/delegations/incoming",
		"/api/delegations/delegated-admins": "/api/delegations/delegated-admins",
		"/api/delegations/3/revoke":         "/api/delegations/:id/revoke",
		"/api/employees/15":                 "/api/employees/:id",
		"/api/employees?scope=yours":        "/api/employees",
		"/api/leaverequests/9":              "/api/leaverequests/:id",
		"/api/events":                       "/api/events",
	}
	for in, want := range cases {
		if got := CanonicalPath(in); got != want {
			t.Fatalf("CanonicalPath(%q) = %q, want %q", in, got, want)
		}
	}
}
