// Package identity isolates how the acting admin is resolved from a request.
// The portal historically trusts a client-supplied X-Admin-Id header; keeping
// that behind CurrentAdminProvider lets deployments swap in the verified
// token provider without touching handlers.
package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// DefaultHeader is the legacy identity header.
const DefaultHeader = "X-Admin-Id"

// ErrNoIdentity is reported when a request carries no usable admin identity.
var ErrNoIdentity = errors.New("identity: missing admin identity")

// CurrentAdminProvider resolves the acting admin id for a request.
type CurrentAdminProvider interface {
	AdminID(r *http.Request) (string, error)
}

// HeaderProvider trusts an unverified identity header. This is a capability
// token in disguise; prefer TokenProvider outside development.
type HeaderProvider struct {
	Header string
}

var _ CurrentAdminProvider = HeaderProvider{}

func (p HeaderProvider) AdminID(r *http.Request) (string, error) {
	header := p.Header
	if header == "" {
		header = DefaultHeader
	}
	id := strings.TrimSpace(r.Header.Get(header))
	if id == "" {
		return "", ErrNoIdentity
	}
	return id, nil
}

type adminContextKey struct{}

// ContextWithAdminID attaches the resolved admin id to the context.
func ContextWithAdminID(ctx context.Context, adminID string) context.Context {
	if adminID == "" {
		return ctx
	}
	return context.WithValue(ctx, adminContextKey{}, adminID)
}

// AdminIDFromContext extracts the resolved admin id from the context.
func AdminIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(adminContextKey{}).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
