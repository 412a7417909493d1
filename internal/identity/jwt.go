package identity

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// TokenProvider resolves the admin id from a signed HS256 bearer token. The
// subject claim carries the admin id.
type TokenProvider struct {
	secret []byte
	issuer string
}

var _ CurrentAdminProvider = (*TokenProvider)(nil)

// NewTokenProvider constructs a provider from a shared secret. issuer is
// optional; when set the token's iss claim must match.
func NewTokenProvider(secret, issuer string) (*TokenProvider, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("identity: token secret is required")
	}
	return &TokenProvider{secret: []byte(secret), issuer: strings.TrimSpace(issuer)}, nil
}

func (p *TokenProvider) AdminID(r *http.Request) (string, error) {
	raw, err := extractBearerToken(r.Header.Get(authHeader))
	if err != nil {
		return "", err
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return p.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoIdentity, err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || strings.TrimSpace(subject) == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrNoIdentity)
	}
	return strings.TrimSpace(subject), nil
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrNoIdentity
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", fmt.Errorf("%w: invalid authorization scheme", ErrNoIdentity)
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", ErrNoIdentity
	}
	return token, nil
}
