package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// BearerTokenAuth handles Bearer token authentication. An empty token
// disables authentication.
type BearerTokenAuth struct {
	token string
}

// NewBearerTokenAuth creates a new Bearer token authenticator
func NewBearerTokenAuth(token string) *BearerTokenAuth {
	return &BearerTokenAuth{token: strings.TrimSpace(token)}
}

// Enabled reports whether a token is configured
func (b *BearerTokenAuth) Enabled() bool {
	return b.token != ""
}

// IsAuthorized validates Bearer token from Authorization header. Every
// request is authorized when no token is configured.
func (b *BearerTokenAuth) IsAuthorized(r *http.Request) bool {
	if !b.Enabled() {
		return true
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return false
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return false
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(token), []byte(b.token)) == 1
}

// SetUnauthorizedHeaders sets standard WWW-Authenticate header for Bearer auth
func (b *BearerTokenAuth) SetUnauthorizedHeaders(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="fct-api"`)
}
