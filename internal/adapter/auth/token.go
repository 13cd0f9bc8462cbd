// Package auth resolves credentials for remote Git access.
package auth

import (
	"github.com/arturoeanton/go-git-history-service/internal/port"
)

// TokenProvider turns a per-request access token into HTTP basic
// credentials, falling back to a server-wide token when the request
// carries none.
type TokenProvider struct {
	fallback string
}

var _ port.CredentialProvider = (*TokenProvider)(nil)

// NewTokenProvider builds a provider with an optional fallback token.
func NewTokenProvider(fallback string) *TokenProvider {
	return &TokenProvider{fallback: fallback}
}

// Resolve maps a token to basic-auth credentials. The username is the
// fixed literal GitHub expects for installation and PAT tokens; other
// forges accept it as well since only the password is checked. An
// empty token with no fallback yields an empty credential, which the
// sync layer treats as anonymous access.
func (p *TokenProvider) Resolve(token string) port.Credential {
	if token == "" {
		token = p.fallback
	}
	if token == "" {
		return port.Credential{}
	}
	return port.Credential{Username: "x-access-token", Password: token}
}
