package auth

import (
	"context"
	"errors"
	"time"
)

// Token types carried by a Result.
const (
	TokenTypeAccess = "access"
	TokenTypeAPIKey = "api_key"
	TokenTypeHeader = "header"
	TokenTypeNone   = "none"
)

// Result is the normalized output of authentication, regardless of which
// provider produced it. A Result is created fresh per validated request
// and owned exclusively by the caller; it is never persisted.
type Result struct {
	// UserID is the authenticated user identifier (the sub claim).
	UserID string `json:"user_id"`

	// Roles are the role names assigned to the user.
	Roles []string `json:"roles,omitempty"`

	// Permissions are direct permission strings for fine-grained checks.
	Permissions []string `json:"permissions,omitempty"`

	// Scopes are the OAuth2 scopes granted to the credential.
	Scopes []string `json:"scopes,omitempty"`

	// TokenType records what kind of credential was validated
	// (access, api_key, header, none).
	TokenType string `json:"token_type"`

	// Issuer is the iss claim, when known.
	Issuer string `json:"issuer,omitempty"`

	// Audience is the aud claim, when known.
	Audience []string `json:"audience,omitempty"`

	// ExpiresAt is when the credential expires, when known.
	ExpiresAt time.Time `json:"expires_at,omitempty"`

	// IssuedAt is when the credential was issued, when known.
	IssuedAt time.Time `json:"issued_at,omitempty"`

	// RawClaims holds the original claims for auditing and debugging.
	RawClaims map[string]interface{} `json:"raw_claims,omitempty"`
}

// HasRole checks if the result carries a specific role.
func (r *Result) HasRole(role string) bool {
	for _, have := range r.Roles {
		if have == role {
			return true
		}
	}
	return false
}

// HasAnyRole checks if the result carries any of the specified roles.
func (r *Result) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if r.HasRole(role) {
			return true
		}
	}
	return false
}

// HasPermission checks if the result carries a specific permission.
func (r *Result) HasPermission(permission string) bool {
	for _, have := range r.Permissions {
		if have == permission {
			return true
		}
	}
	return false
}

// HasScope checks if the result carries a specific scope.
func (r *Result) HasScope(scope string) bool {
	for _, have := range r.Scopes {
		if have == scope {
			return true
		}
	}
	return false
}

// AnonymousResult returns the result used when authentication is disabled.
func AnonymousResult() *Result {
	return &Result{
		UserID:      "anonymous",
		Roles:       []string{"anonymous"},
		Permissions: []string{},
		Scopes:      []string{},
		TokenType:   TokenTypeNone,
		RawClaims:   map[string]interface{}{"auth_disabled": true},
	}
}

// Context key type for the authentication result.
type resultContextKey struct{}

// ContextWithResult adds an authentication result to the context.
func ContextWithResult(ctx context.Context, result *Result) context.Context {
	return context.WithValue(ctx, resultContextKey{}, result)
}

// ResultFromContext extracts the authentication result from the context.
func ResultFromContext(ctx context.Context) (*Result, bool) {
	result, ok := ctx.Value(resultContextKey{}).(*Result)
	return result, ok
}

// ErrResultNotFound is returned when no result is present in a context.
var ErrResultNotFound = errors.New("authentication result not found in context")

// ResultFromContextOrError extracts the authentication result from the
// context or returns an error. Use after the authentication middleware.
func ResultFromContextOrError(ctx context.Context) (*Result, error) {
	result, ok := ResultFromContext(ctx)
	if !ok || result == nil {
		return nil, ErrResultNotFound
	}
	return result, nil
}
