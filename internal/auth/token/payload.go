package token

import "time"

// Token types.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Reserved claim names that extra claims must never overwrite.
var reservedClaims = map[string]bool{
	"sub":         true,
	"exp":         true,
	"iat":         true,
	"jti":         true,
	"type":        true,
	"roles":       true,
	"permissions": true,
}

// Payload is the decoded content of a signed token.
type Payload struct {
	// Subject is the user ID the token was issued for.
	Subject string

	// IssuedAt is when the token was created.
	IssuedAt time.Time

	// ExpiresAt is when the token stops being valid. Always after IssuedAt.
	ExpiresAt time.Time

	// TokenID is the jti claim, present only when the issuer attached one.
	// It is the hook for external revocation-list lookups.
	TokenID string

	// Type is either "access" or "refresh".
	Type string

	// Roles are the role names carried by the token.
	Roles []string

	// Permissions are the direct permission strings carried by the token.
	Permissions []string

	// RawClaims holds every claim as decoded, for auditing and for
	// callers that need non-standard claims.
	RawClaims map[string]interface{}
}
