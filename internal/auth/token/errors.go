package token

import "errors"

// Sentinel errors for token operations.
var (
	// ErrTokenExpired indicates a well-formed, correctly signed token
	// whose expiry has passed. Callers should prompt a refresh.
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenInvalid indicates a malformed token, a bad signature, or a
	// token of the wrong type. Callers should reject outright.
	ErrTokenInvalid = errors.New("invalid token")
)
