package oauth

import "errors"

// Sentinel errors for outbound calls to the auth service.
var (
	// ErrDownstreamAuth indicates the auth service rejected our client
	// credentials. This is a deployment misconfiguration, not a caller
	// problem.
	ErrDownstreamAuth = errors.New("auth service rejected client credentials")

	// ErrAuthServiceUnavailable indicates the auth service could not be
	// reached or returned an unexpected response.
	ErrAuthServiceUnavailable = errors.New("auth service unavailable")

	// ErrIntrospectionUnauthorized indicates the introspection endpoint
	// returned 401 for the presented token.
	ErrIntrospectionUnauthorized = errors.New("introspection unauthorized")
)
