// Package auth decides who the caller of an inbound request is.
//
// A single authentication strategy is selected at startup from the
// configured mode and held by a Registry for the lifetime of the process.
// Four strategies exist: disabled (anonymous), header (trusted upstream
// headers), local JWT verification, and remote token introspection with
// an optional local fallback. All of them produce the same normalized
// Result, so callers never see the concrete strategy.
//
// The Authenticator ties credential extraction to the active provider and
// exposes an HTTP middleware that maps authentication failures to the
// right status codes: invalid or expired credentials are a 401, an
// unreachable auth service is a 503, never a 401.
package auth
