// Package oauth implements the outbound OAuth2 surface of the auth
// subsystem: the client-credentials token manager used to call
// downstream services, and the token introspection client used to
// validate inbound tokens against the central auth service.
package oauth
