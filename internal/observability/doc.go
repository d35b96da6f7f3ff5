// Package observability provides structured logging for the auth subsystem.
//
// The Logger interface wraps go.uber.org/zap so packages never depend on a
// concrete logging implementation. A no-op logger is available for tests
// and for callers that do not care about log output.
package observability
