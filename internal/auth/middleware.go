package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/plateful/recipe-auth/internal/auth/oauth"
	"github.com/plateful/recipe-auth/internal/auth/token"
	"github.com/plateful/recipe-auth/internal/observability"
)

// errorResponse is the JSON body written for rejected requests.
type errorResponse struct {
	Error string `json:"error"`
}

// Middleware authenticates every request before passing it on. The
// authenticated Result is placed on the request context for handlers.
//
// Rejections are 401 with a WWW-Authenticate challenge. Failures of the
// auth service itself are 503: a caller with a possibly valid token
// must not be told the token is bad.
func Middleware(authenticator *Authenticator, logger observability.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = observability.NopLogger()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := observability.ContextWithRequestID(r.Context(), requestID(r))
			r = r.WithContext(ctx)

			result, err := authenticator.Authenticate(r)
			if err != nil {
				writeAuthError(w, r, err, logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithResult(ctx, result)))
		})
	}
}

// writeAuthError maps an authentication error to an HTTP response.
func writeAuthError(w http.ResponseWriter, r *http.Request, err error, logger observability.Logger) {
	log := logger.WithContext(r.Context())

	if errors.Is(err, oauth.ErrAuthServiceUnavailable) ||
		errors.Is(err, oauth.ErrDownstreamAuth) ||
		errors.Is(err, ErrProviderNotInitialized) {
		log.Error("authentication unavailable",
			observability.String("path", r.URL.Path),
			observability.Error(err))
		writeJSONError(w, http.StatusServiceUnavailable, "authentication service unavailable")
		return
	}

	log.Warn("request rejected",
		observability.String("path", r.URL.Path),
		observability.Error(err))

	w.Header().Set("WWW-Authenticate", "Bearer")
	writeJSONError(w, http.StatusUnauthorized, rejectionMessage(err))
}

// rejectionMessage returns a stable client-facing message for a 401.
// Internal error detail stays in the logs.
func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoCredentials):
		return "missing credentials"
	case errors.Is(err, token.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, ErrInvalidAPIKey):
		return "invalid api key"
	case errors.Is(err, ErrMissingUserHeader):
		return "missing identity headers"
	default:
		return "invalid token"
	}
}

// writeJSONError writes a JSON error body with the given status.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message})
}

// requestID reuses an inbound X-Request-ID or generates one.
func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return uuid.New().String()
}
