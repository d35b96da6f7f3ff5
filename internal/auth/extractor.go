package auth

import (
	"net/http"
	"strings"
)

// DefaultAPIKeyHeader is the header carrying service API keys.
const DefaultAPIKeyHeader = "X-API-Key"

// Extractor extracts credentials from HTTP requests.
type Extractor struct {
	apiKeyHeader string
}

// NewExtractor creates a credential extractor. An empty apiKeyHeader
// falls back to DefaultAPIKeyHeader.
func NewExtractor(apiKeyHeader string) *Extractor {
	if apiKeyHeader == "" {
		apiKeyHeader = DefaultAPIKeyHeader
	}
	return &Extractor{apiKeyHeader: apiKeyHeader}
}

// BearerToken extracts a bearer token from the Authorization header.
// Returns an empty string when no well-formed bearer credential is present.
func (e *Extractor) BearerToken(r *http.Request) string {
	return ExtractBearerToken(r)
}

// APIKey extracts an API key from the configured header.
func (e *Extractor) APIKey(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(e.apiKeyHeader))
}

// ExtractBearerToken extracts a bearer token from the Authorization header.
func ExtractBearerToken(r *http.Request) string {
	authorization := r.Header.Get("Authorization")
	if authorization == "" {
		return ""
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(authorization, prefix) {
		return ""
	}

	return strings.TrimSpace(authorization[len(prefix):])
}
