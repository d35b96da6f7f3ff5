package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/plateful/recipe-auth/internal/auth/oauth"
	"github.com/plateful/recipe-auth/internal/observability"
)

// Authenticator turns an incoming HTTP request into an authenticated
// Result using the active provider and the API key allow-list.
//
// Credential precedence: a valid bearer token always wins. A bearer
// token that fails validation falls through to an API key when one is
// present, so service callers can retry with a stale user token still
// attached. Availability failures of the auth service never fall
// through; they surface to the caller as such.
type Authenticator struct {
	registry  *Registry
	extractor *Extractor
	apiKeys   map[string]struct{}
	logger    observability.Logger
}

// NewAuthenticator creates a request authenticator.
func NewAuthenticator(registry *Registry, extractor *Extractor, apiKeys []string, logger observability.Logger) *Authenticator {
	if extractor == nil {
		extractor = NewExtractor("")
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	keys := make(map[string]struct{}, len(apiKeys))
	for _, key := range apiKeys {
		if key != "" {
			keys[key] = struct{}{}
		}
	}

	return &Authenticator{
		registry:  registry,
		extractor: extractor,
		apiKeys:   keys,
		logger:    logger,
	}
}

// Authenticate authenticates the request and returns the caller's
// identity.
func (a *Authenticator) Authenticate(r *http.Request) (*Result, error) {
	start := time.Now()
	defer func() { authDuration.Observe(time.Since(start).Seconds()) }()

	provider, err := a.registry.Provider()
	if err != nil {
		return nil, err
	}

	bearer := a.extractor.BearerToken(r)
	apiKey := a.extractor.APIKey(r)

	if bearer != "" {
		result, err := provider.ValidateToken(r.Context(), bearer, r)
		if err == nil {
			authAttempts.WithLabelValues("bearer", "success").Inc()
			return result, nil
		}
		if errors.Is(err, oauth.ErrAuthServiceUnavailable) || errors.Is(err, oauth.ErrDownstreamAuth) {
			authAttempts.WithLabelValues("bearer", "unavailable").Inc()
			return nil, err
		}
		if apiKey == "" {
			authAttempts.WithLabelValues("bearer", "rejected").Inc()
			return nil, err
		}
		a.logger.Debug("bearer token rejected, trying api key", observability.Error(err))
	}

	if apiKey != "" {
		return a.authenticateAPIKey(apiKey)
	}

	// No explicit credential. The provider decides what that means:
	// disabled and header modes authenticate without one, token modes
	// report missing credentials.
	result, err := provider.ValidateToken(r.Context(), "", r)
	if err != nil {
		authAttempts.WithLabelValues("none", "rejected").Inc()
		return nil, err
	}
	authAttempts.WithLabelValues("none", "success").Inc()
	return result, nil
}

// authenticateAPIKey checks the key against the allow-list and builds a
// synthetic service identity from its prefix.
func (a *Authenticator) authenticateAPIKey(key string) (*Result, error) {
	if _, ok := a.apiKeys[key]; !ok {
		authAttempts.WithLabelValues("api_key", "rejected").Inc()
		a.logger.Warn("rejected unknown api key",
			observability.String("keyPrefix", keyPrefix(key)))
		return nil, ErrInvalidAPIKey
	}

	authAttempts.WithLabelValues("api_key", "success").Inc()
	return &Result{
		UserID:      "service:" + keyPrefix(key),
		Roles:       []string{"service"},
		Permissions: []string{},
		Scopes:      []string{},
		TokenType:   TokenTypeAPIKey,
		RawClaims: map[string]interface{}{
			"auth_method": "api_key",
		},
	}, nil
}

// keyPrefix returns the first 8 characters of a key, enough to identify
// it in logs without disclosing it.
func keyPrefix(key string) string {
	if len(key) > 8 {
		return key[:8]
	}
	return key
}
