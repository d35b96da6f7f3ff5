package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/plateful/recipe-auth/internal/auth/oauth"
	"github.com/plateful/recipe-auth/internal/auth/token"
	"github.com/plateful/recipe-auth/internal/cache"
	"github.com/plateful/recipe-auth/internal/config"
	"github.com/plateful/recipe-auth/internal/observability"
)

// devJWTSecret is substituted for a missing signing secret outside
// production so local stacks work without configuration. Production
// startup fails instead.
const devJWTSecret = "insecure-dev-key-do-not-use-in-production"

// NewProvider constructs the auth provider selected by cfg.Auth.Mode.
// Misconfiguration is reported as a ConfigurationError naming the
// offending field so startup failures point at the exact setting.
func NewProvider(cfg *config.Config, store cache.Cache, logger observability.Logger) (Provider, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}

	switch cfg.Auth.Mode {
	case config.AuthModeDisabled:
		if cfg.IsProduction() {
			return nil, NewConfigurationError("auth.mode",
				"disabled auth is not allowed in production")
		}
		return NewDisabledProvider(logger), nil

	case config.AuthModeHeader:
		return NewHeaderProvider(cfg.Auth.Headers, logger), nil

	case config.AuthModeLocalJWT:
		return newLocalJWTProvider(cfg, logger)

	case config.AuthModeIntrospection:
		return newIntrospectionProvider(cfg, store, logger)

	default:
		return nil, NewConfigurationError("auth.mode",
			fmt.Sprintf("unknown auth mode %q", cfg.Auth.Mode))
	}
}

// newLocalJWTProvider builds the local JWT provider, resolving the
// signing secret per environment.
func newLocalJWTProvider(cfg *config.Config, logger observability.Logger) (Provider, error) {
	secret, err := resolveJWTSecret(cfg, logger)
	if err != nil {
		return nil, err
	}

	codec, err := token.NewCodec(token.Config{
		Secret:          secret,
		Algorithm:       cfg.Auth.JWT.Algorithm,
		AccessTokenTTL:  cfg.Auth.JWT.AccessTokenTTL.Duration(),
		RefreshTokenTTL: cfg.Auth.JWT.RefreshTokenTTL.Duration(),
	}, token.WithLogger(logger))
	if err != nil {
		return nil, NewConfigurationError("auth.jwt", err.Error())
	}

	return NewLocalJWTProvider(codec, cfg.Auth.JWT.Issuer, cfg.Auth.JWT.Audience, logger), nil
}

// newIntrospectionProvider builds the introspection provider, wiring
// the remote client and the optional local fallback.
func newIntrospectionProvider(cfg *config.Config, store cache.Cache, logger observability.Logger) (Provider, error) {
	service := cfg.Auth.Service
	if service.URL == "" {
		return nil, NewConfigurationError("auth.service.url",
			"introspection mode requires the auth service URL")
	}
	if service.ClientID == "" {
		return nil, NewConfigurationError("auth.service.clientId",
			"introspection mode requires a client id")
	}
	if service.ClientSecret == "" {
		return nil, NewConfigurationError("auth.service.clientSecret",
			"introspection mode requires a client secret")
	}

	timeout := cfg.Auth.Introspection.Timeout.Duration()
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := oauth.NewIntrospectionClient(
		introspectionEndpoint(service.URL),
		service.ClientID,
		service.ClientSecret,
		oauth.WithIntrospectionHTTPClient(&http.Client{Timeout: timeout}),
		oauth.WithIntrospectionLogger(logger),
	)

	opts := []IntrospectionOption{}
	if cfg.Auth.Introspection.FallbackLocal {
		fallback, err := newLocalJWTProvider(cfg, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithFallback(fallback))
	}

	return NewIntrospectionProvider(client, store, cfg.Auth.Introspection.CacheTTL.Duration(), logger, opts...), nil
}

// resolveJWTSecret returns the configured signing secret. Outside
// production a missing secret resolves to the fixed development secret
// with a loud warning; in production it is a startup error.
func resolveJWTSecret(cfg *config.Config, logger observability.Logger) (string, error) {
	if cfg.Auth.JWT.Secret != "" {
		return cfg.Auth.JWT.Secret, nil
	}
	if cfg.IsProduction() {
		return "", NewConfigurationError("auth.jwt.secret",
			"a signing secret is required in production")
	}
	logger.Warn("no JWT secret configured, using the insecure development secret",
		observability.String("environment", cfg.Environment))
	return devJWTSecret, nil
}

// introspectionEndpoint derives the introspection URL from the auth
// service base URL.
func introspectionEndpoint(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/oauth2/introspect"
}
