package config

import (
	"errors"
	"fmt"
	"time"
)

// Environment names.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
	EnvTesting     = "testing"
)

// AuthMode selects the authentication provider strategy.
type AuthMode string

// Authentication modes.
const (
	AuthModeDisabled      AuthMode = "disabled"
	AuthModeHeader        AuthMode = "header"
	AuthModeLocalJWT      AuthMode = "local_jwt"
	AuthModeIntrospection AuthMode = "introspection"
)

// Config is the root configuration of the auth subsystem.
type Config struct {
	// Environment is one of development, staging, production, testing.
	Environment string `yaml:"environment" json:"environment"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log" json:"log"`

	// Auth configures inbound request authentication.
	Auth AuthConfig `yaml:"auth" json:"auth"`

	// ServiceToken configures outbound client-credentials tokens.
	ServiceToken ServiceTokenConfig `yaml:"serviceToken" json:"serviceToken"`

	// Cache configures the shared cache used by introspection.
	Cache CacheConfig `yaml:"cache" json:"cache"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
}

// AuthConfig configures inbound authentication.
type AuthConfig struct {
	// Mode selects the provider strategy.
	Mode AuthMode `yaml:"mode" json:"mode"`

	// JWT configures token signing and local validation.
	JWT JWTConfig `yaml:"jwt" json:"jwt"`

	// Headers configures the header provider.
	Headers HeaderConfig `yaml:"headers" json:"headers"`

	// Service configures the remote auth service used for introspection.
	Service ServiceConfig `yaml:"service" json:"service"`

	// Introspection configures introspection behavior.
	Introspection IntrospectionConfig `yaml:"introspection" json:"introspection"`

	// APIKeys is the allow-list for service-to-service API keys.
	APIKeys []string `yaml:"apiKeys,omitempty" json:"apiKeys,omitempty"`

	// APIKeyHeader is the header carrying an API key.
	APIKeyHeader string `yaml:"apiKeyHeader,omitempty" json:"apiKeyHeader,omitempty"`
}

// JWTConfig configures token creation and local verification.
type JWTConfig struct {
	// Secret is the HMAC signing secret. Required in production for
	// local_jwt mode; a fixed development secret is substituted otherwise.
	Secret string `yaml:"secret,omitempty" json:"secret,omitempty"`

	// Algorithm is the signing algorithm (HS256, HS384, HS512).
	Algorithm string `yaml:"algorithm,omitempty" json:"algorithm,omitempty"`

	// AccessTokenTTL is the default access token lifetime.
	AccessTokenTTL Duration `yaml:"accessTokenTTL,omitempty" json:"accessTokenTTL,omitempty"`

	// RefreshTokenTTL is the default refresh token lifetime.
	RefreshTokenTTL Duration `yaml:"refreshTokenTTL,omitempty" json:"refreshTokenTTL,omitempty"`

	// Issuer is the expected iss claim. Empty disables issuer validation.
	Issuer string `yaml:"issuer,omitempty" json:"issuer,omitempty"`

	// Audience is the expected aud claim. Empty disables audience validation.
	Audience []string `yaml:"audience,omitempty" json:"audience,omitempty"`
}

// HeaderConfig configures the header auth provider.
type HeaderConfig struct {
	UserID      string `yaml:"userId,omitempty" json:"userId,omitempty"`
	Roles       string `yaml:"roles,omitempty" json:"roles,omitempty"`
	Permissions string `yaml:"permissions,omitempty" json:"permissions,omitempty"`

	// DefaultRoles is applied when the roles header is absent. It may be
	// explicitly empty to disable implicit privilege in tests.
	DefaultRoles []string `yaml:"defaultRoles" json:"defaultRoles"`
}

// ServiceConfig identifies the remote auth service.
type ServiceConfig struct {
	URL          string `yaml:"url,omitempty" json:"url,omitempty"`
	ClientID     string `yaml:"clientId,omitempty" json:"clientId,omitempty"`
	ClientSecret string `yaml:"clientSecret,omitempty" json:"clientSecret,omitempty"`
}

// IntrospectionConfig configures the introspection provider.
type IntrospectionConfig struct {
	// Timeout bounds a single introspection call.
	Timeout Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// CacheTTL bounds how long a validated result is cached.
	CacheTTL Duration `yaml:"cacheTTL,omitempty" json:"cacheTTL,omitempty"`

	// FallbackLocal enables local JWT validation when the auth service
	// is unreachable.
	FallbackLocal bool `yaml:"fallbackLocal,omitempty" json:"fallbackLocal,omitempty"`
}

// ServiceTokenConfig configures outbound client-credentials exchanges.
type ServiceTokenConfig struct {
	TokenURL     string `yaml:"tokenUrl,omitempty" json:"tokenUrl,omitempty"`
	ClientID     string `yaml:"clientId,omitempty" json:"clientId,omitempty"`
	ClientSecret string `yaml:"clientSecret,omitempty" json:"clientSecret,omitempty"`

	// Timeout bounds a single token exchange.
	Timeout Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// Scopes maps a downstream client name to the OAuth2 scope it needs,
	// e.g. notification: "notification:admin".
	Scopes map[string]string `yaml:"scopes,omitempty" json:"scopes,omitempty"`
}

// CacheConfig configures the shared cache.
type CacheConfig struct {
	// Type is one of memory, redis, none.
	Type string `yaml:"type,omitempty" json:"type,omitempty"`

	// TTL is the default entry lifetime.
	TTL Duration `yaml:"ttl,omitempty" json:"ttl,omitempty"`

	// MaxEntries bounds the memory cache size.
	MaxEntries int `yaml:"maxEntries,omitempty" json:"maxEntries,omitempty"`

	// Redis configures the redis backend.
	Redis RedisConfig `yaml:"redis,omitempty" json:"redis,omitempty"`
}

// RedisConfig configures the redis cache backend.
type RedisConfig struct {
	Address  string `yaml:"address,omitempty" json:"address,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
	DB       int    `yaml:"db,omitempty" json:"db,omitempty"`
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills zero values with defaults.
func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = EnvDevelopment
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Auth.Mode == "" {
		c.Auth.Mode = AuthModeLocalJWT
	}
	if c.Auth.JWT.Algorithm == "" {
		c.Auth.JWT.Algorithm = "HS256"
	}
	if c.Auth.JWT.AccessTokenTTL == 0 {
		c.Auth.JWT.AccessTokenTTL = Duration(30 * time.Minute)
	}
	if c.Auth.JWT.RefreshTokenTTL == 0 {
		c.Auth.JWT.RefreshTokenTTL = Duration(7 * 24 * time.Hour)
	}
	if c.Auth.Headers.UserID == "" {
		c.Auth.Headers.UserID = "X-User-ID"
	}
	if c.Auth.Headers.Roles == "" {
		c.Auth.Headers.Roles = "X-User-Roles"
	}
	if c.Auth.Headers.Permissions == "" {
		c.Auth.Headers.Permissions = "X-User-Permissions"
	}
	if c.Auth.Headers.DefaultRoles == nil {
		c.Auth.Headers.DefaultRoles = []string{"user"}
	}
	if c.Auth.APIKeyHeader == "" {
		c.Auth.APIKeyHeader = "X-API-Key"
	}
	if c.Auth.Introspection.Timeout == 0 {
		c.Auth.Introspection.Timeout = Duration(5 * time.Second)
	}
	if c.Auth.Introspection.CacheTTL == 0 {
		c.Auth.Introspection.CacheTTL = Duration(60 * time.Second)
	}
	if c.ServiceToken.Timeout == 0 {
		c.ServiceToken.Timeout = Duration(10 * time.Second)
	}
	if c.Cache.Type == "" {
		c.Cache.Type = "memory"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = Duration(60 * time.Second)
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = 10000
	}
}

// IsProduction reports whether the environment is production.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvStaging, EnvProduction, EnvTesting:
	default:
		return fmt.Errorf("invalid environment: %q", c.Environment)
	}

	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}
	return nil
}

// Validate validates the authentication configuration.
func (c *AuthConfig) Validate() error {
	switch c.Mode {
	case AuthModeDisabled, AuthModeHeader, AuthModeLocalJWT, AuthModeIntrospection:
	default:
		return fmt.Errorf("invalid auth mode: %q", c.Mode)
	}

	switch c.JWT.Algorithm {
	case "", "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported jwt algorithm: %q", c.JWT.Algorithm)
	}

	if c.JWT.AccessTokenTTL < 0 || c.JWT.RefreshTokenTTL < 0 {
		return errors.New("jwt token TTLs must not be negative")
	}
	return nil
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	switch c.Type {
	case "", "memory", "none":
	case "redis":
		if c.Redis.Address == "" {
			return errors.New("redis cache requires an address")
		}
	default:
		return fmt.Errorf("invalid cache type: %q", c.Type)
	}
	return nil
}
