package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/plateful/recipe-auth/internal/auth/oauth"
	"github.com/plateful/recipe-auth/internal/auth/token"
	"github.com/plateful/recipe-auth/internal/cache"
	"github.com/plateful/recipe-auth/internal/observability"
)

// introspectCachePrefix namespaces cached introspection results.
const introspectCachePrefix = "auth:introspect:"

// knownRoles are scope values interpreted directly as roles.
var knownRoles = map[string]struct{}{
	"user":      {},
	"premium":   {},
	"moderator": {},
	"admin":     {},
	"service":   {},
}

// IntrospectionProvider validates tokens against the central auth
// service and caches positive results. Negative results are never
// cached, so a freshly issued token is usable immediately after a
// rejection. When the service is unreachable and a fallback provider is
// configured, validation degrades to local verification.
type IntrospectionProvider struct {
	client   *oauth.IntrospectionClient
	store    cache.Cache
	cacheTTL time.Duration
	fallback Provider
	logger   observability.Logger
	now      func() time.Time
}

// IntrospectionOption configures an IntrospectionProvider.
type IntrospectionOption func(*IntrospectionProvider)

// WithFallback sets a provider used when the auth service is
// unreachable. Rejections by the auth service never fall back.
func WithFallback(fallback Provider) IntrospectionOption {
	return func(p *IntrospectionProvider) {
		p.fallback = fallback
	}
}

// WithIntrospectionClock overrides the time source, for tests.
func WithIntrospectionClock(now func() time.Time) IntrospectionOption {
	return func(p *IntrospectionProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// NewIntrospectionProvider creates an introspection provider. The store
// may be a noop cache to disable result caching.
func NewIntrospectionProvider(client *oauth.IntrospectionClient, store cache.Cache, cacheTTL time.Duration, logger observability.Logger, opts ...IntrospectionOption) *IntrospectionProvider {
	if store == nil {
		store = cache.NewNoop()
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	p := &IntrospectionProvider{
		client:   client,
		store:    store,
		cacheTTL: cacheTTL,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider name.
func (p *IntrospectionProvider) Name() string {
	return "introspection"
}

// ValidateToken checks the cache, then calls the introspection
// endpoint. Inactive tokens and tokens without a subject are invalid.
// An unreachable auth service either falls back to local validation or
// surfaces as a service availability error, never as a 401.
func (p *IntrospectionProvider) ValidateToken(ctx context.Context, credential string, r *http.Request) (*Result, error) {
	if credential == "" {
		return nil, ErrNoCredentials
	}

	key := cache.CredentialKey(introspectCachePrefix, credential)

	if data, err := p.store.Get(ctx, key); err == nil {
		var result Result
		if err := json.Unmarshal(data, &result); err == nil {
			p.logger.Debug("introspection cache hit",
				observability.String("userId", result.UserID))
			return &result, nil
		}
		// Corrupt entry; drop it and introspect.
		_ = p.store.Delete(ctx, key)
	}

	ir, err := p.client.Introspect(ctx, credential)
	if err != nil {
		if errors.Is(err, oauth.ErrIntrospectionUnauthorized) {
			return nil, token.ErrTokenInvalid
		}
		if p.fallback != nil {
			p.logger.Warn("auth service unreachable, falling back to local validation",
				observability.Error(err))
			return p.fallback.ValidateToken(ctx, credential, r)
		}
		return nil, err
	}

	if !ir.Active || ir.Subject == "" {
		return nil, token.ErrTokenInvalid
	}

	scopes := ir.Scopes()
	result := &Result{
		UserID:      ir.Subject,
		Roles:       rolesFromScopes(scopes),
		Permissions: permissionsFromScopes(scopes),
		Scopes:      scopes,
		TokenType:   TokenTypeAccess,
		Issuer:      ir.Issuer,
		Audience:    ir.AudienceList(),
		ExpiresAt:   ir.Expiry(),
		IssuedAt:    issuedAt(ir.IssuedAt),
		RawClaims: map[string]interface{}{
			"sub":       ir.Subject,
			"scope":     ir.Scope,
			"client_id": ir.ClientID,
		},
	}

	p.cacheResult(ctx, key, result)
	return result, nil
}

// cacheResult stores a positive result, clamped to the token's
// remaining lifetime.
func (p *IntrospectionProvider) cacheResult(ctx context.Context, key string, result *Result) {
	ttl := p.cacheTTL
	if !result.ExpiresAt.IsZero() {
		if remaining := result.ExpiresAt.Sub(p.now()); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl <= 0 {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := p.store.Set(ctx, key, data, ttl); err != nil {
		p.logger.Warn("failed to cache introspection result", observability.Error(err))
	}
}

// Initialize initializes the fallback provider when present.
func (p *IntrospectionProvider) Initialize(ctx context.Context) error {
	p.logger.Info("introspection provider initialized",
		observability.Bool("fallbackEnabled", p.fallback != nil),
		observability.Duration("cacheTTL", p.cacheTTL))
	if p.fallback != nil {
		return p.fallback.Initialize(ctx)
	}
	return nil
}

// Shutdown shuts down the fallback provider when present.
func (p *IntrospectionProvider) Shutdown(ctx context.Context) error {
	if p.fallback != nil {
		return p.fallback.Shutdown(ctx)
	}
	return nil
}

// rolesFromScopes derives roles from OAuth2 scopes. Plain scopes
// matching a known role name become that role, scopes with a "role:"
// prefix become the suffix, and everything else is ignored here. A
// token that yields no roles gets the base user role.
func rolesFromScopes(scopes []string) []string {
	roles := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		if _, ok := knownRoles[scope]; ok {
			roles = append(roles, scope)
			continue
		}
		if len(scope) > 5 && scope[:5] == "role:" {
			roles = append(roles, scope[5:])
		}
	}
	if len(roles) == 0 {
		roles = append(roles, "user")
	}
	return roles
}

// permissionsFromScopes derives permissions from OAuth2 scopes. Scopes
// in resource:action form that are not role markers are permissions.
func permissionsFromScopes(scopes []string) []string {
	permissions := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		if len(scope) > 5 && scope[:5] == "role:" {
			continue
		}
		for i := 0; i < len(scope); i++ {
			if scope[i] == ':' {
				permissions = append(permissions, scope)
				break
			}
		}
	}
	return permissions
}

func issuedAt(unix int64) time.Time {
	if unix == 0 {
		return time.Time{}
	}
	return time.Unix(unix, 0)
}

// Ensure IntrospectionProvider implements Provider.
var _ Provider = (*IntrospectionProvider)(nil)
