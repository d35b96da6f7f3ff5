package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/plateful/recipe-auth/internal/observability"
)

// expiryBuffer is subtracted from a token's remaining lifetime when
// deciding whether a cached token is still usable. A token within the
// buffer of its expiry is refreshed early so it cannot expire in flight.
const expiryBuffer = 60 * time.Second

// defaultTokenLifetime is assumed when the token endpoint omits
// expires_in.
const defaultTokenLifetime = 5 * time.Minute

// TokenManager obtains and caches OAuth2 client-credentials tokens for
// calling downstream services. Tokens are cached per scope and reused
// until they come within expiryBuffer of expiring.
type TokenManager struct {
	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	logger       observability.Logger
	now          func() time.Time

	mu     sync.RWMutex
	tokens map[string]*cachedToken
}

type cachedToken struct {
	accessToken string
	expiresAt   time.Time
}

// usable reports whether the token is valid past the safety buffer.
func (t *cachedToken) usable(now time.Time) bool {
	return t != nil && now.Add(expiryBuffer).Before(t.expiresAt)
}

// ManagerOption configures a TokenManager.
type ManagerOption func(*TokenManager)

// WithHTTPClient sets the HTTP client used for token exchanges.
func WithHTTPClient(client *http.Client) ManagerOption {
	return func(m *TokenManager) {
		if client != nil {
			m.httpClient = client
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) ManagerOption {
	return func(m *TokenManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *TokenManager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewTokenManager creates a token manager for the given token endpoint
// and client credentials.
func NewTokenManager(tokenURL, clientID, clientSecret string, opts ...ManagerOption) *TokenManager {
	m := &TokenManager{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		logger:       observability.NopLogger(),
		now:          time.Now,
		tokens:       make(map[string]*cachedToken),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ServiceToken returns a valid access token for the given scope,
// reusing the cached one when it has more than the safety buffer of
// lifetime left. An empty scope requests the client's default scopes.
//
// The cache lock is not held across the network call, so two
// goroutines that miss simultaneously may both fetch; the second
// response wins. That duplicate exchange is harmless and cheaper than
// serializing all callers behind a single fetch.
func (m *TokenManager) ServiceToken(ctx context.Context, scope string) (string, error) {
	m.mu.RLock()
	cached := m.tokens[scope]
	m.mu.RUnlock()

	if cached.usable(m.now()) {
		tokenCacheHits.Inc()
		return cached.accessToken, nil
	}

	token, expiresAt, err := m.fetchToken(ctx, scope)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.tokens[scope] = &cachedToken{accessToken: token, expiresAt: expiresAt}
	m.mu.Unlock()

	m.logger.Debug("service token obtained",
		observability.String("scope", scope),
		observability.Time("expiresAt", expiresAt))

	return token, nil
}

// Invalidate drops the cached token for a scope, forcing the next
// ServiceToken call to fetch a fresh one. Use after a downstream 401.
func (m *TokenManager) Invalidate(scope string) {
	m.mu.Lock()
	delete(m.tokens, scope)
	m.mu.Unlock()
}

// tokenResponse is the token endpoint response body.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}

// fetchToken performs a client-credentials exchange.
func (m *TokenManager) fetchToken(ctx context.Context, scope string) (string, time.Time, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	if scope != "" {
		form.Set("scope", scope)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrAuthServiceUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(m.clientID, m.clientSecret)

	start := m.now()
	resp, err := m.httpClient.Do(req)
	if err != nil {
		tokenRequests.WithLabelValues("error").Inc()
		m.logger.Error("token exchange failed",
			observability.String("scope", scope),
			observability.Error(err))
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrAuthServiceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()
	tokenRequestDuration.Observe(m.now().Sub(start).Seconds())

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		tokenRequests.WithLabelValues("error").Inc()
		return "", time.Time{}, fmt.Errorf("%w: reading response: %v", ErrAuthServiceUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		tokenRequests.WithLabelValues("unauthorized").Inc()
		m.logger.Error("auth service rejected client credentials",
			observability.String("clientId", m.clientID),
			observability.String("scope", scope))
		return "", time.Time{}, ErrDownstreamAuth
	case resp.StatusCode/100 != 2:
		tokenRequests.WithLabelValues("error").Inc()
		m.logger.Error("token endpoint returned unexpected status",
			observability.Int("status", resp.StatusCode),
			observability.String("scope", scope))
		return "", time.Time{}, fmt.Errorf("%w: token endpoint status %d", ErrAuthServiceUnavailable, resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		tokenRequests.WithLabelValues("error").Inc()
		return "", time.Time{}, fmt.Errorf("%w: decoding response: %v", ErrAuthServiceUnavailable, err)
	}
	if tr.AccessToken == "" {
		tokenRequests.WithLabelValues("error").Inc()
		return "", time.Time{}, fmt.Errorf("%w: token endpoint returned no access_token", ErrAuthServiceUnavailable)
	}

	lifetime := defaultTokenLifetime
	if tr.ExpiresIn > 0 {
		lifetime = time.Duration(tr.ExpiresIn) * time.Second
	}

	tokenRequests.WithLabelValues("success").Inc()
	return tr.AccessToken, m.now().Add(lifetime), nil
}

// RoundTripper returns a transport that injects a bearer service token
// for the given scope into every outgoing request. It wraps base, or
// http.DefaultTransport when base is nil.
func (m *TokenManager) RoundTripper(scope string, base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &serviceTokenTransport{manager: m, scope: scope, base: base}
}

type serviceTokenTransport struct {
	manager *TokenManager
	scope   string
	base    http.RoundTripper
}

func (t *serviceTokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.manager.ServiceToken(req.Context(), t.scope)
	if err != nil {
		return nil, err
	}

	// RoundTrippers must not mutate the original request.
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return t.base.RoundTrip(clone)
}
