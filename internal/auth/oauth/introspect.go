package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/plateful/recipe-auth/internal/observability"
)

// IntrospectionResponse is the RFC 7662 response of the introspection
// endpoint. Inactive tokens carry only Active=false.
type IntrospectionResponse struct {
	Active    bool            `json:"active"`
	Subject   string          `json:"sub,omitempty"`
	Scope     string          `json:"scope,omitempty"`
	ClientID  string          `json:"client_id,omitempty"`
	Username  string          `json:"username,omitempty"`
	TokenType string          `json:"token_type,omitempty"`
	ExpiresAt int64           `json:"exp,omitempty"`
	IssuedAt  int64           `json:"iat,omitempty"`
	Issuer    string          `json:"iss,omitempty"`
	Audience  json.RawMessage `json:"aud,omitempty"`
}

// Scopes splits the space-separated scope field.
func (r *IntrospectionResponse) Scopes() []string {
	if r.Scope == "" {
		return []string{}
	}
	return strings.Fields(r.Scope)
}

// AudienceList normalizes the string-or-list aud field.
func (r *IntrospectionResponse) AudienceList() []string {
	if len(r.Audience) == 0 {
		return nil
	}

	var single string
	if err := json.Unmarshal(r.Audience, &single); err == nil {
		return []string{single}
	}

	var list []string
	if err := json.Unmarshal(r.Audience, &list); err == nil {
		return list
	}
	return nil
}

// Expiry returns the exp claim as a time, or the zero time when unset.
func (r *IntrospectionResponse) Expiry() time.Time {
	if r.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(r.ExpiresAt, 0)
}

// IntrospectionClient calls the auth service's token introspection
// endpoint, authenticating with our own client credentials.
type IntrospectionClient struct {
	endpoint     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	logger       observability.Logger
}

// ClientOption configures an IntrospectionClient.
type ClientOption func(*IntrospectionClient)

// WithIntrospectionHTTPClient sets the HTTP client used for
// introspection calls.
func WithIntrospectionHTTPClient(client *http.Client) ClientOption {
	return func(c *IntrospectionClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithIntrospectionLogger sets the logger.
func WithIntrospectionLogger(logger observability.Logger) ClientOption {
	return func(c *IntrospectionClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewIntrospectionClient creates an introspection client for the given
// endpoint URL.
func NewIntrospectionClient(endpoint, clientID, clientSecret string, opts ...ClientOption) *IntrospectionClient {
	c := &IntrospectionClient{
		endpoint:     endpoint,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 5 * time.Second},
		logger:       observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Introspect submits a token to the introspection endpoint. A reachable
// endpoint that marks the token inactive is a successful call; the
// caller decides what inactive means. ErrIntrospectionUnauthorized is
// returned when the endpoint rejects our own credentials or the token
// outright with 401.
func (c *IntrospectionClient) Introspect(ctx context.Context, token string) (*IntrospectionResponse, error) {
	form := url.Values{}
	form.Set("token", token)
	form.Set("token_type_hint", "access_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthServiceUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.clientID, c.clientSecret)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		introspectionRequests.WithLabelValues("error").Inc()
		c.logger.Error("introspection call failed", observability.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrAuthServiceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()
	introspectionDuration.Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		introspectionRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: reading response: %v", ErrAuthServiceUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		introspectionRequests.WithLabelValues("unauthorized").Inc()
		return nil, ErrIntrospectionUnauthorized
	case resp.StatusCode/100 != 2:
		introspectionRequests.WithLabelValues("error").Inc()
		c.logger.Error("introspection endpoint returned unexpected status",
			observability.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: introspection status %d", ErrAuthServiceUnavailable, resp.StatusCode)
	}

	var ir IntrospectionResponse
	if err := json.Unmarshal(body, &ir); err != nil {
		introspectionRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: decoding response: %v", ErrAuthServiceUnavailable, err)
	}

	if ir.Active {
		introspectionRequests.WithLabelValues("active").Inc()
	} else {
		introspectionRequests.WithLabelValues("inactive").Inc()
	}
	return &ir, nil
}
