package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateful/recipe-auth/internal/auth/oauth"
	"github.com/plateful/recipe-auth/internal/auth/token"
	"github.com/plateful/recipe-auth/internal/cache"
	"github.com/plateful/recipe-auth/internal/config"
)

func newMemoryStore(t *testing.T) cache.Cache {
	t.Helper()
	store, err := cache.New(&config.CacheConfig{
		Type:       "memory",
		TTL:        config.Duration(time.Minute),
		MaxEntries: 100,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newIntrospectionServer(t *testing.T, calls *atomic.Int64, response map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.NoError(t, r.ParseForm())
		_ = json.NewEncoder(w).Encode(response)
	}))
}

func TestIntrospectionProvider_ActiveToken(t *testing.T) {
	var calls atomic.Int64
	server := newIntrospectionServer(t, &calls, map[string]interface{}{
		"active": true,
		"sub":    "user-42",
		"scope":  "admin recipes:write role:premium newsletter",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	defer server.Close()

	client := oauth.NewIntrospectionClient(server.URL, "recipe-service", "secret")
	provider := NewIntrospectionProvider(client, newMemoryStore(t), time.Minute, nil)

	result, err := provider.ValidateToken(context.Background(), "opaque-token", nil)
	require.NoError(t, err)

	assert.Equal(t, "user-42", result.UserID)
	assert.ElementsMatch(t, []string{"admin", "premium"}, result.Roles)
	assert.Equal(t, []string{"recipes:write"}, result.Permissions)
	assert.Equal(t, []string{"admin", "recipes:write", "role:premium", "newsletter"}, result.Scopes)
	assert.Equal(t, TokenTypeAccess, result.TokenType)
}

func TestIntrospectionProvider_DefaultsToUserRole(t *testing.T) {
	var calls atomic.Int64
	server := newIntrospectionServer(t, &calls, map[string]interface{}{
		"active": true,
		"sub":    "user-7",
		"scope":  "newsletter",
	})
	defer server.Close()

	client := oauth.NewIntrospectionClient(server.URL, "recipe-service", "secret")
	provider := NewIntrospectionProvider(client, newMemoryStore(t), time.Minute, nil)

	result, err := provider.ValidateToken(context.Background(), "opaque-token", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"user"}, result.Roles)
}

func TestIntrospectionProvider_CachesPositiveResults(t *testing.T) {
	var calls atomic.Int64
	server := newIntrospectionServer(t, &calls, map[string]interface{}{
		"active": true,
		"sub":    "user-42",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	defer server.Close()

	client := oauth.NewIntrospectionClient(server.URL, "recipe-service", "secret")
	provider := NewIntrospectionProvider(client, newMemoryStore(t), time.Minute, nil)

	first, err := provider.ValidateToken(context.Background(), "opaque-token", nil)
	require.NoError(t, err)

	second, err := provider.ValidateToken(context.Background(), "opaque-token", nil)
	require.NoError(t, err)

	assert.Equal(t, first.UserID, second.UserID)
	assert.Equal(t, int64(1), calls.Load())
}

func TestIntrospectionProvider_NeverCachesRejections(t *testing.T) {
	var calls atomic.Int64
	server := newIntrospectionServer(t, &calls, map[string]interface{}{"active": false})
	defer server.Close()

	client := oauth.NewIntrospectionClient(server.URL, "recipe-service", "secret")
	provider := NewIntrospectionProvider(client, newMemoryStore(t), time.Minute, nil)

	_, err := provider.ValidateToken(context.Background(), "revoked", nil)
	require.ErrorIs(t, err, token.ErrTokenInvalid)

	_, err = provider.ValidateToken(context.Background(), "revoked", nil)
	require.ErrorIs(t, err, token.ErrTokenInvalid)

	assert.Equal(t, int64(2), calls.Load())
}

func TestIntrospectionProvider_MissingSubjectRejected(t *testing.T) {
	var calls atomic.Int64
	server := newIntrospectionServer(t, &calls, map[string]interface{}{"active": true})
	defer server.Close()

	client := oauth.NewIntrospectionClient(server.URL, "recipe-service", "secret")
	provider := NewIntrospectionProvider(client, newMemoryStore(t), time.Minute, nil)

	_, err := provider.ValidateToken(context.Background(), "subjectless", nil)
	require.ErrorIs(t, err, token.ErrTokenInvalid)
}

func TestIntrospectionProvider_UnauthorizedNeverFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	codec := newTestCodec(t, "test-secret")
	fallback := NewLocalJWTProvider(codec, "", nil, nil)

	client := oauth.NewIntrospectionClient(server.URL, "recipe-service", "secret")
	provider := NewIntrospectionProvider(client, newMemoryStore(t), time.Minute, nil,
		WithFallback(fallback))

	signed, err := codec.CreateAccessToken("user-42", nil, nil)
	require.NoError(t, err)

	_, err = provider.ValidateToken(context.Background(), signed, nil)
	require.ErrorIs(t, err, token.ErrTokenInvalid)
}

func TestIntrospectionProvider_UnavailableWithoutFallback(t *testing.T) {
	client := oauth.NewIntrospectionClient("http://127.0.0.1:1", "recipe-service", "secret",
		oauth.WithIntrospectionHTTPClient(&http.Client{Timeout: 200 * time.Millisecond}))
	provider := NewIntrospectionProvider(client, newMemoryStore(t), time.Minute, nil)

	_, err := provider.ValidateToken(context.Background(), "opaque-token", nil)
	require.ErrorIs(t, err, oauth.ErrAuthServiceUnavailable)
}

func TestIntrospectionProvider_UnavailableFallsBackToLocal(t *testing.T) {
	codec := newTestCodec(t, "test-secret")
	fallback := NewLocalJWTProvider(codec, "", nil, nil)

	client := oauth.NewIntrospectionClient("http://127.0.0.1:1", "recipe-service", "secret",
		oauth.WithIntrospectionHTTPClient(&http.Client{Timeout: 200 * time.Millisecond}))
	provider := NewIntrospectionProvider(client, newMemoryStore(t), time.Minute, nil,
		WithFallback(fallback))

	signed, err := codec.CreateAccessToken("user-42", []string{"user"}, nil)
	require.NoError(t, err)

	result, err := provider.ValidateToken(context.Background(), signed, nil)
	require.NoError(t, err)
	assert.Equal(t, "user-42", result.UserID)
}
