package oauth

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
)

func newTokenServer(t *testing.T, expiresIn int64, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "token-" + string(rune('0'+n)),
			"token_type":   "Bearer",
			"expires_in":   expiresIn,
		})
	}))
}

func TestTokenManager_ReusesCachedToken(t *testing.T) {
	var calls atomic.Int64
	server := newTokenServer(t, 3600, &calls)
	defer server.Close()

	manager := NewTokenManager(server.URL, "recipe-service", "secret")

	first, err := manager.ServiceToken(context.Background(), "notification:admin")
	require.NoError(t, err)

	second, err := manager.ServiceToken(context.Background(), "notification:admin")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), calls.Load())
}

func TestTokenManager_CachesPerScope(t *testing.T) {
	var calls atomic.Int64
	server := newTokenServer(t, 3600, &calls)
	defer server.Close()

	manager := NewTokenManager(server.URL, "recipe-service", "secret")

	_, err := manager.ServiceToken(context.Background(), "notification:admin")
	require.NoError(t, err)

	_, err = manager.ServiceToken(context.Background(), "media:write")
	require.NoError(t, err)

	assert.Equal(t, int64(2), calls.Load())
}

func TestTokenManager_RefreshesInsideExpiryBuffer(t *testing.T) {
	var calls atomic.Int64
	server := newTokenServer(t, 90, &calls)
	defer server.Close()

	now := time.Now()
	manager := NewTokenManager(server.URL, "recipe-service", "secret",
		WithClock(func() time.Time { return now }))

	_, err := manager.ServiceToken(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), calls.Load())

	// 40s in, the token has 50s left, inside the 60s safety buffer.
	now = now.Add(40 * time.Second)

	_, err = manager.ServiceToken(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestTokenManager_SendsClientCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "recipe-service", user)
		assert.Equal(t, "hunter2", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "notification:admin", r.PostForm.Get("scope"))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "abc", "expires_in": 300,
		})
	}))
	defer server.Close()

	manager := NewTokenManager(server.URL, "recipe-service", "hunter2")

	token, err := manager.ServiceToken(context.Background(), "notification:admin")
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}

func TestTokenManager_AcceptsNonOK2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "minted", "expires_in": 300,
		})
	}))
	defer server.Close()

	manager := NewTokenManager(server.URL, "recipe-service", "secret")

	token, err := manager.ServiceToken(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "minted", token)
}

func TestTokenManager_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	manager := NewTokenManager(server.URL, "recipe-service", "wrong")

	_, err := manager.ServiceToken(context.Background(), "")
	require.ErrorIs(t, err, ErrDownstreamAuth)
}

func TestTokenManager_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	manager := NewTokenManager(server.URL, "recipe-service", "secret")

	_, err := manager.ServiceToken(context.Background(), "")
	require.ErrorIs(t, err, ErrAuthServiceUnavailable)
}

func TestTokenManager_Unreachable(t *testing.T) {
	manager := NewTokenManager("http://127.0.0.1:1", "recipe-service", "secret",
		WithHTTPClient(&http.Client{Timeout: 200 * time.Millisecond}))

	_, err := manager.ServiceToken(context.Background(), "")
	require.ErrorIs(t, err, ErrAuthServiceUnavailable)
}

func TestTokenManager_Invalidate(t *testing.T) {
	var calls atomic.Int64
	server := newTokenServer(t, 3600, &calls)
	defer server.Close()

	manager := NewTokenManager(server.URL, "recipe-service", "secret")

	_, err := manager.ServiceToken(context.Background(), "media:write")
	require.NoError(t, err)

	manager.Invalidate("media:write")

	_, err = manager.ServiceToken(context.Background(), "media:write")
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestRoundTripper_InjectsBearerToken(t *testing.T) {
	var calls atomic.Int64
	tokenServer := newTokenServer(t, 3600, &calls)
	defer tokenServer.Close()

	var gotAuthorization string
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuthorization = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer downstream.Close()

	manager := NewTokenManager(tokenServer.URL, "recipe-service", "secret")
	client := &http.Client{Transport: manager.RoundTripper("notification:admin", nil)}

	resp, err := client.Get(downstream.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "Bearer token-1", gotAuthorization)
}
