package auth

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Empty(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Provider()
	require.ErrorIs(t, err, ErrProviderNotInitialized)

	assert.Panics(t, func() { registry.MustProvider() })
	require.ErrorIs(t, registry.Initialize(context.Background()), ErrProviderNotInitialized)
}

func TestRegistry_SetAndGet(t *testing.T) {
	registry := NewRegistry()
	registry.Set(NewDisabledProvider(nil))

	provider, err := registry.Provider()
	require.NoError(t, err)
	assert.Equal(t, "disabled", provider.Name())
	assert.Equal(t, provider, registry.MustProvider())
}

func TestRegistry_ShutdownClearsProvider(t *testing.T) {
	registry := NewRegistry()
	registry.Set(NewDisabledProvider(nil))

	require.NoError(t, registry.Shutdown(context.Background()))

	_, err := registry.Provider()
	require.ErrorIs(t, err, ErrProviderNotInitialized)

	// A second shutdown is a no-op.
	require.NoError(t, registry.Shutdown(context.Background()))
}

func TestDisabledProvider_AlwaysAnonymous(t *testing.T) {
	provider := NewDisabledProvider(nil)
	require.NoError(t, provider.Initialize(context.Background()))

	req, _ := http.NewRequest(http.MethodGet, "/recipes", nil)

	result, err := provider.ValidateToken(context.Background(), "whatever", req)
	require.NoError(t, err)

	assert.Equal(t, "anonymous", result.UserID)
	assert.Equal(t, []string{"anonymous"}, result.Roles)
	assert.Equal(t, TokenTypeNone, result.TokenType)
	assert.Equal(t, true, result.RawClaims["auth_disabled"])

	// No credential at all is equally fine.
	result, err = provider.ValidateToken(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "anonymous", result.UserID)
}
