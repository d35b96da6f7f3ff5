package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateful/recipe-auth/internal/auth/token"
)

func newTestCodec(t *testing.T, secret string) *token.Codec {
	t.Helper()
	codec, err := token.NewCodec(token.Config{Secret: secret})
	require.NoError(t, err)
	return codec
}

func TestLocalJWTProvider_ValidToken(t *testing.T) {
	codec := newTestCodec(t, "test-secret")
	provider := NewLocalJWTProvider(codec, "", nil, nil)

	signed, err := codec.CreateAccessToken("user-42",
		[]string{"user", "premium"}, []string{"recipes:write"},
		token.WithExtraClaims(map[string]interface{}{"scope": "recipes:read recipes:write"}))
	require.NoError(t, err)

	result, err := provider.ValidateToken(context.Background(), signed, nil)
	require.NoError(t, err)

	assert.Equal(t, "user-42", result.UserID)
	assert.Equal(t, []string{"user", "premium"}, result.Roles)
	assert.Equal(t, []string{"recipes:write"}, result.Permissions)
	assert.Equal(t, []string{"recipes:read", "recipes:write"}, result.Scopes)
	assert.Equal(t, TokenTypeAccess, result.TokenType)
	assert.WithinDuration(t, time.Now().Add(token.DefaultAccessTokenTTL), result.ExpiresAt, 2*time.Second)
}

func TestLocalJWTProvider_EmptyCredential(t *testing.T) {
	provider := NewLocalJWTProvider(newTestCodec(t, "test-secret"), "", nil, nil)

	_, err := provider.ValidateToken(context.Background(), "", nil)
	require.ErrorIs(t, err, ErrNoCredentials)
}

func TestLocalJWTProvider_WrongSecret(t *testing.T) {
	signer := newTestCodec(t, "other-secret")
	provider := NewLocalJWTProvider(newTestCodec(t, "test-secret"), "", nil, nil)

	signed, err := signer.CreateAccessToken("user-42", nil, nil)
	require.NoError(t, err)

	_, err = provider.ValidateToken(context.Background(), signed, nil)
	require.ErrorIs(t, err, token.ErrTokenInvalid)
}

func TestLocalJWTProvider_ExpiredToken(t *testing.T) {
	codec := newTestCodec(t, "test-secret")
	provider := NewLocalJWTProvider(codec, "", nil, nil)

	signed, err := codec.CreateAccessToken("user-42", nil, nil,
		token.WithExpiry(-time.Minute))
	require.NoError(t, err)

	_, err = provider.ValidateToken(context.Background(), signed, nil)
	require.ErrorIs(t, err, token.ErrTokenExpired)
}

func TestLocalJWTProvider_RefreshTokenRejected(t *testing.T) {
	codec := newTestCodec(t, "test-secret")
	provider := NewLocalJWTProvider(codec, "", nil, nil)

	signed, err := codec.CreateRefreshToken("user-42")
	require.NoError(t, err)

	_, err = provider.ValidateToken(context.Background(), signed, nil)
	require.ErrorIs(t, err, token.ErrTokenInvalid)
}

func TestLocalJWTProvider_IssuerValidation(t *testing.T) {
	codec := newTestCodec(t, "test-secret")
	provider := NewLocalJWTProvider(codec, "https://auth.plateful.dev", nil, nil)

	good, err := codec.CreateAccessToken("user-42", nil, nil,
		token.WithExtraClaims(map[string]interface{}{"iss": "https://auth.plateful.dev"}))
	require.NoError(t, err)

	result, err := provider.ValidateToken(context.Background(), good, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://auth.plateful.dev", result.Issuer)

	bad, err := codec.CreateAccessToken("user-42", nil, nil,
		token.WithExtraClaims(map[string]interface{}{"iss": "https://evil.example"}))
	require.NoError(t, err)

	_, err = provider.ValidateToken(context.Background(), bad, nil)
	require.ErrorIs(t, err, token.ErrTokenInvalid)

	missing, err := codec.CreateAccessToken("user-42", nil, nil)
	require.NoError(t, err)

	_, err = provider.ValidateToken(context.Background(), missing, nil)
	require.ErrorIs(t, err, token.ErrTokenInvalid)
}

func TestLocalJWTProvider_AudienceValidation(t *testing.T) {
	codec := newTestCodec(t, "test-secret")
	provider := NewLocalJWTProvider(codec, "", []string{"recipe-api"}, nil)

	good, err := codec.CreateAccessToken("user-42", nil, nil,
		token.WithExtraClaims(map[string]interface{}{"aud": []string{"media-api", "recipe-api"}}))
	require.NoError(t, err)

	result, err := provider.ValidateToken(context.Background(), good, nil)
	require.NoError(t, err)
	assert.Contains(t, result.Audience, "recipe-api")

	bad, err := codec.CreateAccessToken("user-42", nil, nil,
		token.WithExtraClaims(map[string]interface{}{"aud": "media-api"}))
	require.NoError(t, err)

	_, err = provider.ValidateToken(context.Background(), bad, nil)
	require.ErrorIs(t, err, token.ErrTokenInvalid)
}
