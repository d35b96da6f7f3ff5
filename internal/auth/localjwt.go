package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/plateful/recipe-auth/internal/auth/token"
	"github.com/plateful/recipe-auth/internal/observability"
)

// LocalJWTProvider validates bearer tokens locally against a shared
// signing secret, without calling any external service. It is used both
// as a standalone mode and as the fallback behind introspection.
type LocalJWTProvider struct {
	codec    *token.Codec
	issuer   string
	audience []string
	logger   observability.Logger
}

// NewLocalJWTProvider creates a local JWT provider.
func NewLocalJWTProvider(codec *token.Codec, issuer string, audience []string, logger observability.Logger) *LocalJWTProvider {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &LocalJWTProvider{
		codec:    codec,
		issuer:   issuer,
		audience: audience,
		logger:   logger,
	}
}

// Name returns the provider name.
func (p *LocalJWTProvider) Name() string {
	return "local_jwt"
}

// ValidateToken decodes and verifies the token locally. Signature,
// expiry and type checks are done by the codec; issuer and audience
// checks happen here. Every mismatch other than expiry is reported as
// an invalid token.
func (p *LocalJWTProvider) ValidateToken(_ context.Context, credential string, _ *http.Request) (*Result, error) {
	if credential == "" {
		return nil, ErrNoCredentials
	}

	payload, err := p.codec.Decode(credential, token.TypeAccess)
	if err != nil {
		return nil, err
	}

	if err := p.checkIssuer(payload); err != nil {
		return nil, err
	}
	if err := p.checkAudience(payload); err != nil {
		return nil, err
	}

	issuer, _ := payload.RawClaims["iss"].(string)

	return &Result{
		UserID:      payload.Subject,
		Roles:       payload.Roles,
		Permissions: payload.Permissions,
		Scopes:      scopesFromClaim(payload.RawClaims["scope"]),
		TokenType:   TokenTypeAccess,
		Issuer:      issuer,
		Audience:    audienceFromClaim(payload.RawClaims["aud"]),
		ExpiresAt:   payload.ExpiresAt,
		IssuedAt:    payload.IssuedAt,
		RawClaims:   payload.RawClaims,
	}, nil
}

// checkIssuer validates the iss claim when an expected issuer is set.
func (p *LocalJWTProvider) checkIssuer(payload *token.Payload) error {
	if p.issuer == "" {
		return nil
	}
	issuer, _ := payload.RawClaims["iss"].(string)
	if issuer != p.issuer {
		p.logger.Warn("token issuer mismatch",
			observability.String("expected", p.issuer),
			observability.String("got", issuer))
		return fmt.Errorf("%w: issuer mismatch", token.ErrTokenInvalid)
	}
	return nil
}

// checkAudience validates the aud claim when an expected audience is set.
// The token passes when any of its audiences matches any expected one.
func (p *LocalJWTProvider) checkAudience(payload *token.Payload) error {
	if len(p.audience) == 0 {
		return nil
	}
	for _, have := range audienceFromClaim(payload.RawClaims["aud"]) {
		for _, want := range p.audience {
			if have == want {
				return nil
			}
		}
	}
	p.logger.Warn("token audience mismatch",
		observability.Strings("expected", p.audience))
	return fmt.Errorf("%w: audience mismatch", token.ErrTokenInvalid)
}

// Initialize validates the provider is usable.
func (p *LocalJWTProvider) Initialize(_ context.Context) error {
	p.logger.Info("local JWT provider initialized",
		observability.Bool("issuerValidation", p.issuer != ""),
		observability.Bool("audienceValidation", len(p.audience) > 0))
	return nil
}

// Shutdown releases nothing.
func (p *LocalJWTProvider) Shutdown(_ context.Context) error {
	return nil
}

// scopesFromClaim parses a space-separated scope claim.
func scopesFromClaim(v interface{}) []string {
	scope, _ := v.(string)
	if scope == "" {
		return []string{}
	}
	return strings.Fields(scope)
}

// audienceFromClaim normalizes a string-or-list aud claim.
func audienceFromClaim(v interface{}) []string {
	switch aud := v.(type) {
	case string:
		if aud == "" {
			return nil
		}
		return []string{aud}
	case []string:
		return aud
	case []interface{}:
		result := make([]string, 0, len(aud))
		for _, item := range aud {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	default:
		return nil
	}
}

// Ensure LocalJWTProvider implements Provider.
var _ Provider = (*LocalJWTProvider)(nil)
