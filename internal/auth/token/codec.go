package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/plateful/recipe-auth/internal/observability"
)

// Default token lifetimes, used when the config leaves them unset.
const (
	DefaultAccessTokenTTL  = 30 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Config configures a Codec.
type Config struct {
	// Secret is the HMAC signing secret.
	Secret string

	// Algorithm is the signing algorithm (HS256, HS384, HS512).
	Algorithm string

	// AccessTokenTTL is the default access token lifetime.
	AccessTokenTTL time.Duration

	// RefreshTokenTTL is the default refresh token lifetime.
	RefreshTokenTTL time.Duration
}

// Codec creates and verifies signed tokens.
type Codec struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     observability.Logger
	now        func() time.Time
}

// Option is a functional option for the Codec.
type Option func(*Codec)

// WithLogger sets the codec logger.
func WithLogger(logger observability.Logger) Option {
	return func(c *Codec) {
		c.logger = logger
	}
}

// WithClock overrides the time source. Intended for tests that need to
// move past a token's expiry without sleeping.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec creates a new token codec.
func NewCodec(cfg Config, opts ...Option) (*Codec, error) {
	if cfg.Secret == "" {
		return nil, errors.New("signing secret is required")
	}

	algorithm := cfg.Algorithm
	if algorithm == "" {
		algorithm = "HS256"
	}
	method := jwt.GetSigningMethod(algorithm)
	if method == nil || !strings.HasPrefix(algorithm, "HS") {
		return nil, fmt.Errorf("unsupported signing algorithm: %s", algorithm)
	}

	c := &Codec{
		secret:     []byte(cfg.Secret),
		method:     method,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		logger:     observability.NopLogger(),
		now:        time.Now,
	}
	if c.accessTTL <= 0 {
		c.accessTTL = DefaultAccessTokenTTL
	}
	if c.refreshTTL <= 0 {
		c.refreshTTL = DefaultRefreshTokenTTL
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// IssueOption customizes a single token issuance.
type IssueOption func(*issueOptions)

type issueOptions struct {
	expiresIn   time.Duration
	extraClaims map[string]interface{}
	tokenID     string
	generateJTI bool
}

// WithExpiry overrides the default token lifetime.
func WithExpiry(d time.Duration) IssueOption {
	return func(o *issueOptions) {
		o.expiresIn = d
	}
}

// WithExtraClaims merges additional claims into the token. Reserved
// claims (sub, exp, iat, jti, type, roles, permissions) are never
// overwritten.
func WithExtraClaims(claims map[string]interface{}) IssueOption {
	return func(o *issueOptions) {
		o.extraClaims = claims
	}
}

// WithTokenID attaches a jti claim for revocation tracking.
func WithTokenID(id string) IssueOption {
	return func(o *issueOptions) {
		o.tokenID = id
	}
}

// WithGeneratedTokenID attaches a freshly generated jti claim.
func WithGeneratedTokenID() IssueOption {
	return func(o *issueOptions) {
		o.generateJTI = true
	}
}

// CreateAccessToken signs a new access token for the subject.
func (c *Codec) CreateAccessToken(subject string, roles, permissions []string, opts ...IssueOption) (string, error) {
	options := applyIssueOptions(opts)

	expiresIn := options.expiresIn
	if expiresIn == 0 {
		expiresIn = c.accessTTL
	}

	now := c.now()
	claims := jwt.MapClaims{
		"sub":         subject,
		"exp":         jwt.NewNumericDate(now.Add(expiresIn)),
		"iat":         jwt.NewNumericDate(now),
		"type":        TypeAccess,
		"roles":       emptyIfNil(roles),
		"permissions": emptyIfNil(permissions),
	}
	c.attachTokenID(claims, options)
	mergeExtraClaims(claims, options.extraClaims)

	return c.sign(claims)
}

// CreateRefreshToken signs a new refresh token for the subject. Refresh
// tokens carry no roles or permissions and live longer than access tokens.
func (c *Codec) CreateRefreshToken(subject string, opts ...IssueOption) (string, error) {
	options := applyIssueOptions(opts)

	expiresIn := options.expiresIn
	if expiresIn == 0 {
		expiresIn = c.refreshTTL
	}

	now := c.now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"exp":  jwt.NewNumericDate(now.Add(expiresIn)),
		"iat":  jwt.NewNumericDate(now),
		"type": TypeRefresh,
	}
	c.attachTokenID(claims, options)

	return c.sign(claims)
}

// Decode verifies a token's signature and time claims and returns its
// payload. When expectedType is non-empty, a token of any other type
// fails with ErrTokenInvalid, never ErrTokenExpired.
func (c *Codec) Decode(tokenString, expectedType string) (*Payload, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithTimeFunc(c.now),
	)

	parsed, err := parser.Parse(tokenString, func(_ *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			c.logger.Debug("token expired", observability.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		c.logger.Warn("token validation failed", observability.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims format", ErrTokenInvalid)
	}

	payload, err := payloadFromClaims(claims)
	if err != nil {
		c.logger.Warn("token payload rejected", observability.Error(err))
		return nil, err
	}

	if expectedType != "" && payload.Type != expectedType {
		c.logger.Warn("token type mismatch",
			observability.String("expected", expectedType),
			observability.String("got", payload.Type))
		return nil, fmt.Errorf("%w: expected %s token, got %s", ErrTokenInvalid, expectedType, payload.Type)
	}

	return payload, nil
}

// Verify reports whether a token is valid. It never returns an error;
// both expired and invalid tokens yield false.
func (c *Codec) Verify(tokenString, expectedType string) bool {
	_, err := c.Decode(tokenString, expectedType)
	return err == nil
}

// sign serializes and signs the claims.
func (c *Codec) sign(claims jwt.MapClaims) (string, error) {
	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// attachTokenID sets the jti claim when requested.
func (c *Codec) attachTokenID(claims jwt.MapClaims, options *issueOptions) {
	switch {
	case options.tokenID != "":
		claims["jti"] = options.tokenID
	case options.generateJTI:
		claims["jti"] = uuid.New().String()
	}
}

func applyIssueOptions(opts []IssueOption) *issueOptions {
	options := &issueOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// mergeExtraClaims copies extra claims in, skipping reserved names.
func mergeExtraClaims(claims jwt.MapClaims, extra map[string]interface{}) {
	for name, value := range extra {
		if reservedClaims[name] {
			continue
		}
		claims[name] = value
	}
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// payloadFromClaims converts verified claims into a Payload.
func payloadFromClaims(claims jwt.MapClaims) (*Payload, error) {
	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrTokenInvalid)
	}

	expiresAt, err := claims.GetExpirationTime()
	if err != nil || expiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp claim", ErrTokenInvalid)
	}

	issuedAt, err := claims.GetIssuedAt()
	if err != nil || issuedAt == nil {
		return nil, fmt.Errorf("%w: missing iat claim", ErrTokenInvalid)
	}

	tokenType, _ := claims["type"].(string)
	if tokenType == "" {
		tokenType = TypeAccess
	}
	if tokenType != TypeAccess && tokenType != TypeRefresh {
		return nil, fmt.Errorf("%w: unknown token type %q", ErrTokenInvalid, tokenType)
	}

	tokenID, _ := claims["jti"].(string)

	return &Payload{
		Subject:     subject,
		IssuedAt:    issuedAt.Time,
		ExpiresAt:   expiresAt.Time,
		TokenID:     tokenID,
		Type:        tokenType,
		Roles:       toStringSlice(claims["roles"]),
		Permissions: toStringSlice(claims["permissions"]),
		RawClaims:   map[string]interface{}(claims),
	}, nil
}

// toStringSlice converts a decoded JSON claim into a string slice.
func toStringSlice(v interface{}) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []interface{}:
		result := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	default:
		return []string{}
	}
}
