package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/plateful/recipe-auth/internal/config"
	"github.com/plateful/recipe-auth/internal/observability"
)

// HeaderProvider extracts identity from request headers set by a trusted
// upstream. It performs no signature verification and is intended for
// development or for deployment behind a gateway that has already
// authenticated the caller.
type HeaderProvider struct {
	userIDHeader      string
	rolesHeader       string
	permissionsHeader string
	defaultRoles      []string
	logger            observability.Logger
}

// NewHeaderProvider creates a header auth provider from config.
func NewHeaderProvider(cfg config.HeaderConfig, logger observability.Logger) *HeaderProvider {
	if logger == nil {
		logger = observability.NopLogger()
	}

	userID := cfg.UserID
	if userID == "" {
		userID = "X-User-ID"
	}
	roles := cfg.Roles
	if roles == "" {
		roles = "X-User-Roles"
	}
	permissions := cfg.Permissions
	if permissions == "" {
		permissions = "X-User-Permissions"
	}

	return &HeaderProvider{
		userIDHeader:      userID,
		rolesHeader:       roles,
		permissionsHeader: permissions,
		defaultRoles:      cfg.DefaultRoles,
		logger:            logger,
	}
}

// Name returns the provider name.
func (p *HeaderProvider) Name() string {
	return "header"
}

// ValidateToken reads identity from request headers. The credential
// argument is ignored. The default-roles list applies only when the
// roles header is absent or empty; it may itself be empty so tests can
// disable implicit privilege.
func (p *HeaderProvider) ValidateToken(_ context.Context, _ string, r *http.Request) (*Result, error) {
	if r == nil {
		return nil, ErrNoCredentials
	}

	userID := r.Header.Get(p.userIDHeader)
	if userID == "" {
		return nil, ErrMissingUserHeader
	}

	roles := splitHeaderList(r.Header.Get(p.rolesHeader))
	if len(roles) == 0 {
		roles = make([]string, len(p.defaultRoles))
		copy(roles, p.defaultRoles)
	}
	permissions := splitHeaderList(r.Header.Get(p.permissionsHeader))

	p.logger.Debug("authenticated via headers",
		observability.String("userId", userID),
		observability.Strings("roles", roles),
		observability.Int("permissions", len(permissions)))

	return &Result{
		UserID:      userID,
		Roles:       roles,
		Permissions: permissions,
		Scopes:      []string{},
		TokenType:   TokenTypeHeader,
		RawClaims: map[string]interface{}{
			"source":         "headers",
			"user_id_header": p.userIDHeader,
		},
	}, nil
}

// Initialize warns that header trust is in effect.
func (p *HeaderProvider) Initialize(_ context.Context) error {
	p.logger.Warn("header auth provider enabled; header values are trusted without verification",
		observability.String("userIdHeader", p.userIDHeader),
		observability.String("rolesHeader", p.rolesHeader))
	return nil
}

// Shutdown releases nothing.
func (p *HeaderProvider) Shutdown(_ context.Context) error {
	return nil
}

// splitHeaderList parses a comma-separated header value.
func splitHeaderList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Ensure HeaderProvider implements Provider.
var _ Provider = (*HeaderProvider)(nil)
