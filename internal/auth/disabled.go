package auth

import (
	"context"
	"net/http"

	"github.com/plateful/recipe-auth/internal/observability"
)

// DisabledProvider allows every request through as an anonymous user.
// It bypasses all authentication; the factory refuses to construct it in
// a production environment.
type DisabledProvider struct {
	logger observability.Logger
}

// NewDisabledProvider creates a provider that never rejects.
func NewDisabledProvider(logger observability.Logger) *DisabledProvider {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &DisabledProvider{logger: logger}
}

// Name returns the provider name.
func (p *DisabledProvider) Name() string {
	return "disabled"
}

// ValidateToken ignores its input and returns an anonymous result.
func (p *DisabledProvider) ValidateToken(_ context.Context, _ string, _ *http.Request) (*Result, error) {
	return AnonymousResult(), nil
}

// Initialize logs a prominent warning: this provider must never be the
// active strategy in a real deployment.
func (p *DisabledProvider) Initialize(_ context.Context) error {
	p.logger.Warn("authentication is disabled; every request is treated as anonymous")
	return nil
}

// Shutdown releases nothing.
func (p *DisabledProvider) Shutdown(_ context.Context) error {
	return nil
}

// Ensure DisabledProvider implements Provider.
var _ Provider = (*DisabledProvider)(nil)
