package auth

import (
	"context"
	"net/http"
	"sync"
)

// Provider is the strategy that turns a raw credential into a Result.
// Exactly one provider is active per process, selected once at startup.
type Provider interface {
	// ValidateToken validates a credential and returns the authenticated
	// identity. The request is optional and only read by providers that
	// authenticate from request headers.
	ValidateToken(ctx context.Context, credential string, r *http.Request) (*Result, error)

	// Initialize prepares the provider during application startup.
	Initialize(ctx context.Context) error

	// Shutdown releases provider resources during application shutdown.
	Shutdown(ctx context.Context) error

	// Name returns a short provider name for logging and metrics.
	Name() string
}

// Registry holds the single active provider for the lifetime of the
// process. It is an explicit application-scoped object rather than
// package-level state, constructed at startup and threaded through
// request handling.
type Registry struct {
	mu       sync.RWMutex
	provider Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Set installs the active provider. Called once during startup.
func (g *Registry) Set(provider Provider) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.provider = provider
}

// Provider returns the active provider, or ErrProviderNotInitialized if
// Set has not been called.
func (g *Registry) Provider() (Provider, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.provider == nil {
		return nil, ErrProviderNotInitialized
	}
	return g.provider, nil
}

// MustProvider returns the active provider or panics. Use only on code
// paths that run after startup wiring is complete.
func (g *Registry) MustProvider() Provider {
	provider, err := g.Provider()
	if err != nil {
		panic(err.Error())
	}
	return provider
}

// Initialize initializes the active provider.
func (g *Registry) Initialize(ctx context.Context) error {
	provider, err := g.Provider()
	if err != nil {
		return err
	}
	return provider.Initialize(ctx)
}

// Shutdown shuts down and clears the active provider.
func (g *Registry) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	provider := g.provider
	g.provider = nil
	g.mu.Unlock()

	if provider == nil {
		return nil
	}
	return provider.Shutdown(ctx)
}
