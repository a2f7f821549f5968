package container

import (
	"fmt"
	"sync"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups related definition registrations.
//
// Register runs while the registry is still open; it must only add
// definitions. Boot runs after every provider has registered and the
// container has been refreshed, so it is safe to resolve anything there.
//
//	type RepoProvider struct{ container.BaseProvider }
//
//	func (p *RepoProvider) Register(app *container.Container) error {
//	    def, err := container.NewDefinition("repo", newRepo,
//	        container.WithSource("providers/repo"))
//	    if err != nil {
//	        return err
//	    }
//	    return app.Register(def)
//	}
type ServiceProvider interface {
	// Register adds definitions to the container.
	// Do NOT resolve other definitions here — use Boot() for that.
	Register(app *Container) error

	// Boot is called after all providers are registered and the container
	// has been refreshed. Safe to resolve any definition here.
	Boot(app *Container) error
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct providing a no-op Boot().
// Embed it in your provider and only override what you need.
type BaseProvider struct{}

func (BaseProvider) Boot(_ *Container) error { return nil }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry manages the two-phase Register/Boot lifecycle of
// ServiceProviders against one container. Boot refreshes the container
// before any provider boots, so the registry is frozen and eager
// definitions already exist by the time Boot methods run.
type ProviderRegistry struct {
	mu         sync.Mutex
	app        *Container
	providers  []ServiceProvider
	registered map[ServiceProvider]bool
	booted     bool
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider and calls its Register() method immediately.
// Registering the same provider twice is a no-op.
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.registered[provider] {
		return nil
	}
	if r.booted {
		return fmt.Errorf("container: registry already booted, cannot register provider %T", provider)
	}

	if err := provider.Register(r.app); err != nil {
		return fmt.Errorf("provider %T register: %w", provider, err)
	}
	r.registered[provider] = true
	r.providers = append(r.providers, provider)
	return nil
}

// Boot refreshes the container, then calls Boot() on every provider in
// registration order. Idempotent after the first successful call.
func (r *ProviderRegistry) Boot() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.booted {
		return nil
	}

	if err := r.app.Refresh(); err != nil {
		return err
	}
	for _, provider := range r.providers {
		if err := provider.Boot(r.app); err != nil {
			return fmt.Errorf("provider %T boot: %w", provider, err)
		}
	}
	r.booted = true
	return nil
}

// Booted returns true if Boot() has completed.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns all registered providers in registration order.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ServiceProvider, len(r.providers))
	copy(out, r.providers)
	return out
}
