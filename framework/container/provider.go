package container

import "sync"

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups the registration of related definitions.
//
// Register is called when the provider is added (or, for deferred providers,
// when one of its names is first resolved). Boot is called once every eager
// provider is registered, so it may resolve anything.
//
//	type MailProvider struct{ container.BaseProvider }
//
//	func (p *MailProvider) Register(c *container.Container) error {
//	    return c.SetObject("mailer", container.Constructor(newMailer), container.Refs("config"))
//	}
type ServiceProvider interface {
	// Register adds definitions and params to the container.
	// Do not resolve other entries here; use Boot for that.
	Register(c *Container) error

	// Boot runs after all eager providers are registered.
	Boot(c *Container) error

	// Provides lists the names a deferred provider registers.
	Provides() []string

	// IsDeferred reports whether Register should wait until one of
	// Provides() is first resolved.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable no-op implementation of everything except
// Register.
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }
func (p *BaseProvider) Provides() []string      { return nil }
func (p *BaseProvider) IsDeferred() bool        { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry registers and boots providers against one container.
type ProviderRegistry struct {
	// mu serializes deferred loads started from forks of app.
	mu sync.Mutex

	app        *Container
	eager      []ServiceProvider
	loaded     map[ServiceProvider]bool
	registered map[ServiceProvider]bool
	booted     bool
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		loaded:     make(map[ServiceProvider]bool),
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider. Eager providers are registered immediately, and
// booted too when the registry is already booted. Adding the same provider
// twice is a no-op.
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	if r.registered[provider] {
		return nil
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		return r.interceptDeferred(provider)
	}

	if err := provider.Register(r.app); err != nil {
		return err
	}
	r.loaded[provider] = true
	r.eager = append(r.eager, provider)

	if r.booted {
		return provider.Boot(r.app)
	}
	return nil
}

// interceptDeferred puts a placeholder definition under every provided
// name. Resolving one registers the provider for real on the registry's
// container and resolves the name there, so every fork shares the value.
// Forks may do this from several goroutines: their first resolution is
// serialized and runs on the registry's container.
func (r *ProviderRegistry) interceptDeferred(provider ServiceProvider) error {
	for _, name := range provider.Provides() {
		placeholder := Factory(func(args ...any) (any, error) {
			self, err := Arg[*Container](args, 0)
			if err != nil {
				return nil, err
			}
			if self == r.app {
				return r.resolveDeferred(provider, name)
			}
			r.mu.Lock()
			defer r.mu.Unlock()
			return r.resolveDeferred(provider, name)
		})
		if err := r.app.SetObject(name, placeholder, Refs("container")); err != nil {
			return err
		}
	}
	return nil
}

func (r *ProviderRegistry) resolveDeferred(provider ServiceProvider, name string) (any, error) {
	if err := r.load(provider); err != nil {
		return nil, err
	}
	return r.app.Get(name)
}

func (r *ProviderRegistry) load(provider ServiceProvider) error {
	if r.loaded[provider] {
		return nil
	}
	r.loaded[provider] = true
	if err := provider.Register(r.app); err != nil {
		return err
	}
	if r.booted {
		return provider.Boot(r.app)
	}
	return nil
}

// Boot calls Boot on every eager provider, once.
func (r *ProviderRegistry) Boot() error {
	if r.booted {
		return nil
	}
	r.booted = true
	for _, provider := range r.eager {
		if err := provider.Boot(r.app); err != nil {
			return err
		}
	}
	return nil
}

// Booted reports whether Boot has been called.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Providers returns the registered eager providers.
func (r *ProviderRegistry) Providers() []ServiceProvider { return r.eager }
