package container

import "sync"

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider mirrors Laravel's Illuminate\Support\ServiceProvider.
//
// Register binds services; Boot runs after every provider has registered,
// so it may resolve bindings owned by other providers.
//
//	type InvokerServiceProvider struct{ container.BaseProvider }
//
//	func (p *InvokerServiceProvider) Register(app *container.Container) {
//	    app.Instance("dtoFactories", dto.FactoryMap{"dto": "user.update"})
//	}
type ServiceProvider interface {
	Register(app *Container)
	Boot(app *Container)

	// Provides lists the abstracts a deferred provider registers.
	Provides() []string

	// IsDeferred makes the provider lazy: it is registered the first time one
	// of its Provides() abstracts is resolved.
	//
	//	// Laravel: protected $defer = true;
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct with no-op Boot, Provides and IsDeferred.
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container)  {}
func (p *BaseProvider) Provides() []string { return nil }
func (p *BaseProvider) IsDeferred() bool   { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry manages registration and booting of ServiceProviders,
// including deferred (lazy) providers.
//
// It mirrors Laravel's Application::registerConfiguredProviders and
// Application::bootProviders. Registration happens during bootstrap and is
// not safe for concurrent use; deferred loading is.
type ProviderRegistry struct {
	app        *Container
	eager      []ServiceProvider
	deferred   map[string]ServiceProvider // abstract → provider
	registered map[ServiceProvider]bool
	loaded     map[ServiceProvider]*sync.Once

	mu     sync.Mutex
	booted bool
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		deferred:   make(map[string]ServiceProvider),
		registered: make(map[ServiceProvider]bool),
		loaded:     make(map[ServiceProvider]*sync.Once),
	}
}

// Register adds a provider and calls its Register() method (unless deferred).
// Registering the same provider twice is a no-op.
//
//	// Laravel: $app->register(new AppServiceProvider($app))
func (r *ProviderRegistry) Register(provider ServiceProvider) {
	if r.registered[provider] {
		return
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		r.loaded[provider] = new(sync.Once)
		for _, abstract := range provider.Provides() {
			r.deferred[abstract] = provider
			r.interceptDeferred(abstract, provider)
		}
		return
	}

	provider.Register(r.app)
	r.eager = append(r.eager, provider)

	if r.Booted() {
		provider.Boot(r.app)
	}
}

// interceptDeferred binds a placeholder for abstract. The first resolution
// registers the provider for real, which replaces the placeholder, and then
// resolves again.
func (r *ProviderRegistry) interceptDeferred(abstract string, provider ServiceProvider) {
	once := r.loaded[provider]
	r.app.Bind(abstract, func(c *Container) any {
		once.Do(func() {
			provider.Register(c)
			if r.Booted() {
				provider.Boot(c)
			}
		})
		return c.Make(abstract)
	})
}

// Boot calls Boot() on all eager providers. Later calls are no-ops.
//
//	// Laravel: $app->boot()
func (r *ProviderRegistry) Boot() {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return
	}
	r.booted = true
	r.mu.Unlock()

	for _, provider := range r.eager {
		provider.Boot(r.app)
	}
}

// Booted returns true if Boot() has been called.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns all registered eager providers.
func (r *ProviderRegistry) Providers() []ServiceProvider { return r.eager }

// Deferred reports whether abstract is still owned by a deferred provider.
func (r *ProviderRegistry) Deferred(abstract string) bool {
	_, ok := r.deferred[abstract]
	return ok
}
