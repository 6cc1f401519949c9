// Package container provides a Laravel-compatible IoC (Inversion of Control)
// container and Service Provider system for Go.
//
// # Overview
//
// The container manages the instantiation and lifecycle of the application's
// services: transient bindings, singletons, pre-built instances and aliases.
// Because Go has no runtime constructor reflection, auto-wiring is replaced by
// explicit factory functions.
//
// # Bindings
//
//	// Laravel: $app->bind(Foo::class, fn($app) => new Foo)
//	c.Bind("Foo", func(c *container.Container) any { return &Foo{} })
//
//	// Laravel: $app->singleton(Mailer::class, fn($app) => new SmtpMailer)
//	c.Singleton(container.KeyFor[Mailer](), func(c *container.Container) any {
//	    return mail.NewSMTP(container.Resolve[*config.Config](c, "config"))
//	})
//
//	// Laravel: $app->instance('dtoFactories', [...])
//	c.Instance("dtoFactories", dto.FactoryMap{"dto": "user.update"})
//
// # Service locator
//
// Has and Get make *Container a service locator for the invoker: handler
// parameters typed as a registered service are filled from here, keyed by
// TypeKey / KeyFor. Get never panics; unknown keys yield ErrNotBound.
//
// # Service Providers
//
//	registry := container.NewProviderRegistry(c)
//	registry.Register(&AppServiceProvider{})
//	registry.Boot()
//
// Deferred providers (IsDeferred() == true) are registered on the first
// resolution of one of their Provides() abstracts.
package container
