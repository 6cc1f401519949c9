package container

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// ErrNotBound is returned by Get when nothing is registered under an abstract.
var ErrNotBound = errors.New("no binding registered")

// ── Binding types ─────────────────────────────────────────────────────────────

// Factory is a function that builds a concrete value from the container.
type Factory func(c *Container) any

// binding holds a registered factory and whether it is a singleton.
type binding struct {
	factory   Factory
	singleton bool
}

// FactoryPanicError wraps a panic raised while a factory was building abstract.
type FactoryPanicError struct {
	Abstract string
	Value    any
}

func (e FactoryPanicError) Error() string {
	return fmt.Sprintf("container: factory for [%s] panicked: %v", e.Abstract, e.Value)
}

var _ error = FactoryPanicError{}

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the IoC container, mirroring Laravel's Illuminate\Container\Container.
//
// It doubles as the service locator of the invoker: Has and Get are safe for
// concurrent use from any number of in-flight requests.
type Container struct {
	mu sync.RWMutex

	// abstract → binding
	bindings map[string]*binding

	// abstract → resolved singleton instance
	instances map[string]any

	// alias → abstract (canonical key)
	aliases map[string]string

	afterResolving []func(string, any)
}

// New creates an empty container.
func New() *Container {
	c := &Container{
		bindings:  make(map[string]*binding),
		instances: make(map[string]any),
		aliases:   make(map[string]string),
	}
	// Laravel's $app->instance('container', $app)
	c.Instance("container", c)
	return c
}

// ── Registration ──────────────────────────────────────────────────────────────

// Bind registers a transient (new instance each Make) factory.
//
//	// Laravel: $app->bind(UserRepository::class, fn($app) => new EloquentUserRepository($app))
//	c.Bind("UserRepository", func(c *container.Container) any {
//	    return &EloquentUserRepository{}
//	})
func (c *Container) Bind(abstract string, factory Factory) {
	c.bind(abstract, factory, false)
}

// Singleton registers a factory whose result is cached after first resolution.
func (c *Container) Singleton(abstract string, factory Factory) {
	c.bind(abstract, factory, true)
}

// Instance registers a pre-built value as a singleton.
//
//	// Laravel: $app->instance(Config::class, $config)
//	c.Instance("config", myConfig)
func (c *Container) Instance(abstract string, instance any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(abstract)
	delete(c.bindings, key)
	c.instances[key] = instance
}

func (c *Container) bind(abstract string, factory Factory, singleton bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(abstract)
	// a re-bound singleton must be rebuilt by the new factory
	delete(c.instances, key)
	c.bindings[key] = &binding{factory: factory, singleton: singleton}
}

// Alias registers an alternative name for an abstract.
//
//	// Laravel: $app->alias(Cache::class, 'cache')
//	c.Alias("cache", "cacheManager")
func (c *Container) Alias(abstract, alias string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if abstract == alias {
		panic(fmt.Sprintf("container: [%s] is aliased to itself", abstract))
	}
	c.aliases[alias] = c.canonical(abstract)
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Has reports whether abstract can be resolved. It is Bound under the name
// the invoker's service locator expects.
func (c *Container) Has(abstract string) bool {
	return c.Bound(abstract)
}

// Get resolves abstract, returning ErrNotBound (wrapped) for unknown keys and
// FactoryPanicError when the factory panics.
func (c *Container) Get(abstract string) (instance any, err error) {
	key, b, inst, ok := c.lookup(abstract)
	if inst != nil || (ok && b == nil) {
		return inst, nil
	}
	if !ok {
		return nil, fmt.Errorf("container: [%s]: %w", abstract, ErrNotBound)
	}

	defer func() {
		if r := recover(); r != nil {
			instance, err = nil, FactoryPanicError{Abstract: abstract, Value: r}
		}
	}()
	return c.build(key, b), nil
}

// Make resolves an abstract from the container and panics when it is unknown.
//
//	// Laravel: $app->make(UserRepository::class)
//	repo := c.Make("UserRepository")
func (c *Container) Make(abstract string) any {
	key, b, inst, ok := c.lookup(abstract)
	if inst != nil || (ok && b == nil) {
		return inst
	}
	if !ok {
		panic(fmt.Sprintf("container: no binding registered for [%s]", abstract))
	}
	return c.build(key, b)
}

// lookup returns either a cached instance or the binding to build.
func (c *Container) lookup(abstract string) (string, *binding, any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key := c.canonical(abstract)
	if inst, ok := c.instances[key]; ok {
		return key, nil, inst, true
	}
	b, ok := c.bindings[key]
	return key, b, nil, ok
}

// build runs the factory without holding the lock so factories may resolve
// other abstracts. Concurrent first resolutions of a singleton keep whichever
// instance was stored first.
func (c *Container) build(key string, b *binding) any {
	instance := b.factory(c)

	if b.singleton {
		c.mu.Lock()
		if existing, ok := c.instances[key]; ok {
			instance = existing
		} else if c.bindings[key] == b {
			c.instances[key] = instance
		}
		c.mu.Unlock()
	}

	c.fireAfterResolving(key, instance)
	return instance
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Bound returns true if an abstract has been registered.
//
//	// Laravel: $app->bound(UserRepository::class)
func (c *Container) Bound(abstract string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key := c.canonical(abstract)
	_, hasBinding := c.bindings[key]
	_, hasInstance := c.instances[key]
	return hasBinding || hasInstance
}

// Resolved returns true if the abstract has a cached instance.
func (c *Container) Resolved(abstract string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.instances[c.canonical(abstract)]
	return ok
}

// Forget removes all registrations for an abstract (binding + instance).
func (c *Container) Forget(abstract string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.canonical(abstract)
	delete(c.bindings, key)
	delete(c.instances, key)
}

// Flush resets the entire container.
func (c *Container) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings = make(map[string]*binding)
	c.instances = make(map[string]any)
	c.aliases = make(map[string]string)
}

// Bindings returns all registered abstract keys (for debugging).
func (c *Container) Bindings() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.bindings)+len(c.instances))
	for k := range c.bindings {
		out = append(out, k)
	}
	for k := range c.instances {
		if _, already := c.bindings[k]; !already {
			out = append(out, k)
		}
	}
	return out
}

// canonical resolves an alias to its canonical key (caller holds mu).
func (c *Container) canonical(abstract string) string {
	if target, ok := c.aliases[abstract]; ok {
		return target
	}
	return abstract
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

// AfterResolving registers a callback fired after any factory builds an instance.
//
//	// Laravel: $app->afterResolving(fn($object, $app) => ...)
func (c *Container) AfterResolving(cb func(abstract string, instance any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterResolving = append(c.afterResolving, cb)
}

func (c *Container) fireAfterResolving(abstract string, instance any) {
	c.mu.RLock()
	cbs := c.afterResolving
	c.mu.RUnlock()
	for _, cb := range cbs {
		cb(abstract, instance)
	}
}

// ── Reflect helpers ───────────────────────────────────────────────────────────

// TypeKey returns the package-qualified type name of v, the identifier the
// type-hint rule looks services up by.
//
//	c.Singleton(container.TypeKey((*UserRepository)(nil)), factory)
func TypeKey(v any) string {
	return KeyOf(reflect.TypeOf(v))
}

// KeyOf is TypeKey for a reflect.Type. Pointers are dereferenced, so *Service
// and Service share one key.
func KeyOf(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

// KeyFor is the generic form of TypeKey and works for interface types too.
//
//	c.Instance(container.KeyFor[Mailer](), smtp)
func KeyFor[T any]() string {
	return KeyOf(reflect.TypeOf((*T)(nil)).Elem())
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve is a generic helper that calls Make and type-asserts the result.
//
//	cfg := container.Resolve[*config.Config](c, "config")
func Resolve[T any](c *Container, abstract string) T {
	instance := c.Make(abstract)
	typed, ok := instance.(T)
	if !ok {
		panic(fmt.Sprintf("container: Resolve[%T]: [%s] resolved to %T", *new(T), abstract, instance))
	}
	return typed
}

// TryResolve is like Resolve but reports failures instead of panicking.
func TryResolve[T any](c *Container, abstract string) (T, bool) {
	instance, err := c.Get(abstract)
	if err != nil {
		var zero T
		return zero, false
	}
	typed, ok := instance.(T)
	return typed, ok
}
