package providers

import (
	"io"
	"log/slog"
	"os"

	"github.com/km-arc/go-invoker/framework/config"
	"github.com/km-arc/go-invoker/framework/container"
	"github.com/km-arc/go-invoker/framework/dto"
	"github.com/km-arc/go-invoker/framework/invoker"
	"github.com/km-arc/go-invoker/framework/invoker/rules"
	"github.com/km-arc/go-invoker/framework/locator"
	"github.com/km-arc/go-invoker/framework/routing"
)

// Abstracts bound by the framework providers.
const (
	ConfigKey   = "config"
	LogKey      = "log"
	InvokerKey  = "invoker"
	StrategyKey = "invoker.strategy"
	LocatorsKey = "invoker.locators"
	RouterKey   = "router"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider binds the application configuration.
//
// Bound abstracts:
//   - "config"         → *config.Config
//   - "configuration"  → alias of "config"
//
// Config is bound as-is when set; otherwise it is loaded lazily from
// EnvFiles and a load error surfaces as a container.FactoryPanicError.
//
// Laravel equivalent:
//
//	// Illuminate\Foundation\Bootstrap\LoadConfiguration
//	$app->singleton('config', fn() => new Repository($items));
type ConfigServiceProvider struct {
	container.BaseProvider
	Config   *config.Config
	EnvFiles []string
}

func (p *ConfigServiceProvider) Register(app *container.Container) {
	if p.Config != nil {
		app.Instance(ConfigKey, p.Config)
	} else {
		envFiles := p.EnvFiles
		app.Singleton(ConfigKey, func(c *container.Container) any {
			cfg, err := config.Load(envFiles...)
			if err != nil {
				panic(err)
			}
			return cfg
		})
	}
	app.Alias(ConfigKey, "configuration")
}

// ── LogServiceProvider ────────────────────────────────────────────────────────

// LogServiceProvider binds the application logger.
//
// Bound abstracts:
//   - "log"  → *slog.Logger
//
// Configuration keys read from "config":
//   - Log.Level
//   - Log.Format (text | json)
type LogServiceProvider struct {
	container.BaseProvider
	Output io.Writer // default: os.Stderr
}

func (p *LogServiceProvider) Register(app *container.Container) {
	out := p.Output
	if out == nil {
		out = os.Stderr
	}
	app.Singleton(LogKey, func(c *container.Container) any {
		cfg := container.Resolve[*config.Config](c, ConfigKey)
		return NewLogger(out, cfg.Log, cfg.App.Name)
	})
}

// NewLogger builds a slog.Logger writing to out in the configured format.
func NewLogger(out io.Writer, cfg config.LogConfig, app string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	logger := slog.New(h)
	if app != "" {
		logger = logger.With("app", app)
	}
	return logger
}

// ── InvokerServiceProvider ────────────────────────────────────────────────────

// InvokerServiceProvider registers the argument resolver and the HTTP
// invocation strategy. The container itself is the resolver's locator, so
// rule ids may name any service bound in it. Locators bound under
// "invoker.locators" ([]rules.Locator) are consulted after it.
//
// Bound abstracts:
//   - "dtoFactories"      → dto.FactoryMap (only when configured)
//   - "invoker"           → *invoker.Resolver
//   - "invoker.strategy"  → *invoker.Strategy
//
// Configuration keys read from "config":
//   - Invoker.Rules
//   - Invoker.DTOFactories
//   - App.Debug
//
// Boot resolves "invoker" so a misconfigured chain fails at startup.
type InvokerServiceProvider struct {
	container.BaseProvider
	// Options are applied after the configured chain, e.g. invoker.WithRule.
	Options []invoker.Option
}

func (p *InvokerServiceProvider) Register(app *container.Container) {
	opts := p.Options
	cfg := container.Resolve[*config.Config](app, ConfigKey)

	if len(cfg.Invoker.DTOFactories) > 0 && !app.Bound(dto.FactoriesKey) {
		app.Instance(dto.FactoriesKey, dto.FactoryMap(cfg.Invoker.DTOFactories))
	}

	app.Singleton(InvokerKey, func(c *container.Container) any {
		var loc rules.Locator = c
		if extra, ok := container.TryResolve[[]rules.Locator](c, LocatorsKey); ok && len(extra) > 0 {
			loc = append(locator.Chain{c}, extra...)
		}
		all := append([]invoker.Option{invoker.WithRules(cfg.Invoker.Rules...)}, opts...)
		r, err := invoker.New(loc, all...)
		if err != nil {
			panic(err)
		}
		return r
	})
	app.Singleton(StrategyKey, func(c *container.Container) any {
		return invoker.NewStrategy(
			container.Resolve[*invoker.Resolver](c, InvokerKey),
			invoker.WithDebug(cfg.App.Debug),
		)
	})
}

func (p *InvokerServiceProvider) Boot(app *container.Container) {
	app.Make(InvokerKey)
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router, wired to the invocation
// strategy and the application logger.
//
// Bound abstracts:
//   - "router"  → *routing.Router
//
// Laravel equivalent:
//
//	// Illuminate\Routing\RoutingServiceProvider
//	$app->singleton('router', fn($app) => new Router($app['events'], $app));
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Register(app *container.Container) {
	app.Singleton(RouterKey, func(c *container.Container) any {
		logger, _ := container.TryResolve[*slog.Logger](c, LogKey)
		strategy := container.Resolve[*invoker.Strategy](c, StrategyKey)
		return routing.New(logger, routing.WithStrategy(strategy))
	})
}
