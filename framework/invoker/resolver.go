package invoker

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/km-arc/go-invoker/framework/invoker/param"
	"github.com/km-arc/go-invoker/framework/invoker/rules"
)

// DefaultRules is the chain used when none is configured.
var DefaultRules = []string{
	rules.FlexibleSignatureID,
	rules.TypeHintContainerID,
	rules.NullTypeID,
}

// Option configures a Resolver.
type Option func(*options)

type options struct {
	chain   []string
	catalog map[string]rules.Constructor
}

// WithRules sets the chain, in order. Later calls replace earlier ones.
func WithRules(ids ...string) Option {
	return func(o *options) { o.chain = append([]string(nil), ids...) }
}

// WithRule adds id to the catalog of constructible rules. It does not put
// the rule in the chain.
func WithRule(id string, ctor rules.Constructor) Option {
	return func(o *options) { o.catalog[id] = ctor }
}

// Resolver runs a chain of rules to bind the parameters of a handler.
// A rule only adds bindings: positions bound by an earlier rule keep their
// value, and a later rule rebinding them is ignored with a warning.
// It holds no per-request state and is safe for concurrent use.
type Resolver struct {
	locator rules.Locator
	catalog map[string]rules.Constructor
	chain   []string
}

// New builds a resolver over locator. Every id in the chain must name a
// rule in the catalog or a service registered in locator.
func New(locator rules.Locator, opts ...Option) (*Resolver, error) {
	o := options{catalog: rules.Builtin()}
	for _, opt := range opts {
		opt(&o)
	}
	if len(o.chain) == 0 {
		o.chain = append([]string(nil), DefaultRules...)
	}
	if locator == nil {
		locator = emptyLocator{}
	}

	for i, id := range o.chain {
		id = strings.TrimSpace(id)
		o.chain[i] = id
		switch {
		case id == "":
			return nil, InvalidConfigurationError{RuleID: id, Cause: ErrEmptyRuleID}
		case o.catalog[id] != nil, locator.Has(id):
		default:
			return nil, InvalidConfigurationError{RuleID: id, Cause: ErrUnknownRule}
		}
	}

	return &Resolver{locator: locator, catalog: o.catalog, chain: o.chain}, nil
}

// Rules returns the configured chain.
func (r *Resolver) Rules() []string {
	return append([]string(nil), r.chain...)
}

// Resolve binds params from pool. Positions bound only through a default or
// an omitted variadic are absent from the result.
func (r *Resolver) Resolve(ctx context.Context, params []param.Parameter, pool rules.Pool) (rules.Arguments, error) {
	logger := slogcontext.FromCtx(ctx)

	byPos := make(map[int]param.Parameter, len(params))
	for _, p := range params {
		byPos[p.Position] = p
	}

	resolved := rules.Arguments{}
	unresolved := params

	for _, id := range r.chain {
		if len(unresolved) == 0 {
			logger.Log(ctx, slog.LevelDebug, "all parameters resolved, skipping remaining rules", "next", id)
			break
		}

		rule, err := r.rule(id)
		if err != nil {
			return nil, err
		}

		out, err := rule.Resolve(unresolved, pool, resolved.Clone())
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", id, err)
		}
		r.merge(ctx, id, byPos, resolved, out)

		unresolved = pending(params, resolved)
		logger.Log(ctx, slog.LevelDebug, "rule applied",
			"rule", id, "resolved", len(resolved), "unresolved", len(unresolved))
	}

	var missing []param.Parameter
	for _, p := range unresolved {
		if p.Required() {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return nil, UnresolvedParametersError{Missing: missing}
	}
	return resolved, nil
}

// rule instantiates id. Services registered in the locator take precedence
// over the catalog.
func (r *Resolver) rule(id string) (rules.Rule, error) {
	if r.locator.Has(id) {
		v, err := r.locator.Get(id)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", id, err)
		}
		rule, ok := v.(rules.Rule)
		if !ok {
			return nil, InvalidRuleError{RuleID: id, Got: v}
		}
		return rule, nil
	}
	if ctor := r.catalog[id]; ctor != nil {
		return ctor(r.locator), nil
	}
	// the locator lost the binding after New validated the chain
	return nil, InvalidConfigurationError{RuleID: id, Cause: ErrUnknownRule}
}

// merge copies the bindings a rule produced into resolved. Positions bound
// before the rule ran keep their value.
func (r *Resolver) merge(ctx context.Context, id string, byPos map[int]param.Parameter, resolved, out rules.Arguments) {
	for pos, v := range out {
		if _, ok := byPos[pos]; !ok {
			slogcontext.FromCtx(ctx).Warn("rule bound an unknown position", "rule", id, "position", pos)
			continue
		}
		if prev, ok := resolved[pos]; ok {
			if !sameBinding(prev, v) {
				slogcontext.FromCtx(ctx).Warn("rule tried to rebind a resolved parameter",
					"rule", id, "parameter", byPos[pos].Name)
			}
			continue
		}
		resolved[pos] = v
	}
}

func pending(params []param.Parameter, resolved rules.Arguments) []param.Parameter {
	var out []param.Parameter
	for _, p := range params {
		if _, ok := resolved[p.Position]; !ok {
			out = append(out, p)
		}
	}
	return out
}

// sameBinding reports whether b is the value a rule was handed as a. Maps,
// slices and funcs compare by identity.
func sameBinding(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() {
		return va.IsValid() == vb.IsValid()
	}
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Map, reflect.Func:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	if !va.Type().Comparable() {
		return false
	}
	return va.Equal(vb)
}

type emptyLocator struct{}

func (emptyLocator) Has(string) bool { return false }

func (emptyLocator) Get(id string) (any, error) {
	return nil, fmt.Errorf("invoker: no locator configured, cannot get %q", id)
}
