package invoker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-invoker/framework/container"
	"github.com/km-arc/go-invoker/framework/dto"
	"github.com/km-arc/go-invoker/framework/invoker"
	"github.com/km-arc/go-invoker/framework/invoker/param"
	"github.com/km-arc/go-invoker/framework/invoker/rules"
)

// ── fixtures ─────────────────────────────────────────────────────────────────

type Mailer interface{ Send(to string) error }

type smtpMailer struct{}

func (smtpMailer) Send(string) error { return nil }

type countingRequest struct {
	method string
	body   *dto.Record
	parses int
}

func (r *countingRequest) Method() string { return r.method }

func (r *countingRequest) ParsedBody() (*dto.Record, error) {
	r.parses++
	return r.body, nil
}

func newResolver(t *testing.T, c *container.Container, ids ...string) *invoker.Resolver {
	t.Helper()
	r, err := invoker.New(c, invoker.WithRules(ids...))
	require.NoError(t, err)
	return r
}

// ── Construction ─────────────────────────────────────────────────────────────

func TestNew_DefaultChain(t *testing.T) {
	r := newResolver(t, container.New())
	assert.Equal(t, invoker.DefaultRules, r.Rules())
}

func TestNew_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		want error
	}{
		{"unknown id", []string{rules.FlexibleSignatureID, "App\\Rule\\Missing"}, invoker.ErrUnknownRule},
		{"blank id", []string{" "}, invoker.ErrEmptyRuleID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := invoker.New(container.New(), invoker.WithRules(tt.ids...))

			var cfgErr invoker.InvalidConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNew_AcceptsRulesFromLocatorAndCatalog(t *testing.T) {
	c := container.New()
	c.Instance("rules.custom", rules.Func(func(_ []param.Parameter, _ rules.Pool, r rules.Arguments) (rules.Arguments, error) {
		return r, nil
	}))

	r, err := invoker.New(c,
		invoker.WithRule("rules.extra", func(rules.Locator) rules.Rule { return rules.NullType{} }),
		invoker.WithRules("rules.custom", " rules.extra "),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"rules.custom", "rules.extra"}, r.Rules())
}

func TestNew_NilLocator(t *testing.T) {
	r, err := invoker.New(nil)
	require.NoError(t, err)

	sig := param.MustOf(func(id string) {}, param.Named("id"))
	args, err := r.Resolve(context.Background(), sig.Params(), rules.Pool{"id": "1"})
	require.NoError(t, err)
	assert.Equal(t, rules.Arguments{0: "1"}, args)
}

// ── Scenarios ────────────────────────────────────────────────────────────────

func TestResolve_DefaultChain(t *testing.T) {
	sig := param.MustOf(
		func(request, response any, id, test string, count int) {},
		param.Named("request"),
		param.Named("response"),
		param.Named("id"),
		param.Named("test"),
		param.Named("count").Nullable().Default(5),
	)
	pool := rules.Pool{"request": "req", "response": "res", "id": "5", "test": "someValue"}

	args, err := newResolver(t, container.New()).Resolve(context.Background(), sig.Params(), pool)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2, 3}, args.Positions())
	assert.Equal(t, rules.Arguments{0: "req", 1: "res", 2: "5", 3: "someValue"}, args)
}

func TestResolve_MissingParameter(t *testing.T) {
	sig := param.MustOf(func(id int) {}, param.Named("id"))

	_, err := newResolver(t, container.New()).Resolve(context.Background(), sig.Params(), rules.Pool{"test": "x"})

	var unresolved invoker.UnresolvedParametersError
	require.ErrorAs(t, err, &unresolved)
	assert.Len(t, unresolved.Missing, 1)
	assert.EqualError(t, err, "unable to invoke the callable because no value was given for parameter (int id)")
}

func TestResolve_MissingParameters_Plural(t *testing.T) {
	sig := param.MustOf(func(id int, m Mailer, opts ...string) {},
		param.Named("id"), param.Named("mailer"), param.Named("opts"))

	_, err := newResolver(t, container.New()).Resolve(context.Background(), sig.Params(), rules.Pool{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no value was given for parameters (int id, ")
	assert.Contains(t, err.Error(), "Mailer mailer)")
	assert.NotContains(t, err.Error(), "opts", "variadic parameters are never required")
}

func TestResolve_IdIntegerType(t *testing.T) {
	sig := param.MustOf(func(id int) {}, param.Named("id"))
	r := newResolver(t, container.New(), rules.IdIntegerTypeID)

	args, err := r.Resolve(context.Background(), sig.Params(), rules.Pool{"id": "5"})
	require.NoError(t, err)
	assert.Equal(t, 5, args[0])
}

func TestResolve_ContainerTypes(t *testing.T) {
	c := container.New()
	c.Instance(container.KeyFor[Mailer](), smtpMailer{})

	sig := param.MustOf(func(m Mailer, backup Mailer, alt any) {},
		param.Named("mailer"),
		param.Named("backup").Nullable(),
		param.Named("alt").Union(param.NamedType(container.KeyFor[Mailer]()), param.NamedType("app.Other")),
	)

	_, err := newResolver(t, c).Resolve(context.Background(), sig.Params(), rules.Pool{})

	var unresolved invoker.UnresolvedParametersError
	require.ErrorAs(t, err, &unresolved)
	require.Len(t, unresolved.Missing, 1)
	assert.Equal(t, "alt", unresolved.Missing[0].Name, "unions stay unresolved even with a registered member")
}

func TestResolve_NullableFallback(t *testing.T) {
	sig := param.MustOf(func(m Mailer, count *int) {},
		param.Named("mailer").Nullable(), param.Named("count"))

	args, err := newResolver(t, container.New()).Resolve(context.Background(), sig.Params(), rules.Pool{})
	require.NoError(t, err)
	assert.Equal(t, rules.Arguments{0: nil, 1: nil}, args)
}

func TestResolve_MakeDto(t *testing.T) {
	body := dto.NewRecord()
	body.Set("name", "Alex")
	body.Set("email", "e@x.com")
	req := &countingRequest{method: "PATCH", body: body}

	sig := param.MustOf(func(d *dto.Record) {}, param.Named("dto"))
	r := newResolver(t, container.New(), rules.FlexibleSignatureID, rules.MakeDtoID)

	args, err := r.Resolve(context.Background(), sig.Params(), rules.Pool{"request": req})
	require.NoError(t, err)

	got := args[0].(*dto.Record)
	assert.Equal(t, "Alex", got.Value("name"))
	assert.Equal(t, "e@x.com", got.Value("email"))
}

// ── Properties ───────────────────────────────────────────────────────────────

func TestResolve_Idempotent(t *testing.T) {
	c := container.New()
	c.Instance(container.KeyFor[Mailer](), smtpMailer{})
	sig := param.MustOf(func(id string, m Mailer, n *int) {},
		param.Named("id"), param.Named("mailer"), param.Named("n"))
	pool := rules.Pool{"id": "7"}
	r := newResolver(t, c)

	first, err := r.Resolve(context.Background(), sig.Params(), pool)
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), sig.Params(), pool)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, rules.Pool{"id": "7"}, pool)
}

func TestResolve_ShortCircuit(t *testing.T) {
	sig := param.MustOf(func(request any, dto any) {}, param.Named("request"), param.Named("dto"))
	r := newResolver(t, container.New(), rules.FlexibleSignatureID, rules.MakeDtoID)

	t.Run("satisfied before make-dto", func(t *testing.T) {
		req := &countingRequest{method: "POST", body: dto.NewRecord()}
		_, err := r.Resolve(context.Background(), sig.Params(), rules.Pool{"request": req, "dto": "given"})
		require.NoError(t, err)
		assert.Zero(t, req.parses, "make-dto must not run")
	})

	t.Run("make-dto needed", func(t *testing.T) {
		req := &countingRequest{method: "POST", body: dto.NewRecord()}
		_, err := r.Resolve(context.Background(), sig.Params(), rules.Pool{"request": req})
		require.NoError(t, err)
		assert.Equal(t, 1, req.parses)
	})
}

func TestResolve_EarlierBindingsWin(t *testing.T) {
	c := container.New()
	c.Instance("rules.greedy", rules.Func(func(unresolved []param.Parameter, _ rules.Pool, resolved rules.Arguments) (rules.Arguments, error) {
		resolved[0] = "overwritten"
		resolved[9] = "nowhere"
		for _, p := range unresolved {
			resolved[p.Position] = "greedy"
		}
		return resolved, nil
	}))
	sig := param.MustOf(func(id, other string) {}, param.Named("id"), param.Named("other"))
	r := newResolver(t, c, rules.FlexibleSignatureID, "rules.greedy")

	args, err := r.Resolve(context.Background(), sig.Params(), rules.Pool{"id": "1"})
	require.NoError(t, err)
	assert.Equal(t, rules.Arguments{0: "1", 1: "greedy"}, args)
}

func TestResolve_RulesGetACopy(t *testing.T) {
	c := container.New()
	c.Instance("rules.failing", rules.Func(func(_ []param.Parameter, _ rules.Pool, resolved rules.Arguments) (rules.Arguments, error) {
		resolved[1] = "leaked"
		return nil, nil
	}))
	sig := param.MustOf(func(id, other string) {}, param.Named("id"), param.Named("other").Default(""))
	r := newResolver(t, c, rules.FlexibleSignatureID, "rules.failing")

	args, err := r.Resolve(context.Background(), sig.Params(), rules.Pool{"id": "1"})
	require.NoError(t, err)
	assert.Equal(t, rules.Arguments{0: "1"}, args)
}

// ── Failures ─────────────────────────────────────────────────────────────────

func TestResolve_InvalidRule(t *testing.T) {
	c := container.New()
	c.Instance("rules.bogus", 42)
	r := newResolver(t, c, "rules.bogus")

	sig := param.MustOf(func(id string) {}, param.Named("id"))
	_, err := r.Resolve(context.Background(), sig.Params(), rules.Pool{})

	var invalid invoker.InvalidRuleError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "rules.bogus", invalid.RuleID)
	assert.ErrorIs(t, err, invoker.ErrNotARule)
}

func TestResolve_RuleErrorsPropagate(t *testing.T) {
	boom := errors.New("locator down")
	c := container.New()
	c.Bind(container.KeyFor[Mailer](), func(*container.Container) any { panic(boom) })

	sig := param.MustOf(func(m Mailer) {}, param.Named("mailer"))
	_, err := newResolver(t, c).Resolve(context.Background(), sig.Params(), rules.Pool{})

	var panicErr container.FactoryPanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, boom, panicErr.Value)
}

func TestResolve_NoParameters(t *testing.T) {
	args, err := newResolver(t, container.New()).Resolve(context.Background(), nil, rules.Pool{})
	require.NoError(t, err)
	assert.Empty(t, args)
}
