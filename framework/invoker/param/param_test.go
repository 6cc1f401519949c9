package param_test

import (
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-invoker/framework/container"
	"github.com/km-arc/go-invoker/framework/invoker/param"
)

type mailer struct{}

type invokable struct{ prefix string }

func (i *invokable) Invoke(test string, obj *invokable, value string) string {
	return i.prefix + test + value
}

func (i *invokable) Show(id int) int { return id }

func TestOf_DerivesTypes(t *testing.T) {
	fn := func(w http.ResponseWriter, m *mailer, id int, count *int, anything any, r io.Reader, tags []string) {}

	sig, err := param.Of(fn,
		param.Named("response"),
		param.Named("mailer"),
		param.Named("id"),
		param.Named("count"),
		param.Named("anything"),
		param.Named("reader"),
		param.Named("tags"),
	)
	require.NoError(t, err)
	ps := sig.Params()
	require.Len(t, ps, 7)

	assert.Equal(t, param.KindNamed, ps[0].Type.Kind)
	assert.Equal(t, "net/http.ResponseWriter", ps[0].Type.ID)

	assert.Equal(t, param.KindNamed, ps[1].Type.Kind)
	assert.Equal(t, container.TypeKey(&mailer{}), ps[1].Type.ID)

	assert.Equal(t, param.KindBuiltin, ps[2].Type.Kind)
	assert.Equal(t, "int", ps[2].Type.String())
	assert.False(t, ps[2].Type.AllowsNull())

	assert.Equal(t, param.KindNullable, ps[3].Type.Kind)
	assert.Equal(t, "?int", ps[3].Type.String())
	assert.True(t, ps[3].Type.AllowsNull())

	assert.Nil(t, ps[4].Type, "any declares no type")
	assert.Equal(t, "anything", ps[4].String())

	assert.Equal(t, param.KindNamed, ps[5].Type.Kind)
	assert.Equal(t, param.KindBuiltin, ps[6].Type.Kind)

	for i, p := range ps {
		assert.Equal(t, i, p.Position)
		assert.True(t, p.Required())
	}
}

func TestOf_SpecModifiers(t *testing.T) {
	fn := func(id string, name *string, count int, obj any) {}

	sig, err := param.Of(fn,
		param.Named("id"),
		param.Named("name").Union(param.Null, param.BuiltinType("string")),
		param.Named("count").Default(5),
		param.Named("obj").As(param.NamedType("stdClass")).Nullable(),
	)
	require.NoError(t, err)
	ps := sig.Params()

	assert.Equal(t, "null|string", ps[1].Type.String())
	assert.True(t, ps[1].Type.AllowsNull())

	assert.True(t, ps[2].HasDefault)
	assert.Equal(t, 5, ps[2].Default)
	assert.False(t, ps[2].Required())

	assert.Equal(t, "?stdClass", ps[3].Type.String())
	assert.Equal(t, "stdClass", ps[3].Type.Elem.ID)
}

func TestOf_Variadic(t *testing.T) {
	fn := func(test string, check bool, rest ...string) {}

	sig, err := param.Of(fn, param.Named("test"), param.Named("check").Default(true), param.Named("variadic"))
	require.NoError(t, err)
	ps := sig.Params()

	assert.True(t, ps[2].Variadic)
	assert.False(t, ps[2].Required())
	assert.Equal(t, "string", ps[2].Type.String(), "variadic parameters are typed by their element")
}

func TestOf_InvocableObject(t *testing.T) {
	obj := &invokable{prefix: ">"}

	sig, err := param.Of(obj,
		param.Named("test"),
		param.Named("obj").Self(),
		param.Named("value").Default("example"),
	)
	require.NoError(t, err)

	self := sig.Params()[1].Type
	assert.Equal(t, param.KindSelf, self.Kind)
	assert.Equal(t, container.TypeKey(obj), self.ID, "self is concretized to the declaring type")
	assert.Equal(t, container.TypeKey(obj), container.KeyOf(sig.Declaring()))
}

func TestMethod(t *testing.T) {
	sig, err := param.Method(&invokable{}, "Show", param.Named("id"))
	require.NoError(t, err)
	assert.Equal(t, 1, sig.Len())

	_, err = param.Method(&invokable{}, "Missing", param.Named("id"))
	assert.ErrorIs(t, err, param.ErrNotCallable)
}

func TestOf_Errors(t *testing.T) {
	tests := []struct {
		name     string
		callable any
		specs    []param.Spec
		want     error
	}{
		{"string is not callable", "callable", nil, param.ErrNotCallable},
		{"nil", nil, nil, param.ErrNotCallable},
		{"nil func", (func())(nil), nil, param.ErrNotCallable},
		{"too few specs", func(a, b int) {}, []param.Spec{param.Named("a")}, param.ErrSpecMismatch},
		{"duplicate name", func(a, b int) {}, []param.Spec{param.Named("a"), param.Named("a")}, param.ErrSpecMismatch},
		{"self without declaring type", func(a any) {}, []param.Spec{param.Named("a").Self()}, param.ErrNoDeclaringType},
		{"default of the wrong type", func(a int) {}, []param.Spec{param.Named("a").Default("five")}, param.ErrBadDefault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := param.Of(tt.callable, tt.specs...)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestMustOf_Panics(t *testing.T) {
	assert.Panics(t, func() { param.MustOf(42) })
}
