package param

import (
	"fmt"
	"reflect"
)

// Parameter describes one parameter of a handler.
type Parameter struct {
	Position   int
	Name       string
	Type       *Type // nil when no type is declared
	HasDefault bool
	Default    any
	Variadic   bool

	// GoType is the Go type the argument is converted to on invocation.
	GoType reflect.Type
}

// Required reports whether resolution must bind the parameter.
func (p Parameter) Required() bool {
	return !p.HasDefault && !p.Variadic
}

// String renders "type name", or just the name when no type is declared.
func (p Parameter) String() string {
	if p.Type == nil {
		return p.Name
	}
	return fmt.Sprintf("%s %s", p.Type, p.Name)
}

// Spec declares what Go cannot recover at runtime about a parameter: its
// name, plus optional overrides of the derived type and a default value.
//
//	param.Of(handler,
//	    param.Named("request"),
//	    param.Named("id"),
//	    param.Named("count").Default(5),
//	)
type Spec struct {
	name       string
	typ        *Type
	nullable   bool
	self       bool
	hasDefault bool
	def        any
}

// Named starts a Spec for the parameter called name.
func Named(name string) Spec { return Spec{name: name} }

// Default gives the parameter a default value used when no rule binds it.
func (s Spec) Default(v any) Spec {
	s.hasDefault = true
	s.def = v
	return s
}

// Nullable marks the declared type as accepting nil.
func (s Spec) Nullable() Spec {
	s.nullable = true
	return s
}

// As overrides the declared type derived from the Go type.
func (s Spec) As(t *Type) Spec {
	s.typ = t
	return s
}

// Union declares the parameter as a union of the given member types.
func (s Spec) Union(members ...*Type) Spec {
	s.typ = UnionOf(members...)
	return s
}

// Self declares the parameter as typed by the declaring type of the handler.
func (s Spec) Self() Spec {
	s.self = true
	return s
}

// Name returns the declared parameter name.
func (s Spec) Name() string { return s.name }
