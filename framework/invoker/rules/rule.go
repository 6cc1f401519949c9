// Package rules holds the resolution strategies the invoker chains together
// to bind handler parameters.
//
// A rule receives the parameters still unresolved, the value pool built from
// the request and the arguments bound by earlier rules, and returns the
// arguments with its own bindings added. Rules must be stateless apart from
// the Locator they were built with: one instance may serve many requests at
// once.
package rules

import (
	"maps"
	"slices"

	"github.com/km-arc/go-invoker/framework/invoker/param"
)

// Built-in rule identifiers.
const (
	FlexibleSignatureID = "flexible-signature"
	TypeHintContainerID = "type-hint-container"
	NullTypeID          = "null-type"
	IdIntegerTypeID     = "id-integer-type"
	MakeDtoID           = "make-dto"
)

// Pool is the set of named values a handler can be fed from: the request and
// response handles, route placeholders and request attributes.
type Pool map[string]any

// Arguments maps parameter positions to bound values.
type Arguments map[int]any

// Clone returns a copy of a.
func (a Arguments) Clone() Arguments {
	if a == nil {
		return Arguments{}
	}
	return maps.Clone(a)
}

// Positions returns the bound positions in ascending order.
func (a Arguments) Positions() []int {
	return slices.Sorted(maps.Keys(a))
}

// Locator is the read-only view of the service container rules look
// services up in. Implementations must allow concurrent calls.
type Locator interface {
	Has(id string) bool
	Get(id string) (any, error)
}

// Rule is one resolution strategy.
type Rule interface {
	Resolve(unresolved []param.Parameter, pool Pool, resolved Arguments) (Arguments, error)
}

// Func adapts a function to Rule.
type Func func(unresolved []param.Parameter, pool Pool, resolved Arguments) (Arguments, error)

// Resolve calls f.
func (f Func) Resolve(unresolved []param.Parameter, pool Pool, resolved Arguments) (Arguments, error) {
	return f(unresolved, pool, resolved)
}

// Constructor builds a rule. Every rule gets the locator, used or not.
type Constructor func(Locator) Rule

// Builtin returns the catalog of rules shipped with the invoker.
func Builtin() map[string]Constructor {
	return map[string]Constructor{
		FlexibleSignatureID: func(Locator) Rule { return FlexibleSignature{} },
		TypeHintContainerID: func(l Locator) Rule { return TypeHintContainer{Locator: l} },
		NullTypeID:          func(Locator) Rule { return NullType{} },
		IdIntegerTypeID:     func(Locator) Rule { return IdIntegerType{} },
		MakeDtoID:           func(l Locator) Rule { return MakeDto{Locator: l} },
	}
}
