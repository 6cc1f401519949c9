package rules

import "github.com/km-arc/go-invoker/framework/invoker/param"

// NullType binds nil to parameters without a default whose declared type
// accepts null. A parameter with no declared type does not qualify.
//
// It belongs at the end of a chain, catching whatever nothing else bound.
type NullType struct{}

func (NullType) Resolve(unresolved []param.Parameter, _ Pool, resolved Arguments) (Arguments, error) {
	for _, p := range unresolved {
		if !p.HasDefault && p.Type.AllowsNull() {
			resolved[p.Position] = nil
		}
	}
	return resolved, nil
}
