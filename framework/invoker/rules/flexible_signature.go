package rules

import "github.com/km-arc/go-invoker/framework/invoker/param"

// FlexibleSignature binds parameters to pool values of the same name.
//
// For a handler (request, response, id) and a pool
// {request: r, response: w, id: "1"} the handler receives (r, w, "1").
// Names are matched exactly and values are passed through as they are.
type FlexibleSignature struct{}

func (FlexibleSignature) Resolve(unresolved []param.Parameter, pool Pool, resolved Arguments) (Arguments, error) {
	for _, p := range unresolved {
		if v, ok := pool[p.Name]; ok {
			resolved[p.Position] = v
		}
	}
	return resolved, nil
}
