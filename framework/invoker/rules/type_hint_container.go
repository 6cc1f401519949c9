package rules

import "github.com/km-arc/go-invoker/framework/invoker/param"

// TypeHintContainer injects parameters typed as a service registered in the
// container.
//
// Union types are never resolved here, not even when one of their members is
// registered. Such parameters need another rule or a default.
type TypeHintContainer struct {
	Locator Locator
}

func (r TypeHintContainer) Resolve(unresolved []param.Parameter, _ Pool, resolved Arguments) (Arguments, error) {
	for _, p := range unresolved {
		id, ok := serviceID(p.Type)
		if !ok || !r.Locator.Has(id) {
			continue
		}
		v, err := r.Locator.Get(id)
		if err != nil {
			return nil, err
		}
		resolved[p.Position] = v
	}
	return resolved, nil
}

// serviceID returns the container key of a single named type.
func serviceID(t *param.Type) (string, bool) {
	if t == nil {
		return "", false
	}
	switch t.Kind {
	case param.KindNamed, param.KindSelf:
		return t.ID, t.ID != ""
	case param.KindNullable:
		// ?Service is still a single named type
		return serviceID(t.Elem)
	case param.KindUnion:
		return "", false
	case param.KindBuiltin:
		return "", false
	default:
		return "", false
	}
}
