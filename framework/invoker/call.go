package invoker

import (
	"context"
	"reflect"

	"github.com/km-arc/go-invoker/framework/invoker/param"
	"github.com/km-arc/go-invoker/framework/invoker/rules"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Result holds what a handler returned.
type Result struct {
	out []reflect.Value
}

// Values returns the return values in order.
func (r *Result) Values() []any {
	vals := make([]any, len(r.out))
	for i, v := range r.out {
		vals[i] = v.Interface()
	}
	return vals
}

// Err returns the handler's error: its last return value when its type
// implements error and it is not nil.
func (r *Result) Err() error {
	if len(r.out) == 0 {
		return nil
	}
	last := r.out[len(r.out)-1]
	if !last.Type().Implements(errorType) || isNil(last) {
		return nil
	}
	return last.Interface().(error)
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// Value returns the first return value unless it is the error return. The
// second result is false when there is no such value or it is a nil
// pointer, map, slice or interface.
func (r *Result) Value() (any, bool) {
	if len(r.out) == 0 {
		return nil, false
	}
	v := r.out[0]
	if len(r.out) == 1 && v.Type().Implements(errorType) {
		return nil, false
	}
	if isNil(v) {
		return nil, false
	}
	return v.Interface(), true
}

// Call invokes sig with args ordered by position. Unbound positions take the
// parameter's default; an unbound variadic parameter is left empty. nil is
// passed as the parameter's zero value and convertible values are
// converted.
func Call(sig *param.Signature, args rules.Arguments) (*Result, error) {
	params := sig.Params()
	in := make([]reflect.Value, 0, len(params))
	spread := false

	for _, p := range params {
		v, ok := args[p.Position]
		switch {
		case ok:
		case p.Variadic:
			continue
		case p.HasDefault:
			v = p.Default
		default:
			return nil, UnresolvedParametersError{Missing: []param.Parameter{p}}
		}

		if p.Variadic {
			// a slice of the variadic type is spread, anything else is one element
			if rv := reflect.ValueOf(v); rv.IsValid() && rv.Type().AssignableTo(p.GoType) {
				in = append(in, rv)
				spread = true
				continue
			}
			elem := p
			elem.GoType = p.GoType.Elem()
			av, err := argument(elem, v)
			if err != nil {
				return nil, err
			}
			in = append(in, av)
			continue
		}

		av, err := argument(p, v)
		if err != nil {
			return nil, err
		}
		in = append(in, av)
	}

	fn := sig.Func()
	if spread {
		return &Result{out: fn.CallSlice(in)}, nil
	}
	return &Result{out: fn.Call(in)}, nil
}

// Invoke resolves the parameters of sig from pool and calls it.
func (r *Resolver) Invoke(ctx context.Context, sig *param.Signature, pool rules.Pool) (*Result, error) {
	args, err := r.Resolve(ctx, sig.Params(), pool)
	if err != nil {
		return nil, err
	}
	return Call(sig, args)
}

func argument(p param.Parameter, v any) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(p.GoType), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(p.GoType) {
		return rv, nil
	}
	if param.Convertible(rv.Type(), p.GoType) {
		return rv.Convert(p.GoType), nil
	}
	return reflect.Value{}, ArgumentTypeError{Param: p, Got: rv.Type()}
}
