package param

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/muir/reflectutils"

	"github.com/km-arc/go-invoker/framework/container"
)

// InvokeMethod is the method that makes a value an invocable object.
const InvokeMethod = "Invoke"

var (
	ErrNotCallable     = errors.New("value is not callable")
	ErrSpecMismatch    = errors.New("parameter specs do not match the signature")
	ErrNoDeclaringType = errors.New("self-typed parameter needs a declaring type")
	ErrBadDefault      = errors.New("default value does not fit the parameter")
)

// Signature is a callable together with its parameter descriptors.
// It is immutable and safe to share between requests.
type Signature struct {
	fn        reflect.Value
	declaring reflect.Type
	params    []Parameter
}

// Func returns the function value to call.
func (s *Signature) Func() reflect.Value { return s.fn }

// Declaring returns the type a method or invocable object belongs to, or nil.
func (s *Signature) Declaring() reflect.Type { return s.declaring }

// Params returns the descriptors in position order.
func (s *Signature) Params() []Parameter {
	out := make([]Parameter, len(s.params))
	copy(out, s.params)
	return out
}

// Len returns the number of parameters.
func (s *Signature) Len() int { return len(s.params) }

// Of extracts the signature of a function, closure, method value or method
// expression, or of an invocable object (any value with an Invoke method).
// One Spec per Go parameter is required.
func Of(callable any, specs ...Spec) (*Signature, error) {
	v := reflect.ValueOf(callable)
	if !v.IsValid() {
		return nil, fmt.Errorf("param: %w: nil", ErrNotCallable)
	}
	if v.Kind() == reflect.Func {
		if v.IsNil() {
			return nil, fmt.Errorf("param: %w: nil %s", ErrNotCallable, v.Type())
		}
		return build(v, nil, specs)
	}

	m := v.MethodByName(InvokeMethod)
	if !m.IsValid() {
		return nil, fmt.Errorf("param: %w: %s has no %s method", ErrNotCallable, v.Type(), InvokeMethod)
	}
	return build(m, v.Type(), specs)
}

// Method extracts the signature of the method called name on recv. Self
// parameters resolve to the receiver's type.
func Method(recv any, name string, specs ...Spec) (*Signature, error) {
	v := reflect.ValueOf(recv)
	if !v.IsValid() {
		return nil, fmt.Errorf("param: %w: nil receiver", ErrNotCallable)
	}
	m := v.MethodByName(name)
	if !m.IsValid() {
		return nil, fmt.Errorf("param: %w: %s has no method %s", ErrNotCallable, v.Type(), name)
	}
	return build(m, v.Type(), specs)
}

// MustOf is Of for route registration, where a bad signature is a
// programming error.
func MustOf(callable any, specs ...Spec) *Signature {
	sig, err := Of(callable, specs...)
	if err != nil {
		panic(err)
	}
	return sig
}

func build(fn reflect.Value, declaring reflect.Type, specs []Spec) (*Signature, error) {
	ft := fn.Type()
	if ft.NumIn() != len(specs) {
		return nil, fmt.Errorf("param: %w: %s takes %d parameters, %d specs given",
			ErrSpecMismatch, ft, ft.NumIn(), len(specs))
	}

	derived := derivedTypes(ft)
	seen := make(map[string]bool, len(specs))
	params := make([]Parameter, len(specs))

	for i, s := range specs {
		if s.name == "" || seen[s.name] {
			return nil, fmt.Errorf("param: %w: parameter %d has an empty or duplicate name %q",
				ErrSpecMismatch, i, s.name)
		}
		seen[s.name] = true

		p := Parameter{
			Position:   i,
			Name:       s.name,
			Type:       derived[i],
			HasDefault: s.hasDefault,
			Default:    s.def,
			Variadic:   ft.IsVariadic() && i == ft.NumIn()-1,
			GoType:     ft.In(i),
		}

		if s.typ != nil {
			p.Type = s.typ
		}
		if s.self {
			if declaring == nil {
				return nil, fmt.Errorf("param: %w: parameter %s", ErrNoDeclaringType, s.name)
			}
			p.Type = &Type{Kind: KindSelf, ID: container.KeyOf(declaring), Name: reflectutils.TypeName(declaring)}
		}
		if s.nullable {
			p.Type = NullableOf(p.Type)
		}
		if p.HasDefault && !fits(p.Default, p.GoType) {
			return nil, fmt.Errorf("param: %w: %T for %s", ErrBadDefault, p.Default, p)
		}
		params[i] = p
	}

	return &Signature{fn: fn, declaring: declaring, params: params}, nil
}

// fits reports whether v can be passed for a parameter of type t.
func fits(v any, t reflect.Type) bool {
	if v == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return true
		}
		return false
	}
	return Convertible(reflect.TypeOf(v), t)
}

// Convertible reports whether a value of type from may be passed for to,
// either directly or through a Go conversion. Integer to string conversions
// are excluded since they produce runes, not digits.
func Convertible(from, to reflect.Type) bool {
	if from.AssignableTo(to) {
		return true
	}
	if to.Kind() == reflect.String && from.Kind() != reflect.String {
		return false
	}
	return from.ConvertibleTo(to)
}

// ── Type cache ───────────────────────────────────────────────────────────────

var typeCache = struct {
	sync.RWMutex
	m map[reflect.Type][]*Type
}{m: make(map[reflect.Type][]*Type)}

// derivedTypes returns the declared types of ft's parameters, cached per
// function type. Variadic parameters are typed by their element type.
func derivedTypes(ft reflect.Type) []*Type {
	typeCache.RLock()
	types, ok := typeCache.m[ft]
	typeCache.RUnlock()
	if ok {
		return types
	}

	types = make([]*Type, ft.NumIn())
	for i := range types {
		in := ft.In(i)
		if ft.IsVariadic() && i == ft.NumIn()-1 {
			in = in.Elem()
		}
		types[i] = TypeOf(in)
	}

	typeCache.Lock()
	typeCache.m[ft] = types
	typeCache.Unlock()
	return types
}
