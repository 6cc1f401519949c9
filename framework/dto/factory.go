package dto

import (
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// FactoriesKey is the container entry mapping handler parameter names to
// factory identifiers.
//
//	app.Instance(dto.FactoriesKey, dto.FactoryMap{"dto": "user.update"})
//	app.Instance("user.update", dto.Typed(map[string]dto.Caster{"phoneType": dto.Int}))
const FactoriesKey = "dtoFactories"

// FactoryMap maps a handler parameter name to the identifier of the factory
// that builds its DTO.
type FactoryMap map[string]string

// Factory builds a typed DTO out of a request body.
type Factory interface {
	MakeDTO(body *Record) (any, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(body *Record) (any, error)

// MakeDTO calls f.
func (f FactoryFunc) MakeDTO(body *Record) (any, error) { return f(body) }

// AsFactory accepts the shapes a factory may be registered as.
func AsFactory(v any) (Factory, bool) {
	switch f := v.(type) {
	case Factory:
		return f, true
	case func(*Record) (any, error):
		return FactoryFunc(f), true
	default:
		return nil, false
	}
}

// ── Casting ──────────────────────────────────────────────────────────────────

// Caster converts one body field into its typed value.
type Caster func(value any) (any, error)

// Int casts to int.
func Int(v any) (any, error) { return cast.ToIntE(v) }

// Float casts to float64.
func Float(v any) (any, error) { return cast.ToFloat64E(v) }

// Bool casts to bool ("1", "true", 1 → true).
func Bool(v any) (any, error) { return cast.ToBoolE(v) }

// String casts to string.
func String(v any) (any, error) { return cast.ToStringE(v) }

// Time parses dates in any of the layouts cast understands.
func Time(v any) (any, error) { return cast.ToTimeE(v) }

// TimeIn is like Time but interprets zone-less dates in loc.
func TimeIn(loc *time.Location) Caster {
	return func(v any) (any, error) { return cast.ToTimeInDefaultLocationE(v, loc) }
}

// FieldError reports a body field that could not be cast.
type FieldError struct {
	Field string
	Value any
	Err   error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("dto: field %q: cannot cast %v: %v", e.Field, e.Value, e.Err)
}

func (e FieldError) Unwrap() error { return e.Err }

var _ error = FieldError{}

// Typed returns a factory that copies the body into a new Record, casting
// the listed fields. Fields without a caster pass through unchanged.
//
//	dto.Typed(map[string]dto.Caster{
//	    "phoneType": dto.Int,
//	    "date":      dto.Time,
//	    "isActive":  dto.Bool,
//	})
func Typed(fields map[string]Caster) Factory {
	return FactoryFunc(func(body *Record) (any, error) {
		out := NewRecord()
		var err error
		body.Each(func(field string, value any) bool {
			if c, ok := fields[field]; ok {
				typed, castErr := c(value)
				if castErr != nil {
					err = FieldError{Field: field, Value: value, Err: castErr}
					return false
				}
				value = typed
			}
			out.Set(field, value)
			return true
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	})
}
