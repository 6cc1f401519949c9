package param

import (
	"reflect"
	"strings"

	"github.com/muir/reflectutils"

	"github.com/km-arc/go-invoker/framework/container"
)

// Kind tags the variant held by a Type.
type Kind int

const (
	KindBuiltin Kind = iota + 1
	KindNamed
	KindNullable
	KindUnion
	KindSelf
)

func (k Kind) String() string {
	switch k {
	case KindBuiltin:
		return "builtin"
	case KindNamed:
		return "named"
	case KindNullable:
		return "nullable"
	case KindUnion:
		return "union"
	case KindSelf:
		return "self"
	default:
		return "invalid"
	}
}

// Type is the declared type of a handler parameter.
//
// Builtin carries Name only. Named and SelfRef carry ID, the container key
// the service is registered under, and Name for display; SelfRef is always
// concretized to the declaring type during extraction. Nullable wraps Elem.
// Union lists Members.
type Type struct {
	Kind    Kind
	Name    string
	ID      string
	Elem    *Type
	Members []*Type
}

// Null is the builtin null type, a valid Union member.
var Null = &Type{Kind: KindBuiltin, Name: "null"}

// BuiltinType returns the builtin scalar type called name.
func BuiltinType(name string) *Type { return &Type{Kind: KindBuiltin, Name: name} }

// NamedType returns a named service type looked up by id.
func NamedType(id string) *Type { return &Type{Kind: KindNamed, ID: id, Name: shortName(id)} }

// NullableOf wraps t. Wrapping a nullable type returns it unchanged.
func NullableOf(t *Type) *Type {
	if t == nil || t.Kind == KindNullable {
		return t
	}
	return &Type{Kind: KindNullable, Elem: t}
}

// UnionOf returns the union of members.
func UnionOf(members ...*Type) *Type { return &Type{Kind: KindUnion, Members: members} }

// AllowsNull reports whether nil is an acceptable value for the type.
func (t *Type) AllowsNull() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case KindNullable:
		return true
	case KindBuiltin:
		return t.Name == "null"
	case KindUnion:
		for _, m := range t.Members {
			if m.AllowsNull() {
				return true
			}
		}
	}
	return false
}

// String renders the type the way error messages show it: int, ?Mailer, A|B.
func (t *Type) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case KindNullable:
		return "?" + t.Elem.String()
	case KindUnion:
		parts := make([]string, len(t.Members))
		for i, m := range t.Members {
			parts[i] = m.String()
		}
		return strings.Join(parts, "|")
	default:
		if t.Name != "" {
			return t.Name
		}
		return t.ID
	}
}

// TypeOf derives the declared type of a Go type.
//
// Scalars and unnamed composites are builtin, pointers to builtins are
// nullable builtins, interfaces and structs (or pointers to them) are named
// by their container key, and the empty interface declares no type at all.
func TypeOf(t reflect.Type) *Type {
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Interface && t.NumMethod() == 0 && t.Name() == "" {
		return nil
	}
	if t.Kind() == reflect.Pointer && isBuiltin(t.Elem()) {
		return NullableOf(TypeOf(t.Elem()))
	}
	if isBuiltin(t) {
		return &Type{Kind: KindBuiltin, Name: t.String()}
	}
	return &Type{Kind: KindNamed, ID: container.KeyOf(t), Name: reflectutils.TypeName(t)}
}

func isBuiltin(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Struct, reflect.Interface, reflect.Pointer:
		return false
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan, reflect.Func:
		return t.Name() == ""
	default:
		return true
	}
}

func shortName(id string) string {
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}
