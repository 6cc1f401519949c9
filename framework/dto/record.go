package dto

import (
	"bytes"
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Record is the generic data-transfer object: an ordered set of field/value
// pairs. Request bodies are decoded into a Record and handlers without a
// registered factory receive a copy of it.
//
// The zero value is not usable; use NewRecord.
type Record struct {
	fields *orderedmap.OrderedMap[string, any]
}

// NewRecord creates an empty Record.
func NewRecord() *Record {
	return &Record{fields: orderedmap.New[string, any]()}
}

// FromMap builds a Record from m. Go maps carry no order, so fields are
// inserted in the order given by keys; keys missing from m are skipped and
// fields of m not listed in keys are appended afterwards in map order.
func FromMap(m map[string]any, keys ...string) *Record {
	r := NewRecord()
	for _, k := range keys {
		if v, ok := m[k]; ok {
			r.Set(k, v)
		}
	}
	for k, v := range m {
		if !r.Has(k) {
			r.Set(k, v)
		}
	}
	return r
}

// Get returns the value of field and whether it is present.
func (r *Record) Get(field string) (any, bool) {
	return r.fields.Get(field)
}

// Value returns the value of field, or nil.
func (r *Record) Value(field string) any {
	v, _ := r.fields.Get(field)
	return v
}

// Set assigns field, keeping its original position when it already exists.
func (r *Record) Set(field string, value any) {
	r.fields.Set(field, value)
}

// Delete removes field.
func (r *Record) Delete(field string) {
	r.fields.Delete(field)
}

// Has reports whether field is present.
func (r *Record) Has(field string) bool {
	_, ok := r.fields.Get(field)
	return ok
}

// Len returns the number of fields.
func (r *Record) Len() int { return r.fields.Len() }

// Keys returns the field names in insertion order.
func (r *Record) Keys() []string {
	keys := make([]string, 0, r.fields.Len())
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Each calls fn for every field in order until fn returns false.
func (r *Record) Each(fn func(field string, value any) bool) {
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Map returns the fields as a plain map.
func (r *Record) Map() map[string]any {
	out := make(map[string]any, r.fields.Len())
	r.Each(func(k string, v any) bool {
		out[k] = v
		return true
	})
	return out
}

// Clone returns a shallow copy.
func (r *Record) Clone() *Record {
	out := NewRecord()
	r.Each(func(k string, v any) bool {
		out.Set(k, v)
		return true
	})
	return out
}

// MarshalJSON encodes the record as a JSON object in field order.
func (r *Record) MarshalJSON() ([]byte, error) {
	return r.fields.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object, keeping the order of its keys.
func (r *Record) UnmarshalJSON(data []byte) error {
	if r.fields == nil {
		r.fields = orderedmap.New[string, any]()
	}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	return json.Unmarshal(data, r.fields)
}
