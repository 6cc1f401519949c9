package http

import (
	"context"
	"maps"
	"net/http"
)

type attributesKey struct{}

// WithAttribute returns a shallow copy of r carrying the attribute key. Route
// middleware uses it to hand values (the authenticated user, a tenant) to
// handlers, which receive them as named parameters.
//
//	next.ServeHTTP(w, gohttp.WithAttribute(r, "user", u))
func WithAttribute(r *http.Request, key string, value any) *http.Request {
	attrs := maps.Clone(Attributes(r))
	if attrs == nil {
		attrs = make(map[string]any, 1)
	}
	attrs[key] = value
	return r.WithContext(context.WithValue(r.Context(), attributesKey{}, attrs))
}

// Attributes returns the attributes of r. The map must not be modified.
func Attributes(r *http.Request) map[string]any {
	attrs, _ := r.Context().Value(attributesKey{}).(map[string]any)
	return attrs
}
