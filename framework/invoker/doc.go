// Package invoker calls handlers of any signature with arguments drawn from
// an HTTP request.
//
// # Signatures
//
// Go keeps no parameter names at runtime, so a handler is registered with
// one param.Spec per parameter:
//
//	sig := param.MustOf(func(res *gohttp.Response, id int, count int) {
//	    ...
//	}, param.Named("response"), param.Named("id"), param.Named("count").Default(5))
//
// Types are derived from the Go signature: scalars are builtin, pointers to
// scalars are nullable, structs and interfaces are looked up in the
// container by their package-qualified name.
//
// # Resolution
//
// A Resolver runs a chain of rules (see package rules). Each rule sees the
// parameters still unresolved and may bind some of them; the chain stops as
// soon as nothing is left. Required parameters that no rule bound fail the
// invocation with UnresolvedParametersError.
//
//	r, err := invoker.New(app, invoker.WithRules(
//	    rules.FlexibleSignatureID,
//	    rules.IdIntegerTypeID,
//	    rules.MakeDtoID,
//	))
//
// An empty chain means DefaultRules. A rule id may also name a service in
// the container holding any rules.Rule.
//
// # HTTP
//
// Strategy adapts a signature to http.HandlerFunc. The pool offered to the
// rules holds "request" and "response", the chi URL parameters and the
// request attributes. A non-nil first return value is sent as
// {"data": value} unless the handler already wrote a response.
package invoker
