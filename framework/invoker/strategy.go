package invoker

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	slogcontext "github.com/veqryn/slog-context"

	gohttp "github.com/km-arc/go-invoker/framework/http"
	"github.com/km-arc/go-invoker/framework/http/validation"
	"github.com/km-arc/go-invoker/framework/invoker/param"
	"github.com/km-arc/go-invoker/framework/invoker/rules"
)

// ReservedKeys are routing internals that never reach a handler.
var ReservedKeys = []string{"__route__", "__routeParser__", "__routingResults__", "__basePath__"}

// Strategy turns handlers with arbitrary signatures into http.HandlerFuncs.
//
//	s := invoker.NewStrategy(resolver)
//	r.Get("/users/{id}", s.Handler(param.MustOf(show,
//	    param.Named("response"), param.Named("id"))))
type Strategy struct {
	resolver *Resolver
	debug    bool
}

// StrategyOption configures a Strategy.
type StrategyOption func(*Strategy)

// WithDebug exposes error messages in 500 responses.
func WithDebug(debug bool) StrategyOption {
	return func(s *Strategy) { s.debug = debug }
}

// NewStrategy returns a strategy resolving through resolver.
func NewStrategy(resolver *Resolver, opts ...StrategyOption) *Strategy {
	s := &Strategy{resolver: resolver}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolver returns the resolver the strategy uses.
func (s *Strategy) Resolver() *Resolver { return s.resolver }

// Pool builds the value pool of one request: the request and response
// handles, chi URL parameters and request attributes, in that order of
// precedence. Reserved keys are removed.
func Pool(req *gohttp.Request, res *gohttp.Response) rules.Pool {
	r := req.Raw()
	pool := rules.Pool{}

	for k, v := range gohttp.Attributes(r) {
		pool[k] = v
	}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		for i, k := range rctx.URLParams.Keys {
			if k == "*" || i >= len(rctx.URLParams.Values) {
				continue
			}
			pool[k] = rctx.URLParams.Values[i]
		}
	}
	pool["request"] = req
	pool["response"] = res

	for _, k := range ReservedKeys {
		delete(pool, k)
	}
	return pool
}

// Handler adapts sig to an http.HandlerFunc.
//
// A handler that writes nothing and returns a non-nil first value answers
// 200 {"data": value}. Returned or resolution errors answer 422 for
// *validation.Errors and 500 otherwise.
func (s *Strategy) Handler(sig *param.Signature) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := slogcontext.FromCtx(r.Context()).With("invocation", uuid.NewString())
		ctx := slogcontext.NewCtx(r.Context(), logger)
		r = r.WithContext(ctx)

		req := gohttp.NewRequest(r)
		res := gohttp.NewResponse(w)

		result, err := s.resolver.Invoke(ctx, sig, Pool(req, res))
		if err == nil {
			err = result.Err()
		}
		if err != nil {
			s.fail(ctx, res, err)
			return
		}

		if res.Written() {
			return
		}
		if v, ok := result.Value(); ok {
			res.Success(v)
		}
	}
}

func (s *Strategy) fail(ctx context.Context, res *gohttp.Response, err error) {
	logger := slogcontext.FromCtx(ctx)

	var bag *validation.Errors
	if errors.As(err, &bag) {
		logger.Log(ctx, slog.LevelDebug, "handler rejected input", "error", err)
		if !res.Written() {
			res.ValidationError(bag)
		}
		return
	}

	logger.Error("invocation failed", "error", err)
	if res.Written() {
		return
	}
	if s.debug {
		res.ServerError(err.Error())
		return
	}
	res.ServerError()
}
