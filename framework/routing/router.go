package routing

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	slogcontext "github.com/veqryn/slog-context"

	"github.com/km-arc/go-invoker/framework/invoker"
	"github.com/km-arc/go-invoker/framework/invoker/param"
)

// Router wraps chi.Router with Laravel-style helpers.
//
// Routes take either a plain http.HandlerFunc or any callable plus one
// param.Spec per parameter; the latter are dispatched through the
// invocation strategy.
//
//	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { ... })
//	r.Get("/users/{id}", users.Show, param.Named("response"), param.Named("id"))
type Router struct {
	mux      chi.Router
	strategy *invoker.Strategy
}

// Option configures a Router.
type Option func(*Router)

// WithStrategy sets the strategy callables are dispatched through.
func WithStrategy(s *invoker.Strategy) Option {
	return func(r *Router) { r.strategy = s }
}

// New creates a Router with sane defaults (RequestID, RealIP, request
// logger, Recoverer). logger may be nil for slog.Default().
func New(logger *slog.Logger, opts ...Option) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(RequestLogger(logger))
	mux.Use(middleware.Recoverer)

	r := &Router{mux: mux}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RequestLogger stores a request-scoped logger in the context, for
// slogcontext.FromCtx, and logs every request once it completes.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			l := logger.With("method", req.Method, "path", req.URL.Path)
			if id := middleware.GetReqID(req.Context()); id != "" {
				l = l.With("request_id", id)
			}

			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
			next.ServeHTTP(ww, req.WithContext(slogcontext.NewCtx(req.Context(), l)))

			l.Info("request handled", "status", ww.Status(), "bytes", ww.BytesWritten())
		})
	}
}

// Strategy returns the invocation strategy, or nil.
func (r *Router) Strategy() *invoker.Strategy { return r.strategy }

// ── HTTP verbs ───────────────────────────────────────────────────────────────

func (r *Router) Get(pattern string, h any, specs ...param.Spec) {
	r.mux.Get(pattern, r.handler(h, specs))
}

func (r *Router) Post(pattern string, h any, specs ...param.Spec) {
	r.mux.Post(pattern, r.handler(h, specs))
}

func (r *Router) Put(pattern string, h any, specs ...param.Spec) {
	r.mux.Put(pattern, r.handler(h, specs))
}

func (r *Router) Patch(pattern string, h any, specs ...param.Spec) {
	r.mux.Patch(pattern, r.handler(h, specs))
}

func (r *Router) Delete(pattern string, h any, specs ...param.Spec) {
	r.mux.Delete(pattern, r.handler(h, specs))
}

// Any registers a handler for all common HTTP methods.
func (r *Router) Any(pattern string, h any, specs ...param.Spec) {
	hf := r.handler(h, specs)
	for _, m := range []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"} {
		r.mux.Method(m, pattern, hf)
	}
}

// handler panics on a bad registration, as chi does for bad patterns.
func (r *Router) handler(h any, specs []param.Spec) http.HandlerFunc {
	switch fn := h.(type) {
	case http.HandlerFunc:
		return fn
	case func(http.ResponseWriter, *http.Request):
		return fn
	}
	if r.strategy == nil {
		panic(fmt.Sprintf("routing: %T needs an invocation strategy, see WithStrategy", h))
	}
	return r.strategy.Handler(param.MustOf(h, specs...))
}

// ── Groups & Prefixes ────────────────────────────────────────────────────────

// Group creates an inline group, like Laravel's Route::group([], fn)
func (r *Router) Group(fn func(r *Router)) {
	r.mux.Group(func(mx chi.Router) {
		fn(&Router{mux: mx, strategy: r.strategy})
	})
}

// Prefix creates a sub-router with a URL prefix, like Laravel's Route::prefix('/api')
func (r *Router) Prefix(pattern string, fn func(r *Router)) {
	r.mux.Route(pattern, func(mx chi.Router) {
		fn(&Router{mux: mx, strategy: r.strategy})
	})
}

// ── Middleware ───────────────────────────────────────────────────────────────

// Middleware adds one or more middleware to the router.
func (r *Router) Middleware(mw ...func(http.Handler) http.Handler) {
	r.mux.Use(mw...)
}

// ── Params ───────────────────────────────────────────────────────────────────

// Param extracts a URL param, like $request->route('id')
func Param(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

// ── Serve ────────────────────────────────────────────────────────────────────

// ServeHTTP implements http.Handler so Router can be passed to http.ListenAndServe.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Handler returns the underlying http.Handler (for testing etc.).
func (r *Router) Handler() http.Handler {
	return r.mux
}
