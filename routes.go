package main

import (
	"maps"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/km-arc/go-invoker/framework/container"
	"github.com/km-arc/go-invoker/framework/dto"
	gohttp "github.com/km-arc/go-invoker/framework/http"
	"github.com/km-arc/go-invoker/framework/http/validation"
	"github.com/km-arc/go-invoker/framework/invoker/param"
	"github.com/km-arc/go-invoker/framework/invoker/rules"
	"github.com/km-arc/go-invoker/framework/locator"
	"github.com/km-arc/go-invoker/framework/providers"
	"github.com/km-arc/go-invoker/framework/routing"
)

// UserUpdateFactory is the container id of the factory building user DTOs.
const UserUpdateFactory = "user.update"

// UserStore is the in-memory repository behind the demo routes.
type UserStore struct {
	mu    sync.RWMutex
	users map[int]map[string]any
}

func NewUserStore() *UserStore {
	return &UserStore{users: map[int]map[string]any{
		1: {"id": 1, "name": "Alice", "email": "alice@example.com"},
		2: {"id": 2, "name": "Bob", "email": "bob@example.com"},
	}}
}

// Find returns a copy of the user; callers may encode it without the lock.
func (s *UserStore) Find(id int) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return maps.Clone(u), ok
}

func (s *UserStore) Update(id int, fields *dto.Record) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, false
	}
	fields.Each(func(k string, v any) bool {
		u[k] = v
		return true
	})
	return maps.Clone(u), true
}

// DemoServiceProvider binds the user DTO factory and serves the demo
// repository from a dig container.
type DemoServiceProvider struct {
	container.BaseProvider
}

func (p *DemoServiceProvider) Register(app *container.Container) {
	d := locator.NewDig()
	if err := d.Provide(NewUserStore); err != nil {
		panic(err)
	}
	app.Instance(providers.LocatorsKey, []rules.Locator{d})
	app.Instance(UserUpdateFactory, validation.Factory(
		validation.Rules{
			"name":      "sometimes|min:2|max:100",
			"email":     "sometimes|email",
			"phoneType": "nullable|integer",
			"isActive":  "nullable|boolean",
		},
		dto.Typed(map[string]dto.Caster{
			"phoneType": dto.Int,
			"isActive":  dto.Bool,
		}),
	))
}

type userController struct{}

// Show handles GET /users/{id}.
func (userController) Show(res *gohttp.Response, store *UserStore, id int) map[string]any {
	u, ok := store.Find(id)
	if !ok {
		res.NotFound("User not found.")
		return nil
	}
	return u
}

// Update handles PATCH /users/{id}; userDto comes from the make-dto rule.
func (userController) Update(res *gohttp.Response, store *UserStore, id int, userDto *dto.Record) map[string]any {
	u, ok := store.Update(id, userDto)
	if !ok {
		res.NotFound("User not found.")
		return nil
	}
	return u
}

func registerRoutes(r *routing.Router) {
	users := userController{}

	r.Get("/", func() map[string]any {
		return map[string]any{"message": "Welcome to Go-Invoker!"}
	})

	r.Prefix("/api/v1", func(api *routing.Router) {
		api.Get("/users/{id}", users.Show,
			param.Named("response"), param.Named("store"), param.Named("id"))
		api.Patch("/users/{id}", users.Update,
			param.Named("response"), param.Named("store"), param.Named("id"), param.Named("userDto"))
	})

	r.Group(func(protected *routing.Router) {
		protected.Middleware(AuthMiddleware)

		// token is a request attribute set by AuthMiddleware.
		protected.Get("/profile", func(token, trace string) map[string]any {
			return map[string]any{"token": token, "trace": trace}
		}, param.Named("token"), param.Named("trace"))
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		gohttp.NewResponse(w).Success(map[string]string{"status": "ok"})
	})
}

// AuthMiddleware is an example token guard. It exposes the token and a
// trace id to handlers as request attributes.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := gohttp.NewRequest(r)
		token := req.BearerToken()
		if token == "" {
			gohttp.NewResponse(w).Unauthorized()
			return
		}
		r = gohttp.WithAttribute(r, "token", token)
		r = gohttp.WithAttribute(r, "trace", uuid.NewString())
		next.ServeHTTP(w, r)
	})
}
