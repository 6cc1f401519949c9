package app_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-invoker/framework/app"
	"github.com/km-arc/go-invoker/framework/config"
	"github.com/km-arc/go-invoker/framework/container"
	"github.com/km-arc/go-invoker/framework/invoker"
	"github.com/km-arc/go-invoker/framework/invoker/param"
	"github.com/km-arc/go-invoker/framework/invoker/rules"
)

func testConfig(ids ...string) *config.Config {
	return &config.Config{
		App:     config.AppConfig{Name: "test", Env: "testing", Port: "0"},
		Log:     config.LogConfig{Level: slog.LevelError, Format: "text"},
		Invoker: config.InvokerConfig{Rules: ids},
	}
}

// clock is an application service handlers receive through the container.
type clock interface{ Now() string }

type fixedClock struct{}

func (fixedClock) Now() string { return "noon" }

type clockProvider struct{ container.BaseProvider }

func (clockProvider) Register(c *container.Container) {
	c.Instance(container.KeyFor[clock](), fixedClock{})
}

func TestApplication_BootAndServe(t *testing.T) {
	a := app.New(testConfig(
		rules.IdIntegerTypeID, rules.FlexibleSignatureID, rules.TypeHintContainerID,
	), &clockProvider{})
	require.NoError(t, a.Boot())

	a.Router().Get("/users/{id}", func(id int, c clock) map[string]any {
		return map[string]any{"id": id, "at": c.Now()}
	}, param.Named("id"), param.Named("clock"))

	rr := httptest.NewRecorder()
	a.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users/12", nil))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var body map[string]map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, map[string]any{"id": float64(12), "at": "noon"}, body["data"])
}

func TestApplication_BootRejectsBadChain(t *testing.T) {
	a := app.New(testConfig(rules.FlexibleSignatureID, "rules.missing"))

	err := a.Boot()

	var cfgErr invoker.InvalidConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "rules.missing", cfgErr.RuleID)
	assert.ErrorIs(t, err, invoker.ErrUnknownRule)
}

func TestApplication_Environment(t *testing.T) {
	a := app.New(testConfig())

	assert.True(t, a.IsTesting())
	assert.False(t, a.IsProduction())
	assert.False(t, a.IsLocal())
	assert.False(t, a.IsDebug())
	assert.Equal(t, invoker.DefaultRules, a.Resolver().Rules())
}

func TestLoad(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("INVOKER_RULES", "null-type")

	a, err := app.Load("testdata/empty.env")
	require.NoError(t, err)
	assert.True(t, a.IsProduction())
	assert.Equal(t, []string{rules.NullTypeID}, a.Resolver().Rules())

	t.Setenv("LOG_LEVEL", "nope")
	_, err = app.Load("testdata/empty.env")
	assert.Error(t, err)
}

func TestApplication_ServeShutsDownOnCancel(t *testing.T) {
	a := app.New(testConfig())
	require.NoError(t, a.Boot())
	a.Router().Get("/ping", func() string { return "pong" })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/ping")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
