package container_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/km-arc/go-invoker/framework/container"
)

type mailer interface{ Send(to string) error }

type smtpMailer struct{ host string }

func (m *smtpMailer) Send(string) error { return nil }

// ── Bind / Singleton / Instance ──────────────────────────────────────────────

func TestContainer_Bind_Transient(t *testing.T) {
	c := container.New()
	c.Bind("mailer", func(*container.Container) any { return &smtpMailer{} })

	a := c.Make("mailer")
	b := c.Make("mailer")
	if a == b {
		t.Error("transient binding should build a new instance per Make()")
	}
}

func TestContainer_Singleton_Cached(t *testing.T) {
	c := container.New()
	var builds int32
	c.Singleton("mailer", func(*container.Container) any {
		atomic.AddInt32(&builds, 1)
		return &smtpMailer{}
	})

	if c.Resolved("mailer") {
		t.Error("singleton should not be resolved before first Make()")
	}
	a := c.Make("mailer")
	b := c.Make("mailer")
	if a != b {
		t.Error("singleton should return the same instance")
	}
	if builds != 1 {
		t.Errorf("factory calls: got %d want 1", builds)
	}
}

func TestContainer_Rebind_DropsSingleton(t *testing.T) {
	c := container.New()
	c.Singleton("host", func(*container.Container) any { return "a" })
	_ = c.Make("host")
	c.Singleton("host", func(*container.Container) any { return "b" })

	if got := c.Make("host"); got != "b" {
		t.Errorf("got %v want b", got)
	}
}

func TestContainer_Instance_Nil(t *testing.T) {
	c := container.New()
	c.Instance("nothing", nil)

	if !c.Has("nothing") {
		t.Fatal("nil instance should still be bound")
	}
	got, err := c.Get("nothing")
	if err != nil || got != nil {
		t.Errorf("Get: got (%v, %v) want (nil, nil)", got, err)
	}
}

func TestContainer_Alias(t *testing.T) {
	c := container.New()
	c.Instance("mailer", &smtpMailer{host: "smtp.local"})
	c.Alias("mailer", "mail")

	m := container.Resolve[*smtpMailer](c, "mail")
	if m.host != "smtp.local" {
		t.Errorf("host: got %q", m.host)
	}
}

func TestContainer_SelfBound(t *testing.T) {
	c := container.New()
	if c.Make("container") != c {
		t.Error("container should be bound to itself")
	}
}

// ── Locator surface ──────────────────────────────────────────────────────────

func TestContainer_Get_NotBound(t *testing.T) {
	c := container.New()
	if c.Has("missing") {
		t.Error("Has(missing) should be false")
	}
	_, err := c.Get("missing")
	if !errors.Is(err, container.ErrNotBound) {
		t.Errorf("expected ErrNotBound, got %v", err)
	}
}

func TestContainer_Get_FactoryPanic(t *testing.T) {
	c := container.New()
	c.Bind("broken", func(c *container.Container) any { return c.Make("missing") })

	_, err := c.Get("broken")
	var panicErr container.FactoryPanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("expected FactoryPanicError, got %v", err)
	}
	if panicErr.Abstract != "broken" {
		t.Errorf("Abstract: got %q want broken", panicErr.Abstract)
	}
}

func TestContainer_Make_PanicsWhenUnbound(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Make() on an unknown abstract should panic")
		}
	}()
	container.New().Make("missing")
}

func TestContainer_ConcurrentGet(t *testing.T) {
	c := container.New()
	var builds int32
	c.Singleton("mailer", func(*container.Container) any {
		atomic.AddInt32(&builds, 1)
		return &smtpMailer{}
	})

	var wg sync.WaitGroup
	results := make([]any, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.Get("mailer")
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent Get() returned different singleton instances")
		}
	}
}

// ── Keys ─────────────────────────────────────────────────────────────────────

func TestTypeKey(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"pointer", container.TypeKey(&smtpMailer{}), "github.com/km-arc/go-invoker/framework/container_test.smtpMailer"},
		{"value", container.TypeKey(smtpMailer{}), "github.com/km-arc/go-invoker/framework/container_test.smtpMailer"},
		{"interface", container.KeyFor[mailer](), "github.com/km-arc/go-invoker/framework/container_test.mailer"},
		{"builtin", container.TypeKey(0), "int"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestTryResolve(t *testing.T) {
	c := container.New()
	c.Instance("host", "smtp.local")

	if v, ok := container.TryResolve[string](c, "host"); !ok || v != "smtp.local" {
		t.Errorf("TryResolve: got (%q, %v)", v, ok)
	}
	if _, ok := container.TryResolve[int](c, "host"); ok {
		t.Error("TryResolve with the wrong type should fail")
	}
	if _, ok := container.TryResolve[string](c, "missing"); ok {
		t.Error("TryResolve of an unknown abstract should fail")
	}
}

func TestContainer_AfterResolving(t *testing.T) {
	c := container.New()
	var seen []string
	c.AfterResolving(func(abstract string, _ any) { seen = append(seen, abstract) })
	c.Bind("mailer", func(*container.Container) any { return &smtpMailer{} })

	_ = c.Make("mailer")

	if len(seen) != 1 || seen[0] != "mailer" {
		t.Errorf("AfterResolving: got %v", seen)
	}
}

func TestContainer_Forget(t *testing.T) {
	c := container.New()
	c.Singleton("mailer", func(*container.Container) any { return &smtpMailer{} })
	c.Alias("mailer", "mail")
	_ = c.Make("mailer")
	c.Instance("config", "cfg")

	c.Forget("mail")

	if c.Bound("mailer") || c.Resolved("mailer") {
		t.Error("Forget through an alias should drop binding and instance")
	}
	if _, err := c.Get("mailer"); !errors.Is(err, container.ErrNotBound) {
		t.Errorf("Get after Forget: got %v, want ErrNotBound", err)
	}
	if !c.Bound("config") {
		t.Error("Forget removed an unrelated abstract")
	}
}

func TestContainer_Flush(t *testing.T) {
	c := container.New()
	c.Bind("mailer", func(*container.Container) any { return &smtpMailer{} })
	c.Instance("config", "cfg")
	c.Alias("config", "configuration")

	c.Flush()

	if len(c.Bindings()) != 0 {
		t.Errorf("Bindings after Flush: got %v", c.Bindings())
	}
	if c.Has("configuration") {
		t.Error("aliases should be flushed too")
	}

	c.Instance("config", "fresh")
	if got := c.Make("config"); got != "fresh" {
		t.Errorf("container unusable after Flush: got %v", got)
	}
}
