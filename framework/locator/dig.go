// Package locator provides service locators backed by other containers.
package locator

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/dig"

	"github.com/km-arc/go-invoker/framework/container"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

var (
	// ErrNotProvided is returned by Get for ids no constructor produces.
	ErrNotProvided = errors.New("no constructor provides this id")

	// ErrBadConstructor is returned by Provide for values dig cannot use.
	ErrBadConstructor = errors.New("constructor must be a function returning at least one value")
)

// Dig exposes a dig container through string ids, so rules can look up
// services by the key of their type or by an explicit id.
//
//	d := locator.NewDig()
//	_ = d.Provide(NewSMTPMailer)                    // id: "example.com/mail.Mailer"
//	_ = d.ProvideAs("rules.audit", NewAuditRule)    // id: "rules.audit"
//	r, _ := invoker.New(d, invoker.WithRules("flexible-signature", "rules.audit"))
type Dig struct {
	mu    sync.Mutex
	c     *dig.Container
	types map[string]reflect.Type
}

// NewDig returns an empty locator.
func NewDig(opts ...dig.Option) *Dig {
	return &Dig{c: dig.New(opts...), types: make(map[string]reflect.Type)}
}

// Container returns the wrapped dig container.
func (d *Dig) Container() *dig.Container { return d.c }

// Provide registers ctor. Each of its result types, apart from a trailing
// error, becomes available under its type key.
func (d *Dig) Provide(ctor any, opts ...dig.ProvideOption) error {
	outs, err := results(ctor)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.c.Provide(ctor, opts...); err != nil {
		return fmt.Errorf("locator: %w", err)
	}
	for _, t := range outs {
		d.types[container.KeyOf(t)] = t
	}
	return nil
}

// ProvideAs registers ctor and makes its first result available under id
// as well as under its type key.
func (d *Dig) ProvideAs(id string, ctor any, opts ...dig.ProvideOption) error {
	outs, err := results(ctor)
	if err != nil {
		return err
	}
	if err := d.Provide(ctor, opts...); err != nil {
		return err
	}

	d.mu.Lock()
	d.types[id] = outs[0]
	d.mu.Unlock()
	return nil
}

// Has reports whether id was provided.
func (d *Dig) Has(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.types[id]
	return ok
}

// Get builds or returns the value provided for id. Constructor errors are
// returned as dig reports them.
func (d *Dig) Get(id string) (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.types[id]
	if !ok {
		return nil, fmt.Errorf("locator: %q: %w", id, ErrNotProvided)
	}

	var result any
	fnType := reflect.FuncOf([]reflect.Type{t}, []reflect.Type{errorType}, false)
	fn := reflect.MakeFunc(fnType, func(args []reflect.Value) []reflect.Value {
		result = args[0].Interface()
		return []reflect.Value{reflect.Zero(errorType)}
	})

	// dig containers are not safe for concurrent use; the lock covers Invoke
	if err := d.c.Invoke(fn.Interface()); err != nil {
		return nil, fmt.Errorf("locator: %q: %w", id, err)
	}
	return result, nil
}

func results(ctor any) ([]reflect.Type, error) {
	t := reflect.TypeOf(ctor)
	if t == nil || t.Kind() != reflect.Func {
		return nil, fmt.Errorf("locator: %T: %w", ctor, ErrBadConstructor)
	}
	var outs []reflect.Type
	for i := range t.NumOut() {
		if out := t.Out(i); out != errorType {
			outs = append(outs, out)
		}
	}
	if len(outs) == 0 {
		return nil, fmt.Errorf("locator: %s: %w", t, ErrBadConstructor)
	}
	return outs, nil
}
