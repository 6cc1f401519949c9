package invoker

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/km-arc/go-invoker/framework/invoker/param"
)

var (
	// ErrUnknownRule is wrapped by InvalidConfigurationError when a rule id is
	// neither in the catalog nor registered in the locator.
	ErrUnknownRule = errors.New("rule must be a registered service or a known rule id")

	// ErrNotARule is wrapped by InvalidRuleError.
	ErrNotARule = errors.New("value does not implement rules.Rule")

	// ErrEmptyRuleID is wrapped by InvalidConfigurationError for blank ids.
	ErrEmptyRuleID = errors.New("rule id is empty")
)

// InvalidConfigurationError is returned by New for a chain it cannot build.
type InvalidConfigurationError struct {
	RuleID string
	Cause  error
}

func (e InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invoker: invalid rule %q in chain: %v", e.RuleID, e.Cause)
}

func (e InvalidConfigurationError) Unwrap() error { return e.Cause }

// InvalidRuleError is returned by Resolve when a rule id registered in the
// locator yields something that is not a rule.
type InvalidRuleError struct {
	RuleID string
	Got    any
}

func (e InvalidRuleError) Error() string {
	return fmt.Sprintf("invoker: service %q is a %T: %v", e.RuleID, e.Got, ErrNotARule)
}

func (e InvalidRuleError) Unwrap() error { return ErrNotARule }

// UnresolvedParametersError lists the required parameters no rule could bind.
type UnresolvedParametersError struct {
	Missing []param.Parameter
}

func (e UnresolvedParametersError) Error() string {
	names := make([]string, len(e.Missing))
	for i, p := range e.Missing {
		names[i] = p.String()
	}
	noun := "parameter"
	if len(e.Missing) > 1 {
		noun = "parameters"
	}
	return fmt.Sprintf("unable to invoke the callable because no value was given for %s (%s)",
		noun, strings.Join(names, ", "))
}

// ArgumentTypeError is returned by Call when a bound value cannot be passed
// for its parameter.
type ArgumentTypeError struct {
	Param param.Parameter
	Got   reflect.Type
}

func (e ArgumentTypeError) Error() string {
	got := "nil"
	if e.Got != nil {
		got = e.Got.String()
	}
	return fmt.Sprintf("invoker: cannot use %s as %s for parameter %s", got, e.Param.GoType, e.Param.Name)
}

var (
	_ error = InvalidConfigurationError{}
	_ error = InvalidRuleError{}
	_ error = UnresolvedParametersError{}
	_ error = ArgumentTypeError{}
)
