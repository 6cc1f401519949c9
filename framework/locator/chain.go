package locator

import (
	"fmt"

	"github.com/km-arc/go-invoker/framework/invoker/rules"
)

// Chain consults its locators in order; the first one that has an id
// serves it.
//
//	loc := locator.Chain{app, digLocator}
type Chain []rules.Locator

func (c Chain) Has(id string) bool {
	for _, l := range c {
		if l.Has(id) {
			return true
		}
	}
	return false
}

func (c Chain) Get(id string) (any, error) {
	for _, l := range c {
		if l.Has(id) {
			return l.Get(id)
		}
	}
	return nil, fmt.Errorf("locator: %q: %w", id, ErrNotProvided)
}

var _ rules.Locator = Chain(nil)
