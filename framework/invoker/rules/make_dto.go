package rules

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/km-arc/go-invoker/framework/dto"
	"github.com/km-arc/go-invoker/framework/invoker/param"
)

// MethodOverrideField is the form field method-override middleware reads;
// it never ends up in a DTO.
const MethodOverrideField = "_METHOD"

// BodyRequest is what MakeDto needs from the "request" pool entry.
type BodyRequest interface {
	Method() string
	ParsedBody() (*dto.Record, error)
}

// MakeDto turns the body of POST, PUT and PATCH requests into a data
// transfer object for every parameter whose name contains "dto" (any case).
//
// A factory can be registered per parameter name through the container:
//
//	app.Instance(dto.FactoriesKey, dto.FactoryMap{"dto": "user.update"})
//	app.Instance("user.update", dto.Typed(...))
//
// Without one the parameter receives a *dto.Record copy of the body.
type MakeDto struct {
	Locator Locator
}

func (r MakeDto) Resolve(unresolved []param.Parameter, pool Pool, resolved Arguments) (Arguments, error) {
	req, ok := pool["request"].(BodyRequest)
	if !ok || !mutating(req.Method()) {
		return resolved, nil
	}

	parsed, err := req.ParsedBody()
	if err != nil {
		return nil, err
	}
	body := dto.NewRecord()
	if parsed != nil {
		body = parsed.Clone()
	}
	body.Delete(MethodOverrideField)

	for _, p := range unresolved {
		if !strings.Contains(strings.ToLower(p.Name), "dto") {
			continue
		}
		v, err := r.makeDto(p.Name, body)
		if err != nil {
			return nil, err
		}
		resolved[p.Position] = v
	}
	return resolved, nil
}

func (r MakeDto) makeDto(name string, body *dto.Record) (any, error) {
	factoryID, err := r.factoryFor(name)
	if err != nil {
		return nil, err
	}

	if factoryID != "" && r.Locator.Has(factoryID) {
		v, err := r.Locator.Get(factoryID)
		if err != nil {
			return nil, err
		}
		factory, ok := dto.AsFactory(v)
		if !ok {
			return nil, fmt.Errorf("rules: dto factory %q for %s is a %T, not a dto.Factory", factoryID, name, v)
		}
		return factory.MakeDTO(body.Clone())
	}

	return body.Clone(), nil
}

func (r MakeDto) factoryFor(name string) (string, error) {
	if r.Locator == nil || !r.Locator.Has(dto.FactoriesKey) {
		return "", nil
	}
	v, err := r.Locator.Get(dto.FactoriesKey)
	if err != nil {
		return "", err
	}
	switch m := v.(type) {
	case dto.FactoryMap:
		return m[name], nil
	case map[string]string:
		return m[name], nil
	default:
		return "", fmt.Errorf("rules: %s is a %T, not a dto.FactoryMap", dto.FactoriesKey, v)
	}
}

func mutating(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPatch, http.MethodPut:
		return true
	}
	return false
}
