package engine

import (
	"fmt"
	"reflect"

	"github.com/vizee/gfeign/client"
	"github.com/vizee/gfeign/encoding"
	"github.com/vizee/gfeign/metadata"
)

// Engine holds the collaborators shared by every proxy it creates. It is
// created by Builder and read-only afterwards.
type Engine struct {
	encoder         encoding.Encoder
	decoder         encoding.Decoder
	errorDecoder    encoding.ErrorDecoder
	queryMapEncoder encoding.QueryMapEncoder
	client          client.Client
	options         client.Options
	interceptors    []Interceptor
	metrics         Metrics
	logLevel        LogLevel
	dismiss404      bool
	contracts       *metadata.Cache
}

// NewInstance builds the dispatch table of contract for target. Every
// built-in method of the contract needs an entry in defaults.
func (e *Engine) NewInstance(target Target, contract *metadata.Contract, defaults map[string]DefaultMethod) (*Proxy, error) {
	if target == nil {
		return nil, &ConfigError{Msg: "target is nil"}
	}
	if contract.Type != nil && target.Type() != nil && target.Type() != contract.Type {
		return nil, &ConfigError{Msg: fmt.Sprintf("target type %s does not match contract %s", target.Type(), contract.Type)}
	}
	dispatch, err := e.buildHandlers(target, contract)
	if err != nil {
		return nil, err
	}
	for _, name := range contract.Defaults {
		if defaults[name] == nil {
			return nil, &ConfigError{Msg: fmt.Sprintf("%s.%s has no default implementation", contract.Name, name)}
		}
	}
	p := &Proxy{
		target:   target,
		dispatch: dispatch,
		defaults: make(map[string]DefaultMethod, len(defaults)),
	}
	for name, d := range defaults {
		if _, ok := dispatch[name]; ok {
			continue
		}
		p.defaults[name] = d
	}
	return p, nil
}

// Target parses the contract struct pointed to by ptr, creates its proxy
// for target and binds the struct's func fields to it.
func (e *Engine) Target(ptr any, target Target, defaults map[string]DefaultMethod) (*Proxy, error) {
	contract, err := e.contracts.Resolve(reflect.TypeOf(ptr))
	if err != nil {
		return nil, err
	}
	p, err := e.NewInstance(target, contract, defaults)
	if err != nil {
		return nil, err
	}
	if err := p.Bind(ptr); err != nil {
		return nil, err
	}
	return p, nil
}

// NewBinder creates a binder for md with the engine's encoders.
func (e *Engine) NewBinder(md *metadata.MethodMetadata) *Binder {
	return NewBinder(md, e.encoder, e.queryMapEncoder)
}
