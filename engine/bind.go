package engine

import (
	"context"
	"fmt"
	"reflect"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Bind fills the func fields of the contract struct pointed to by ptr with
// stubs that call through p. Fields without a feign tag are left alone.
func (p *Proxy) Bind(ptr any) error {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("bind: %T is not a pointer to a contract struct", ptr)
	}
	sv := rv.Elem()
	st := sv.Type()
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if !f.IsExported() || f.Type.Kind() != reflect.Func {
			continue
		}
		if _, ok := f.Tag.Lookup("feign"); !ok {
			continue
		}
		_, routed := p.dispatch[f.Name]
		_, builtin := p.defaults[f.Name]
		if !routed && !builtin {
			return &ConfigError{Msg: fmt.Sprintf("%s.%s has no handler", st.Name(), f.Name)}
		}
		sv.Field(i).Set(p.makeFunc(f.Name, f.Type))
	}
	return nil
}

func (p *Proxy) makeFunc(name string, ft reflect.Type) reflect.Value {
	hasCtx := ft.NumIn() > 0 && ft.In(0) == contextType
	return reflect.MakeFunc(ft, func(in []reflect.Value) []reflect.Value {
		ctx := context.Background()
		if hasCtx {
			if c, ok := in[0].Interface().(context.Context); ok && c != nil {
				ctx = c
			}
			in = in[1:]
		}
		args := make([]any, len(in))
		for i, v := range in {
			args[i] = v.Interface()
		}
		result, err := p.Invoke(ctx, name, args...)
		return results(ft, result, err)
	})
}

func results(ft reflect.Type, result any, err error) []reflect.Value {
	errv := reflect.Zero(errorType)
	switch ft.NumOut() {
	case 0:
		return nil
	case 1:
		if err != nil {
			errv = reflect.ValueOf(&err).Elem()
		}
		return []reflect.Value{errv}
	}

	rt := ft.Out(0)
	out := reflect.Zero(rt)
	if err == nil && result != nil {
		rv := reflect.ValueOf(result)
		switch {
		case rv.Type().AssignableTo(rt):
			out = reflect.New(rt).Elem()
			out.Set(rv)
		case convertible(rv.Type(), rt):
			out = rv.Convert(rt)
		case rv.Kind() == reflect.Pointer && rv.Type().Elem().AssignableTo(rt):
			if !rv.IsNil() {
				out = rv.Elem()
			}
		default:
			err = fmt.Errorf("result of type %s is not assignable to %s", rv.Type(), rt)
		}
	}
	if err != nil {
		errv = reflect.ValueOf(&err).Elem()
	}
	return []reflect.Value{out, errv}
}

// convertible rejects number to string conversions that ConvertibleTo allows.
func convertible(from, to reflect.Type) bool {
	if !from.ConvertibleTo(to) {
		return false
	}
	return (from.Kind() == reflect.String) == (to.Kind() == reflect.String)
}
