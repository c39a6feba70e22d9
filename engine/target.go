package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/vizee/gfeign/template"
)

// Target identifies the remote endpoint a contract is bound to.
type Target interface {
	Type() reflect.Type
	Name() string
	URL() string
	// Apply turns a resolved template into a request against the target.
	Apply(ctx context.Context, t *template.Template) (*http.Request, error)
}

func isAbsolute(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// HardCodedTarget is a target with a fixed base URL. Two HardCodedTargets
// are equal when type, name and URL are equal.
type HardCodedTarget struct {
	typ  reflect.Type
	name string
	url  string
}

var _ Target = HardCodedTarget{}

// NewTarget creates a HardCodedTarget for the contract struct type of ptr.
func NewTarget(ptr any, url string) HardCodedTarget {
	typ := reflect.TypeOf(ptr)
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return HardCodedTarget{typ: typ, name: url, url: url}
}

func NewNamedTarget(typ reflect.Type, name string, url string) HardCodedTarget {
	return HardCodedTarget{typ: typ, name: name, url: url}
}

func (t HardCodedTarget) Type() reflect.Type {
	return t.typ
}

func (t HardCodedTarget) Name() string {
	return t.name
}

func (t HardCodedTarget) URL() string {
	return t.url
}

func (t HardCodedTarget) Apply(ctx context.Context, rt *template.Template) (*http.Request, error) {
	if !isAbsolute(rt.Target) {
		rt.Target = t.url + rt.Target
	}
	return rt.Request(ctx)
}

func (t HardCodedTarget) String() string {
	if t.name == t.url {
		return fmt.Sprintf("HardCodedTarget(type=%s, url=%s)", typeName(t.typ), t.url)
	}
	return fmt.Sprintf("HardCodedTarget(type=%s, name=%s, url=%s)", typeName(t.typ), t.name, t.url)
}

// EmptyTarget has no base URL; every method must take a url argument.
type EmptyTarget struct {
	typ  reflect.Type
	name string
}

var _ Target = EmptyTarget{}

func NewEmptyTarget(typ reflect.Type, name string) EmptyTarget {
	return EmptyTarget{typ: typ, name: name}
}

func (t EmptyTarget) Type() reflect.Type {
	return t.typ
}

func (t EmptyTarget) Name() string {
	return t.name
}

func (EmptyTarget) URL() string {
	return ""
}

var errNonAbsolute = errors.New("request with non-absolute URL not supported with empty target")

func (t EmptyTarget) Apply(ctx context.Context, rt *template.Template) (*http.Request, error) {
	if !isAbsolute(rt.Target) {
		return nil, errNonAbsolute
	}
	return rt.Request(ctx)
}

func (t EmptyTarget) String() string {
	return fmt.Sprintf("EmptyTarget(type=%s, name=%s)", typeName(t.typ), t.name)
}

func typeName(typ reflect.Type) string {
	if typ == nil {
		return "<nil>"
	}
	return typ.Name()
}
