package engine

import (
	"context"
	"fmt"
	"reflect"

	"github.com/cespare/xxhash/v2"
)

// DefaultMethod is the built-in body of a contract method. p is the proxy
// the method was called on, so calls made through it dispatch through the
// same handler table.
type DefaultMethod func(ctx context.Context, p *Proxy, args []any) (any, error)

// Proxy dispatches calls of a contract bound to a target. It is safe for
// concurrent use; its tables are never modified after construction.
type Proxy struct {
	target   Target
	dispatch map[string]MethodHandler
	defaults map[string]DefaultMethod
}

func (p *Proxy) Target() Target {
	return p.target
}

// Invoke calls method with args. args exclude the context parameter.
// Invoking a method the contract does not declare panics.
func (p *Proxy) Invoke(ctx context.Context, method string, args ...any) (any, error) {
	if h, ok := p.dispatch[method]; ok {
		return h.Invoke(ctx, args)
	}
	if d, ok := p.defaults[method]; ok {
		if ctx == nil {
			ctx = context.Background()
		}
		return d(ctx, p, args)
	}
	panic(fmt.Sprintf("gfeign: no handler for %s on %s", method, p))
}

// Equal reports whether other is a proxy bound to an equal target. Any
// other value compares unequal.
func (p *Proxy) Equal(other any) bool {
	op, ok := other.(*Proxy)
	if !ok || op == nil {
		return false
	}
	if p == op {
		return true
	}
	return targetEqual(p.target, op.target)
}

func targetEqual(a, b Target) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	// Value.Comparable also checks the dynamic values held in interface fields.
	if reflect.ValueOf(a).Comparable() && reflect.ValueOf(b).Comparable() {
		return a == b
	}
	return a.Type() == b.Type() && a.Name() == b.Name() && a.URL() == b.URL()
}

// Hash is consistent with Equal.
func (p *Proxy) Hash() uint64 {
	if p.target == nil {
		return 0
	}
	d := xxhash.New()
	if typ := p.target.Type(); typ != nil {
		d.WriteString(typ.PkgPath())
		d.WriteString(typ.String())
	}
	d.WriteString("\x00")
	d.WriteString(p.target.Name())
	d.WriteString("\x00")
	d.WriteString(p.target.URL())
	return d.Sum64()
}

func (p *Proxy) String() string {
	if s, ok := p.target.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T(name=%s, url=%s)", p.target, p.target.Name(), p.target.URL())
}
