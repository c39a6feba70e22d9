package metadata

import (
	"fmt"
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache parses each contract type once. Parsed contracts are shared and
// must not be modified.
type Cache struct {
	opts  []ParseOption
	mu    sync.RWMutex
	cache map[reflect.Type]*Contract
	group singleflight.Group
}

func NewCache(opts ...ParseOption) *Cache {
	return &Cache{opts: opts}
}

func (mc *Cache) Resolve(typ reflect.Type) (*Contract, error) {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	mc.mu.RLock()
	c := mc.cache[typ]
	mc.mu.RUnlock()
	if c != nil {
		return c, nil
	}

	v, err, _ := mc.group.Do(typeKey(typ), func() (any, error) {
		c, err := Parse(typ, mc.opts...)
		if err != nil {
			return nil, err
		}
		mc.mu.Lock()
		if mc.cache == nil {
			mc.cache = make(map[reflect.Type]*Contract)
		}
		mc.cache[typ] = c
		mc.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Contract), nil
}

// typeKey identifies typ itself. Names are not enough: function-local types
// share their printed name.
func typeKey(typ reflect.Type) string {
	return fmt.Sprintf("%p", typ)
}
