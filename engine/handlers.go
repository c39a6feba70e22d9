package engine

import (
	"fmt"

	"github.com/vizee/gfeign/log"
	"github.com/vizee/gfeign/metadata"
)

// buildHandlers creates one handler per method of c, keyed by method name.
func (e *Engine) buildHandlers(target Target, c *metadata.Contract) (map[string]MethodHandler, error) {
	byKey := make(map[string]MethodHandler, len(c.Methods))
	for _, md := range c.Methods {
		if _, ok := byKey[md.ConfigKey]; ok {
			return nil, &ConfigError{Msg: "duplicate config key " + md.ConfigKey}
		}
		if md.Ignored {
			byKey[md.ConfigKey] = ignoredHandler(md.ConfigKey)
			continue
		}
		b := NewBinder(md, e.encoder, e.queryMapEncoder)
		log.Debugf("%s: %s strategy", md.ConfigKey, b.strategy)
		byKey[md.ConfigKey] = &methodHandler{
			md:     md,
			target: target,
			binder: b,
			engine: e,
		}
	}

	byName := make(map[string]MethodHandler, len(byKey))
	for _, md := range c.Methods {
		if _, ok := byName[md.Name]; ok {
			return nil, &ConfigError{Msg: fmt.Sprintf("%s.%s is declared twice", c.Name, md.Name)}
		}
		byName[md.Name] = byKey[md.ConfigKey]
	}
	return byName, nil
}
