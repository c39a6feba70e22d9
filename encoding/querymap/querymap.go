// Package querymap flattens structs into query and header map entries.
package querymap

import (
	"reflect"

	"github.com/google/go-querystring/query"
	"github.com/vizee/gfeign/encoding"
)

// Encoder reads `url` struct tags the way go-querystring does, e.g.
//
//	type Filter struct {
//		Active bool     `url:"active,omitempty"`
//		Tags   []string `url:"tag"`
//	}
type Encoder struct{}

var _ encoding.QueryMapEncoder = &Encoder{}

func (*Encoder) Encode(v any) (map[string]any, error) {
	if v == nil {
		return map[string]any{}, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return map[string]any{}, nil
	}
	values, err := query.Values(v)
	if err != nil {
		return nil, &encoding.EncodeError{Msg: err.Error(), Err: err}
	}
	m := make(map[string]any, len(values))
	for k, vs := range values {
		m[k] = vs
	}
	return m, nil
}
