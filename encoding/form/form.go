// Package form encodes form parameter maps as application/x-www-form-urlencoded.
package form

import (
	"net/url"
	"reflect"

	"github.com/google/go-querystring/query"
	"github.com/vizee/gfeign/encoding"
	"github.com/vizee/gfeign/template"
)

const ContentType = "application/x-www-form-urlencoded"

// Encoder handles form maps and, with Structs set, structs carrying `url`
// tags. Other bodies go to Delegate.
type Encoder struct {
	Delegate encoding.Encoder
	Structs  bool
}

var _ encoding.Encoder = &Encoder{}

func (e *Encoder) Encode(v any, bodyType reflect.Type, t *template.Template) error {
	if bodyType == encoding.MapStringAny {
		m, _ := v.(map[string]any)
		setBody(t, encodeMap(m))
		return nil
	}
	if e.Structs && isStruct(v) {
		values, err := query.Values(v)
		if err != nil {
			return &encoding.EncodeError{Msg: err.Error(), Err: err}
		}
		setBody(t, values.Encode())
		return nil
	}
	delegate := e.Delegate
	if delegate == nil {
		delegate = encoding.Default
	}
	return delegate.Encode(v, bodyType, t)
}

func isStruct(v any) bool {
	rt := reflect.TypeOf(v)
	for rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	return rt != nil && rt.Kind() == reflect.Struct
}

func encodeMap(m map[string]any) string {
	values := make(url.Values, len(m))
	for k, v := range m {
		for _, s := range template.Strings(v) {
			values.Add(k, s)
		}
	}
	return values.Encode()
}

func setBody(t *template.Template, body string) {
	t.Body = []byte(body)
	t.BodyType = encoding.MapStringAny
	t.SetHeader("Content-Type", []string{ContentType})
}
