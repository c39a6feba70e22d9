// Package json encodes request bodies and decodes responses as JSON.
package json

import (
	"bytes"
	"encoding/json"
	"net/http"
	"reflect"

	"github.com/vizee/gfeign/encoding"
	"github.com/vizee/gfeign/internal/ioutil"
	"github.com/vizee/gfeign/template"
)

const ContentType = "application/json"

type Encoder struct{}

var _ encoding.Encoder = &Encoder{}

func (*Encoder) Encode(v any, _ reflect.Type, t *template.Template) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &encoding.EncodeError{Msg: err.Error(), Err: err}
	}
	t.Body = data
	t.BodyType = reflect.TypeOf(v)
	if t.HeaderValues("Content-Type") == nil {
		t.SetHeader("Content-Type", []string{ContentType})
	}
	return nil
}

type Decoder struct {
	// MaxBodySize limits the response size, zero means unlimited.
	MaxBodySize int64
}

var _ encoding.Decoder = &Decoder{}

func (d *Decoder) Decode(resp *http.Response, typ reflect.Type) (any, error) {
	data, err := ioutil.ReadLimited(resp.Body, resp.ContentLength, d.MaxBodySize)
	if err != nil {
		return nil, &encoding.DecodeError{Status: resp.StatusCode, Err: err}
	}
	ptr := reflect.New(typ)
	if len(bytes.TrimSpace(data)) == 0 {
		return ptr.Elem().Interface(), nil
	}
	if err := json.Unmarshal(data, ptr.Interface()); err != nil {
		return nil, &encoding.DecodeError{Status: resp.StatusCode, Err: err}
	}
	return ptr.Elem().Interface(), nil
}
