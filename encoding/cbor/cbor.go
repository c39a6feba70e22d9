// Package cbor encodes bodies as canonical CBOR (RFC 8949).
package cbor

import (
	"net/http"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/vizee/gfeign/encoding"
	"github.com/vizee/gfeign/internal/ioutil"
	"github.com/vizee/gfeign/template"
)

const ContentType = "application/cbor"

type Codec struct {
	enc         cbor.EncMode
	dec         cbor.DecMode
	MaxBodySize int64
}

var (
	_ encoding.Encoder = &Codec{}
	_ encoding.Decoder = &Codec{}
)

func New() (*Codec, error) {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return nil, err
	}
	return &Codec{enc: em, dec: dm}, nil
}

func (c *Codec) Encode(v any, _ reflect.Type, t *template.Template) error {
	data, err := c.enc.Marshal(v)
	if err != nil {
		return &encoding.EncodeError{Msg: err.Error(), Err: err}
	}
	t.Body = data
	t.BodyType = reflect.TypeOf(v)
	t.SetHeader("Content-Type", []string{ContentType})
	return nil
}

func (c *Codec) Decode(resp *http.Response, typ reflect.Type) (any, error) {
	data, err := ioutil.ReadLimited(resp.Body, resp.ContentLength, c.MaxBodySize)
	if err != nil {
		return nil, &encoding.DecodeError{Status: resp.StatusCode, Err: err}
	}
	ptr := reflect.New(typ)
	if len(data) > 0 {
		if err := c.dec.Unmarshal(data, ptr.Interface()); err != nil {
			return nil, &encoding.DecodeError{Status: resp.StatusCode, Err: err}
		}
	}
	return ptr.Elem().Interface(), nil
}
