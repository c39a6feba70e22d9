// Package protobuf carries proto.Message bodies in binary wire format.
package protobuf

import (
	"fmt"
	"net/http"
	"reflect"

	"github.com/vizee/gfeign/encoding"
	"github.com/vizee/gfeign/internal/ioutil"
	"github.com/vizee/gfeign/template"
	"google.golang.org/protobuf/proto"
)

const ContentType = "application/x-protobuf"

var messageType = reflect.TypeOf((*proto.Message)(nil)).Elem()

type Encoder struct {
	Deterministic bool
}

var _ encoding.Encoder = &Encoder{}

func (e *Encoder) Encode(v any, _ reflect.Type, t *template.Template) error {
	msg, ok := v.(proto.Message)
	if !ok {
		return &encoding.EncodeError{Msg: fmt.Sprintf("%T is not a proto.Message", v)}
	}
	data, err := proto.MarshalOptions{Deterministic: e.Deterministic}.Marshal(msg)
	if err != nil {
		return &encoding.EncodeError{Msg: err.Error(), Err: err}
	}
	t.Body = data
	t.BodyType = reflect.TypeOf(v)
	t.SetHeader("Content-Type", []string{ContentType})
	return nil
}

type Decoder struct {
	MaxBodySize int64
}

var _ encoding.Decoder = &Decoder{}

// Decode expects typ to be a pointer to a generated message struct.
func (d *Decoder) Decode(resp *http.Response, typ reflect.Type) (any, error) {
	if typ.Kind() != reflect.Pointer || !typ.Implements(messageType) {
		return nil, &encoding.DecodeError{Status: resp.StatusCode, Err: fmt.Errorf("%s is not a proto.Message", typ)}
	}
	data, err := ioutil.ReadLimited(resp.Body, resp.ContentLength, d.MaxBodySize)
	if err != nil {
		return nil, &encoding.DecodeError{Status: resp.StatusCode, Err: err}
	}
	msg := reflect.New(typ.Elem()).Interface().(proto.Message)
	if err := proto.Unmarshal(data, msg); err != nil {
		return nil, &encoding.DecodeError{Status: resp.StatusCode, Err: err}
	}
	return msg, nil
}
