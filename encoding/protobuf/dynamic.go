package protobuf

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"

	"github.com/vizee/gfeign/encoding"
	"github.com/vizee/gfeign/internal/ioutil"
	"github.com/vizee/gfeign/template"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Dynamic carries plain values as messages described at runtime, for
// callers without generated code. Values pass through their JSON form.
// Generated messages are handled like Encoder and Decoder do.
type Dynamic struct {
	Request       protoreflect.MessageDescriptor
	Response      protoreflect.MessageDescriptor
	Deterministic bool
	MaxBodySize   int64
}

var (
	_ encoding.Encoder = &Dynamic{}
	_ encoding.Decoder = &Dynamic{}
)

func (d *Dynamic) Encode(v any, bodyType reflect.Type, t *template.Template) error {
	msg, ok := v.(proto.Message)
	if !ok {
		if d.Request == nil {
			return &encoding.EncodeError{Msg: fmt.Sprintf("%T is not a proto.Message and no request message is set", v)}
		}
		data, err := json.Marshal(v)
		if err != nil {
			return &encoding.EncodeError{Msg: err.Error(), Err: err}
		}
		dm := dynamicpb.NewMessage(d.Request)
		if err := protojson.Unmarshal(data, dm); err != nil {
			return &encoding.EncodeError{Msg: err.Error(), Err: err}
		}
		msg = dm
	}
	return (&Encoder{Deterministic: d.Deterministic}).Encode(msg, bodyType, t)
}

// Decode returns the JSON form of the response for byte slice types and
// unmarshals it into anything else.
func (d *Dynamic) Decode(resp *http.Response, typ reflect.Type) (any, error) {
	if typ.Kind() == reflect.Pointer && typ.Implements(messageType) {
		return (&Decoder{MaxBodySize: d.MaxBodySize}).Decode(resp, typ)
	}
	if d.Response == nil {
		return nil, &encoding.DecodeError{Status: resp.StatusCode, Err: fmt.Errorf("no response message for %s", typ)}
	}
	data, err := ioutil.ReadLimited(resp.Body, resp.ContentLength, d.MaxBodySize)
	if err != nil {
		return nil, &encoding.DecodeError{Status: resp.StatusCode, Err: err}
	}
	msg := dynamicpb.NewMessage(d.Response)
	if err := proto.Unmarshal(data, msg); err != nil {
		return nil, &encoding.DecodeError{Status: resp.StatusCode, Err: err}
	}
	out, err := protojson.Marshal(msg)
	if err != nil {
		return nil, &encoding.DecodeError{Status: resp.StatusCode, Err: err}
	}
	if typ.Kind() == reflect.Slice && typ.Elem().Kind() == reflect.Uint8 {
		return reflect.ValueOf(out).Convert(typ).Interface(), nil
	}
	ptr := reflect.New(typ)
	if err := json.Unmarshal(out, ptr.Interface()); err != nil {
		return nil, &encoding.DecodeError{Status: resp.StatusCode, Err: err}
	}
	return ptr.Elem().Interface(), nil
}
