// Package jsonpb sends plain Go values as protobuf on the wire. Bodies are
// marshaled to JSON and transcoded with a schema derived from a protobuf
// message descriptor; responses take the reverse path.
package jsonpb

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"sync"

	pbjson "github.com/vizee/jsonpb"
	"github.com/vizee/jsonpb/jsonlit"
	pbwire "github.com/vizee/jsonpb/proto"
	"github.com/vizee/gfeign/encoding"
	"github.com/vizee/gfeign/internal/ioutil"
	"github.com/vizee/gfeign/template"
	"google.golang.org/protobuf/reflect/protoreflect"
)

const ContentType = "application/x-protobuf"

type Codec struct {
	MaxBodySize int64

	mu    sync.RWMutex
	mc    MessageCache
	types map[reflect.Type]*pbjson.Message
}

var (
	_ encoding.Encoder = &Codec{}
	_ encoding.Decoder = &Codec{}
)

// Register binds Go type typ to the protobuf message md.
func (c *Codec) Register(typ reflect.Type, md protoreflect.MessageDescriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.types == nil {
		c.types = make(map[reflect.Type]*pbjson.Message)
	}
	c.types[typ] = c.mc.Resolve(md)
}

func (c *Codec) schema(typ reflect.Type) *pbjson.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for typ != nil {
		if msg := c.types[typ]; msg != nil {
			return msg
		}
		if typ.Kind() != reflect.Pointer {
			break
		}
		typ = typ.Elem()
	}
	return nil
}

func (c *Codec) Encode(v any, bodyType reflect.Type, t *template.Template) error {
	msg := c.schema(bodyType)
	if msg == nil {
		msg = c.schema(reflect.TypeOf(v))
	}
	if msg == nil {
		return &encoding.EncodeError{Msg: fmt.Sprintf("no message registered for %T", v)}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return &encoding.EncodeError{Msg: err.Error(), Err: err}
	}
	var enc pbwire.Encoder
	err = pbjson.TranscodeToProto(&enc, jsonlit.NewIter(data), msg)
	if err != nil {
		return &encoding.EncodeError{Msg: err.Error(), Err: err}
	}
	t.Body = enc.Bytes()
	t.BodyType = bodyType
	t.SetHeader("Content-Type", []string{ContentType})
	return nil
}

func (c *Codec) Decode(resp *http.Response, typ reflect.Type) (any, error) {
	msg := c.schema(typ)
	if msg == nil {
		return nil, &encoding.DecodeError{Status: resp.StatusCode, Err: fmt.Errorf("no message registered for %s", typ)}
	}
	data, err := ioutil.ReadLimited(resp.Body, resp.ContentLength, c.MaxBodySize)
	if err != nil {
		return nil, &encoding.DecodeError{Status: resp.StatusCode, Err: err}
	}
	var j pbjson.JsonBuilder
	err = pbjson.TranscodeToJson(&j, pbwire.NewDecoder(data), msg)
	if err != nil {
		return nil, &encoding.DecodeError{Status: resp.StatusCode, Err: err}
	}
	out := j.IntoBytes()
	// byte slices receive the transcoded JSON itself
	if typ.Kind() == reflect.Slice && typ.Elem().Kind() == reflect.Uint8 {
		return reflect.ValueOf(out).Convert(typ).Interface(), nil
	}
	ptr := reflect.New(typ)
	if err := json.Unmarshal(out, ptr.Interface()); err != nil {
		return nil, &encoding.DecodeError{Status: resp.StatusCode, Err: err}
	}
	return ptr.Elem().Interface(), nil
}
