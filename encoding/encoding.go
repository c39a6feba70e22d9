package encoding

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"

	"github.com/vizee/gfeign/internal/ioutil"
	"github.com/vizee/gfeign/template"
)

var (
	// MapStringAny is the declared body type of form parameter maps.
	MapStringAny = reflect.TypeOf(map[string]any(nil))
	// MultiArgs is the declared body type when every argument is encoded.
	MultiArgs = reflect.TypeOf([]any(nil))
)

// MaxErrorBody limits how much of an error response is kept.
const MaxErrorBody = 8 * 1024

// Encoder writes v, declared as bodyType, into the body of t.
type Encoder interface {
	Encode(v any, bodyType reflect.Type, t *template.Template) error
}

type EncoderFunc func(v any, bodyType reflect.Type, t *template.Template) error

func (f EncoderFunc) Encode(v any, bodyType reflect.Type, t *template.Template) error {
	return f(v, bodyType, t)
}

// Decoder reads a successful response into a value of typ.
type Decoder interface {
	Decode(resp *http.Response, typ reflect.Type) (any, error)
}

// ErrorDecoder turns a non-2xx response into an error.
type ErrorDecoder interface {
	Decode(methodKey string, resp *http.Response) error
}

// QueryMapEncoder flattens a value into query or header map entries.
type QueryMapEncoder interface {
	Encode(v any) (map[string]any, error)
}

type EncodeError struct {
	Msg string
	Err error
}

func (e *EncodeError) Error() string {
	return "encode: " + e.Msg
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// AsEncodeError passes typed encode errors through and wraps anything else.
func AsEncodeError(err error) error {
	if err == nil {
		return nil
	}
	var ee *EncodeError
	if errors.As(err, &ee) {
		return err
	}
	return &EncodeError{Msg: err.Error(), Err: err}
}

type DecodeError struct {
	Status int
	Err    error
}

func (e *DecodeError) Error() string {
	return "decode " + strconv.Itoa(e.Status) + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// StatusError is produced by DefaultErrorDecoder.
type StatusError struct {
	Status    int
	MethodKey string
	Body      []byte
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("status %d reading %s", e.Status, e.MethodKey)
	if len(e.Body) > 0 {
		msg += "; content:\n" + string(e.Body)
	}
	return msg
}

// Default encodes string and []byte bodies as is.
var Default Encoder = EncoderFunc(func(v any, bodyType reflect.Type, t *template.Template) error {
	switch x := v.(type) {
	case string:
		t.Body = []byte(x)
	case []byte:
		t.Body = x
	default:
		return &EncodeError{Msg: fmt.Sprintf("%T is not a type supported by this encoder", v)}
	}
	return nil
})

type defaultDecoder struct{}

// DefaultDecoder decodes string, []byte and io.Reader results.
var DefaultDecoder Decoder = defaultDecoder{}

func (defaultDecoder) Decode(resp *http.Response, typ reflect.Type) (any, error) {
	data, err := ioutil.ReadToEnd(resp.Body, resp.ContentLength)
	if err != nil {
		return nil, err
	}
	switch typ {
	case reflect.TypeOf(""):
		return string(data), nil
	case reflect.TypeOf([]byte(nil)):
		return data, nil
	case reflect.TypeOf((*io.Reader)(nil)).Elem():
		return io.Reader(bytes.NewReader(data)), nil
	}
	return nil, &DecodeError{Status: resp.StatusCode, Err: fmt.Errorf("%s is not a type supported by this decoder", typ)}
}

type defaultErrorDecoder struct{}

var DefaultErrorDecoder ErrorDecoder = defaultErrorDecoder{}

func (defaultErrorDecoder) Decode(methodKey string, resp *http.Response) error {
	var body []byte
	if resp.Body != nil {
		body, _ = ioutil.ReadLimited(resp.Body, resp.ContentLength, MaxErrorBody)
	}
	return &StatusError{Status: resp.StatusCode, MethodKey: methodKey, Body: body}
}
