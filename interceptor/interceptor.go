// Package interceptor provides request interceptors for engine.Builder.Use.
package interceptor

import (
	"context"
	"encoding/base64"

	"github.com/google/uuid"
	"github.com/vizee/gfeign/template"
)

// BasicAuth sets the Authorization header of every request.
type BasicAuth struct {
	header string
}

func NewBasicAuth(username string, password string) *BasicAuth {
	return &BasicAuth{header: "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))}
}

func (a *BasicAuth) Apply(_ context.Context, t *template.Template) error {
	t.SetHeader("Authorization", []string{a.header})
	return nil
}

// Header adds static headers. Existing values of the same header are kept
// unless Replace is set.
type Header struct {
	Name    string
	Values  []string
	Replace bool
}

func (h *Header) Apply(_ context.Context, t *template.Template) error {
	if h.Replace {
		t.SetHeader(h.Name, h.Values)
	} else {
		t.Header(h.Name, h.Values...)
	}
	return nil
}

const RequestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// WithRequestID makes RequestID use id for requests sent with ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID tags each request with an id taken from the context or a new
// random UUID. A request that already carries the header is left alone.
type RequestID struct {
	// Header defaults to X-Request-Id.
	Header string
}

func (r *RequestID) Apply(ctx context.Context, t *template.Template) error {
	name := r.Header
	if name == "" {
		name = RequestIDHeader
	}
	if len(t.HeaderValues(name)) > 0 {
		return nil
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	if id == "" {
		u, err := uuid.NewRandom()
		if err != nil {
			return err
		}
		id = u.String()
	}
	t.SetHeader(name, []string{id})
	return nil
}
