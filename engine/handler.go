package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/vizee/gfeign/client"
	"github.com/vizee/gfeign/log"
	"github.com/vizee/gfeign/metadata"
	"github.com/vizee/gfeign/template"
)

// MethodHandler serves calls of one contract method.
type MethodHandler interface {
	Invoke(ctx context.Context, args []any) (any, error)
}

type MethodHandlerFunc func(ctx context.Context, args []any) (any, error)

func (f MethodHandlerFunc) Invoke(ctx context.Context, args []any) (any, error) {
	return f(ctx, args)
}

// Interceptor changes every request template before it is sent.
type Interceptor interface {
	Apply(ctx context.Context, t *template.Template) error
}

type InterceptorFunc func(ctx context.Context, t *template.Template) error

func (f InterceptorFunc) Apply(ctx context.Context, t *template.Template) error {
	return f(ctx, t)
}

// Metrics observes finished calls. status is 0 when no response arrived.
type Metrics interface {
	ObserveCall(configKey string, method string, status int, elapsed time.Duration, err error)
}

type LogLevel int

const (
	LogNone LogLevel = iota
	// LogBasic logs the request line, the response status and the elapsed time.
	LogBasic
	// LogHeaders adds request and response headers.
	LogHeaders
)

var httpResponseType = reflect.TypeOf((*http.Response)(nil))

type methodHandler struct {
	md     *metadata.MethodMetadata
	target Target
	binder *Binder
	engine *Engine
}

func (h *methodHandler) Invoke(ctx context.Context, args []any) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	t, err := h.binder.Bind(args)
	if err != nil {
		return nil, err
	}
	return h.executeAndDecode(ctx, t, h.options(args))
}

func (h *methodHandler) options(args []any) client.Options {
	if h.md.OptionsIndex != nil {
		switch o := arg(args, *h.md.OptionsIndex).(type) {
		case client.Options:
			return o
		case *client.Options:
			if o != nil {
				return *o
			}
		}
	}
	return h.engine.options
}

func (h *methodHandler) executeAndDecode(ctx context.Context, t *template.Template, opts client.Options) (any, error) {
	e := h.engine
	for _, it := range e.interceptors {
		if err := it.Apply(ctx, t); err != nil {
			return nil, err
		}
	}
	req, err := h.target.Apply(ctx, t)
	if err != nil {
		return nil, err
	}
	h.logRequest(req)

	start := time.Now()
	resp, err := e.client.Execute(req, opts)
	elapsed := time.Since(start)
	if err != nil {
		h.observe(req, 0, elapsed, err)
		if e.logLevel >= LogBasic {
			log.Warnf("[%s] <--- ERROR %v (%s)", h.md.ConfigKey, err, elapsed)
		}
		return nil, fmt.Errorf("executing %s %s: %w", req.Method, req.URL, err)
	}
	h.logResponse(resp, elapsed)

	result, err := h.decode(resp)
	h.observe(req, resp.StatusCode, elapsed, err)
	return result, err
}

func (h *methodHandler) decode(resp *http.Response) (any, error) {
	e := h.engine
	md := h.md
	if md.ReturnType == httpResponseType {
		return resp, nil
	}
	if resp.Body != nil {
		defer func() {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}()
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if md.ReturnType == nil {
			return nil, nil
		}
		return e.decoder.Decode(resp, md.ReturnType)
	case resp.StatusCode == http.StatusNotFound && e.dismiss404:
		return nil, nil
	}
	return nil, e.errorDecoder.Decode(md.ConfigKey, resp)
}

func (h *methodHandler) observe(req *http.Request, status int, elapsed time.Duration, err error) {
	if m := h.engine.metrics; m != nil {
		m.ObserveCall(h.md.ConfigKey, req.Method, status, elapsed, err)
	}
}

func (h *methodHandler) logRequest(req *http.Request) {
	level := h.engine.logLevel
	if level < LogBasic {
		return
	}
	log.Debugf("[%s] ---> %s %s", h.md.ConfigKey, req.Method, req.URL)
	if level >= LogHeaders {
		logHeaders(h.md.ConfigKey, req.Header)
	}
}

func (h *methodHandler) logResponse(resp *http.Response, elapsed time.Duration) {
	level := h.engine.logLevel
	if level < LogBasic {
		return
	}
	log.Debugf("[%s] <--- %s (%s)", h.md.ConfigKey, resp.Status, elapsed)
	if level >= LogHeaders {
		logHeaders(h.md.ConfigKey, resp.Header)
	}
}

func logHeaders(configKey string, header http.Header) {
	for name, values := range header {
		log.Debugf("[%s] %s: %s", configKey, name, strings.Join(values, ", "))
	}
}

// ignoredHandler fails every call without touching the encoder or the
// transport.
func ignoredHandler(configKey string) MethodHandler {
	return MethodHandlerFunc(func(context.Context, []any) (any, error) {
		return nil, &ConfigError{Msg: configKey + " is not a method handled by gfeign"}
	})
}
