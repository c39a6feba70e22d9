package client

import (
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// Options tune a single call.
type Options struct {
	ConnectTimeout  time.Duration
	ReadTimeout     time.Duration
	FollowRedirects bool
}

func DefaultOptions() Options {
	return Options{
		ConnectTimeout:  10 * time.Second,
		ReadTimeout:     60 * time.Second,
		FollowRedirects: true,
	}
}

// Client sends a request. Implementations must be safe for concurrent use.
type Client interface {
	Execute(req *http.Request, opts Options) (*http.Response, error)
}

type ClientFunc func(req *http.Request, opts Options) (*http.Response, error)

func (f ClientFunc) Execute(req *http.Request, opts Options) (*http.Response, error) {
	return f(req, opts)
}

// HTTPClient sends requests through a pooled net/http transport. Connect
// timeouts are fixed when the transport is built; the read timeout of each
// call bounds the whole exchange.
type HTTPClient struct {
	transport http.RoundTripper
}

var _ Client = &HTTPClient{}

func New(opts Options) *HTTPClient {
	tr := cleanhttp.DefaultPooledTransport()
	if opts.ConnectTimeout > 0 {
		tr.DialContext = (&net.Dialer{
			Timeout:   opts.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext
	}
	return &HTTPClient{transport: tr}
}

// NewWithTransport wraps an existing RoundTripper, e.g. one from httptest.
func NewWithTransport(rt http.RoundTripper) *HTTPClient {
	return &HTTPClient{transport: rt}
}

func (c *HTTPClient) Execute(req *http.Request, opts Options) (*http.Response, error) {
	hc := &http.Client{
		Transport: c.transport,
		Timeout:   opts.ReadTimeout,
	}
	if !opts.FollowRedirects {
		hc.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return hc.Do(req)
}
