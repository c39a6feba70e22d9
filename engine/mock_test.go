package engine

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vizee/gfeign/client"
	"github.com/vizee/gfeign/metadata"
	"github.com/vizee/gfeign/template"
)

type user struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type searchFilter struct {
	Page  int    `url:"page"`
	Order string `url:"order,omitempty"`
}

type userService struct {
	GetUser  func(ctx context.Context, id int, q map[string]any) (*user, error) `feign:"GET /users/{id}" args:"id,querymap"`
	Search   func(q string, tags []any, bag any) ([]user, error)                `feign:"GET /search?q={q}&tag={tags}" args:"q,tags:upper,querymap"`
	Headers  func(h map[string][]string) error                                  `feign:"GET /headers" headers:"X-Static: 1" args:"headermap"`
	Create   func(ctx context.Context, u *user) (*user, error)                  `feign:"POST /users"`
	Login    func(name string, password string) (string, error)                 `feign:"POST /login/{name}" args:"name,password"`
	RPC      func(a string, b int) error                                        `feign:"POST /rpc" encode:"all"`
	Fetch    func(u string, id string) (*http.Response, error)                  `feign:"GET /things/{id}" args:"url,id"`
	Slow     func(ctx context.Context, opts client.Options) (string, error)     `feign:"GET /slow" args:"options"`
	Internal func() error                                                       `feign:"-"`
	UserName func(ctx context.Context, id int) (string, error)                  `feign:"default"`
	NotBound string
}

var upper = metadata.ExpanderFunc(func(v any) (string, error) {
	return strings.ToUpper(fmt.Sprint(v)), nil
})

func parseUserService(t testing.TB) *metadata.Contract {
	t.Helper()
	c, err := metadata.Parse(reflect.TypeOf(userService{}), metadata.WithExpanders(metadata.ExpanderRegistry{"upper": upper}))
	require.NoError(t, err)
	return c
}

type encodeCall struct {
	v        any
	bodyType reflect.Type
}

type recordingEncoder struct {
	mu    sync.Mutex
	calls []encodeCall
	err   error
}

func (e *recordingEncoder) Encode(v any, bodyType reflect.Type, t *template.Template) error {
	e.mu.Lock()
	e.calls = append(e.calls, encodeCall{v: v, bodyType: bodyType})
	e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	t.Body = []byte(fmt.Sprint(v))
	return nil
}

func (e *recordingEncoder) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

type failingQueryMapEncoder struct{}

func (failingQueryMapEncoder) Encode(v any) (map[string]any, error) {
	return nil, fmt.Errorf("cannot flatten %T", v)
}

// countingClient never sends anything; it counts calls and replies with
// status.
type countingClient struct {
	calls  atomic.Int32
	status int
	last   atomic.Pointer[http.Request]
	opts   atomic.Pointer[client.Options]
}

func (c *countingClient) Execute(req *http.Request, opts client.Options) (*http.Response, error) {
	c.calls.Add(1)
	c.last.Store(req)
	c.opts.Store(&opts)
	status := c.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{},
		Body:       http.NoBody,
		Request:    req,
	}, nil
}

type metricCall struct {
	configKey string
	method    string
	status    int
	err       error
}

type recordingMetrics struct {
	mu    sync.Mutex
	calls []metricCall
}

func (m *recordingMetrics) ObserveCall(configKey string, method string, status int, _ time.Duration, err error) {
	m.mu.Lock()
	m.calls = append(m.calls, metricCall{configKey: configKey, method: method, status: status, err: err})
	m.mu.Unlock()
}
