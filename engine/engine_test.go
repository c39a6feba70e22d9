package engine

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vizee/gfeign/client"
	"github.com/vizee/gfeign/encoding"
	"github.com/vizee/gfeign/encoding/form"
	jsoncodec "github.com/vizee/gfeign/encoding/json"
	"github.com/vizee/gfeign/metadata"
	"github.com/vizee/gfeign/template"
)

func newUserServer(t *testing.T) *httptest.Server {
	t.Helper()
	router := httprouter.New()
	router.GET("/users/:id", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id, _ := strconv.Atoi(ps.ByName("id"))
		if id == 404 {
			http.Error(w, `{"error":"no such user"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(&user{ID: id, Name: "user" + ps.ByName("id") + r.URL.Query().Get("suffix")})
	})
	router.POST("/users", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var u user
		if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		u.ID = 100
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(&u)
	})
	router.POST("/login/:name", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if r.PostFormValue("password") != "secret" {
			http.Error(w, "denied", http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`"token-` + ps.ByName("name") + `-` + r.Header.Get("X-Request-Id") + `"`))
	})
	router.GET("/headers", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if r.Header.Get("X-Static") != "override" {
			http.Error(w, "missing header", http.StatusBadRequest)
		}
	})
	router.GET("/things/:id", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		w.Write([]byte("thing " + ps.ByName("id")))
	})
	router.GET("/slow", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`"done"`))
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func newHTTPService(t *testing.T, srv *httptest.Server, configure func(b *Builder)) (*userService, *recordingMetrics) {
	t.Helper()
	m := &recordingMetrics{}
	b := NewBuilder().
		Client(client.NewWithTransport(srv.Client().Transport)).
		Encoder(&form.Encoder{Delegate: &jsoncodec.Encoder{}}).
		Decoder(&jsoncodec.Decoder{MaxBodySize: 1 << 20}).
		Metrics(m).
		LogLevel(LogHeaders).
		Contract(metadata.WithExpanders(metadata.ExpanderRegistry{"upper": upper}))
	if configure != nil {
		configure(b)
	}
	var svc userService
	_, err := b.Build().Target(&svc, NewTarget(&svc, srv.URL), map[string]DefaultMethod{
		"UserName": func(ctx context.Context, p *Proxy, args []any) (any, error) {
			res, err := p.Invoke(ctx, "GetUser", args[0], nil)
			if err != nil {
				return nil, err
			}
			return res.(*user).Name, nil
		},
	})
	require.NoError(t, err)
	return &svc, m
}

func TestHandler_Roundtrip(t *testing.T) {
	srv := newUserServer(t)
	svc, m := newHTTPService(t, srv, nil)
	ctx := context.Background()

	u, err := svc.GetUser(ctx, 42, map[string]any{"suffix": "!"})
	require.NoError(t, err)
	assert.Equal(t, &user{ID: 42, Name: "user42!"}, u)

	created, err := svc.Create(ctx, &user{Name: "alice"})
	require.NoError(t, err)
	assert.Equal(t, 100, created.ID)
	assert.Equal(t, "alice", created.Name)

	name, err := svc.UserName(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "user5", name)

	require.NoError(t, svc.Headers(map[string][]string{"X-Static": {"override"}}))

	m.mu.Lock()
	defer m.mu.Unlock()
	require.Len(t, m.calls, 4)
	assert.Equal(t, "userService#GetUser(int,map[string]interface {})", m.calls[0].configKey)
	assert.Equal(t, http.MethodPost, m.calls[1].method)
	assert.Equal(t, http.StatusOK, m.calls[2].status)
}

func TestHandler_ErrorDecoder(t *testing.T) {
	srv := newUserServer(t)
	svc, m := newHTTPService(t, srv, nil)

	u, err := svc.GetUser(context.Background(), 404, nil)
	assert.Nil(t, u)
	var se *encoding.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Status)
	assert.Equal(t, "userService#GetUser(int,map[string]interface {})", se.MethodKey)
	assert.Contains(t, string(se.Body), "no such user")

	require.Len(t, m.calls, 1)
	assert.Equal(t, http.StatusNotFound, m.calls[0].status)
	assert.Error(t, m.calls[0].err)
}

func TestHandler_Dismiss404(t *testing.T) {
	srv := newUserServer(t)
	svc, _ := newHTTPService(t, srv, func(b *Builder) {
		b.Dismiss404()
	})
	u, err := svc.GetUser(context.Background(), 404, nil)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestHandler_Form(t *testing.T) {
	srv := newUserServer(t)
	svc, _ := newHTTPService(t, srv, func(b *Builder) {
		b.Use(InterceptorFunc(func(_ context.Context, t *template.Template) error {
			t.SetHeader("X-Request-Id", []string{"r1"})
			return nil
		}))
	})
	token, err := svc.Login("bob", "secret")
	require.NoError(t, err)
	assert.Equal(t, "token-bob-r1", token)

	_, err = svc.Login("bob", "wrong")
	var se *encoding.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Status)
}

func TestHandler_ResponsePassthrough(t *testing.T) {
	srv := newUserServer(t)
	svc, _ := newHTTPService(t, srv, nil)
	resp, err := svc.Fetch(srv.URL, "7")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "thing 7", string(data))
}

func TestHandler_Options(t *testing.T) {
	srv := newUserServer(t)
	svc, m := newHTTPService(t, srv, nil)

	_, err := svc.Slow(context.Background(), client.Options{ReadTimeout: 20 * time.Millisecond})
	require.Error(t, err)
	require.Len(t, m.calls, 1)
	assert.Zero(t, m.calls[0].status)

	s, err := svc.Slow(context.Background(), client.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "done", s)
}

func TestHandler_Interceptor(t *testing.T) {
	c := &countingClient{}
	var svc userService
	e := NewBuilder().
		Client(c).
		Encoder(&jsoncodec.Encoder{}).
		Contract(metadata.WithExpanders(metadata.ExpanderRegistry{"upper": upper})).
		Use(InterceptorFunc(func(_ context.Context, t *template.Template) error {
			t.Query("trace", "1")
			return nil
		})).
		Build()
	_, err := e.Target(&svc, NewTarget(&svc, "http://a.example/api/"), map[string]DefaultMethod{
		"UserName": func(context.Context, *Proxy, []any) (any, error) { return "", nil },
	})
	require.NoError(t, err)

	require.NoError(t, svc.RPC("a", 1))
	req := c.last.Load()
	assert.Equal(t, "http://a.example/api/rpc?trace=1", req.URL.String())
	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, `["a",1]`, string(body))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
}

func TestHandler_EmptyTarget(t *testing.T) {
	c := &countingClient{}
	e := NewBuilder().Client(c).Build()
	contract, err := metadata.Parse(reflect.TypeOf(struct {
		Get func(u string) (string, error) `feign:"GET /ping" args:"url"`
		Bad func() error                   `feign:"GET /ping"`
	}{}))
	require.NoError(t, err)
	p, err := e.NewInstance(NewEmptyTarget(nil, "empty"), contract, nil)
	require.NoError(t, err)

	_, err = p.Invoke(context.Background(), "Get", "http://b.example")
	require.NoError(t, err)
	assert.Equal(t, "http://b.example/ping", c.last.Load().URL.String())

	_, err = p.Invoke(context.Background(), "Bad")
	assert.ErrorIs(t, err, errNonAbsolute)
}
