package template

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		path bool
	}{
		{name: "unreserved", in: "abc-._~XYZ09", want: "abc-._~XYZ09"},
		{name: "space", in: "a b", want: "a%20b"},
		{name: "reserved", in: "a&b=c/d", want: "a%26b%3Dc%2Fd"},
		{name: "utf8", in: "é", want: "%C3%A9"},
		{name: "path_slash", in: "a/b c", want: "a/b%20c", path: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			if tt.path {
				got = EncodePath(tt.in)
			} else {
				got = Encode(tt.in)
			}
			if got != tt.want {
				t.Errorf("Encode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStrings(t *testing.T) {
	s := "x"
	var nilPtr *string
	var nilURL *url.URL
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{name: "nil", in: nil, want: nil},
		{name: "string", in: "a", want: []string{"a"}},
		{name: "int", in: 42, want: []string{"42"}},
		{name: "slice", in: []int{1, 2, 3}, want: []string{"1", "2", "3"}},
		{name: "nil_elements", in: []any{"a", nil, "b"}, want: []string{"a", "b"}},
		{name: "array", in: [2]string{"a", "b"}, want: []string{"a", "b"}},
		{name: "pointer", in: &s, want: []string{"x"}},
		{name: "nil_pointer", in: nilPtr, want: nil},
		{name: "nil_stringer", in: nilURL, want: nil},
		{name: "nil_stringer_elements", in: []any{nilURL, &url.URL{Path: "p"}}, want: []string{"p"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Strings(tt.in))
		})
	}
}

func TestNew(t *testing.T) {
	tpl := New("GET", "/users/{id}?active={active}&flag")
	assert.Equal(t, "/users/{id}", tpl.Path)
	assert.Equal(t, []string{"{active}"}, tpl.QueryValues("active"))
	assert.Len(t, tpl.Queries, 2)
	assert.ElementsMatch(t, []string{"id", "active"}, tpl.Variables())
	assert.True(t, tpl.HasVariable("id"))
	assert.False(t, tpl.HasVariable("other"))
}

func TestTemplate_Resolve(t *testing.T) {
	base := New("GET", "/users/{id}/items?tag={tags}&q={q}")
	base.Target = "http://api.example.com"
	base.Header("Accept", "application/json")
	base.Header("X-User", "{user}")

	got, err := base.Resolve(map[string]any{
		"id":   "a b",
		"tags": []string{"x", "y z"},
		"user": "jane",
	})
	require.NoError(t, err)
	assert.Equal(t, "/users/a%20b/items", got.Path)
	assert.Equal(t, []string{"x", "y%20z"}, got.QueryValues("tag"))
	assert.Nil(t, got.QueryValues("q"))
	assert.Equal(t, []string{"jane"}, got.HeaderValues("x-user"))
	assert.Equal(t, "http://api.example.com/users/a%20b/items?tag=x&tag=y%20z", got.URL())

	// base is untouched
	assert.Equal(t, "/users/{id}/items", base.Path)
	assert.Equal(t, []string{"{tags}"}, base.QueryValues("tag"))
	assert.Equal(t, []string{"{user}"}, base.HeaderValues("X-User"))
}

func TestTemplate_ResolveUnresolved(t *testing.T) {
	tests := []struct {
		name string
		tpl  *Template
		part string
	}{
		{name: "path", tpl: New("GET", "/users/{id}"), part: "path"},
		{name: "target", tpl: &Template{Method: "GET", Target: "{url}"}, part: "target"},
		{name: "body", tpl: &Template{Method: "POST", BodyTemplate: "{name}"}, part: "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.tpl.Resolve(map[string]any{})
			var ue *UnresolvedError
			require.True(t, errors.As(err, &ue))
			assert.Equal(t, tt.part, ue.Part)
		})
	}
}

func TestTemplate_ResolveBodyTemplate(t *testing.T) {
	tpl := &Template{Method: "POST", Path: "/login", BodyTemplate: `%7B"user":"{user}"%7D`}
	got, err := tpl.Resolve(map[string]any{"user": "denominator"})
	require.NoError(t, err)
	assert.Equal(t, `{"user":"denominator"}`, string(got.Body))
	assert.Empty(t, got.BodyTemplate)
}

func TestTemplate_SetQueryReplaces(t *testing.T) {
	tpl := New("GET", "/x?a=1")
	tpl.SetQuery("a", []string{"2", "3"})
	tpl.SetQuery("b", []string{"4"})
	assert.Equal(t, "a=2&a=3&b=4", tpl.QueryString())
}

func TestTemplate_Request(t *testing.T) {
	tpl := New("POST", "/echo?x=1")
	tpl.Target = "http://localhost:8080/"
	tpl.Header("Content-Type", "text/plain")
	tpl.Body = []byte("hi")
	req, err := tpl.Request(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "http://localhost:8080/echo?x=1", req.URL.String())
	assert.Equal(t, "text/plain", req.Header.Get("Content-Type"))
	assert.EqualValues(t, 2, req.ContentLength)
}
