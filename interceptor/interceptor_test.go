package interceptor

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vizee/gfeign/engine"
	"github.com/vizee/gfeign/template"
)

var (
	_ engine.Interceptor = &BasicAuth{}
	_ engine.Interceptor = &Header{}
	_ engine.Interceptor = &RequestID{}
)

func TestBasicAuth(t *testing.T) {
	rt := template.New("GET", "/")
	require.NoError(t, NewBasicAuth("user", "pass").Apply(context.Background(), rt))
	assert.Equal(t, []string{"Basic dXNlcjpwYXNz"}, rt.HeaderValues("Authorization"))
}

func TestHeader(t *testing.T) {
	rt := template.New("GET", "/").Header("Accept", "text/plain")
	require.NoError(t, (&Header{Name: "Accept", Values: []string{"application/json"}}).Apply(context.Background(), rt))
	assert.Equal(t, []string{"text/plain", "application/json"}, rt.HeaderValues("accept"))

	require.NoError(t, (&Header{Name: "Accept", Values: []string{"*/*"}, Replace: true}).Apply(context.Background(), rt))
	assert.Equal(t, []string{"*/*"}, rt.HeaderValues("Accept"))
}

func TestRequestID(t *testing.T) {
	it := &RequestID{}

	rt := template.New("GET", "/")
	require.NoError(t, it.Apply(context.Background(), rt))
	ids := rt.HeaderValues(RequestIDHeader)
	require.Len(t, ids, 1)
	_, err := uuid.Parse(ids[0])
	assert.NoError(t, err)

	// an existing id is kept
	require.NoError(t, it.Apply(context.Background(), rt))
	assert.Equal(t, ids, rt.HeaderValues(RequestIDHeader))

	rt = template.New("GET", "/")
	require.NoError(t, (&RequestID{Header: "X-Trace"}).Apply(WithRequestID(context.Background(), "abc"), rt))
	assert.Equal(t, []string{"abc"}, rt.HeaderValues("X-Trace"))
}
