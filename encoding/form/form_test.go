package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vizee/gfeign/encoding"
	"github.com/vizee/gfeign/template"
)

func TestEncoder_EncodeMap(t *testing.T) {
	tpl := template.New("POST", "/login")
	err := (&Encoder{}).Encode(map[string]any{
		"user": "jane doe",
		"tags": []string{"a", "b"},
	}, encoding.MapStringAny, tpl)
	require.NoError(t, err)
	assert.Equal(t, "tags=a&tags=b&user=jane+doe", string(tpl.Body))
	assert.Equal(t, []string{ContentType}, tpl.HeaderValues("Content-Type"))
}

func TestEncoder_EncodeStruct(t *testing.T) {
	type login struct {
		User string `url:"user"`
	}
	tpl := template.New("POST", "/login")
	require.NoError(t, (&Encoder{Structs: true}).Encode(login{User: "x"}, nil, tpl))
	assert.Equal(t, "user=x", string(tpl.Body))
}

func TestEncoder_Delegate(t *testing.T) {
	tpl := template.New("POST", "/raw")
	require.NoError(t, (&Encoder{}).Encode("raw", nil, tpl))
	assert.Equal(t, "raw", string(tpl.Body))

	err := (&Encoder{}).Encode(42, nil, tpl)
	var ee *encoding.EncodeError
	assert.ErrorAs(t, err, &ee)
}
