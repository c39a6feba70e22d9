package engine

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/vizee/gfeign/encoding"
	"github.com/vizee/gfeign/metadata"
	"github.com/vizee/gfeign/template"
)

type strategy int

const (
	standardStrategy strategy = iota
	formStrategy
	bodyStrategy
)

func (s strategy) String() string {
	switch s {
	case formStrategy:
		return "form"
	case bodyStrategy:
		return "body"
	}
	return "standard"
}

func selectStrategy(md *metadata.MethodMetadata) strategy {
	if len(md.FormParams) > 0 && md.Template.BodyTemplate == "" {
		return formStrategy
	}
	if md.BodyIndex != nil || md.AlwaysEncodeBody {
		return bodyStrategy
	}
	return standardStrategy
}

// Binder resolves the arguments of one call into a request template.
type Binder struct {
	md              *metadata.MethodMetadata
	strategy        strategy
	encoder         encoding.Encoder
	queryMapEncoder encoding.QueryMapEncoder
}

func NewBinder(md *metadata.MethodMetadata, encoder encoding.Encoder, queryMapEncoder encoding.QueryMapEncoder) *Binder {
	return &Binder{
		md:              md,
		strategy:        selectStrategy(md),
		encoder:         encoder,
		queryMapEncoder: queryMapEncoder,
	}
}

// Bind returns a new template for args. The base template of the method is
// never modified.
func (b *Binder) Bind(args []any) (*template.Template, error) {
	md := b.md
	if len(args) != len(md.ArgTypes) && md.ArgTypes != nil {
		return nil, fmt.Errorf("%s: expected %d arguments, got %d", md.ConfigKey, len(md.ArgTypes), len(args))
	}

	t := md.Template.Clone()
	if md.URLIndex != nil {
		u := arg(args, *md.URLIndex)
		if isNil(u) {
			return nil, &NullParameterError{Index: *md.URLIndex, Role: "url"}
		}
		t.Target = fmt.Sprint(u)
	}

	vars, err := b.variables(args)
	if err != nil {
		return nil, err
	}

	switch b.strategy {
	case formStrategy:
		err = b.encodeForm(vars, t)
	case bodyStrategy:
		err = b.encodeBody(args, t)
	}
	if err != nil {
		return nil, err
	}
	return b.resolve(args, t, vars)
}

func (b *Binder) variables(args []any) (map[string]any, error) {
	md := b.md
	vars := make(map[string]any, len(md.IndexToName))
	for _, i := range md.SortedIndexes() {
		v := arg(args, i)
		if isNil(v) {
			continue
		}
		if e := md.IndexToExpander[i]; e != nil {
			var err error
			v, err = expand(e, v)
			if err != nil {
				return nil, &ExpandError{Index: i, Err: err}
			}
		}
		for _, name := range md.IndexToName[i] {
			vars[name] = v
		}
	}
	return vars, nil
}

// expand applies e to v, element-wise when v is a slice or an array.
func expand(e metadata.Expander, v any) (any, error) {
	rv := reflect.ValueOf(v)
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8 {
		out := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i)
			if isNilValue(elem) {
				continue
			}
			s, err := e.Expand(elem.Interface())
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	}
	return e.Expand(v)
}

func (b *Binder) encodeForm(vars map[string]any, t *template.Template) error {
	form := make(map[string]any, len(b.md.FormParams))
	for _, name := range b.md.FormParams {
		if v, ok := vars[name]; ok {
			form[name] = v
		}
	}
	return encoding.AsEncodeError(b.encoder.Encode(form, encoding.MapStringAny, t))
}

func (b *Binder) encodeBody(args []any, t *template.Template) error {
	md := b.md
	if md.AlwaysEncodeBody {
		body := args
		if body == nil {
			body = []any{}
		}
		return encoding.AsEncodeError(b.encoder.Encode(body, encoding.MultiArgs, t))
	}
	body := arg(args, *md.BodyIndex)
	if isNil(body) {
		return &NullParameterError{Index: *md.BodyIndex, Role: "body"}
	}
	bodyType := md.BodyType
	if bodyType == nil {
		bodyType = reflect.TypeOf(body)
	}
	return encoding.AsEncodeError(b.encoder.Encode(body, bodyType, t))
}

func (b *Binder) resolve(args []any, t *template.Template, vars map[string]any) (*template.Template, error) {
	md := b.md
	resolved, err := t.Resolve(vars)
	if err != nil {
		return nil, err
	}
	if md.QueryMapIndex != nil {
		m, err := b.toMap(arg(args, *md.QueryMapIndex))
		if err != nil {
			return nil, err
		}
		for _, name := range sortedKeys(m) {
			values := template.Strings(m[name])
			if len(values) == 0 {
				continue
			}
			encoded := make([]string, len(values))
			for i, v := range values {
				encoded[i] = template.Encode(v)
			}
			resolved.SetQuery(template.Encode(name), encoded)
		}
	}
	if md.HeaderMapIndex != nil {
		m, err := b.toMap(arg(args, *md.HeaderMapIndex))
		if err != nil {
			return nil, err
		}
		for _, name := range sortedKeys(m) {
			values := template.Strings(m[name])
			if len(values) == 0 {
				continue
			}
			resolved.SetHeader(name, values)
		}
	}
	return resolved, nil
}

// toMap returns string-keyed maps as they are and hands anything else to
// the query map encoder.
func (b *Binder) toMap(v any) (map[string]any, error) {
	if isNil(v) {
		return nil, nil
	}
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return m, nil
	}
	if b.queryMapEncoder == nil {
		return nil, &encoding.EncodeError{Msg: fmt.Sprintf("%T is not a map and no query map encoder is set", v)}
	}
	m, err := b.queryMapEncoder.Encode(v)
	if err != nil {
		return nil, encoding.AsEncodeError(err)
	}
	return m, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func arg(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	return isNilValue(reflect.ValueOf(v))
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	case reflect.Invalid:
		return true
	}
	return false
}
