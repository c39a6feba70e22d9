package template

import (
	"bytes"
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/vizee/gfeign/internal/slices"
)

// UnresolvedError reports a placeholder without a binding.
type UnresolvedError struct {
	Name string
	Part string
}

func (e *UnresolvedError) Error() string {
	return "template: unresolved variable {" + e.Name + "} in " + e.Part
}

var bodyBraces = strings.NewReplacer("%7B", "{", "%7D", "}")

type Param struct {
	Name   string
	Values []string
}

// Template is a partially filled request description. Query values are kept
// percent-encoded, header values raw.
type Template struct {
	Method       string
	Target       string
	Path         string
	Queries      []Param
	Headers      []Param
	Body         []byte
	BodyTemplate string
	BodyType     reflect.Type
}

// New creates a template from an HTTP method and a "path?query" pattern.
func New(method string, uri string) *Template {
	t := &Template{Method: method}
	path, query, _ := strings.Cut(uri, "?")
	t.Path = path
	if query != "" {
		for _, kv := range strings.Split(query, "&") {
			if kv == "" {
				continue
			}
			name, value, ok := strings.Cut(kv, "=")
			if ok {
				t.Query(name, value)
			} else {
				t.Query(name)
			}
		}
	}
	return t
}

func cloneParams(ps []Param) []Param {
	if ps == nil {
		return nil
	}
	out := make([]Param, len(ps))
	for i, p := range ps {
		out[i] = Param{Name: p.Name, Values: append([]string(nil), p.Values...)}
	}
	return out
}

func (t *Template) Clone() *Template {
	c := *t
	c.Queries = cloneParams(t.Queries)
	c.Headers = cloneParams(t.Headers)
	if t.Body != nil {
		c.Body = append([]byte(nil), t.Body...)
	}
	return &c
}

func findParam(ps []Param, name string, fold bool) int {
	for i := range ps {
		if ps[i].Name == name || (fold && strings.EqualFold(ps[i].Name, name)) {
			return i
		}
	}
	return -1
}

func appendParam(ps []Param, name string, values []string, fold bool) []Param {
	if i := findParam(ps, name, fold); i >= 0 {
		ps[i].Values = append(ps[i].Values, values...)
		return ps
	}
	return append(ps, Param{Name: name, Values: append([]string(nil), values...)})
}

func replaceParam(ps []Param, name string, values []string, fold bool) []Param {
	if i := findParam(ps, name, fold); i >= 0 {
		ps[i].Values = append([]string(nil), values...)
		return ps
	}
	return append(ps, Param{Name: name, Values: append([]string(nil), values...)})
}

// Query appends value templates to the named query parameter.
func (t *Template) Query(name string, values ...string) *Template {
	t.Queries = appendParam(t.Queries, name, values, false)
	return t
}

// SetQuery replaces the named query parameter. Values must be encoded.
func (t *Template) SetQuery(name string, values []string) *Template {
	t.Queries = replaceParam(t.Queries, name, values, false)
	return t
}

// Header appends value templates to the named header.
func (t *Template) Header(name string, values ...string) *Template {
	t.Headers = appendParam(t.Headers, name, values, true)
	return t
}

// SetHeader replaces the named header.
func (t *Template) SetHeader(name string, values []string) *Template {
	t.Headers = replaceParam(t.Headers, name, values, true)
	return t
}

func (t *Template) QueryValues(name string) []string {
	if i := findParam(t.Queries, name, false); i >= 0 {
		return t.Queries[i].Values
	}
	return nil
}

func (t *Template) HeaderValues(name string) []string {
	if i := findParam(t.Headers, name, true); i >= 0 {
		return t.Headers[i].Values
	}
	return nil
}

// Variables lists the placeholder names referenced anywhere in the template.
func (t *Template) Variables() []string {
	var names []string
	names = append(names, variables(t.Target)...)
	names = append(names, variables(t.Path)...)
	for _, p := range t.Queries {
		for _, v := range p.Values {
			names = append(names, variables(v)...)
		}
	}
	for _, p := range t.Headers {
		for _, v := range p.Values {
			names = append(names, variables(v)...)
		}
	}
	names = append(names, variables(t.BodyTemplate)...)
	return slices.Uniq(names)
}

func (t *Template) HasVariable(name string) bool {
	for _, v := range t.Variables() {
		if v == name {
			return true
		}
	}
	return false
}

func resolveParams(ps []Param, vars map[string]any, encode func(string) string) []Param {
	out := make([]Param, 0, len(ps))
	for _, p := range ps {
		if len(p.Values) == 0 {
			out = append(out, Param{Name: p.Name})
			continue
		}
		var values []string
		for _, tv := range p.Values {
			vs, ok := expandValues(tv, vars, encode)
			if ok {
				values = append(values, vs...)
			}
		}
		if len(values) > 0 {
			out = append(out, Param{Name: p.Name, Values: values})
		}
	}
	return out
}

// Resolve returns a copy with every placeholder substituted from vars. The
// receiver is left untouched so a base template can be shared by
// concurrent calls. Query and header values that reference an unbound
// variable are dropped; an unbound variable in the target, path or body
// template is an error.
func (t *Template) Resolve(vars map[string]any) (*Template, error) {
	r := t.Clone()
	var (
		name string
		ok   bool
	)
	r.Target, name, ok = expand(t.Target, vars, nil, ",")
	if !ok {
		return nil, &UnresolvedError{Name: name, Part: "target"}
	}
	r.Path, name, ok = expand(t.Path, vars, EncodePath, ",")
	if !ok {
		return nil, &UnresolvedError{Name: name, Part: "path"}
	}
	r.Queries = resolveParams(t.Queries, vars, Encode)
	r.Headers = resolveParams(t.Headers, vars, nil)
	if t.BodyTemplate != "" {
		var body string
		body, name, ok = expand(t.BodyTemplate, vars, nil, ",")
		if !ok {
			return nil, &UnresolvedError{Name: name, Part: "body"}
		}
		r.BodyTemplate = ""
		if r.Body == nil {
			// literal braces are written as %7B and %7D in body templates
			r.Body = []byte(bodyBraces.Replace(body))
		}
	}
	return r, nil
}

func (t *Template) QueryString() string {
	var sb strings.Builder
	for _, p := range t.Queries {
		if len(p.Values) == 0 {
			if sb.Len() > 0 {
				sb.WriteByte('&')
			}
			sb.WriteString(p.Name)
			continue
		}
		for _, v := range p.Values {
			if sb.Len() > 0 {
				sb.WriteByte('&')
			}
			sb.WriteString(p.Name)
			sb.WriteByte('=')
			sb.WriteString(v)
		}
	}
	return sb.String()
}

// URL joins target, path and query string.
func (t *Template) URL() string {
	u := strings.TrimSuffix(t.Target, "/")
	if t.Path != "" && !strings.HasPrefix(t.Path, "/") {
		u += "/"
	}
	u += t.Path
	if qs := t.QueryString(); qs != "" {
		if strings.Contains(u, "?") {
			u += "&" + qs
		} else {
			u += "?" + qs
		}
	}
	return u
}

// Request converts a resolved template to an *http.Request.
func (t *Template) Request(ctx context.Context) (*http.Request, error) {
	method := t.Method
	if method == "" {
		method = http.MethodGet
	}
	var body *bytes.Reader
	if t.Body != nil {
		body = bytes.NewReader(t.Body)
	}
	var (
		req *http.Request
		err error
	)
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, t.URL(), body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, t.URL(), nil)
	}
	if err != nil {
		return nil, err
	}
	for _, h := range t.Headers {
		for _, v := range h.Values {
			req.Header.Add(h.Name, v)
		}
	}
	return req, nil
}

func (t *Template) String() string {
	var sb strings.Builder
	sb.WriteString(t.Method)
	sb.WriteByte(' ')
	sb.WriteString(t.URL())
	sb.WriteString(" HTTP/1.1\n")
	for _, h := range t.Headers {
		for _, v := range h.Values {
			sb.WriteString(h.Name)
			sb.WriteString(": ")
			sb.WriteString(v)
			sb.WriteByte('\n')
		}
	}
	if len(t.Body) > 0 {
		sb.WriteByte('\n')
		sb.Write(t.Body)
	}
	return sb.String()
}
