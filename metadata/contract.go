package metadata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/vizee/gfeign/internal/slices"
	"github.com/vizee/gfeign/template"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Contract is the parsed form of a contract type.
type Contract struct {
	Name    string
	Type    reflect.Type
	Methods []*MethodMetadata
	// Defaults names the methods that carry a built-in body.
	Defaults []string
}

func (c *Contract) Method(name string) *MethodMetadata {
	for _, md := range c.Methods {
		if md.Name == name {
			return md
		}
	}
	return nil
}

type parseOptions struct {
	name      string
	expanders ExpanderRegistry
	perMethod map[string]map[int]Expander
}

type ParseOption func(*parseOptions)

// WithName overrides the contract name used in configuration keys.
func WithName(name string) ParseOption {
	return func(o *parseOptions) {
		o.name = name
	}
}

// WithExpanders makes named expanders available to "name:expander" args.
func WithExpanders(r ExpanderRegistry) ParseOption {
	return func(o *parseOptions) {
		o.expanders = r
	}
}

// WithExpander installs an expander for argument index of method.
func WithExpander(method string, index int, e Expander) ParseOption {
	return func(o *parseOptions) {
		if o.perMethod == nil {
			o.perMethod = make(map[string]map[int]Expander)
		}
		if o.perMethod[method] == nil {
			o.perMethod[method] = make(map[int]Expander)
		}
		o.perMethod[method][index] = e
	}
}

// Parse reads the contract declared by struct type typ (or a pointer to it).
// Every exported func field is a method; its tags describe the request:
//
//	Get func(ctx context.Context, id int, q map[string]any) (*User, error) `feign:"GET /users/{id}" args:"id,querymap"`
//
// Supported tags are feign ("METHOD /path?query", "-" to ignore, "default"
// for built-in methods), args (one role per argument), headers
// ("Name: value; ..."), body (body template) and encode ("all").
func Parse(typ reflect.Type, opts ...ParseOption) (*Contract, error) {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("contract %s is not a struct", typ)
	}
	var o parseOptions
	for _, opt := range opts {
		opt(&o)
	}
	name := o.name
	if name == "" {
		name = typ.Name()
	}

	c := &Contract{Name: name, Type: typ}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.IsExported() || f.Type.Kind() != reflect.Func {
			continue
		}
		tag, ok := f.Tag.Lookup("feign")
		if !ok {
			continue
		}
		if tag == "default" {
			c.Defaults = append(c.Defaults, f.Name)
			continue
		}
		md, err := parseMethod(name, f, &o)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", name, f.Name, err)
		}
		c.Methods = append(c.Methods, md)
	}
	if err := validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

func funcSignature(ft reflect.Type) (args []reflect.Type, ret reflect.Type, hasCtx bool, err error) {
	start := 0
	if ft.NumIn() > 0 && ft.In(0) == contextType {
		hasCtx = true
		start = 1
	}
	if ft.IsVariadic() {
		return nil, nil, false, errors.New("variadic methods are not supported")
	}
	for i := start; i < ft.NumIn(); i++ {
		args = append(args, ft.In(i))
	}
	switch ft.NumOut() {
	case 1:
		if ft.Out(0) != errorType {
			return nil, nil, false, errors.New("last result must be error")
		}
	case 2:
		if ft.Out(1) != errorType {
			return nil, nil, false, errors.New("last result must be error")
		}
		ret = ft.Out(0)
	default:
		return nil, nil, false, errors.New("expected (T, error) or error results")
	}
	return args, ret, hasCtx, nil
}

func parseMethod(contract string, f reflect.StructField, o *parseOptions) (*MethodMetadata, error) {
	args, ret, hasCtx, err := funcSignature(f.Type)
	if err != nil {
		return nil, err
	}
	md := &MethodMetadata{
		ConfigKey:  ConfigKey(contract, f.Name, args),
		Name:       f.Name,
		ArgTypes:   args,
		ReturnType: ret,
		HasContext: hasCtx,
	}

	line := f.Tag.Get("feign")
	if line == "-" {
		md.Ignored = true
		md.Template = &template.Template{}
		return md, nil
	}
	method, uri, ok := strings.Cut(strings.TrimSpace(line), " ")
	if !ok {
		method, uri = line, ""
	}
	method = strings.ToUpper(method)
	if !isHTTPMethod(method) {
		return nil, fmt.Errorf("invalid http method %q", method)
	}
	md.Template = template.New(method, strings.TrimSpace(uri))
	if headers := f.Tag.Get("headers"); headers != "" {
		if err := parseHeaders(md.Template, headers); err != nil {
			return nil, err
		}
	}
	md.Template.BodyTemplate = f.Tag.Get("body")
	md.AlwaysEncodeBody = f.Tag.Get("encode") == "all"

	var roles []string
	if s, ok := f.Tag.Lookup("args"); ok && s != "" {
		roles = strings.Split(s, ",")
	}
	if len(roles) > len(args) {
		return nil, fmt.Errorf("args tag declares %d roles for %d arguments", len(roles), len(args))
	}
	for i := range args {
		role := ""
		if i < len(roles) {
			role = strings.TrimSpace(roles[i])
		}
		if err := applyRole(md, i, role, o); err != nil {
			return nil, err
		}
	}
	for i, e := range o.perMethod[f.Name] {
		if i < 0 || i >= len(args) {
			return nil, fmt.Errorf("expander index %d out of range", i)
		}
		if md.IndexToExpander == nil {
			md.IndexToExpander = make(map[int]Expander)
		}
		md.IndexToExpander[i] = e
	}
	if len(md.FormParams) > 0 {
		md.FormParams = slices.Shrink(md.FormParams)
	}
	return md, nil
}

func applyRole(md *MethodMetadata, i int, role string, o *parseOptions) error {
	switch role {
	case "-":
		return nil
	case "", "body":
		if md.AlwaysEncodeBody {
			return nil
		}
		if md.BodyIndex != nil {
			if role == "" {
				return fmt.Errorf("argument %d has no role and body is already argument %d", i, *md.BodyIndex)
			}
			return errors.New("method has too many body parameters")
		}
		md.BodyIndex = Index(i)
		md.BodyType = md.ArgTypes[i]
	case "url":
		md.URLIndex = Index(i)
	case "querymap":
		if md.QueryMapIndex != nil {
			return errors.New("querymap can only be present once")
		}
		md.QueryMapIndex = Index(i)
	case "headermap":
		if md.HeaderMapIndex != nil {
			return errors.New("headermap can only be present once")
		}
		md.HeaderMapIndex = Index(i)
	case "options":
		md.OptionsIndex = Index(i)
	default:
		names, expander, _ := strings.Cut(role, ":")
		for _, name := range strings.Split(names, "|") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			md.AddName(i, name)
			if !md.Template.HasVariable(name) && !md.IsFormParam(name) {
				md.FormParams = append(md.FormParams, name)
			}
		}
		if expander != "" {
			e, err := o.expanders.Lookup(expander)
			if err != nil {
				return err
			}
			if md.IndexToExpander == nil {
				md.IndexToExpander = make(map[int]Expander)
			}
			md.IndexToExpander[i] = e
		}
	}
	return nil
}

func parseHeaders(t *template.Template, s string) error {
	for _, h := range strings.Split(s, ";") {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return fmt.Errorf("header %q not in the form 'Name: value'", h)
		}
		t.Header(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return nil
}

func isHTTPMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch,
		http.MethodDelete, http.MethodOptions, http.MethodTrace, http.MethodConnect:
		return true
	}
	return false
}

func validate(c *Contract) error {
	seen := make(map[string]bool, len(c.Methods))
	for _, md := range c.Methods {
		if seen[md.ConfigKey] {
			return fmt.Errorf("duplicate config key %s", md.ConfigKey)
		}
		seen[md.ConfigKey] = true
	}
	for _, name := range c.Defaults {
		if c.Method(name) != nil {
			return fmt.Errorf("%s.%s declared both as default and request method", c.Name, name)
		}
	}
	return nil
}
