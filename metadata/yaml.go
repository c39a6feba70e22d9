package metadata

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/vizee/gfeign/template"
	"gopkg.in/yaml.v3"
)

var (
	bytesType = reflect.TypeOf([]byte(nil))
	anyType   = reflect.TypeOf((*any)(nil)).Elem()
)

// MethodDesc is the YAML form of one contract method.
type MethodDesc struct {
	Name      string         `yaml:"name"`
	Request   string         `yaml:"request"`
	Headers   []string       `yaml:"headers"`
	Args      []string       `yaml:"args"`
	Expanders map[int]string `yaml:"expanders"`
	Body      string         `yaml:"body"`
	Encode    string         `yaml:"encode"`
	Ignored   bool           `yaml:"ignored"`
}

// ContractDesc is the YAML form of a contract.
type ContractDesc struct {
	Name    string       `yaml:"name"`
	Methods []MethodDesc `yaml:"methods"`
}

// LoadYAML parses a YAML contract descriptor. Argument types are unknown in
// this form, so configuration keys render them as "any" and bodies are
// declared as any. Methods return the raw response body.
func LoadYAML(data []byte, expanders ExpanderRegistry) (*Contract, error) {
	var desc ContractDesc
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("parse contract: %w", err)
	}
	return ResolveDesc(&desc, expanders)
}

func ResolveDesc(desc *ContractDesc, expanders ExpanderRegistry) (*Contract, error) {
	if desc.Name == "" {
		return nil, fmt.Errorf("contract without name")
	}
	o := &parseOptions{name: desc.Name, expanders: expanders}
	c := &Contract{Name: desc.Name}
	for i := range desc.Methods {
		md, err := resolveMethodDesc(desc.Name, &desc.Methods[i], o)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", desc.Name, desc.Methods[i].Name, err)
		}
		c.Methods = append(c.Methods, md)
	}
	if err := validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

func resolveMethodDesc(contract string, d *MethodDesc, o *parseOptions) (*MethodMetadata, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("method without name")
	}
	args := make([]reflect.Type, len(d.Args))
	md := &MethodMetadata{
		ConfigKey:  ConfigKey(contract, d.Name, args),
		Name:       d.Name,
		ArgTypes:   args,
		ReturnType: bytesType,
		Ignored:    d.Ignored,
	}
	if d.Ignored {
		md.Template = &template.Template{}
		return md, nil
	}

	method, uri, _ := strings.Cut(strings.TrimSpace(d.Request), " ")
	method = strings.ToUpper(method)
	if !isHTTPMethod(method) {
		return nil, fmt.Errorf("invalid http method %q", method)
	}
	md.Template = template.New(method, strings.TrimSpace(uri))
	for _, h := range d.Headers {
		if err := parseHeaders(md.Template, h); err != nil {
			return nil, err
		}
	}
	md.Template.BodyTemplate = d.Body
	md.AlwaysEncodeBody = d.Encode == "all"

	for i, role := range d.Args {
		if err := applyRole(md, i, strings.TrimSpace(role), o); err != nil {
			return nil, err
		}
	}
	if md.BodyIndex != nil {
		md.BodyType = anyType
	}
	for i, name := range d.Expanders {
		if i < 0 || i >= len(args) {
			return nil, fmt.Errorf("expander index %d out of range", i)
		}
		e, err := o.expanders.Lookup(name)
		if err != nil {
			return nil, err
		}
		if md.IndexToExpander == nil {
			md.IndexToExpander = make(map[int]Expander)
		}
		md.IndexToExpander[i] = e
	}
	return md, nil
}
