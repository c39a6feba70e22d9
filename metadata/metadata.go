package metadata

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/vizee/gfeign/template"
)

// Expander converts an argument to its wire string.
type Expander interface {
	Expand(v any) (string, error)
}

type ExpanderFunc func(v any) (string, error)

func (f ExpanderFunc) Expand(v any) (string, error) {
	return f(v)
}

// ExpanderRegistry resolves expanders referenced by name in declarative
// contracts.
type ExpanderRegistry map[string]Expander

func (r ExpanderRegistry) Lookup(name string) (Expander, error) {
	e := r[name]
	if e == nil {
		return nil, fmt.Errorf("no such expander %s", name)
	}
	return e, nil
}

// MethodMetadata describes how to build a request for one contract method.
// It is immutable once parsed.
type MethodMetadata struct {
	ConfigKey  string
	Name       string
	ArgTypes   []reflect.Type
	ReturnType reflect.Type
	HasContext bool

	Template *template.Template

	IndexToName     map[int][]string
	IndexToExpander map[int]Expander
	FormParams      []string

	URLIndex         *int
	BodyIndex        *int
	BodyType         reflect.Type
	AlwaysEncodeBody bool
	QueryMapIndex    *int
	HeaderMapIndex   *int
	OptionsIndex     *int

	Ignored bool
}

func Index(i int) *int {
	return &i
}

// SortedIndexes returns the keys of IndexToName in argument order.
func (md *MethodMetadata) SortedIndexes() []int {
	idx := make([]int, 0, len(md.IndexToName))
	for i := range md.IndexToName {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// AddName binds argument i to the placeholder name.
func (md *MethodMetadata) AddName(i int, name string) {
	if md.IndexToName == nil {
		md.IndexToName = make(map[int][]string)
	}
	md.IndexToName[i] = append(md.IndexToName[i], name)
}

func (md *MethodMetadata) IsFormParam(name string) bool {
	for _, p := range md.FormParams {
		if p == name {
			return true
		}
	}
	return false
}

// ConfigKey renders the unique key of a method, e.g. "GitHub#Repos(string,int)".
func ConfigKey(typeName string, method string, args []reflect.Type) string {
	var sb strings.Builder
	sb.WriteString(typeName)
	sb.WriteByte('#')
	sb.WriteString(method)
	sb.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			sb.WriteByte(',')
		}
		if a == nil {
			sb.WriteString("any")
		} else {
			sb.WriteString(a.String())
		}
	}
	sb.WriteByte(')')
	return sb.String()
}
