package template

import (
	"fmt"
	"reflect"
	"strings"
)

const upperhex = "0123456789ABCDEF"

func shouldEscape(c byte, keepSlash bool) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return false
	case c == '-' || c == '.' || c == '_' || c == '~':
		return false
	case c == '/':
		return !keepSlash
	}
	return true
}

func escape(s string, keepSlash bool) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if shouldEscape(s[i], keepSlash) {
			n++
		}
	}
	if n == 0 {
		return s
	}
	buf := make([]byte, 0, len(s)+2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c, keepSlash) {
			buf = append(buf, '%', upperhex[c>>4], upperhex[c&15])
		} else {
			buf = append(buf, c)
		}
	}
	return string(buf)
}

// Encode percent-encodes every byte outside the RFC 3986 unreserved set.
func Encode(s string) string {
	return escape(s, false)
}

// EncodePath is Encode but leaves '/' intact.
func EncodePath(s string) string {
	return escape(s, true)
}

type segment struct {
	lit string
	// variable name, empty for literal segments
	name string
}

func parse(pattern string) []segment {
	var segs []segment
	for len(pattern) > 0 {
		i := strings.IndexByte(pattern, '{')
		if i < 0 {
			break
		}
		j := strings.IndexByte(pattern[i:], '}')
		if j < 0 {
			break
		}
		if i > 0 {
			segs = append(segs, segment{lit: pattern[:i]})
		}
		name := pattern[i+1 : i+j]
		if k := strings.IndexByte(name, ':'); k >= 0 {
			name = name[:k]
		}
		segs = append(segs, segment{name: strings.TrimSpace(name)})
		pattern = pattern[i+j+1:]
	}
	if len(pattern) > 0 {
		segs = append(segs, segment{lit: pattern})
	}
	return segs
}

func variables(pattern string) []string {
	var names []string
	for _, seg := range parse(pattern) {
		if seg.name != "" {
			names = append(names, seg.name)
		}
	}
	return names
}

// soleVariable reports the variable name when pattern is exactly "{name}".
func soleVariable(pattern string) (string, bool) {
	segs := parse(pattern)
	if len(segs) == 1 && segs[0].name != "" {
		return segs[0].name, true
	}
	return "", false
}

// Strings flattens v into its wire strings. Slices and arrays (except
// []byte) yield one string per non-nil element, everything else a single
// string.
func Strings(v any) []string {
	if v != nil && isNil(reflect.ValueOf(v)) {
		return nil
	}
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return []string{x}
	case []string:
		return x
	case []byte:
		return []string{string(x)}
	case fmt.Stringer:
		return []string{x.String()}
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			e := rv.Index(i)
			for e.Kind() == reflect.Interface && !e.IsNil() {
				e = e.Elem()
			}
			if isNil(e) {
				continue
			}
			out = append(out, fmt.Sprint(e.Interface()))
		}
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return Strings(rv.Elem().Interface())
	}
	return []string{fmt.Sprint(v)}
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// expand substitutes every variable of pattern. Multi-valued variables are
// joined with sep. The name of the first unbound variable is returned with
// ok == false.
func expand(pattern string, vars map[string]any, encode func(string) string, sep string) (string, string, bool) {
	segs := parse(pattern)
	var sb strings.Builder
	for _, seg := range segs {
		if seg.name == "" {
			sb.WriteString(seg.lit)
			continue
		}
		v, ok := vars[seg.name]
		if !ok || v == nil {
			return "", seg.name, false
		}
		for i, s := range Strings(v) {
			if i > 0 {
				sb.WriteString(sep)
			}
			if encode != nil {
				s = encode(s)
			}
			sb.WriteString(s)
		}
	}
	return sb.String(), "", true
}

// expandValues resolves one query or header value template. A template made
// of a single variable bound to a collection expands to one value per
// element.
func expandValues(pattern string, vars map[string]any, encode func(string) string) ([]string, bool) {
	if name, ok := soleVariable(pattern); ok {
		v, ok := vars[name]
		if !ok || v == nil {
			return nil, false
		}
		ss := Strings(v)
		out := make([]string, 0, len(ss))
		for _, s := range ss {
			if encode != nil {
				s = encode(s)
			}
			out = append(out, s)
		}
		return out, true
	}
	s, _, ok := expand(pattern, vars, encode, ",")
	if !ok {
		return nil, false
	}
	return []string{s}, true
}
