package request

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// orderedParams is a string map that remembers first-insertion order.
// Overwriting a key keeps its original position.
type orderedParams struct {
	keys   []string
	values map[string]string
}

func (p *orderedParams) set(key, value string) {
	if p.values == nil {
		p.values = make(map[string]string)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

func (p *orderedParams) get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

func (p *orderedParams) len() int { return len(p.keys) }

func (p *orderedParams) each(fn func(key, value string)) {
	for _, k := range p.keys {
		fn(k, p.values[k])
	}
}

// Stringify converts a query value to its string form. Strings, byte slices,
// booleans, integers, floats, fmt.Stringer, error and json.Number values are
// accepted, as are pointers to them; nil becomes "". Slices, arrays, maps and
// structs are rejected with ErrUnsupportedValue.
func Stringify(value any) (string, error) {
	s, err := cast.ToStringE(value)
	if err != nil {
		return "", fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}
	return s, nil
}

// sortedKeys returns the keys of m in lexical order so map-based setters
// behave deterministically.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// encodeQuery renders params as ?k1=v1&k2=v2 in insertion order.
func encodeQuery(p *orderedParams) string {
	if p.len() == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteByte('?')
	first := true
	p.each(func(k, v string) {
		if !first {
			b.WriteByte('&')
		}
		first = false
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(v))
	})
	return b.String()
}
