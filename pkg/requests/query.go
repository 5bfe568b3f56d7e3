package requests

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// QueryParam is one query parameter as declared in a definitions file.
type QueryParam struct {
	Key   string
	Value any
}

// QueryParams keeps query parameters in the order they appear in the file.
// Both YAML and JSON declare them as a mapping.
type QueryParams []QueryParam

// UnmarshalYAML decodes a mapping node, preserving key order.
func (q *QueryParams) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("query must be a mapping (line %d)", node.Line)
	}
	out := make(QueryParams, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var key string
		if err := node.Content[i].Decode(&key); err != nil {
			return fmt.Errorf("query key (line %d): %w", node.Content[i].Line, err)
		}
		val, err := yamlQueryValue(node.Content[i+1])
		if err != nil {
			return fmt.Errorf("query %q value: %w", key, err)
		}
		out = append(out, QueryParam{Key: key, Value: val})
	}
	*q = out
	return nil
}

// yamlQueryValue keeps scalars as the text written in the file, so 01234 and
// 1.10 are not resolved to numbers. Sequences and mappings are decoded and
// later rejected by validation.
func yamlQueryValue(node *yaml.Node) (any, error) {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind == yaml.ScalarNode {
		if node.ShortTag() == "!!null" {
			return nil, nil
		}
		return node.Value, nil
	}
	var val any
	if err := node.Decode(&val); err != nil {
		return nil, err
	}
	return val, nil
}

// UnmarshalJSON decodes a JSON object, preserving key order. Numbers are kept
// as json.Number so they render exactly as written.
func (q *QueryParams) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*q = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("query must be a JSON object")
	}

	var out QueryParams
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("query key must be a string, got %v", tok)
		}
		var val any
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("query %q value: %w", key, err)
		}
		out = append(out, QueryParam{Key: key, Value: val})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*q = out
	return nil
}
