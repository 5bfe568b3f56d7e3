// Package requests loads declarative request definitions from YAML or JSON
// files and applies them to request managers.
package requests

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/samvad-hq/samvad-request-manager/pkg/request"
	"gopkg.in/yaml.v3"
)

// configFile represents the structure of the request definitions file.
type configFile struct {
	Requests []Definition `json:"requests" yaml:"requests"`
}

// Definition is a single request entry declared in config files.
type Definition struct {
	ID      string            `json:"id" yaml:"id"`
	Method  string            `json:"method" yaml:"method"`
	URL     string            `json:"url" yaml:"url"`
	Headers map[string]string `json:"headers" yaml:"headers"`
	Query   QueryParams       `json:"query" yaml:"query"`
	Body    string            `json:"body" yaml:"body"`
	Enabled *bool             `json:"enabled" yaml:"enabled"`
}

// Registry materializes request definitions loaded from config files.
type Registry struct {
	mu       sync.RWMutex
	requests []Definition
	idx      map[string]Definition
}

// LoadRegistry loads request definitions from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("requests file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open requests file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read requests file: %w", err)
	}

	fileReg, err := parseRequests(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return NewRegistry(fileReg.Requests)
}

// NewRegistry sanitizes and validates defs and indexes them by id.
func NewRegistry(defs []Definition) (*Registry, error) {
	if len(defs) == 0 {
		return nil, errors.New("requests file contains no requests entries")
	}

	reg := &Registry{
		requests: make([]Definition, len(defs)),
		idx:      make(map[string]Definition, len(defs)),
	}
	for i := range defs {
		def := sanitizeDefinition(defs[i])
		if err := validateDefinition(def); err != nil {
			return nil, fmt.Errorf("requests[%d]: %w", i, err)
		}
		if _, exists := reg.idx[def.ID]; exists {
			return nil, fmt.Errorf("duplicate request id %q", def.ID)
		}
		reg.requests[i] = def
		reg.idx[def.ID] = def
	}
	return reg, nil
}

// parseRequests attempts to decode the requests file content.
func parseRequests(data []byte, ext string) (configFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var lastErr error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var cfg configFile
		if err := d.fn(data, &cfg); err != nil {
			lastErr = fmt.Errorf("decode %s requests: %w", d.name, err)
			continue
		}
		return cfg, nil
	}

	if lastErr != nil {
		return configFile{}, lastErr
	}
	return configFile{}, errors.New("requests file format not recognized (expected YAML or JSON)")
}

// sanitizeDefinition trims and normalizes the definition fields.
func sanitizeDefinition(def Definition) Definition {
	def.ID = strings.TrimSpace(def.ID)
	def.URL = strings.TrimSpace(def.URL)
	def.Method = strings.ToUpper(strings.TrimSpace(def.Method))
	if def.Method == "" {
		def.Method = http.MethodGet
	}
	if def.Enabled == nil {
		enabled := true
		def.Enabled = &enabled
	}
	def.Headers = sanitizeHeaders(def.Headers)

	if len(def.Query) > 0 {
		q := make(QueryParams, 0, len(def.Query))
		for _, p := range def.Query {
			p.Key = strings.TrimSpace(p.Key)
			if p.Key == "" {
				continue
			}
			q = append(q, p)
		}
		def.Query = q
	}
	return def
}

// sanitizeHeaders trims keys and drops entries with empty keys.
func sanitizeHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// validateDefinition checks that required fields are present and query
// values can be rendered.
func validateDefinition(def Definition) error {
	if def.ID == "" {
		return errors.New("id is required")
	}
	if def.URL == "" {
		return fmt.Errorf("url is required for request %q", def.ID)
	}
	for _, p := range def.Query {
		if _, err := request.Stringify(p.Value); err != nil {
			return fmt.Errorf("request %q query %q: %w", def.ID, p.Key, err)
		}
	}
	return nil
}

// Apply configures m with the definition's URL, method, headers and query.
func (def Definition) Apply(m *request.Manager) error {
	if m == nil {
		return errors.New("request manager is nil")
	}
	m.SetURL(def.URL)
	m.SetMethod(def.Method)
	if len(def.Headers) > 0 {
		m.SetHeaders(def.Headers)
	}
	for _, p := range def.Query {
		if err := m.SetQueryParam(p.Key, p.Value); err != nil {
			return fmt.Errorf("request %q query %q: %w", def.ID, p.Key, err)
		}
	}
	return nil
}

// EnabledValue returns enabled flag defaulting to true.
func (def Definition) EnabledValue() bool {
	if def.Enabled == nil {
		return true
	}
	return *def.Enabled
}

// ByID returns the definition by id.
func (r *Registry) ByID(id string) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return Definition{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.idx[id]
	return def, ok
}

// All returns all definitions in file order.
func (r *Registry) All() []Definition {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Definition, len(r.requests))
	copy(out, r.requests)
	return out
}

// Enabled returns definitions that are enabled.
func (r *Registry) Enabled() []Definition {
	all := r.All()
	if len(all) == 0 {
		return nil
	}

	out := make([]Definition, 0, len(all))
	for _, def := range all {
		if def.EnabledValue() {
			out = append(out, def)
		}
	}
	return out
}
