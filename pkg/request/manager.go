// Package request wraps an HTTP client capability in a small, stateful
// request manager: configure URL, method, headers and query parameters, call
// Make, then inspect the stored response.
package request

import (
	"context"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/samvad-hq/samvad-request-manager/pkg/httpclient"
)

// ClientSource selects the client a Manager uses. Build one with
// DefaultClient or SuppliedClient; it is resolved once by New.
type ClientSource struct {
	supplied bool
	value    any
}

// DefaultClient makes New build a resty-backed client with default settings.
func DefaultClient() ClientSource { return ClientSource{} }

// SuppliedClient makes New use c, which must implement httpclient.Client.
func SuppliedClient(c any) ClientSource { return ClientSource{supplied: true, value: c} }

func (s ClientSource) resolve() (httpclient.Client, error) {
	if !s.supplied {
		return httpclient.NewRestyClient(httpclient.DefaultTimeout), nil
	}
	if isNil(s.value) {
		return nil, &TypeMismatchError{Got: "<nil>"}
	}
	c, ok := s.value.(httpclient.Client)
	if !ok {
		return nil, &TypeMismatchError{Got: reflect.TypeOf(s.value).String()}
	}
	return c, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// Manager accumulates request configuration and performs one request per
// Make call. A Manager is not safe for concurrent use.
type Manager struct {
	url      string
	method   string
	headers  orderedParams
	query    orderedParams
	client   httpclient.Client
	response httpclient.Response
}

// New builds a Manager for url using the client selected by src.
func New(url string, src ClientSource) (*Manager, error) {
	client, err := src.resolve()
	if err != nil {
		return nil, err
	}
	return &Manager{url: url, method: http.MethodGet, client: client}, nil
}

// NewWithClient builds a Manager around an already typed client. A nil client
// selects the default one.
func NewWithClient(url string, client httpclient.Client) *Manager {
	if client == nil {
		client = httpclient.NewRestyClient(httpclient.DefaultTimeout)
	}
	return &Manager{url: url, method: http.MethodGet, client: client}
}

// SetURL replaces the request URL.
func (m *Manager) SetURL(url string) { m.url = url }

// URL returns the configured URL without the query string.
func (m *Manager) URL() string { return m.url }

// SetMethod replaces the HTTP method. An empty method resets to GET.
func (m *Manager) SetMethod(method string) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	m.method = method
}

// Method returns the configured HTTP method.
func (m *Manager) Method() string { return m.method }

// SetHeader sets a single header, replacing any previous value for the key.
func (m *Manager) SetHeader(key, value string) {
	m.headers.set(http.CanonicalHeaderKey(key), value)
}

// SetHeaders merges headers into the existing set. Given values override
// existing keys.
func (m *Manager) SetHeaders(headers map[string]string) {
	for _, k := range sortedKeys(headers) {
		m.SetHeader(k, headers[k])
	}
}

// Headers returns the configured headers in insertion order.
func (m *Manager) Headers() []httpclient.Header {
	out := make([]httpclient.Header, 0, m.headers.len())
	m.headers.each(func(k, v string) {
		out = append(out, httpclient.Header{Key: k, Value: v})
	})
	return out
}

// SetQueryParam sets one query parameter. The value is converted with
// Stringify; unsupported values leave the parameters unchanged.
func (m *Manager) SetQueryParam(key string, value any) error {
	s, err := Stringify(value)
	if err != nil {
		return err
	}
	m.query.set(key, s)
	return nil
}

// SetQueryParams merges params into the existing query parameters. Either
// every value is applied or, on the first unsupported value, none is.
func (m *Manager) SetQueryParams(params map[string]any) error {
	keys := sortedKeys(params)
	converted := make([]string, len(keys))
	for i, k := range keys {
		s, err := Stringify(params[k])
		if err != nil {
			return err
		}
		converted[i] = s
	}
	for i, k := range keys {
		m.query.set(k, converted[i])
	}
	return nil
}

// QueryParam returns the stored string value for key.
func (m *Manager) QueryParam(key string) (string, bool) { return m.query.get(key) }

// QueryString renders the query parameters as ?k1=v1&k2=v2, URL-encoded and
// in insertion order. It returns "" when no parameters are set.
func (m *Manager) QueryString() string { return encodeQuery(&m.query) }

// Target returns the URL the next Make call will request.
func (m *Manager) Target() string {
	qs := m.QueryString()
	if qs != "" && strings.Contains(m.url, "?") {
		qs = "&" + qs[1:]
	}
	return m.url + qs
}

// Make performs the configured request with body. The stored response is
// cleared first and only set again when the client succeeds. Client failures
// are returned as *RequestError.
func (m *Manager) Make(ctx context.Context, body string) (httpclient.Response, error) {
	m.response = nil
	if ctx == nil {
		ctx = context.Background()
	}

	resp, err := m.client.Request(ctx, m.method, m.Target(), httpclient.Options{
		Body:    body,
		Headers: m.Headers(),
	})
	if err != nil {
		return nil, newRequestError(err)
	}
	m.response = resp
	return resp, nil
}

// Response returns the response stored by the last successful Make, or nil.
func (m *Manager) Response() httpclient.Response { return m.response }

// ResponseBody returns the stored response body stream, or nil when there is
// no response.
func (m *Manager) ResponseBody() io.Reader {
	if m.response == nil {
		return nil
	}
	return m.response.Body()
}

// ResponseContents reads the whole response body. Seekable bodies are rewound
// first so repeated calls return the same text. It returns "" when there is
// no response.
func (m *Manager) ResponseContents() (string, error) {
	body := m.ResponseBody()
	if body == nil {
		return "", nil
	}
	if s, ok := body.(io.Seeker); ok {
		if _, err := s.Seek(0, io.SeekStart); err != nil {
			return "", err
		}
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
