package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout is used by the default client when no timeout is configured.
const DefaultTimeout = 15 * time.Second

// Option customizes a RestyClient.
type Option func(*RestyClient)

// WithHTTPErrors controls whether 4xx/5xx responses are returned as *StatusError.
// Enabled by default.
func WithHTTPErrors(enabled bool) Option {
	return func(r *RestyClient) { r.httpErrors = enabled }
}

// WithLogger routes resty's internal warnings and debug output to l.
func WithLogger(l resty.Logger) Option {
	return func(r *RestyClient) {
		if l != nil {
			r.client.SetLogger(l)
		}
	}
}

// WithUserAgent sets a User-Agent sent when the request does not carry one.
func WithUserAgent(ua string) Option {
	return func(r *RestyClient) {
		if ua = strings.TrimSpace(ua); ua != "" {
			r.client.SetHeader("User-Agent", ua)
		}
	}
}

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client     *resty.Client
	httpErrors bool
}

// NewRestyClient creates a new RestyClient with the specified timeout.
func NewRestyClient(timeout time.Duration, opts ...Option) *RestyClient {
	r := &RestyClient{client: newRestyBaseClient(timeout), httpErrors: true}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := resty.New()
	c.SetTimeout(timeout)
	c.SetAllowGetMethodPayload(true)
	return c
}

// Request performs an HTTP request with the given method, URL, body and headers.
func (r *RestyClient) Request(ctx context.Context, method, url string, opts Options) (Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}

	req := r.client.R().SetContext(ctx)
	for _, h := range opts.Headers {
		req.SetHeader(h.Key, h.Value)
	}
	if opts.Body != "" {
		req.SetBody(opts.Body)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}

	adapted := newRestyResponseAdapter(resp)
	if r.httpErrors && resp.IsError() {
		return nil, &StatusError{
			Method:   method,
			URL:      url,
			Code:     resp.StatusCode(),
			Status:   resp.Status(),
			Snippet:  readBodySnippet(resp.Body()),
			Response: adapted,
		}
	}
	return adapted, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
	body *bytes.Reader
}

func newRestyResponseAdapter(resp *resty.Response) *restyResponseAdapter {
	return &restyResponseAdapter{resp: resp, body: bytes.NewReader(resp.Body())}
}

func (r *restyResponseAdapter) StatusCode() int     { return r.resp.StatusCode() }
func (r *restyResponseAdapter) Status() string      { return r.resp.Status() }
func (r *restyResponseAdapter) Header() http.Header { return r.resp.Header() }
func (r *restyResponseAdapter) Body() io.Reader     { return r.body }
