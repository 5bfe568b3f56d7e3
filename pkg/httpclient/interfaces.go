package httpclient

import (
	"context"
	"io"
	"net/http"
)

// Response is a minimal HTTP response contract.
type Response interface {
	StatusCode() int
	Status() string
	Header() http.Header
	Body() io.Reader
}

// Header is a single request header. Options carry headers as an ordered list.
type Header struct {
	Key   string
	Value string
}

// Options configures a single request.
type Options struct {
	Body    string
	Headers []Header
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Request(ctx context.Context, method, url string, opts Options) (Response, error)
}
