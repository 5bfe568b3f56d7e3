package httpclient

import (
	"fmt"
	"strings"
)

const maxSnippetBytes = 512

// StatusError is returned by RestyClient when HTTPErrors is enabled and the
// server answers with a 4xx or 5xx status.
type StatusError struct {
	Method  string
	URL     string
	Code    int
	Status  string
	Snippet string
	// Response is the full response, for callers that still want to read it.
	Response Response
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Code)
	if e.Snippet != "" {
		msg += ": " + e.Snippet
	}
	return msg
}

// StatusCode reports the HTTP status that caused the error.
func (e *StatusError) StatusCode() int { return e.Code }

func readBodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > maxSnippetBytes {
		body = body[:maxSnippetBytes]
	}
	return strings.TrimSpace(string(body))
}
