package publishers

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samvad-hq/samvad-request-manager/internal/domain"
)

const maxEventBodyBytes = 2048

// Event represents the payload published downstream after a request completes.
type Event struct {
	ID          string            `json:"id"`
	RequestID   string            `json:"request_id"`
	Method      string            `json:"method"`
	URL         string            `json:"url"`
	StatusCode  int               `json:"status_code"`
	Headers     map[string]string `json:"headers,omitempty"`
	BodyBytes   int               `json:"body_bytes"`
	BodySnippet string            `json:"body_snippet,omitempty"`
	Meta        *domain.PageMeta  `json:"meta,omitempty"`
	Change      domain.Change     `json:"change"`
	CollectedAt time.Time         `json:"collected_at"`
}

// NewEvent constructs an Event for the given snapshot.
func NewEvent(snap domain.Snapshot, meta *domain.PageMeta, change domain.Change) Event {
	headers := make(map[string]string, len(snap.Header))
	for k := range snap.Header {
		headers[k] = snap.Header.Get(k)
	}
	snippet := truncateUTF8(snap.Body, maxEventBodyBytes)
	return Event{
		ID:          uuid.NewString(),
		RequestID:   snap.RequestID,
		Method:      snap.Method,
		URL:         snap.URL,
		StatusCode:  snap.StatusCode,
		Headers:     headers,
		BodyBytes:   len(snap.Body),
		BodySnippet: snippet,
		Meta:        meta,
		Change:      change,
		CollectedAt: time.Now().UTC(),
	}
}

// truncateUTF8 cuts s to at most n bytes without splitting a character.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
