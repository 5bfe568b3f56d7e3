package domain

import (
	"net/http"
	"time"
)

// Domain contains core models shared by the runner, storage and publishers.

// Snapshot is the recorded outcome of one successful request.
type Snapshot struct {
	RequestID  string      `json:"request_id"`
	Method     string      `json:"method"`
	URL        string      `json:"url"`
	StatusCode int         `json:"status_code"`
	Header     http.Header `json:"header,omitempty"`
	Body       string      `json:"body"`
	FetchedAt  time.Time   `json:"fetched_at"`
}

// PageMeta holds metadata extracted from an HTML response.
type PageMeta struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// Change summarizes how a body differs from the previous snapshot.
type Change struct {
	HasPrevious bool `json:"has_previous"`
	Changed     bool `json:"changed"`
	Inserted    int  `json:"inserted"`
	Deleted     int  `json:"deleted"`
	Distance    int  `json:"distance"`
}
