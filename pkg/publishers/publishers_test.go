package publishers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/samvad-hq/samvad-request-manager/internal/domain"
)

func TestLoadRegistryEnabledFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: http2
    type: http
    enabled: true
    http:
      url: https://example.com/2
  - id: topic
    type: SNS
    sns:
      topic_arn: arn:aws:sns:us-east-1:000000000000:responses
      region: us-east-1
      endpoint: http://localhost:4566
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 2 || enabled[0].ID != "http2" || enabled[1].ID != "topic" {
		t.Fatalf("expected http2 and topic enabled, got %#v", enabled)
	}
	topic, ok := reg.ByID("topic")
	if !ok || topic.Type != TypeSNS || topic.SNS.Region != "us-east-1" || topic.SNS.Endpoint != "http://localhost:4566" {
		t.Fatalf("unexpected sns config %#v", topic)
	}
	http2, _ := reg.ByID("http2")
	if http2.HTTP.Method != http.MethodPost || http2.HTTP.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Fatalf("expected http defaults applied, got %#v", http2.HTTP)
	}
}

func TestLoadRegistryReadsRoutes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publishers.json")
	raw := `{"publishers": [
  {"id": "hook", "type": "http", "http": {"url": "https://example.com"},
   "route": {"requests": [" status ", "", "status", "search"], "only_changed": true}}
]}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	hook, ok := reg.ByID("hook")
	if !ok {
		t.Fatalf("expected hook publisher")
	}
	if !hook.Route.OnlyChanged {
		t.Fatalf("expected only_changed route")
	}
	if got := strings.Join(hook.Route.Requests, ","); got != "status,search" {
		t.Fatalf("unexpected route requests %q", got)
	}
}

func TestLoadRegistryRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publishers.toml")
	if err := os.WriteFile(path, []byte("publishers = []"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := LoadRegistry(path); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
}

func TestValidatePublisherConfigRejectsMissingHTTP(t *testing.T) {
	err := validatePublisherConfig(PublisherConfig{
		ID:   "h1",
		Type: TypeHTTP,
	})
	if err == nil {
		t.Fatalf("expected validation error for missing http block")
	}
}

func TestValidatePublisherConfigRejectsIncompletePubSub(t *testing.T) {
	err := validatePublisherConfig(PublisherConfig{
		ID:        "ps",
		Type:      TypeGCPPubSub,
		GCPPubSub: &GCPPubSubPublisherConfig{ProjectID: "p"},
	})
	if err == nil {
		t.Fatalf("expected validation error for missing topic")
	}
}

func TestNewEventFromSnapshot(t *testing.T) {
	body := make([]byte, maxEventBodyBytes+10)
	for i := range body {
		body[i] = 'x'
	}
	snap := domain.Snapshot{
		RequestID:  "status",
		Method:     http.MethodGet,
		URL:        "https://example.com",
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"text/plain", "ignored"}},
		Body:       string(body),
		FetchedAt:  time.Now(),
	}
	evt := NewEvent(snap, nil, domain.Change{HasPrevious: true, Changed: true})

	if evt.ID == "" {
		t.Fatalf("expected event id")
	}
	if evt.BodyBytes != len(body) || len(evt.BodySnippet) != maxEventBodyBytes {
		t.Fatalf("unexpected body sizes %d/%d", evt.BodyBytes, len(evt.BodySnippet))
	}
	if evt.Headers["Content-Type"] != "text/plain" {
		t.Fatalf("unexpected headers %#v", evt.Headers)
	}
	if !evt.Change.Changed {
		t.Fatalf("expected change to be carried")
	}
}

func TestNewEventSnippetKeepsCharactersWhole(t *testing.T) {
	body := strings.Repeat("x", maxEventBodyBytes-1) + "é" + "tail"
	evt := NewEvent(domain.Snapshot{RequestID: "utf8", Body: body}, nil, domain.Change{})

	if !utf8.ValidString(evt.BodySnippet) {
		t.Fatalf("snippet is not valid utf-8")
	}
	if len(evt.BodySnippet) != maxEventBodyBytes-1 {
		t.Fatalf("expected snippet cut before the split character, got %d bytes", len(evt.BodySnippet))
	}
	if got := truncateUTF8("héllo", 2); got != "h" {
		t.Fatalf("truncateUTF8 = %q", got)
	}
	if got := truncateUTF8("short", 10); got != "short" {
		t.Fatalf("truncateUTF8 = %q", got)
	}
}
