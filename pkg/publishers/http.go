package publishers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samvad-hq/samvad-request-manager/pkg/httpclient"
	"github.com/samvad-hq/samvad-request-manager/pkg/request"
)

// webhookPublisher posts events as JSON to an HTTP endpoint.
type webhookPublisher struct {
	id      string
	method  string
	url     string
	headers map[string]string
	client  httpclient.Client
	log     Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}

	timeout := time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
	return &webhookPublisher{
		id:      cfg.ID,
		method:  cfg.HTTP.Method,
		url:     cfg.HTTP.URL,
		headers: cfg.HTTP.Headers,
		client:  httpclient.NewRestyClient(timeout),
		log:     ensureLogger(log),
	}, nil
}

func (w *webhookPublisher) ID() string   { return w.id }
func (w *webhookPublisher) Type() string { return TypeHTTP }

// Publish delivers evt with a fresh request.Manager so configured headers
// cannot leak between events.
func (w *webhookPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	m := request.NewWithClient(w.url, w.client)
	m.SetMethod(w.method)
	m.SetHeaders(w.headers)
	m.SetHeader("Content-Type", "application/json")
	if evt.ID != "" {
		m.SetHeader("X-Event-Id", evt.ID)
	}

	resp, err := m.Make(ctx, string(payload))
	if err != nil {
		return fmt.Errorf("deliver event: %w", err)
	}
	w.log.DebugObj("http publisher delivered event", "publisher_http_delivery", map[string]any{
		"publisher_id": w.id,
		"event_id":     evt.ID,
		"status_code":  resp.StatusCode(),
	})
	return nil
}
