package publishers

import (
	"context"
	"errors"
	"testing"

	"github.com/samvad-hq/samvad-request-manager/internal/domain"
)

type stubPublisher struct {
	id     string
	typ    string
	err    error
	calls  int
	closed bool
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(context.Context, Event) error {
	s.calls++
	return s.err
}
func (s *stubPublisher) Close() error {
	s.closed = true
	return nil
}

func TestFanoutPublishAggregatesErrors(t *testing.T) {
	fanout := NewFanout([]Publisher{
		&stubPublisher{id: "ok", typ: "http"},
		&stubPublisher{id: "bad", typ: "http", err: errors.New("failed")},
		nil,
	})

	if fanout.Size() != 2 {
		t.Fatalf("expected nil publishers to be dropped, got size %d", fanout.Size())
	}
	count, err := fanout.Publish(context.Background(), Event{})
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
}

func TestFanoutCloseClosesPublishers(t *testing.T) {
	stub := &stubPublisher{id: "s", typ: "sqs"}
	if err := NewFanout([]Publisher{stub}).Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !stub.closed {
		t.Fatalf("expected publisher to be closed")
	}
}

func TestNilFanoutIsEmpty(t *testing.T) {
	var f *Fanout
	if n, err := f.Publish(context.Background(), Event{}); n != 0 || err != nil {
		t.Fatalf("expected no-op publish, got %d %v", n, err)
	}
	if f.Size() != 0 {
		t.Fatalf("expected size 0")
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	pubs, err := BuildAll(context.Background(), DefaultBuilders(), []PublisherConfig{
		{ID: "http", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://example.com"}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(pubs) != 1 {
		t.Fatalf("expected 1 publisher, got %d", len(pubs))
	}
}

func TestBuildAllUnknownType(t *testing.T) {
	_, err := BuildAll(context.Background(), DefaultBuilders(), []PublisherConfig{
		{ID: "kafka", Type: "kafka"},
	}, nil)
	if err == nil {
		t.Fatalf("expected error for unknown publisher type")
	}
}

func TestBuildAllClosesBuiltPublishersOnFailure(t *testing.T) {
	built := &stubPublisher{id: "first", typ: "stub"}
	b := NewBuilders(map[string]Builder{
		"stub": func(context.Context, PublisherConfig, Logger) (Publisher, error) { return built, nil },
	})
	_, err := BuildAll(context.Background(), b, []PublisherConfig{
		{ID: "first", Type: "stub"},
		{ID: "second", Type: "missing"},
	}, nil)
	if err == nil {
		t.Fatalf("expected error for unregistered type")
	}
	if !built.closed {
		t.Fatalf("expected already built publisher to be closed")
	}
	if got := b.Types(); len(got) != 1 || got[0] != "stub" {
		t.Fatalf("unexpected types %v", got)
	}
}

func TestRouteMatches(t *testing.T) {
	unchanged := Event{RequestID: "a", Change: domain.Change{HasPrevious: true}}
	changed := Event{RequestID: "a", Change: domain.Change{HasPrevious: true, Changed: true}}
	first := Event{RequestID: "b"}

	cases := []struct {
		name  string
		route Route
		evt   Event
		want  bool
	}{
		{"zero route accepts all", Route{}, unchanged, true},
		{"listed request", Route{Requests: []string{"a"}}, unchanged, true},
		{"unlisted request", Route{Requests: []string{"a"}}, first, false},
		{"only changed drops unchanged", Route{OnlyChanged: true}, unchanged, false},
		{"only changed keeps changed", Route{OnlyChanged: true}, changed, true},
		{"only changed keeps first response", Route{OnlyChanged: true}, first, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.route.Matches(tc.evt); got != tc.want {
				t.Fatalf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFanoutSkipsUnmatchedRoutes(t *testing.T) {
	all := &stubPublisher{id: "all", typ: "http"}
	onlyB := &stubPublisher{id: "only-b", typ: "sqs"}
	f := &Fanout{}
	f.Add(all, Route{})
	f.Add(onlyB, Route{Requests: []string{"b"}})
	f.Add(nil, Route{})

	if f.Size() != 2 {
		t.Fatalf("expected nil publisher to be ignored, got size %d", f.Size())
	}
	n, err := f.Publish(context.Background(), Event{RequestID: "a"})
	if err != nil || n != 1 {
		t.Fatalf("expected one delivery, got %d %v", n, err)
	}
	if all.calls != 1 || onlyB.calls != 0 {
		t.Fatalf("unexpected calls all=%d only-b=%d", all.calls, onlyB.calls)
	}
}

func TestBuildFanoutAppliesRoutes(t *testing.T) {
	stub := &stubPublisher{id: "hook", typ: "stub"}
	b := NewBuilders(map[string]Builder{
		"stub": func(context.Context, PublisherConfig, Logger) (Publisher, error) { return stub, nil },
	})
	f, err := BuildFanout(context.Background(), b, []PublisherConfig{
		{ID: "hook", Type: "stub", Route: Route{OnlyChanged: true}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildFanout: %v", err)
	}
	unchanged := Event{RequestID: "a", Change: domain.Change{HasPrevious: true}}
	if n, _ := f.Publish(context.Background(), unchanged); n != 0 || stub.calls != 0 {
		t.Fatalf("expected unchanged event to be dropped, got %d deliveries", n)
	}
}
