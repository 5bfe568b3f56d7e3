package publishers

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentDeliveries bounds how many sinks receive one event at a time.
const maxConcurrentDeliveries = 4

// Route restricts which events a sink receives. The zero Route accepts all.
type Route struct {
	// Requests lists request definition ids; empty means every request.
	Requests []string `json:"requests" yaml:"requests"`
	// OnlyChanged drops events whose body did not change since the last snapshot.
	// First responses count as changed.
	OnlyChanged bool `json:"only_changed" yaml:"only_changed"`
}

// Matches reports whether evt should be delivered on this route.
func (r Route) Matches(evt Event) bool {
	if len(r.Requests) > 0 && !slices.Contains(r.Requests, evt.RequestID) {
		return false
	}
	if r.OnlyChanged && evt.Change.HasPrevious && !evt.Change.Changed {
		return false
	}
	return true
}

type sink struct {
	pub   Publisher
	route Route
}

// Fanout delivers response events to every sink whose route matches.
type Fanout struct {
	sinks []sink
}

// NewFanout builds a dispatcher that sends every event to each publisher.
func NewFanout(pubs []Publisher) *Fanout {
	f := &Fanout{}
	for _, p := range pubs {
		f.Add(p, Route{})
	}
	return f
}

// Add registers pub behind route. Nil publishers are ignored.
func (f *Fanout) Add(pub Publisher, route Route) {
	if pub == nil {
		return
	}
	f.sinks = append(f.sinks, sink{pub: pub, route: route})
}

// Publish delivers evt to the matching sinks concurrently and returns how many
// accepted it. Every failure is reported in the joined error.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil || len(f.sinks) == 0 {
		return 0, nil
	}

	var (
		g         errgroup.Group
		delivered atomic.Int32
		errs      = make([]error, len(f.sinks))
	)
	g.SetLimit(maxConcurrentDeliveries)
	for i, s := range f.sinks {
		if !s.route.Matches(evt) {
			continue
		}
		g.Go(func() error {
			if err := s.pub.Publish(ctx, evt); err != nil {
				errs[i] = fmt.Errorf("%s publisher[%s]: %w", s.pub.Type(), s.pub.ID(), err)
				return nil
			}
			delivered.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return int(delivered.Load()), errors.Join(errs...)
}

// Size returns the number of registered sinks.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.sinks)
}

// Close releases publishers that hold connections.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	pubs := make([]Publisher, 0, len(f.sinks))
	for _, s := range f.sinks {
		pubs = append(pubs, s.pub)
	}
	return closeAll(pubs)
}
