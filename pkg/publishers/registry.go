package publishers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Builder creates a Publisher from a config entry.
type Builder func(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error)

// Builders maps publisher types to their constructors.
type Builders struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewBuilders returns a set with optional pre-registered builders.
func NewBuilders(builders map[string]Builder) *Builders {
	b := &Builders{builders: make(map[string]Builder)}
	for typ, fn := range builders {
		b.Register(typ, fn)
	}
	return b
}

// DefaultBuilders knows every sink shipped with this module.
func DefaultBuilders() *Builders {
	return NewBuilders(map[string]Builder{
		TypeHTTP:      newHTTPPublisher,
		TypeSQS:       newSQSPublisher,
		TypeSNS:       newSNSPublisher,
		TypeGCPPubSub: newGCPPubSubPublisher,
	})
}

// Register associates a builder with a publisher type. Blank types and nil
// builders are ignored.
func (b *Builders) Register(typ string, builder Builder) {
	if typ = strings.TrimSpace(strings.ToLower(typ)); typ == "" || builder == nil {
		return
	}
	b.mu.Lock()
	b.builders[typ] = builder
	b.mu.Unlock()
}

// Types lists the registered publisher types in sorted order.
func (b *Builders) Types() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.builders))
	for typ := range b.builders {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out
}

// Build returns the publisher for cfg.
func (b *Builders) Build(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("publisher %q has no type configured", cfg.ID)
	}

	b.mu.RLock()
	builder := b.builders[strings.ToLower(cfg.Type)]
	b.mu.RUnlock()

	if builder == nil {
		return nil, fmt.Errorf("no publisher registered for type %q (known: %s)", cfg.Type, strings.Join(b.Types(), ", "))
	}
	return builder(ctx, cfg, log)
}

// BuildAll instantiates a publisher per config. When one fails, the ones
// already built are closed before the error is returned.
func BuildAll(ctx context.Context, b *Builders, cfgs []PublisherConfig, log Logger) ([]Publisher, error) {
	if b == nil || len(cfgs) == 0 {
		return nil, nil
	}

	pubs := make([]Publisher, 0, len(cfgs))
	for _, cfg := range cfgs {
		pub, err := b.Build(ctx, cfg, log)
		if err != nil {
			return nil, errors.Join(err, closeAll(pubs))
		}
		pubs = append(pubs, pub)
	}
	return pubs, nil
}

// BuildFanout builds every publisher in cfgs and places each behind its route.
func BuildFanout(ctx context.Context, b *Builders, cfgs []PublisherConfig, log Logger) (*Fanout, error) {
	pubs, err := BuildAll(ctx, b, cfgs, log)
	if err != nil {
		return nil, err
	}
	f := &Fanout{}
	for i, pub := range pubs {
		f.Add(pub, cfgs[i].Route)
	}
	return f, nil
}

func closeAll(pubs []Publisher) error {
	var errs []error
	for _, p := range pubs {
		if c, ok := p.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s publisher[%s]: %w", p.Type(), p.ID(), err))
			}
		}
	}
	return errors.Join(errs...)
}
