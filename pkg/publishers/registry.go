package publishers

import (
	"context"
	"fmt"
)

// Builder creates a Publisher from a validated config entry.
type Builder func(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error)

// Builders maps a publisher type to its constructor.
type Builders map[string]Builder

// DefaultBuilders knows every sink type a publishers file may name.
func DefaultBuilders() Builders {
	return Builders{
		TypeHTTP:   newHTTPPublisher,
		TypeSQS:    newSQSPublisher,
		TypeSNS:    newSNSPublisher,
		TypePubSub: newPubSubPublisher,
	}
}

// Build constructs one publisher per config and returns them as a Fanout.
// On failure the publishers already built are closed.
func (b Builders) Build(ctx context.Context, cfgs []PublisherConfig, log Logger) (*Fanout, error) {
	log = ensureLogger(log)
	pubs := make([]Publisher, 0, len(cfgs))
	for _, cfg := range cfgs {
		build, ok := b[cfg.normalized().Type]
		if !ok {
			_ = closeAll(pubs)
			return nil, fmt.Errorf("publisher %q: no builder for type %q", cfg.ID, cfg.Type)
		}
		pub, err := build(ctx, cfg, log)
		if err != nil {
			_ = closeAll(pubs)
			return nil, fmt.Errorf("publisher %q: %w", cfg.ID, err)
		}
		pubs = append(pubs, pub)
	}
	return NewFanout(pubs), nil
}
