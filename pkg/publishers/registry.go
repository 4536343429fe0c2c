package publishers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Builder creates a Publisher from a config entry.
type Builder func(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error)

// Registry maps publisher types to builders.
type Registry interface {
	Register(typ string, builder Builder)
	PublisherFor(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error)
}

type builderRegistry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns a registry with optional pre-registered builders.
func NewRegistry(builders map[string]Builder) Registry {
	r := &builderRegistry{builders: make(map[string]Builder, len(builders))}
	for typ, b := range builders {
		r.Register(typ, b)
	}
	return r
}

// DefaultRegistry knows every built-in sink type.
func DefaultRegistry() Registry {
	return NewRegistry(map[string]Builder{
		TypeHTTP:   newHTTPPublisher,
		TypeSQS:    newSQSPublisher,
		TypeSNS:    newSNSPublisher,
		TypePubSub: newPubSubPublisher,
	})
}

func normalizeType(typ string) string {
	return strings.ToLower(strings.TrimSpace(typ))
}

// Register associates builder with typ. Empty types and nil builders are ignored.
func (r *builderRegistry) Register(typ string, builder Builder) {
	key := normalizeType(typ)
	if key == "" || builder == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[key] = builder
}

// PublisherFor builds the publisher for cfg.
func (r *builderRegistry) PublisherFor(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	key := normalizeType(cfg.Type)
	if key == "" {
		return nil, fmt.Errorf("publisher %q has no type configured", cfg.ID)
	}

	r.mu.RLock()
	build, ok := r.builders[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no publisher registered for type %q", cfg.Type)
	}
	return build(ctx, cfg, ensureLogger(log))
}

// BuildAll instantiates publishers for cfgs. On failure the publishers built
// so far are closed.
func BuildAll(ctx context.Context, reg Registry, cfgs []PublisherConfig, log Logger) ([]Publisher, error) {
	if reg == nil || len(cfgs) == 0 {
		return nil, nil
	}

	pubs := make([]Publisher, 0, len(cfgs))
	for _, cfg := range cfgs {
		pub, err := reg.PublisherFor(ctx, cfg, log)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("build publisher %q: %w", cfg.ID, err), NewFanout(pubs).Close())
		}
		pubs = append(pubs, pub)
	}
	return pubs, nil
}
