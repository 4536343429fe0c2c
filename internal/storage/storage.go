package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/Paraschamoli/Bindu/internal/domain"
)

// Package storage keeps the last known check result per target.

// Store persists the most recent CheckResult of each target.
type Store interface {
	Close() error
	Last(targetID string) (domain.CheckResult, bool, error)
	Save(result domain.CheckResult) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

const (
	defaultResultTTL       = 7 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		store, err := openBolt(path, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.ResultTTL <= 0 {
		opts.ResultTTL = defaultResultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error { return nil }
func (noopStore) Last(string) (domain.CheckResult, bool, error) {
	return domain.CheckResult{}, false, nil
}
func (noopStore) Save(domain.CheckResult) error { return nil }
