package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Paraschamoli/Bindu/internal/config"
	"github.com/Paraschamoli/Bindu/internal/domain"
	"github.com/Paraschamoli/Bindu/internal/logger"
	"github.com/Paraschamoli/Bindu/internal/probe"
	"github.com/Paraschamoli/Bindu/internal/storage"
	"github.com/Paraschamoli/Bindu/pkg/httpclient"
	"github.com/Paraschamoli/Bindu/pkg/publishers"
	"github.com/Paraschamoli/Bindu/pkg/targets"
)

// Prober is the probe runtime. It owns the shared HTTP client, the state
// store and the publishers, and runs probe passes on an interval.
type Prober struct {
	cfg      *config.Config
	registry *targets.Registry
	client   *httpclient.RetryingClient
	fanout   *publishers.Fanout
	store    storage.Store
	service  *probe.Service
	interval time.Duration
	log      logger.Logger
}

// NewProber builds a prober runtime from config files.
func NewProber(ctx context.Context, cfg *config.Config, log logger.Logger) (*Prober, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	registry, err := targets.LoadRegistry(cfg.TargetsFile)
	if err != nil {
		return nil, fmt.Errorf("load targets registry: %w", err)
	}
	ids := make([]string, 0, len(registry.All()))
	for _, t := range registry.All() {
		ids = append(ids, t.ID)
	}
	log.InfoObj("targets registry loaded", "targets_meta", map[string]any{
		"count":   len(ids),
		"enabled": len(registry.Enabled()),
		"ids":     ids,
	})

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	client, err := httpclient.New(cfg.HTTPClientConfig(), httpclient.WithLogger(log))
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init http client: %w", err)
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		ResultTTL:       cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"result_ttl_seconds":       int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	return &Prober{
		cfg:      cfg,
		registry: registry,
		client:   client,
		fanout:   fanout,
		store:    store,
		service:  probe.NewService(client, fanout, store, log, cfg.ProbeConcurrency),
		interval: cfg.ProbeInterval,
		log:      log,
	}, nil
}

func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	if strings.TrimSpace(cfg.PublishersFile) == "" {
		log.WarnObj("no publishers file configured; transitions are only logged", "publishers_file", "")
		return publishers.NewFanout(nil), nil
	}

	reg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := reg.Enabled()
	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, c := range enabled {
		summaries = append(summaries, map[string]string{"id": c.ID, "type": c.Type})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubs), nil
}

// Run probes all enabled targets, then repeats every interval until ctx is
// cancelled. With a zero interval it runs a single pass and returns its error.
// The client session is opened for the duration of Run and released after.
func (p *Prober) Run(ctx context.Context) error {
	if p == nil || p.service == nil {
		return fmt.Errorf("prober is not initialized")
	}
	defer p.close()

	list := p.registry.Enabled()
	if len(list) == 0 {
		return fmt.Errorf("no enabled targets in %s", p.cfg.TargetsFile)
	}

	return p.client.Use(func(*httpclient.RetryingClient) error {
		return p.loop(ctx, list)
	})
}

func (p *Prober) loop(ctx context.Context, list []targets.Target) error {
	p.log.InfoObj("probe loop starting", "probe_state", map[string]any{
		"targets_count":    len(list),
		"publishers_count": p.fanout.Size(),
		"interval":         p.interval.String(),
		"base_url":         p.client.Config().BaseURL,
	})

	err := p.runOnce(ctx, list)
	if p.interval <= 0 {
		return err
	}
	if err != nil {
		p.log.ErrorObj("initial probe pass failed", "error", err.Error())
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.InfoObj("probe loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := p.runOnce(ctx, list); err != nil {
				p.log.ErrorObj("scheduled probe pass failed", "error", err.Error())
			}
		}
	}
}

func (p *Prober) runOnce(ctx context.Context, list []targets.Target) error {
	start := time.Now()
	results, err := p.service.Run(ctx, list)
	p.log.InfoObj("probe pass completed", "probe_pass", summarize(results, time.Since(start)))
	return err
}

func summarize(results []domain.CheckResult, elapsed time.Duration) map[string]any {
	healthy, unhealthy := 0, 0
	var down []string
	for _, r := range results {
		if r.TargetID == "" {
			continue
		}
		if r.Healthy {
			healthy++
			continue
		}
		unhealthy++
		down = append(down, r.TargetID)
	}
	return map[string]any{
		"healthy":    healthy,
		"unhealthy":  unhealthy,
		"down":       down,
		"elapsed_ms": elapsed.Milliseconds(),
	}
}

func (p *Prober) close() {
	if err := errors.Join(p.fanout.Close(), p.store.Close()); err != nil {
		p.log.ErrorObj("prober shutdown failed", "error", err.Error())
	}
}
