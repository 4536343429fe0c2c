package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Paraschamoli/Bindu/internal/domain"
	"github.com/Paraschamoli/Bindu/internal/logger"
	"github.com/Paraschamoli/Bindu/internal/storage"
	"github.com/Paraschamoli/Bindu/pkg/httpclient"
	"github.com/Paraschamoli/Bindu/pkg/publishers"
	"github.com/Paraschamoli/Bindu/pkg/targets"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// Service probes targets through one shared client and reports health
// transitions.
type Service struct {
	client      httpclient.Client
	publisher   EventPublisher
	store       storage.Store
	log         logger.Logger
	concurrency int
	now         func() time.Time
}

// NewService wires a prober. A nil publisher or store disables that stage.
func NewService(client httpclient.Client, pub EventPublisher, store storage.Store, log logger.Logger, concurrency int) *Service {
	if log == nil {
		log = &logger.NopLogger{}
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Service{
		client:      client,
		publisher:   pub,
		store:       store,
		log:         log,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Run probes every target once, at most concurrency at a time, and returns
// the results in target order. Failed probes are results, not errors; the
// returned error joins store and publish failures.
func (s *Service) Run(ctx context.Context, list []targets.Target) ([]domain.CheckResult, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("probe service is not initialized")
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("no targets configured for probing")
	}

	results := make([]domain.CheckResult, len(list))
	errs := make([]error, len(list))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, t := range list {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = s.Check(ctx, t)
			errs[i] = s.record(ctx, results[i])
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, errors.Join(errs...)
}

// Check probes a single target.
func (s *Service) Check(ctx context.Context, t targets.Target) domain.CheckResult {
	result := domain.CheckResult{
		TargetID:   t.ID,
		TargetName: t.DisplayName(),
		Method:     t.Method,
		Endpoint:   t.Endpoint,
		CheckedAt:  s.now().UTC(),
	}

	start := time.Now()
	resp, err := s.client.Do(ctx, t.Method, t.Endpoint, t.Request())
	if err != nil {
		result.ElapsedMs = time.Since(start).Milliseconds()
		result.Error = err.Error()
		result.Attempts = 1
		var exhausted interface{ Attempts() int }
		if errors.As(err, &exhausted) {
			result.Attempts = exhausted.Attempts()
		}
		s.log.WarnObj("probe failed", "probe_error", map[string]any{
			"target_id": t.ID,
			"attempts":  result.Attempts,
			"error":     err.Error(),
		})
		return result
	}

	result.StatusCode = resp.StatusCode()
	result.Attempts = resp.Attempts()
	result.ElapsedMs = resp.Elapsed().Milliseconds()
	result.Healthy = resp.StatusCode() == t.ExpectStatus
	if !result.Healthy {
		result.Error = fmt.Sprintf("expected status %d, got %d: %s", t.ExpectStatus, resp.StatusCode(), snippet(resp.Body()))
	}

	if resp.StatusCode() == http.StatusOK && isHTML(resp.Header()) {
		title, err := extractTitle(resp.Body())
		if err != nil {
			s.log.DebugObj("probe title extraction failed", "probe_title_error", map[string]any{
				"target_id": t.ID,
				"error":     err.Error(),
			})
		}
		result.Title = title
	}

	s.log.DebugObj("probe completed", "probe_result", result)
	return result
}

// record publishes an event when the health flag changed since the stored
// result, or when the target has no stored result, then saves result.
func (s *Service) record(ctx context.Context, result domain.CheckResult) error {
	firstSeen := true
	changed := true
	if s.store != nil {
		prev, found, err := s.store.Last(result.TargetID)
		if err != nil {
			s.log.WarnObj("probe state lookup failed", "probe_store_error", map[string]any{
				"target_id": result.TargetID,
				"error":     err.Error(),
			})
		} else if found {
			firstSeen = false
			changed = prev.Healthy != result.Healthy
		}
	}

	var errs []error
	if changed && s.publisher != nil {
		evt := publishers.NewEvent(result, firstSeen)
		delivered, err := s.publisher.Publish(ctx, evt)
		if err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", result.TargetID, err))
		}
		s.log.InfoObj("health transition published", "probe_transition", map[string]any{
			"target_id":  result.TargetID,
			"status":     evt.Status,
			"first_seen": firstSeen,
			"delivered":  delivered,
		})
	}

	if s.store != nil {
		if err := s.store.Save(result); err != nil {
			errs = append(errs, fmt.Errorf("save %s: %w", result.TargetID, err))
		}
	}
	return errors.Join(errs...)
}
