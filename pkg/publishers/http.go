package publishers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Paraschamoli/Bindu/pkg/httpclient"
)

// httpPublisher delivers events as JSON through the retrying client, so 5xx
// replies and dropped connections are retried with backoff.
type httpPublisher struct {
	id       string
	method   string
	endpoint string
	client   *httpclient.RetryingClient
	log      Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	c := sanitizePublisherConfig(cfg).HTTP

	base, endpoint, err := splitURL(c.URL)
	if err != nil {
		return nil, fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}

	log = ensureLogger(log)
	client, err := httpclient.New(httpclient.Config{
		BaseURL:        base,
		Timeout:        time.Duration(c.TimeoutSeconds) * time.Second,
		VerifyTLS:      c.VerifyTLS,
		MaxRetries:     c.MaxRetries,
		DefaultHeaders: c.Headers,
		BackoffBase:    time.Duration(c.BackoffBaseMs) * time.Millisecond,
	}, httpclient.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}

	return &httpPublisher{
		id:       cfg.ID,
		method:   c.Method,
		endpoint: endpoint,
		client:   client,
		log:      log,
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }

func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	resp, err := h.client.Do(ctx, h.method, h.endpoint, &httpclient.Request{JSON: evt})
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	if resp.StatusCode() >= 400 {
		return fmt.Errorf("http response status %d after %d attempts: %s", resp.StatusCode(), resp.Attempts(), readBodySnippet(resp.Body()))
	}
	h.log.DebugObj("http publisher delivered event", "publisher_http_delivery", map[string]any{
		"publisher_id": h.id,
		"target_id":    evt.TargetID,
		"status":       resp.StatusCode(),
		"attempts":     resp.Attempts(),
	})
	return nil
}

// Close releases the client session.
func (h *httpPublisher) Close() error {
	return h.client.Close()
}

// splitURL separates an absolute URL into the client base and the request URI.
func splitURL(raw string) (string, string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", "", fmt.Errorf("url %q must be absolute", raw)
	}
	return u.Scheme + "://" + u.Host, u.RequestURI(), nil
}

func readBodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
