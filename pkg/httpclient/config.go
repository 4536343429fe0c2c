package httpclient

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds a single attempt, connect through body read.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the default number of attempts, including the first.
	DefaultMaxRetries = 3

	// DefaultBackoffBase is the wait after the first failed attempt; it doubles per attempt.
	DefaultBackoffBase = 1 * time.Second
)

// Config holds the client settings. It is copied at construction and never
// mutated afterwards.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	VerifyTLS      *bool
	MaxRetries     int
	DefaultHeaders map[string]string
	BackoffBase    time.Duration
}

// VerifyTLSValue returns the TLS verification flag defaulting to true.
func (c Config) VerifyTLSValue() bool {
	if c.VerifyTLS == nil {
		return true
	}
	return *c.VerifyTLS
}

// normalize applies defaults and validates the config.
func (c Config) normalize() (Config, error) {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		return Config{}, NewValidationError("base url is required", "base_url")
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return Config{}, NewValidationError("base url must be absolute", "base_url")
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries < 1 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = DefaultBackoffBase
	}

	verify := c.VerifyTLSValue()
	c.VerifyTLS = &verify

	headers := make(map[string]string, len(c.DefaultHeaders))
	for k, v := range c.DefaultHeaders {
		headers[k] = v
	}
	c.DefaultHeaders = headers

	return c, nil
}

// Option customizes a RetryingClient.
type Option func(*RetryingClient)

// WithLogger routes attempt logging to log.
func WithLogger(log Logger) Option {
	return func(c *RetryingClient) {
		c.log = orDiscard(log)
	}
}

// WithTransport replaces the pooled transport built from the config. The TLS
// verification setting does not apply to a custom transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *RetryingClient) {
		c.transport = rt
	}
}

// ResolveURL joins base and endpoint with exactly one separating slash.
func ResolveURL(base, endpoint string) string {
	base = strings.TrimRight(base, "/")
	if strings.HasPrefix(endpoint, "/") {
		return base + endpoint
	}
	return base + "/" + endpoint
}

// MergeHeaders layers overrides on top of defaults; overrides win on collision.
func MergeHeaders(defaults, overrides map[string]string) map[string]string {
	out := make(map[string]string, len(defaults)+len(overrides))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
