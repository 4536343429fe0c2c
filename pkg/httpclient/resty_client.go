package httpclient

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// Request carries the per-call inputs of Do. The zero value issues a bare request.
type Request struct {
	Params  url.Values
	Form    url.Values
	JSON    any
	Headers map[string]string
	// RetryOnStatus replaces the default 5xx retry set when non-empty.
	RetryOnStatus []int
}

func (r *Request) validate() error {
	if len(r.Form) > 0 && r.JSON != nil {
		return NewValidationError("form and json bodies are mutually exclusive", "body")
	}
	return nil
}

// RetryingClient issues requests against a fixed base URL over one pooled
// session, retrying transient failures with exponential backoff.
// It is safe for concurrent use; each call runs its own attempt loop.
type RetryingClient struct {
	cfg       Config
	log       Logger
	transport http.RoundTripper
	sleep     func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	session *resty.Client
}

var _ Client = (*RetryingClient)(nil)

// New creates a client from cfg. No connection is opened until the first
// request or an explicit Open.
func New(cfg Config, opts ...Option) (*RetryingClient, error) {
	normalized, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	c := &RetryingClient{
		cfg:   normalized,
		log:   discard{},
		sleep: sleepContext,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	c.log.DebugObj("http client initialized", "http_client", map[string]any{
		"base_url":    c.cfg.BaseURL,
		"timeout":     c.cfg.Timeout.String(),
		"verify_tls":  c.cfg.VerifyTLSValue(),
		"max_retries": c.cfg.MaxRetries,
	})
	return c, nil
}

// Config returns a copy of the normalized configuration.
func (c *RetryingClient) Config() Config {
	cfg := c.cfg
	cfg.DefaultHeaders = MergeHeaders(c.cfg.DefaultHeaders, nil)
	return cfg
}

// Open creates the session if none is live.
func (c *RetryingClient) Open() {
	c.Session()
}

// Session exposes the live resty session, creating it when absent, for callers
// needing custom verbs. Requests issued on it directly bypass the retry loop.
func (c *RetryingClient) Session() *resty.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		c.session = c.newSession()
		c.log.DebugObj("http session opened", "base_url", c.cfg.BaseURL)
	}
	return c.session
}

// Close releases the pooled connections. The next request opens a new session.
func (c *RetryingClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil
	}
	c.session.GetClient().CloseIdleConnections()
	c.session = nil
	c.log.DebugObj("http session closed", "base_url", c.cfg.BaseURL)
	return nil
}

func (c *RetryingClient) newSession() *resty.Client {
	transport := c.transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: !c.cfg.VerifyTLSValue()} //nolint:gosec // opt-out is explicit config
		transport = t
	}

	hc := &http.Client{
		Transport: transport,
		Timeout:   c.cfg.Timeout,
	}
	return resty.NewWithClient(hc).
		SetAllowGetMethodPayload(true).
		SetDisableWarn(true)
}

// Get performs a GET request.
func (c *RetryingClient) Get(ctx context.Context, endpoint string, req *Request) (Response, error) {
	return c.Do(ctx, http.MethodGet, endpoint, req)
}

// Post performs a POST request.
func (c *RetryingClient) Post(ctx context.Context, endpoint string, req *Request) (Response, error) {
	return c.Do(ctx, http.MethodPost, endpoint, req)
}

// Put performs a PUT request.
func (c *RetryingClient) Put(ctx context.Context, endpoint string, req *Request) (Response, error) {
	return c.Do(ctx, http.MethodPut, endpoint, req)
}

// Delete performs a DELETE request.
func (c *RetryingClient) Delete(ctx context.Context, endpoint string, req *Request) (Response, error) {
	return c.Do(ctx, http.MethodDelete, endpoint, req)
}

// Patch performs a PATCH request.
func (c *RetryingClient) Patch(ctx context.Context, endpoint string, req *Request) (Response, error) {
	return c.Do(ctx, http.MethodPatch, endpoint, req)
}

// Do issues method against endpoint, retrying connection errors and statuses in
// the retry set. When the last attempt still returns a retryable status, that
// response is returned without an error. Connection errors on the last attempt
// yield an error matching ErrRetriesExhausted that also wraps the cause.
func (c *RetryingClient) Do(ctx context.Context, method, endpoint string, req *Request) (Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		req = &Request{}
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		return nil, NewValidationError("method is required", "method")
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	session := c.Session()
	target := ResolveURL(c.cfg.BaseURL, endpoint)
	headers := MergeHeaders(c.cfg.DefaultHeaders, req.Headers)
	retrySet := retryStatuses(req.RetryOnStatus)
	maxAttempts := c.cfg.MaxRetries
	start := time.Now()

	for attempt := 0; attempt < maxAttempts; attempt++ {
		final := attempt == maxAttempts-1

		resp, err := c.execute(ctx, session, method, target, headers, req)
		if err != nil {
			if !isConnectionError(err) {
				c.log.ErrorObj("http request failed", "http_error", map[string]any{
					"method":  method,
					"url":     target,
					"attempt": attempt + 1,
					"error":   err.Error(),
				})
				if isTimeout(err) && ctx.Err() == nil {
					return nil, NewTimeoutError(method+" "+target, c.cfg.Timeout, err)
				}
				return nil, NewNetworkError(method+" "+target, err)
			}
			if final {
				c.log.ErrorObj("http request failed after retries", "http_error", map[string]any{
					"method":   method,
					"url":      target,
					"attempts": maxAttempts,
					"error":    err.Error(),
				})
				return nil, NewExhaustedError(maxAttempts, err)
			}

			wait := backoffDelay(c.cfg.BackoffBase, attempt)
			c.log.WarnObj("http connection error, retrying", "http_retry", map[string]any{
				"method":       method,
				"url":          target,
				"attempt":      attempt + 1,
				"max_attempts": maxAttempts,
				"wait":         wait.String(),
				"error":        err.Error(),
			})
			if err := c.sleep(ctx, wait); err != nil {
				return nil, NewNetworkError(method+" "+target+": retry wait aborted", err)
			}
			continue
		}

		status := resp.StatusCode()
		if retrySet.has(status) {
			if !final {
				wait := backoffDelay(c.cfg.BackoffBase, attempt)
				c.log.WarnObj("http retryable status, retrying", "http_retry", map[string]any{
					"method":       method,
					"url":          target,
					"status":       status,
					"attempt":      attempt + 1,
					"max_attempts": maxAttempts,
					"wait":         wait.String(),
				})
				if err := c.sleep(ctx, wait); err != nil {
					return nil, NewNetworkError(method+" "+target+": retry wait aborted", err)
				}
				continue
			}
			c.log.WarnObj("http retries exhausted, returning last response", "http_response", map[string]any{
				"method":   method,
				"url":      target,
				"status":   status,
				"attempts": maxAttempts,
			})
		} else {
			c.log.DebugObj("http request completed", "http_response", map[string]any{
				"method":   method,
				"url":      target,
				"status":   status,
				"attempts": attempt + 1,
			})
		}

		return &restyResponseAdapter{
			resp:     resp,
			attempts: attempt + 1,
			elapsed:  time.Since(start),
		}, nil
	}

	return nil, NewExhaustedError(maxAttempts, nil)
}

// execute runs a single attempt. resty reads the whole body before returning.
func (c *RetryingClient) execute(ctx context.Context, session *resty.Client, method, target string, headers map[string]string, req *Request) (*resty.Response, error) {
	r := session.R().SetContext(ctx)
	if len(headers) > 0 {
		r.SetHeaders(headers)
	}
	if len(req.Params) > 0 {
		r.SetQueryParamsFromValues(req.Params)
	}
	if len(req.Form) > 0 {
		r.SetFormDataFromValues(req.Form)
	}
	if req.JSON != nil {
		if r.Header.Get("Content-Type") == "" {
			r.SetHeader("Content-Type", "application/json")
		}
		r.SetBody(req.JSON)
	}
	return r.Execute(method, target)
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp     *resty.Response
	attempts int
	elapsed  time.Duration
}

func (r *restyResponseAdapter) Body() []byte           { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int        { return r.resp.StatusCode() }
func (r *restyResponseAdapter) Header() http.Header    { return r.resp.Header() }
func (r *restyResponseAdapter) Attempts() int          { return r.attempts }
func (r *restyResponseAdapter) Elapsed() time.Duration { return r.elapsed }
