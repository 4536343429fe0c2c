// Package httpclient provides an HTTP client bound to a base URL that owns one
// pooled session and retries transient failures.
//
// Retries
//   - Connection-level errors (dial failures, refused or reset connections,
//     server disconnects) are retried.
//   - Responses whose status is in the retry set are retried. The default set
//     is 500-599; Request.RetryOnStatus replaces it.
//   - Timeouts and context cancellation are returned immediately.
//
// Backoff
//   - The wait after attempt i is BackoffBase * 2^i (1s, 2s, 4s by default).
//   - No jitter. Waits are interrupted by context cancellation.
//
// Exhaustion
//   - A retryable status on the last attempt is returned as a normal response.
//   - A connection error on the last attempt returns an error that matches
//     ErrRetriesExhausted and wraps the last cause.
//
// Session
//   - The resty session is created on first use or by Open, reused by every
//     request, and released by Close. Use and WithClient scope it.
package httpclient
