package httpclient

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"syscall"
	"time"
)

// maxBackoffShift keeps base<<attempt from overflowing time.Duration.
const maxBackoffShift = 30

// statusSet is the set of response codes that trigger another attempt.
type statusSet map[int]struct{}

var defaultRetryStatuses = func() statusSet {
	s := make(statusSet, 100)
	for code := 500; code < 600; code++ {
		s[code] = struct{}{}
	}
	return s
}()

// retryStatuses returns the caller's set when given, replacing the 5xx default.
func retryStatuses(codes []int) statusSet {
	if len(codes) == 0 {
		return defaultRetryStatuses
	}
	s := make(statusSet, len(codes))
	for _, code := range codes {
		s[code] = struct{}{}
	}
	return s
}

func (s statusSet) has(code int) bool {
	_, ok := s[code]
	return ok
}

// backoffDelay returns base * 2^attempt. No jitter is applied.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > maxBackoffShift {
		attempt = maxBackoffShift
	}
	return base << attempt
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isConnectionError reports whether err is a connector failure or a server
// disconnect. Timeouts and cancellations are not connection errors.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if isTimeout(err) {
		return false
	}

	switch {
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.EPIPE):
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	return false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
