package httpclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelayDoubles(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{-1, time.Second},
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{10, 1024 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, backoffDelay(time.Second, tt.attempt), "attempt %d", tt.attempt)
	}

	assert.Equal(t, backoffDelay(time.Millisecond, maxBackoffShift), backoffDelay(time.Millisecond, 90))
}

func TestRetryStatuses(t *testing.T) {
	def := retryStatuses(nil)
	assert.True(t, def.has(500))
	assert.True(t, def.has(599))
	assert.False(t, def.has(499))
	assert.False(t, def.has(600))
	assert.False(t, def.has(429))

	assert.True(t, retryStatuses([]int{}).has(503), "empty list falls back to the 5xx default")

	custom := retryStatuses([]int{429})
	assert.True(t, custom.has(429))
	assert.False(t, custom.has(500))
	assert.Len(t, custom, 1)
}

func TestIsConnectionError(t *testing.T) {
	wrap := func(err error) error {
		return &url.Error{Op: "Get", URL: "https://api.x.com", Err: err}
	}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"eof", wrap(io.EOF), true},
		{"unexpected eof", wrap(io.ErrUnexpectedEOF), true},
		{"refused", wrap(&net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}), true},
		{"reset", wrap(&net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET}), true},
		{"broken pipe", wrap(&net.OpError{Op: "write", Net: "tcp", Err: syscall.EPIPE}), true},
		{"dns", wrap(&net.OpError{Op: "dial", Net: "tcp", Err: &net.DNSError{Err: "no such host", Name: "x"}}), true},
		{"dial other", wrap(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("unreachable")}), true},
		{"certificate", wrap(&tls.CertificateVerificationError{Err: x509.UnknownAuthorityError{}}), true},
		{"dns timeout", wrap(&net.DNSError{Err: "timeout", IsTimeout: true}), false},
		{"canceled", wrap(context.Canceled), false},
		{"deadline", wrap(context.DeadlineExceeded), false},
		{"plain", errors.New("boom"), false},
		{"wrapped eof", fmt.Errorf("read body: %w", io.EOF), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isConnectionError(tt.err))
		})
	}
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))
	assert.NoError(t, sleepContext(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	err := sleepContext(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
