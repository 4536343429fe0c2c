package httpclient

import (
	"errors"
	"fmt"
)

// Use opens the session, runs fn and always closes the session afterwards,
// including when fn fails or panics. The client may be used again later; a new
// session is created on demand.
func (c *RetryingClient) Use(fn func(*RetryingClient) error) (err error) {
	if fn == nil {
		return NewValidationError("callback is required", "fn")
	}
	c.Open()
	defer func() {
		if cerr := c.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close http session: %w", cerr))
		}
	}()
	return fn(c)
}

// WithClient builds a client for one-shot use, hands it to fn and guarantees
// the session is released when fn returns.
func WithClient(cfg Config, fn func(*RetryingClient) error, opts ...Option) error {
	c, err := New(cfg, opts...)
	if err != nil {
		return err
	}
	return c.Use(fn)
}
