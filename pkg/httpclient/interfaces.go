package httpclient

import (
	"context"
	"net/http"
	"time"
)

// Response is a fully materialized HTTP response. The body has been read and the
// connection released by the time a Response is handed to the caller.
type Response interface {
	Body() []byte
	StatusCode() int
	Header() http.Header
	// Attempts is the number of attempts the request needed, including the first.
	Attempts() int
	// Elapsed covers every attempt and backoff wait.
	Elapsed() time.Duration
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Do(ctx context.Context, method, endpoint string, req *Request) (Response, error)
	Get(ctx context.Context, endpoint string, req *Request) (Response, error)
	Post(ctx context.Context, endpoint string, req *Request) (Response, error)
	Put(ctx context.Context, endpoint string, req *Request) (Response, error)
	Delete(ctx context.Context, endpoint string, req *Request) (Response, error)
	Patch(ctx context.Context, endpoint string, req *Request) (Response, error)
}
