package publishers

import (
	"context"
	"errors"
	"testing"
)

type stubPublisher struct {
	id       string
	typ      string
	err      error
	closeErr error
	calls    int
	closed   bool
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(context.Context, Event) error {
	s.calls++
	return s.err
}
func (s *stubPublisher) Close() error {
	s.closed = true
	return s.closeErr
}

func TestFanoutPublishAggregatesErrors(t *testing.T) {
	ok := &stubPublisher{id: "ok", typ: "http"}
	bad := &stubPublisher{id: "bad", typ: "http", err: errors.New("failed")}
	fanout := NewFanout([]Publisher{ok, nil, bad})

	if fanout.Size() != 2 {
		t.Fatalf("expected nil publishers to be dropped, size %d", fanout.Size())
	}

	count, err := fanout.Publish(context.Background(), Event{})
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
	if ok.calls != 1 || bad.calls != 1 {
		t.Fatalf("every publisher must be attempted, got %d/%d", ok.calls, bad.calls)
	}
}

func TestFanoutCloseClosesAll(t *testing.T) {
	a := &stubPublisher{id: "a", typ: "sqs", closeErr: errors.New("close failed")}
	b := &stubPublisher{id: "b", typ: "sns"}

	if err := NewFanout([]Publisher{a, b}).Close(); err == nil {
		t.Fatalf("expected close error")
	}
	if !a.closed || !b.closed {
		t.Fatalf("expected both publishers closed")
	}

	var nilFanout *Fanout
	if err := nilFanout.Close(); err != nil {
		t.Fatalf("nil fanout Close: %v", err)
	}
	if n, err := nilFanout.Publish(context.Background(), Event{}); n != 0 || err != nil {
		t.Fatalf("nil fanout Publish: %d %v", n, err)
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	pubs, err := BuildAll(context.Background(), DefaultRegistry(), []PublisherConfig{
		{ID: "http", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://example.com/hook"}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(pubs) != 1 || pubs[0].Type() != TypeHTTP {
		t.Fatalf("expected 1 http publisher, got %#v", pubs)
	}
	_ = NewFanout(pubs).Close()
}

func TestBuildAllUnknownType(t *testing.T) {
	_, err := BuildAll(context.Background(), DefaultRegistry(), []PublisherConfig{
		{ID: "http", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://example.com/hook"}},
		{ID: "kafka", Type: "kafka"},
	}, nil)
	if err == nil {
		t.Fatalf("expected error for unregistered type")
	}
}
