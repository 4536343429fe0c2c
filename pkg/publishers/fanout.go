package publishers

import (
	"context"
	"errors"
	"fmt"
)

// Fanout delivers each event to every configured publisher in order. A
// failing sink does not stop delivery to the rest.
type Fanout struct {
	sinks []Publisher
}

// NewFanout drops nil entries and keeps the rest in order.
func NewFanout(pubs []Publisher) *Fanout {
	f := &Fanout{}
	for _, p := range pubs {
		if p != nil {
			f.sinks = append(f.sinks, p)
		}
	}
	return f
}

// Publish returns how many sinks accepted evt, with the failures joined.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil {
		return 0, nil
	}

	accepted := 0
	var failures []error
	for _, sink := range f.sinks {
		if err := sink.Publish(ctx, evt); err != nil {
			failures = append(failures, sinkError("publish", sink, err))
			continue
		}
		accepted++
	}
	return accepted, errors.Join(failures...)
}

// Close releases sinks that hold clients.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	var failures []error
	for _, sink := range f.sinks {
		c, ok := sink.(closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			failures = append(failures, sinkError("close", sink, err))
		}
	}
	return errors.Join(failures...)
}

// Size returns the number of sinks.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.sinks)
}

func sinkError(op string, sink Publisher, err error) error {
	return fmt.Errorf("%s %s publisher[%s]: %w", op, sink.Type(), sink.ID(), err)
}
