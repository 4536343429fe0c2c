package probe

import (
	"context"

	"github.com/Paraschamoli/Bindu/pkg/publishers"
)

// EventPublisher publishes health transitions downstream. It returns the
// number of sinks that accepted the event.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}
