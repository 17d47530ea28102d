package relay

import (
	"context"

	"github.com/safesim/safesim-client/pkg/publishers"
	"github.com/safesim/safesim-client/pkg/safesim"
)

// LogSource fetches the backend's current log feed.
type LogSource interface {
	FetchLogs(ctx context.Context) (safesim.RemoteResponse, error)
}

// EventPublisher publishes relayed entries downstream and reports how many
// sinks accepted the event.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper tracks entries that were already relayed.
type Deduper interface {
	SeenEntry(key string) (bool, error)
	MarkEntry(key string) error
}
