package publishers

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/safesim/safesim-client/internal/domain"
)

// Event represents the payload published downstream.
type Event struct {
	Source      string          `json:"source"`
	EntryIndex  int             `json:"entry_index"`
	EntryKey    string          `json:"entry_key"`
	Entry       json.RawMessage `json:"entry"`
	CollectedAt time.Time       `json:"collected_at"`
}

// NewEvent constructs an Event for a log entry read from source.
func NewEvent(source string, entry domain.LogEntry) Event {
	return Event{
		Source:      source,
		EntryIndex:  entry.Index,
		EntryKey:    entry.Key,
		Entry:       entry.Raw,
		CollectedAt: time.Now().UTC(),
	}
}

// Attributes are the routing fields every sink carries next to the body:
// message attributes on SQS/SNS/PubSub, headers on HTTP.
func (e Event) Attributes() map[string]string {
	return map[string]string{
		"source":      e.Source,
		"entry_key":   e.EntryKey,
		"entry_index": strconv.Itoa(e.EntryIndex),
	}
}
