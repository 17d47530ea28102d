package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Store remembers which log entries have already been relayed.
type Store interface {
	SeenEntry(key string) (bool, error)
	MarkEntry(key string) error
	Close() error
}

// Options tunes retention. Zero values fall back to a day of TTL and an
// hourly sweep.
type Options struct {
	EntryTTL        time.Duration
	CleanupInterval time.Duration
}

// NewStore opens the backend named by typ: "bbolt", or "", "none" and
// "disabled" for a store that never reports an entry as seen.
func NewStore(typ, path string, opts Options) (Store, error) {
	if opts.EntryTTL <= 0 {
		opts.EntryTTL = 24 * time.Hour
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = time.Hour
	}

	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		path = strings.TrimSpace(path)
		if path == "" {
			return nil, errors.New("bbolt storage requires a path")
		}
		s, err := openBolt(path, opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

type noopStore struct{}

func (noopStore) SeenEntry(string) (bool, error) { return false, nil }
func (noopStore) MarkEntry(string) error         { return nil }
func (noopStore) Close() error                   { return nil }
