package publishers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
)

// Fanout delivers every event to each of its sinks in order.
type Fanout struct {
	sinks []Publisher
}

// NewFanout drops nil entries from pubs.
func NewFanout(pubs []Publisher) *Fanout {
	return &Fanout{sinks: slices.DeleteFunc(slices.Clone(pubs), func(p Publisher) bool {
		return p == nil
	})}
}

// Publish reports how many sinks accepted evt. A sink failure does not stop
// delivery to the rest; all failures are joined into the returned error.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil {
		return 0, nil
	}
	delivered := 0
	var errs []error
	for _, sink := range f.sinks {
		if err := sink.Publish(ctx, evt); err != nil {
			errs = append(errs, sinkError("", sink, err))
			continue
		}
		delivered++
	}
	return delivered, errors.Join(errs...)
}

// Size is the number of sinks.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.sinks)
}

// Close releases sinks holding connections (Pub/Sub).
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	return closeAll(f.sinks)
}

func closeAll(pubs []Publisher) error {
	var errs []error
	for _, p := range pubs {
		c, ok := p.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, sinkError("close ", p, err))
		}
	}
	return errors.Join(errs...)
}

func sinkError(prefix string, p Publisher, err error) error {
	return fmt.Errorf("%s%s[%s]: %w", prefix, p.Type(), p.ID(), err)
}
