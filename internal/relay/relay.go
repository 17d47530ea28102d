package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/safesim/safesim-client/internal/domain"
	"github.com/safesim/safesim-client/internal/logger"
	"github.com/safesim/safesim-client/pkg/publishers"
	"github.com/safesim/safesim-client/pkg/safesim"
)

// Service pulls the backend's logs and forwards entries it has not relayed before.
type Service struct {
	source    LogSource
	sourceID  string
	publisher EventPublisher
	log       logger.Logger
	deduper   Deduper
}

// NewService wires a relay. sourceID identifies the backend in published events.
func NewService(source LogSource, sourceID string, pub EventPublisher, log logger.Logger, deduper Deduper) *Service {
	return &Service{
		source:    source,
		sourceID:  sourceID,
		publisher: pub,
		log:       logger.Ensure(log),
		deduper:   deduper,
	}
}

// Poll performs one fetch-and-forward pass and returns the number of entries
// delivered to at least one sink.
func (s *Service) Poll(ctx context.Context) (int, error) {
	if s == nil || s.source == nil || s.publisher == nil {
		return 0, fmt.Errorf("relay service is not initialized")
	}

	resp, err := s.source.FetchLogs(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch logs: %w", err)
	}

	raw, err := safesim.DecodeLogs(resp)
	if err != nil {
		return 0, err
	}

	entries := make([]domain.LogEntry, 0, len(raw))
	for i, r := range raw {
		entries = append(entries, domain.NewLogEntry(i, r))
	}
	fresh := s.filterNewEntries(entries)

	s.log.DebugObj("logs fetched", "relay_fetch", map[string]any{
		"source":  s.sourceID,
		"entries": len(entries),
		"fresh":   len(fresh),
	})

	return s.publishEntries(ctx, fresh)
}

func (s *Service) publishEntries(ctx context.Context, entries []domain.LogEntry) (int, error) {
	var errs []error
	published := 0

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return published, errors.Join(append(errs, ctx.Err())...)
		default:
		}

		evt := publishers.NewEvent(s.sourceID, entry)
		delivered, err := s.publisher.Publish(ctx, evt)
		if err != nil {
			errs = append(errs, fmt.Errorf("publish entry %s: %w", entry.Key, err))
		}
		if delivered == 0 {
			continue
		}

		published++
		if s.deduper != nil {
			if err := s.deduper.MarkEntry(entry.Key); err != nil {
				s.log.WarnObj("failed to mark entry as relayed", "dedupe_error", map[string]any{
					"entry_key": entry.Key,
					"error":     err.Error(),
				})
			}
		}
	}

	return published, errors.Join(errs...)
}

// filterNewEntries drops entries already relayed. Lookup failures keep the
// entry so it is not silently lost.
func (s *Service) filterNewEntries(entries []domain.LogEntry) []domain.LogEntry {
	if s.deduper == nil || len(entries) == 0 {
		return entries
	}

	out := make([]domain.LogEntry, 0, len(entries))
	for _, entry := range entries {
		seen, err := s.deduper.SeenEntry(entry.Key)
		if err != nil {
			s.log.WarnObj("dedupe lookup failed", "dedupe_error", map[string]any{
				"entry_key": entry.Key,
				"error":     err.Error(),
			})
			out = append(out, entry)
			continue
		}
		if !seen {
			out = append(out, entry)
		}
	}
	return out
}
