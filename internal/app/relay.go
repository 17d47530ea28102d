package app

import (
	"context"
	"fmt"
	"time"

	"github.com/safesim/safesim-client/internal/config"
	"github.com/safesim/safesim-client/internal/logger"
	"github.com/safesim/safesim-client/internal/relay"
	"github.com/safesim/safesim-client/internal/storage"
	"github.com/safesim/safesim-client/pkg/publishers"
)

// Relay is the long-running log relay. It polls the backend's logs on a fixed
// interval and forwards new entries to every enabled publisher.
type Relay struct {
	cfg          *config.Config
	fanout       *publishers.Fanout
	service      *relay.Service
	pollInterval time.Duration
	log          logger.Logger
	store        storage.Store
}

// NewRelay builds a relay runtime from config.
func NewRelay(ctx context.Context, cfg *config.Config, log logger.Logger) (*Relay, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := NewRemoteClient(cfg)
	if err != nil {
		return nil, err
	}

	sinks, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers file %s: %w", cfg.PublishersFile, err)
	}
	enabled := sinks.Enabled()
	if len(enabled) == 0 {
		return nil, fmt.Errorf("publishers file %s enables no publishers", cfg.PublishersFile)
	}

	fanout, err := publishers.DefaultBuilders().Build(ctx, enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	ids := make(map[string]string, len(enabled))
	for _, sink := range enabled {
		ids[sink.ID] = sink.Type
	}
	log.InfoObj("relay sinks ready", "relay_sinks", ids)

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		EntryTTL:        cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"entry_ttl_seconds":        int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	return &Relay{
		cfg:          cfg,
		fanout:       fanout,
		service:      relay.NewService(client, client.BaseAddress(), fanout, log, store),
		pollInterval: cfg.PollInterval,
		log:          log,
		store:        store,
	}, nil
}

// Run polls until the context is cancelled. Poll failures are logged and the
// loop carries on.
func (r *Relay) Run(ctx context.Context) error {
	if r == nil || r.service == nil {
		return fmt.Errorf("relay is not initialized")
	}
	defer r.close()

	r.log.InfoObj("relay loop starting", "relay_state", map[string]any{
		"base_url":         r.cfg.BaseURL,
		"publishers_count": r.fanout.Size(),
		"poll_interval":    r.pollInterval.String(),
	})

	if err := r.pollOnce(ctx); err != nil {
		r.log.ErrorObj("initial poll failed", "error", err.Error())
	}

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.InfoObj("relay loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := r.pollOnce(ctx); err != nil {
				r.log.ErrorObj("scheduled poll failed", "error", err.Error())
			}
		}
	}
}

func (r *Relay) pollOnce(ctx context.Context) error {
	start := time.Now()
	published, err := r.service.Poll(ctx)
	r.log.InfoObj("poll completed", "poll_meta", map[string]any{
		"published":  published,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return err
}

func (r *Relay) close() {
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			r.log.ErrorObj("storage close failed", "error", err.Error())
		}
	}
	if err := r.fanout.Close(); err != nil {
		r.log.ErrorObj("publishers close failed", "error", err.Error())
	}
}
