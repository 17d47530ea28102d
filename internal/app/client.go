package app

import (
	"fmt"

	"github.com/safesim/safesim-client/internal/config"
	"github.com/safesim/safesim-client/pkg/httpclient"
	"github.com/safesim/safesim-client/pkg/safesim"
)

// NewRemoteClient builds the SafeSim client described by cfg.
func NewRemoteClient(cfg *config.Config) (*safesim.RemoteClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	client, err := safesim.New(cfg.BaseURL,
		safesim.WithHTTPClient(httpclient.New(cfg.RequestTimeout)),
		safesim.WithConfigPath(cfg.ConfigPath),
	)
	if err != nil {
		return nil, fmt.Errorf("build safesim client: %w", err)
	}
	return client, nil
}
