package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

type configFile struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

// ConfigRegistry holds the validated publisher entries of one file. It is
// immutable after LoadRegistry returns.
type ConfigRegistry struct {
	entries []PublisherConfig
	byID    map[string]int
}

// LoadRegistry reads and validates a publishers file. ".json" files are
// decoded as JSON; anything else as YAML, which also accepts JSON documents.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	var file configFile
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(raw, &file)
	} else {
		err = yaml.Unmarshal(raw, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("decode publishers file %s: %w", filepath.Base(path), err)
	}
	if len(file.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	return newConfigRegistry(file.Publishers)
}

func newConfigRegistry(entries []PublisherConfig) (*ConfigRegistry, error) {
	reg := &ConfigRegistry{
		entries: make([]PublisherConfig, 0, len(entries)),
		byID:    make(map[string]int, len(entries)),
	}
	for i, entry := range entries {
		cfg := entry.normalized()
		if err := validatePublisherConfig(cfg); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := reg.byID[cfg.ID]; dup {
			return nil, fmt.Errorf("publishers[%d]: duplicate publisher id %q", i, cfg.ID)
		}
		reg.byID[cfg.ID] = len(reg.entries)
		reg.entries = append(reg.entries, cfg)
	}
	return reg, nil
}

// ByID returns the publisher config by id.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}
	i, ok := r.byID[strings.TrimSpace(id)]
	if !ok {
		return PublisherConfig{}, false
	}
	return r.entries[i], true
}

// All returns every configured publisher in file order.
func (r *ConfigRegistry) All() []PublisherConfig {
	if r == nil {
		return nil
	}
	return slices.Clone(r.entries)
}

// Enabled returns the publishers not switched off in the file.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	if r == nil {
		return nil
	}
	return slices.DeleteFunc(r.All(), func(cfg PublisherConfig) bool {
		return !cfg.EnabledValue()
	})
}
