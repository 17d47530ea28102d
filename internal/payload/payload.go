package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a configuration document from path, or from stdin when path is
// "-". JSON documents are returned as json.RawMessage and sent byte-for-byte;
// YAML documents are decoded into plain maps and slices.
func Load(path string, stdin io.Reader) (any, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw, filepath.Ext(path))
}

// Parse decodes raw by extension; without a known extension JSON is tried
// first, then YAML.
func Parse(raw []byte, ext string) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("config document is empty")
	}

	switch strings.ToLower(ext) {
	case ".json":
		return parseJSON(raw)
	case ".yaml", ".yml":
		return parseYAML(raw)
	}

	if v, err := parseJSON(raw); err == nil {
		return v, nil
	}
	v, err := parseYAML(raw)
	if err != nil {
		return nil, errors.New("config format not recognized (expected YAML or JSON)")
	}
	return v, nil
}

func parseJSON(raw []byte) (any, error) {
	if !json.Valid(raw) {
		return nil, errors.New("decode json config: invalid document")
	}
	return json.RawMessage(raw), nil
}

func parseYAML(raw []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode yaml config: %w", err)
	}
	return stringKeys(v), nil
}

// stringKeys rewrites maps with non-string keys (`1: a`, `true: b`) into
// map[string]any so the document stays JSON-encodable.
func stringKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = stringKeys(item)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = stringKeys(item)
		}
		return out
	case []any:
		for i, item := range t {
			t[i] = stringKeys(item)
		}
		return t
	default:
		return v
	}
}
