package safesim

import (
	"encoding/json"
	"fmt"
)

// SimulationResult mirrors the backend's reply to a start-simulation call.
type SimulationResult struct {
	Message string          `json:"message"`
	Status  string          `json:"status"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// ConfigResult mirrors the backend's reply to a save-config call.
type ConfigResult struct {
	Status string `json:"status"`
}

// DecodeSimulation interprets a StartSimulation response.
func DecodeSimulation(resp RemoteResponse) (SimulationResult, error) {
	var out SimulationResult
	if err := resp.Decode(&out); err != nil {
		return SimulationResult{}, fmt.Errorf("decode simulation response: %w", err)
	}
	return out, nil
}

// DecodeConfigResult interprets a SaveConfig response.
func DecodeConfigResult(resp RemoteResponse) (ConfigResult, error) {
	var out ConfigResult
	if err := resp.Decode(&out); err != nil {
		return ConfigResult{}, fmt.Errorf("decode config response: %w", err)
	}
	return out, nil
}

// DecodeLogs splits a FetchLogs response of the form {"logs": [...]} into its
// entries. A missing or null "logs" key yields no entries.
func DecodeLogs(resp RemoteResponse) ([]json.RawMessage, error) {
	var body struct {
		Logs []json.RawMessage `json:"logs"`
	}
	if err := resp.Decode(&body); err != nil {
		return nil, fmt.Errorf("decode logs response: %w", err)
	}
	return body.Logs, nil
}
