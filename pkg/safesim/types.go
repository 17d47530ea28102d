package safesim

import "encoding/json"

// Operation names one of the three remote calls.
type Operation string

const (
	OpStartSimulation Operation = "start_simulation"
	OpFetchLogs       Operation = "fetch_logs"
	OpSaveConfig      Operation = "save_config"
)

// SimulationRequest is the body of a start-simulation call.
type SimulationRequest struct {
	Type string `json:"type"`
}

// ConfigPayload is any JSON-encodable value. Pre-encoded documents should be
// passed as json.RawMessage so they are sent as-is.
type ConfigPayload = any

// RemoteResponse is the backend's response body, untouched.
type RemoteResponse []byte

// Bytes returns the raw body.
func (r RemoteResponse) Bytes() []byte { return []byte(r) }

func (r RemoteResponse) String() string { return string(r) }

// Decode unmarshals the body as JSON into v.
func (r RemoteResponse) Decode(v any) error {
	return json.Unmarshal(r, v)
}
