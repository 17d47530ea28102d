package safesim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/safesim/safesim-client/pkg/httpclient"
)

const (
	SimulatePath   = "/simulate"
	LogsPath       = "/logs"
	SaveConfigPath = "/save-config"
)

var jsonHeaders = map[string]string{"Content-Type": "application/json"}

// RemoteClient issues requests against a single SafeSim backend. The base
// address is fixed at construction; a RemoteClient is safe for concurrent use.
type RemoteClient struct {
	baseAddress string
	http        httpclient.Doer
	configPath  string
}

// Option customizes a RemoteClient at construction.
type Option func(*RemoteClient)

// WithHTTPClient replaces the default resty transport.
func WithHTTPClient(c httpclient.Doer) Option {
	return func(rc *RemoteClient) {
		if c != nil {
			rc.http = c
		}
	}
}

// WithConfigPath overrides the resource SaveConfig posts to. The Flask
// backend also serves the same handler at /configurations.
func WithConfigPath(path string) Option {
	return func(rc *RemoteClient) {
		if path = strings.TrimSpace(path); path != "" {
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}
			rc.configPath = path
		}
	}
}

// New builds a RemoteClient for baseAddress, which must be an absolute http(s) URL.
func New(baseAddress string, opts ...Option) (*RemoteClient, error) {
	base := strings.TrimRight(strings.TrimSpace(baseAddress), "/")
	if base == "" {
		return nil, errors.New("base address is empty")
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base address: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base address %q must be an absolute http(s) URL", baseAddress)
	}

	rc := &RemoteClient{
		baseAddress: base,
		configPath:  SaveConfigPath,
	}
	for _, opt := range opts {
		opt(rc)
	}
	if rc.http == nil {
		rc.http = httpclient.New(0)
	}
	return rc, nil
}

// BaseAddress returns the configured endpoint.
func (c *RemoteClient) BaseAddress() string { return c.baseAddress }

// StartSimulation posts {"type": simType} to the simulate resource.
func (c *RemoteClient) StartSimulation(ctx context.Context, simType string) (RemoteResponse, error) {
	return c.post(ctx, OpStartSimulation, SimulatePath, SimulationRequest{Type: simType})
}

// FetchLogs retrieves the backend's log records.
func (c *RemoteClient) FetchLogs(ctx context.Context) (RemoteResponse, error) {
	return c.do(ctx, OpFetchLogs, httpclient.Request{
		Method: http.MethodGet,
		URL:    c.baseAddress + LogsPath,
	})
}

// SaveConfig posts config, JSON-encoded, to the config-save resource.
func (c *RemoteClient) SaveConfig(ctx context.Context, config ConfigPayload) (RemoteResponse, error) {
	return c.post(ctx, OpSaveConfig, c.configPath, config)
}

func (c *RemoteClient) post(ctx context.Context, op Operation, path string, payload any) (RemoteResponse, error) {
	req := httpclient.Request{
		Method:  http.MethodPost,
		URL:     c.baseAddress + path,
		Headers: jsonHeaders,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &TransportError{Op: op, Method: req.Method, URL: req.URL, Err: fmt.Errorf("encode payload: %w", err)}
	}
	req.Body = body
	return c.do(ctx, op, req)
}

// do performs req and maps every failure, including a non-2xx status, to a
// TransportError. Successful bodies are returned untouched.
func (c *RemoteClient) do(ctx context.Context, op Operation, req httpclient.Request) (RemoteResponse, error) {
	fail := &TransportError{Op: op, Method: req.Method, URL: req.URL}

	resp, err := c.http.Do(ensureContext(ctx), req)
	switch {
	case err != nil:
		fail.Err = err
	case resp == nil:
		fail.Err = errors.New("empty response")
	case !resp.OK():
		fail.StatusCode, fail.Body, fail.Err = resp.StatusCode, resp.Body, ErrUnexpectedStatus
	default:
		return RemoteResponse(resp.Body), nil
	}
	return nil, fail
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
