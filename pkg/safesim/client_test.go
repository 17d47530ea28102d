package safesim

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/safesim/safesim-client/pkg/httpclient"
)

type recordedRequest struct {
	method string
	path   string
	body   []byte
	ctype  string
}

// backend records every request and replies with a fixed body per path.
type backend struct {
	mu       sync.Mutex
	requests []recordedRequest
	replies  map[string]string
	status   int
}

func newBackend(t *testing.T, replies map[string]string) (*backend, *httptest.Server) {
	t.Helper()
	b := &backend{replies: replies, status: http.StatusOK}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.requests = append(b.requests, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			body:   raw,
			ctype:  r.Header.Get("Content-Type"),
		})
		status := b.status
		b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(b.replies[r.URL.Path]))
	}))
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *backend) only(t *testing.T) recordedRequest {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) != 1 {
		t.Fatalf("expected exactly 1 request, got %d", len(b.requests))
	}
	return b.requests[0]
}

func newTestClient(t *testing.T, base string, opts ...Option) *RemoteClient {
	t.Helper()
	c, err := New(base, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestStartSimulationPostsType(t *testing.T) {
	reply := `{"message":"Simulation evacuation started.","status":"success","result":null}`
	be, srv := newBackend(t, map[string]string{SimulatePath: reply})
	client := newTestClient(t, srv.URL)

	resp, err := client.StartSimulation(context.Background(), "evacuation")
	if err != nil {
		t.Fatalf("StartSimulation: %v", err)
	}
	if resp.String() != reply {
		t.Fatalf("response modified: %s", resp)
	}

	req := be.only(t)
	if req.method != http.MethodPost || req.path != SimulatePath {
		t.Fatalf("unexpected request %s %s", req.method, req.path)
	}
	if string(req.body) != `{"type":"evacuation"}` {
		t.Fatalf("body = %s", req.body)
	}
	if req.ctype != "application/json" {
		t.Fatalf("content-type = %q", req.ctype)
	}
}

func TestStartSimulationDoesNotValidateType(t *testing.T) {
	for _, typ := range []string{"", "fire drill", "ünïcode", `"quoted"`} {
		be, srv := newBackend(t, nil)
		client := newTestClient(t, srv.URL)
		if _, err := client.StartSimulation(context.Background(), typ); err != nil {
			t.Fatalf("StartSimulation(%q): %v", typ, err)
		}

		var got SimulationRequest
		if err := json.Unmarshal(be.only(t).body, &got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if got.Type != typ {
			t.Fatalf("type = %q, want %q", got.Type, typ)
		}
	}
}

func TestFetchLogsSendsNoBody(t *testing.T) {
	reply := `{"logs":["agent 1 moved","agent 2 exited"]}`
	be, srv := newBackend(t, map[string]string{LogsPath: reply})
	client := newTestClient(t, srv.URL+"/")

	resp, err := client.FetchLogs(context.Background())
	if err != nil {
		t.Fatalf("FetchLogs: %v", err)
	}
	if resp.String() != reply {
		t.Fatalf("response modified: %s", resp)
	}

	req := be.only(t)
	if req.method != http.MethodGet || req.path != LogsPath {
		t.Fatalf("unexpected request %s %s", req.method, req.path)
	}
	if len(req.body) != 0 {
		t.Fatalf("expected empty body, got %q", req.body)
	}
}

func TestSaveConfigSendsPayloadVerbatim(t *testing.T) {
	be, srv := newBackend(t, map[string]string{SaveConfigPath: `{"status":"success"}`})
	client := newTestClient(t, srv.URL)

	if _, err := client.SaveConfig(context.Background(), map[string]any{"maxAgents": 50}); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	req := be.only(t)
	if req.method != http.MethodPost || req.path != SaveConfigPath {
		t.Fatalf("unexpected request %s %s", req.method, req.path)
	}
	if string(req.body) != `{"maxAgents":50}` {
		t.Fatalf("body = %s", req.body)
	}
}

func TestSaveConfigPayloadDeepEquals(t *testing.T) {
	payloads := []any{
		map[string]any{"nested": map[string]any{"list": []any{1.0, "two", nil, true}}},
		[]any{"a", 2.5},
		"plain",
		nil,
	}
	for _, p := range payloads {
		be, srv := newBackend(t, nil)
		client := newTestClient(t, srv.URL)
		if _, err := client.SaveConfig(context.Background(), p); err != nil {
			t.Fatalf("SaveConfig(%v): %v", p, err)
		}

		var got any
		if err := json.Unmarshal(be.only(t).body, &got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if !reflect.DeepEqual(got, p) {
			t.Fatalf("payload = %#v, want %#v", got, p)
		}
	}
}

func TestSaveConfigRawMessagePassesThrough(t *testing.T) {
	be, srv := newBackend(t, nil)
	client := newTestClient(t, srv.URL, WithConfigPath("configurations"))

	if _, err := client.SaveConfig(context.Background(), json.RawMessage(`{"zones":[1,2]}`)); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	req := be.only(t)
	if req.path != "/configurations" {
		t.Fatalf("path = %s", req.path)
	}
	if string(req.body) != `{"zones":[1,2]}` {
		t.Fatalf("body = %s", req.body)
	}
}

func TestSaveConfigEncodeFailure(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1")
	_, err := client.SaveConfig(context.Background(), map[string]any{"bad": make(chan int)})
	if !IsTransportFailure(err) {
		t.Fatalf("expected transport failure, got %v", err)
	}
}

func TestNonSuccessStatusIsTransportFailure(t *testing.T) {
	be, srv := newBackend(t, map[string]string{
		SimulatePath:   `{"error":"boom"}`,
		LogsPath:       `{"error":"boom"}`,
		SaveConfigPath: `{"error":"boom"}`,
	})
	be.status = http.StatusInternalServerError
	client := newTestClient(t, srv.URL)

	calls := map[Operation]Call{
		OpStartSimulation: func(ctx context.Context) (RemoteResponse, error) { return client.StartSimulation(ctx, "fire") },
		OpFetchLogs:       client.FetchLogs,
		OpSaveConfig:      func(ctx context.Context) (RemoteResponse, error) { return client.SaveConfig(ctx, map[string]any{}) },
	}
	for op, call := range calls {
		resp, err := call(context.Background())
		if resp != nil {
			t.Fatalf("%s: expected no response, got %s", op, resp)
		}
		var te *TransportError
		if !errors.As(err, &te) {
			t.Fatalf("%s: expected *TransportError, got %v", op, err)
		}
		if te.Op != op || te.StatusCode != http.StatusInternalServerError {
			t.Fatalf("%s: unexpected error fields %+v", op, te)
		}
		if !errors.Is(err, ErrUnexpectedStatus) {
			t.Fatalf("%s: expected ErrUnexpectedStatus in chain", op)
		}
		if string(te.Body) != `{"error":"boom"}` {
			t.Fatalf("%s: body = %s", op, te.Body)
		}
	}
}

func TestFetchLogsUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client := newTestClient(t, base)
	resp, err := client.FetchLogs(context.Background())
	if err == nil {
		t.Fatalf("expected failure, got response %s", resp)
	}
	if resp != nil {
		t.Fatalf("expected nil response on failure")
	}
	var te *TransportError
	if !errors.As(err, &te) || te.Op != OpFetchLogs || te.StatusCode != 0 || te.Err == nil {
		t.Fatalf("unexpected error %#v", err)
	}
}

func TestTransportErrorPropagatesCause(t *testing.T) {
	cause := errors.New("dial refused")
	client := newTestClient(t, "http://safesim.test", WithHTTPClient(failingClient{err: cause}))

	_, err := client.StartSimulation(context.Background(), "flood")
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause in chain, got %v", err)
	}
}

func TestCancelledContextFails(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := newTestClient(t, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.FetchLogs(ctx)
	if !IsTransportFailure(err) {
		t.Fatalf("expected transport failure, got %v", err)
	}
}

func TestNewRejectsInvalidBase(t *testing.T) {
	for _, base := range []string{"", "   ", "safesim.onrender.com", "ftp://host", "http://"} {
		if _, err := New(base); err == nil {
			t.Fatalf("New(%q) expected error", base)
		}
	}
}

func TestNewTrimsTrailingSlash(t *testing.T) {
	client := newTestClient(t, "https://safesim.onrender.com/")
	if got := client.BaseAddress(); got != "https://safesim.onrender.com" {
		t.Fatalf("BaseAddress = %q", got)
	}
}

func TestConcurrentCallsAreIndependent(t *testing.T) {
	be, srv := newBackend(t, map[string]string{
		SimulatePath: `{"status":"success"}`,
		LogsPath:     `{"logs":[]}`,
	})
	client := newTestClient(t, srv.URL)

	const n = 20
	pending := make([]*Pending, 0, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			pending = append(pending, Go(context.Background(), client.FetchLogs))
			continue
		}
		pending = append(pending, Go(context.Background(), func(ctx context.Context) (RemoteResponse, error) {
			return client.StartSimulation(ctx, "evacuation")
		}))
	}
	for i, p := range pending {
		if _, err := p.Wait(); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}

	be.mu.Lock()
	defer be.mu.Unlock()
	if len(be.requests) != n {
		t.Fatalf("expected %d requests, got %d", n, len(be.requests))
	}
}

type failingClient struct {
	err error
}

func (f failingClient) Do(context.Context, httpclient.Request) (*httpclient.Response, error) {
	return nil, f.err
}
