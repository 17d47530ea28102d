package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/safesim/safesim-client/pkg/httpclient"
)

type httpPublisher struct {
	id      string
	method  string
	url     string
	headers map[string]string
	client  *resty.Client
	log     Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}

	hc := cfg.HTTP.normalized()

	return &httpPublisher{
		id:      cfg.ID,
		method:  hc.Method,
		url:     hc.URL,
		headers: hc.Headers,
		client:  httpclient.NewResty(time.Duration(hc.TimeoutSeconds) * time.Second),
		log:     ensureLogger(log),
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }

func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	req := h.client.R().
		SetContext(ctx).
		SetBody(evt)

	for name, value := range evt.Attributes() {
		req.SetHeader(attributeHeader(name), value)
	}
	if len(h.headers) > 0 {
		req.SetHeaders(h.headers)
	}
	req.SetHeader("Content-Type", "application/json")

	resp, err := req.Execute(h.method, h.url)
	switch {
	case err != nil:
		err = fmt.Errorf("http request: %w", err)
	case resp.IsError():
		err = fmt.Errorf("http response status %d: %s", resp.StatusCode(), readBodySnippet(resp.Body()))
	}
	if err != nil {
		logDelivery(h.log, TypeHTTP, h.id, evt, err, nil)
		return err
	}
	logDelivery(h.log, TypeHTTP, h.id, evt, nil, map[string]any{"status": resp.StatusCode()})
	return nil
}

// attributeHeader maps an event attribute to its header, e.g. entry_key to
// X-Safesim-Entry-Key.
func attributeHeader(name string) string {
	parts := strings.Split(name, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return "X-Safesim-" + strings.Join(parts, "-")
}

func readBodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
