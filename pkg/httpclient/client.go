package httpclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// Request is one outbound call. A nil Body sends no payload.
type Request struct {
	Method  string
	URL     string
	Body    []byte
	Headers map[string]string
}

// Response carries the status and raw body of a completed exchange.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode <= 299
}

// Doer executes requests. Non-2xx statuses are not errors at this layer.
type Doer interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// Resty is the resty-backed Doer.
type Resty struct {
	client *resty.Client
}

// New returns a Doer whose requests time out after timeout; zero leaves them
// bounded only by the caller's context.
func New(timeout time.Duration) *Resty {
	return &Resty{client: NewResty(timeout)}
}

// NewResty returns a bare resty client for callers that build their own
// requests (webhook publishers).
func NewResty(timeout time.Duration) *resty.Client {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return c
}

func (r *Resty) Do(ctx context.Context, req Request) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rr := r.client.R().SetContext(ctx).SetHeaders(req.Headers)
	if req.Body != nil {
		rr.SetBody(req.Body)
	}
	resp, err := rr.Execute(req.Method, req.URL)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode(), Body: resp.Body()}, nil
}
