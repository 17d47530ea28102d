package safesim

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnexpectedStatus is the cause recorded when the backend answers outside 2xx.
var ErrUnexpectedStatus = errors.New("unexpected response status")

const maxErrorBodyBytes = 512

// TransportError reports any failure to complete an exchange with the backend:
// the request could not be encoded or sent, or the backend answered with a
// non-success status. The underlying cause is available through errors.Unwrap.
type TransportError struct {
	Op         Operation
	Method     string
	URL        string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "safesim %s: %s %s", e.Op, e.Method, e.URL)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
		if snippet := bodySnippet(e.Body); snippet != "" {
			fmt.Fprintf(&b, ": %s", snippet)
		}
		return b.String()
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportFailure reports whether err carries a *TransportError.
func IsTransportFailure(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func bodySnippet(body []byte) string {
	if len(body) > maxErrorBodyBytes {
		body = body[:maxErrorBodyBytes]
	}
	return strings.TrimSpace(string(body))
}
