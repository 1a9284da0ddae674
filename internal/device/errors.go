package device

import (
	"fmt"
	"net/http"
)

// TransportError means the request could not be completed at all.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError means the controller answered with a non-success status.
type ProtocolError struct {
	Op         string
	URL        string
	StatusCode int
	Body       string
}

func (e *ProtocolError) Error() string {
	msg := fmt.Sprintf("%s %s: unexpected status %d %s", e.Op, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}
