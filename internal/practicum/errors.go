package practicum

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	ErrNetwork   = errors.New("status api unreachable")
	ErrTransport = errors.New("status api returned non-200")
)

// NetworkError reports a connection-level failure (DNS, dial, TLS, timeout).
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("status api %s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error        { return e.Err }
func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// TransportError reports an HTTP reply other than 200 OK.
type TransportError struct {
	Endpoint   string
	StatusCode int
	// Body is a short excerpt of the reply for the log.
	Body string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("status api %s: HTTP %d", e.Endpoint, e.StatusCode)
}

func (e *TransportError) Is(target error) bool { return target == ErrTransport }
