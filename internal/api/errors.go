package api

import "fmt"

// RemoteError is a non-2xx response from the detection service. The
// server-provided message is kept when the body carried one.
type RemoteError struct {
	StatusCode int
	Message    string
}

// Error formats the remote failure with its HTTP status code.
func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// TransportError wraps a network-level failure reaching the service.
type TransportError struct {
	Op  string
	Err error
}

// Error formats the transport failure with the attempted operation.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *TransportError) Unwrap() error {
	return e.Err
}
