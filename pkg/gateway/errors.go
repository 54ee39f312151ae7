package gateway

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed caller input. It never reaches the remote
// server and never counts toward circuit breaker failures.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AuthenticationError reports a rejected or expired credential (HTTP 401/403
// from the remote server).
type AuthenticationError struct {
	Op     string
	Status int
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("%s: authentication rejected (HTTP %d)", e.Op, e.Status)
}

// ConnectivityError reports a transport-level failure: timeout, refused
// connection, DNS. The request may never have reached the remote server.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s: connectivity failure: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// RemoteServiceError reports a non-2xx response from the remote server. Body
// is truncated to keep logs and wrapped errors bounded.
type RemoteServiceError struct {
	Op     string
	Status int
	Body   string
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("%s: remote service failure: HTTP %d: %s", e.Op, e.Status, e.Body)
}

// Countable reports whether an error should increment a circuit breaker
// failure counter. Only remote and connectivity failures count; validation
// and authentication errors are caller-side problems.
func Countable(err error) bool {
	var connErr *ConnectivityError
	var remoteErr *RemoteServiceError
	return errors.As(err, &connErr) || errors.As(err, &remoteErr)
}
