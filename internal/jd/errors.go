package jd

import (
	"fmt"
)

// ConnectionError reports an authentication or device-resolution failure,
// or a call that required a connection that could not be established.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("myjd connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// OperationError reports a remote call that failed after the single
// recovery attempt, or failed with a non-token error.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("myjd operation %s failed: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// ValidationError reports a malformed request. It is always recoverable
// and never escalates past the HTTP layer.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
