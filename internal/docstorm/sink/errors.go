package sink

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConnectionError indicates a transient failure to reach the store: a
// network error, a timeout, or the store shedding load. Batches that fail
// with a ConnectionError may be retried as a whole.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("connection to %s failed: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsConnectionError reports whether any error in the chain is a
// ConnectionError.
func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

// ValidationError indicates the store permanently rejected a request
// because of its content. It is never retried.
type ValidationError struct {
	Collection string
	Message    string
}

func (e *ValidationError) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("store rejected write to %q: %s", e.Collection, e.Message)
	}
	return fmt.Sprintf("store rejected write: %s", e.Message)
}

// IsValidationError reports whether any error in the chain is a
// ValidationError.
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}
