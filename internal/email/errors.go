package email

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthRequired means no usable credential exists and the interactive
	// authorization could not be completed.
	ErrAuthRequired = errors.New("authorization required")

	// ErrNotFound means the referenced message or attachment does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDecode means attachment data was not valid base64.
	ErrDecode = errors.New("invalid attachment encoding")
)

// TransportError wraps a network or API failure of a remote call.
// It is never retried.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
