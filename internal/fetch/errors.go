package fetch

import (
	"context"
	"errors"
	"fmt"
)

// NetworkError is a transport failure or a non-200 response.
type NetworkError struct {
	Op     string // "search" or "image"
	URL    string
	Status int // HTTP status; 0 when the request never completed
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch: %s %s: HTTP %d", e.Op, e.URL, e.Status)
	}
	return fmt.Sprintf("fetch: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError is a search response that could not be decoded.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("fetch: decode %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsCancellation reports whether err only signals that the caller's
// context was cancelled. Such errors mean the work was superseded.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}
