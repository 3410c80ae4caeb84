package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an operation targets a nonexistent order or payment slip
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when a mutation is not allowed in the record's current state
	ErrInvalidState = errors.New("invalid state")
)

// UpstreamError wraps a failure of an external collaborator (identity provider,
// document store, image host)
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func upstream(service string, err error) error {
	return &UpstreamError{Service: service, Err: err}
}

// IsUpstream reports whether err came from an external collaborator
func IsUpstream(err error) bool {
	var upstreamErr *UpstreamError
	return errors.As(err, &upstreamErr)
}
