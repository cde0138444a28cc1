package embed

import (
	"errors"
	"fmt"
)

// NetworkError is a render request that never produced a response.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a render request answered with a non-2xx status.
type HTTPError struct {
	URL        string
	StatusCode int
	// Code and Message come from the error envelope when the server sent one.
	Code    string
	Message string
}

func (e *HTTPError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("render request failed with status %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("render request failed with status %d", e.StatusCode)
}

// TrackingError wraps a failed tracking call. It is logged and never surfaced.
type TrackingError struct {
	EventType string
	Err       error
}

func (e *TrackingError) Error() string {
	return fmt.Sprintf("track %s event: %v", e.EventType, e.Err)
}

func (e *TrackingError) Unwrap() error { return e.Err }

// ErrContainerNotFound is logged when the configured container is missing.
var ErrContainerNotFound = errors.New("container not found")

// ErrInvalidConfig is logged when a required config field is missing.
var ErrInvalidConfig = errors.New("invalid widget config")
