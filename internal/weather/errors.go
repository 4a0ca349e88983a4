package weather

import (
	"errors"
	"fmt"
	"net/http"
)

// ConfigurationError means the gateway cannot run at all, e.g. the provider
// credential is missing. It is raised before any network call.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "weather: configuration error: " + e.Reason
}

// RequestError covers transport failures and non-2xx provider responses.
// Status is zero when no response was received.
type RequestError struct {
	Op     string
	Status int
	Err    error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("weather: %s: provider returned %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("weather: %s: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// NotFound reports whether the provider rejected the location as unknown.
func (e *RequestError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

// DecodeError means the provider answered with a body of an unexpected shape.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("weather: %s: decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

var (
	// ErrNoTarget is returned when neither a city nor coordinates could be resolved.
	ErrNoTarget = errors.New("weather: no city or coordinates to fetch")
	// ErrInvalidCoordinates is returned for latitude/longitude outside valid ranges.
	ErrInvalidCoordinates = errors.New("weather: invalid coordinates")
)

// Kind classifies err for presentation: "configuration", "request", "not_found",
// "decode", "invalid_input" or "internal".
func Kind(err error) string {
	var (
		cfgErr *ConfigurationError
		reqErr *RequestError
		decErr *DecodeError
	)
	switch {
	case errors.Is(err, ErrNoTarget), errors.Is(err, ErrInvalidCoordinates):
		return "invalid_input"
	case errors.As(err, &cfgErr):
		return "configuration"
	case errors.As(err, &reqErr):
		if reqErr.NotFound() {
			return "not_found"
		}
		return "request"
	case errors.As(err, &decErr):
		return "decode"
	default:
		return "internal"
	}
}
