package domain

import "errors"

var (
	// ErrNotFound is returned when a provider answers with a non-success
	// status. The status code itself is not significant to callers.
	ErrNotFound = errors.New("not found")

	// ErrUpstreamUnavailable is returned when a provider cannot be reached or
	// its circuit breaker is open.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrInvalidQuery is returned for blank names, unknown unit systems and
	// out-of-range coordinates.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrGeolocationUnsupported means no location capability is configured.
	ErrGeolocationUnsupported = errors.New("geolocation is not supported")

	// ErrLocationUnavailable means the location capability exists but could
	// not (or was not allowed to) produce a position.
	ErrLocationUnavailable = errors.New("unable to retrieve location")
)
