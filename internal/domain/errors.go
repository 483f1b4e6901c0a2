package domain

import "errors"

var (
	// ErrConfiguration marks missing or invalid user input, such as a
	// missing docs directory.
	ErrConfiguration = errors.New("configuration error")

	// ErrProvider marks a failed embedding call.
	ErrProvider = errors.New("embedding provider error")

	// ErrMalformedIndex marks an index store that failed validation on load.
	ErrMalformedIndex = errors.New("malformed index")
)
