package domain

import "errors"

var (
	// ErrInvalidInput is returned when a search term or optimize payload is structurally invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrSourceUnavailable marks a store fetch that failed. It never leaves the store adapter.
	ErrSourceUnavailable = errors.New("store source unavailable")

	// ErrSelectionParse is returned when the selection response cannot be decoded
	ErrSelectionParse = errors.New("selection response could not be parsed")

	// ErrSelectionUnavailable is returned when the selection capability could not be reached
	ErrSelectionUnavailable = errors.New("selection service request failed")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
