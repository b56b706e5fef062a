package config

import (
	"errors"
	"strings"
)

// Sentinel errors returned by Validate for out-of-range values.
var (
	// ErrInvalidPageSize is returned when the page size is not positive.
	ErrInvalidPageSize = errors.New("invalid page size: must be positive")

	// ErrInvalidConcurrency is returned when the download concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidCommitBatchSize is returned when the upload sub-batch size is not positive.
	ErrInvalidCommitBatchSize = errors.New("invalid upload batch size: must be positive")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid request timeout: must be positive")

	// ErrInvalidRetries is returned when fewer than one attempt is configured.
	ErrInvalidRetries = errors.New("invalid max retries: must be at least 1")

	// ErrInvalidPause is returned when a pause or retry delay is negative.
	ErrInvalidPause = errors.New("invalid pause: must not be negative")

	// ErrInvalidBodySize is returned when the body size limit is negative.
	ErrInvalidBodySize = errors.New("invalid max body size: must not be negative")

	// ErrInvalidCredentials is returned when the credentials are not a
	// service-account style JSON document.
	ErrInvalidCredentials = errors.New("invalid GCS credentials: expected a JSON key with a type field")
)

// MissingKeysError lists every required setting that has no value.
// Keys are reported by their environment variable names.
type MissingKeysError struct {
	Keys []string
}

func (e *MissingKeysError) Error() string {
	return "missing required configuration: " + strings.Join(e.Keys, ", ")
}
