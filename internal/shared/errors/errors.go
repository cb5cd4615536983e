package errors

import "errors"

// Domain errors
var (
	// Target errors
	ErrEmptyTarget  = errors.New("target cannot be empty")
	ErrInvalidHost  = errors.New("invalid host")
	ErrInvalidInput = errors.New("invalid input")

	// Cache errors
	ErrCacheMiss      = errors.New("cache miss")
	ErrCacheOperation = errors.New("cache operation failed")

	// Serialization errors
	ErrSerializationFailed   = errors.New("serialization failed")
	ErrDeserializationFailed = errors.New("deserialization failed")

	// Job errors
	ErrJobNotFound = errors.New("job not found")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrMissingRequired = errors.New("missing required field")
)
