// Package apperr defines the error kinds shared across notely's layers.
package apperr

import "errors"

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrConfiguration = errors.New("configuration error")
	ErrUpstream      = errors.New("upstream error")
	ErrAuthRequired  = errors.New("authentication required")
	ErrQuery         = errors.New("query error")
	ErrNotFound      = errors.New("not found")

	// ErrUpstreamMalformed means the provider answered 2xx with an unusable body.
	ErrUpstreamMalformed = errors.New("malformed upstream response")
)
