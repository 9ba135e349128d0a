// Package common defines shared sentinel errors used across the filevault
// client layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound  = errors.New("not found")
	ErrCacheMiss = errors.New("cache miss")

	// Transport/auth errors.
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")

	// Session state errors.
	ErrBusy       = errors.New("another operation is in progress")
	ErrValidation = errors.New("validation error")

	// Blob conversion errors.
	ErrEmptyPayload = errors.New("empty payload")
)
