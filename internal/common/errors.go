// Package common defines shared constants and sentinel errors used across
// the server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound   = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")

	// Service-level errors (generic/internal flow control).
	ErrorInternal       = errors.New("internal error")
	ErrStoreUnavailable = errors.New("store unavailable")

	// Boundary validation. Never produced by the auth core itself.
	ErrValidation = errors.New("validation error")

	// Credential errors. The messages are what clients see.
	ErrDuplicateCredential = errors.New("Credential taken")
	ErrInvalidCredential   = errors.New("Credential incorrect")

	// Auth errors (missing, malformed, expired or forged token).
	ErrInvalidToken = errors.New("invalid token")

	// Token failure reasons, for diagnostics only. Each is reported
	// wrapped together with ErrInvalidToken.
	ErrTokenMissing   = errors.New("token missing")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenSignature = errors.New("token signature invalid")
)
