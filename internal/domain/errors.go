package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking
// infrastructure details. ErrInvalidCredential covers both "no record for this
// email" and "code mismatch" — callers are never told which.
var (
	ErrNotFound          = errors.New("not found")
	ErrDeliveryFailed    = errors.New("delivery failed")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrInvalidCredential = errors.New("invalid credential")
)
