package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound = errors.New("not found")
	// ErrPartitionNotFound signals a removal against a partition that was never
	// written. Distinct from removing a non-matching entry inside an existing
	// partition, which is a silent no-op.
	ErrPartitionNotFound = errors.New("partition not found")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrBadRequest        = errors.New("bad request")
)
