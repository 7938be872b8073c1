package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and services translate them into domain errors.
//
//   - ErrNotFound: row does not exist in the store
//   - ErrConflict: unique constraint or duplicate write
//   - ErrInvalidState: row is in a state that forbids the requested write
//     (for example a permohonan that is already approved or rejected)
//   - ErrUnavailable: backing store or broker temporarily unreachable
//   - ErrExpired: session or token past its expiry
//
// For validation errors use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrExpired      = errors.New("expired")
)
