package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, providers and clients
// return these (optionally wrapped) so services can translate them into
// domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in the store
// - ErrUnauthorized: the store or provider rejected our credentials (stale or
//   invalid session token); callers must treat this as fatal to the session
// - ErrExpired: token/session has expired
// - ErrConflict: record already exists
// - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrExpired      = errors.New("expired")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("unavailable")
)
