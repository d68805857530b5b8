package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	// ErrStateViolation marks an illegal lifecycle transition attempt. It is
	// surfaced to the caller as-is, never retried and never coerced into the
	// nearest legal state.
	ErrStateViolation = errors.New("state violation")

	// Collaborator failure classes. Timestamp-authority and delivery clients
	// wrap every failure in exactly one of these; the dispatch orchestrator
	// retries transient failures with bounded backoff and fails the
	// notification on permanent ones.
	ErrCollaboratorTransient = errors.New("transient collaborator failure")
	ErrCollaboratorPermanent = errors.New("permanent collaborator failure")
)

// TransitionError reports an attempted illegal status change.
func TransitionError(from, to Status) error {
	return fmt.Errorf("transition %s -> %s: %w", from, to, ErrStateViolation)
}
