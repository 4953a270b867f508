package domain

import (
	"errors"
	"fmt"
)

// ErrValidation is an error thrown when input is malformed or missing
var ErrValidation = errors.New("validation error")

// ErrNotFound is the parent of every not found error
var ErrNotFound = errors.New("not found")

// ErrSessionNotFound is an error thrown when session is unknown or expired
var ErrSessionNotFound = fmt.Errorf("%w: session", ErrNotFound)

// ErrPartNotFound is an error thrown when a part index is outside the session plan
var ErrPartNotFound = fmt.Errorf("%w: part", ErrNotFound)

// ErrInvalidPartIndex is an error thrown when a requested part index is outside the session plan
var ErrInvalidPartIndex = fmt.Errorf("%w: part index out of range", ErrValidation)

// ErrStrategyMismatch is an error thrown when an operation does not match the session storage strategy
var ErrStrategyMismatch = errors.New("storage strategy mismatch")

// ErrSessionClosed is an error thrown when a committed or aborted session is mutated
var ErrSessionClosed = errors.New("session closed")

// ErrInvalidTransition is an error thrown when a status transition is not allowed
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrConcurrentUpdate is an error thrown when a session kept changing under an update
var ErrConcurrentUpdate = errors.New("concurrent session update")

// ErrPartsInvalid is an error thrown when commit finds missing or mismatched parts
var ErrPartsInvalid = errors.New("parts invalid")

// ErrUpstream is an error thrown when the object store or the session store fails
var ErrUpstream = errors.New("upstream error")

// PartsInvalidError lists the part indices that prevent a commit
type PartsInvalidError struct {
	Missing    []int
	Mismatched []int
}

func (e *PartsInvalidError) Error() string {
	return fmt.Sprintf("%s: missing=%v mismatched=%v", ErrPartsInvalid, e.Missing, e.Mismatched)
}

func (e *PartsInvalidError) Is(target error) bool {
	return target == ErrPartsInvalid
}

// UpstreamError preserves the failing collaborator call and its cause
type UpstreamError struct {
	Op  string
	Err error
}

// Upstream wraps err as an UpstreamError, nil stays nil
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Op: op, Err: err}
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrUpstream, e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}
