package service

import (
	"errors"
	"fmt"
)

// Error categories. Specific sentinels wrap one of these so callers can branch
// on either the exact failure or the class of failure with errors.Is.
var (
	// ErrConfiguration marks malformed calendar data rejected at creation
	// time (inverted or overlapping term spans). Never produced by resolve.
	ErrConfiguration = errors.New("configuration error")

	// ErrValidation marks an operation-level constraint violation surfaced
	// synchronously to the caller.
	ErrValidation = errors.New("validation error")

	// ErrState marks an illegal lifecycle transition.
	ErrState = errors.New("state error")

	// ErrConflict marks a ledger precondition violation that needs
	// user-facing resolution.
	ErrConflict = errors.New("conflict error")
)

// Specific failures.
var (
	ErrSchoolNotFound   = errors.New("school not found")
	ErrStandardNotFound = errors.New("standard not found")
	ErrTermNotFound     = errors.New("term not found")
	ErrTestNotFound     = errors.New("test not found")
	ErrSubjectNotFound  = errors.New("subject not found")
	ErrStudentNotFound  = errors.New("student not found")
	ErrReviewNotFound   = errors.New("term review not found")

	// ErrClassOccupied is returned by bind when another entity currently
	// resolves to the requested standard.
	ErrClassOccupied = fmt.Errorf("%w: standard already has a current holder", ErrConflict)

	// ErrTestFinalized guards every draft-only mutation and double finalize.
	ErrTestFinalized = fmt.Errorf("%w: test already finalized", ErrState)

	// ErrReviewFinalized guards edits to a closed term review.
	ErrReviewFinalized = fmt.Errorf("%w: term review already finalized", ErrState)

	// ErrDateOutsideTerm rejects tests dated outside the term span.
	ErrDateOutsideTerm = fmt.Errorf("%w: test date outside term span", ErrValidation)

	// ErrYearUnresolved should be unreachable: the resolver failed to
	// produce a year even after auto-creation. It indicates a resolver bug
	// or data corruption and must propagate, never be swallowed.
	ErrYearUnresolved = errors.New("invariant violation: no academic year resolved after auto-creation")
)
