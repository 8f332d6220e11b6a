// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package hierarchy

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Precondition failures. These are returned before any write happens.
var (
	ErrParentNotFound    = errors.New("parent category not found")
	ErrInactiveParent    = errors.New("parent category is not active")
	ErrUnapprovedParent  = errors.New("parent category is not approved")
	ErrMaxDepthExceeded  = errors.New("maximum category depth exceeded")
	ErrCircularHierarchy = errors.New("category cannot be moved under itself or its descendant")
	ErrNodeNotFound      = errors.New("category not found")
	ErrNodeHasDependents = errors.New("category still has products assigned")
	ErrInvalidPolicy     = errors.New("invalid delete policy")
)

// Failures while applying a structural change.
var (
	ErrNodeNotFoundForRecompute = errors.New("category to recompute not found")
	ErrStoreWriteFailure        = errors.New("category store write failed")
)

// RecomputeError reports a cascading recompute that stopped part way. Updated
// lists the descendants already written, in the order they were persisted.
// Re-running the recompute for the same root is safe.
type RecomputeError struct {
	RootID  uuid.UUID
	Updated []uuid.UUID
	Err     error
}

func (e *RecomputeError) Error() string {
	return fmt.Sprintf("recompute below %s stopped after %d updates: %v", e.RootID, len(e.Updated), e.Err)
}

func (e *RecomputeError) Unwrap() error {
	return e.Err
}

// DeleteError reports a delete that stopped after some writes. Affected
// lists the categories touched so far, the deleted category first. The
// deleted category stays live until its children are settled, so the
// delete can be retried.
type DeleteError struct {
	CategoryID uuid.UUID
	Policy     DeletePolicy
	Affected   []uuid.UUID
	Err        error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete %s (%s) stopped after %d categories: %v", e.CategoryID, e.Policy, len(e.Affected), e.Err)
}

func (e *DeleteError) Unwrap() error {
	return e.Err
}

// PartialUpdates extracts the categories written before a move, recompute
// or delete failed. It returns nil when err carries no partial result.
func PartialUpdates(err error) []uuid.UUID {
	var de *DeleteError
	if errors.As(err, &de) {
		return de.Affected
	}
	var re *RecomputeError
	if errors.As(err, &re) {
		return re.Updated
	}
	return nil
}

// IsValidation reports whether err is a precondition failure that left the
// store untouched.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrParentNotFound, ErrInactiveParent, ErrUnapprovedParent,
		ErrMaxDepthExceeded, ErrCircularHierarchy, ErrInvalidPolicy,
		ErrNodeHasDependents,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func writeFailure(id uuid.UUID, err error) error {
	return fmt.Errorf("%w: category %s: %w", ErrStoreWriteFailure, id, err)
}
