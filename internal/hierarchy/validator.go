// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package hierarchy

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"taxonomy/internal/models"
)

// Placement is where a new or moved category would sit. CategoryPath is the
// parent's path; the caller appends the category's own name.
type Placement struct {
	DepthLevel   int
	CategoryPath string
	Parent       *models.Category
}

// PrepareHierarchy validates parentID as a destination and computes the
// resulting depth. A nil parentID places the category at the root.
func (e *Engine) PrepareHierarchy(ctx context.Context, parentID *uuid.UUID) (Placement, error) {
	if parentID == nil {
		return Placement{}, nil
	}

	parent, err := e.store.FindByID(ctx, *parentID)
	if err != nil {
		return Placement{}, fmt.Errorf("find parent %s: %w", *parentID, err)
	}
	if parent == nil {
		return Placement{}, fmt.Errorf("%w: %s", ErrParentNotFound, *parentID)
	}
	if err := checkEligible(parent); err != nil {
		return Placement{}, err
	}

	depth := parent.DepthLevel + 1
	if depth > MaxDepth {
		return Placement{}, fmt.Errorf("%w: %q is at level %d (max %d)",
			ErrMaxDepthExceeded, parent.Name, parent.DepthLevel, MaxDepth)
	}

	return Placement{
		DepthLevel:   depth,
		CategoryPath: parent.CategoryPath,
		Parent:       parent,
	}, nil
}

// checkEligible rejects parents that may not receive children: inactive
// ones, and ones that are not approved or are archived or suspended.
func checkEligible(parent *models.Category) error {
	if !parent.IsActive {
		return fmt.Errorf("%w: %q", ErrInactiveParent, parent.Name)
	}
	// Archived and suspended are distinct states, so approved excludes them.
	if parent.State != models.StateApproved {
		return fmt.Errorf("%w: %q is %s", ErrUnapprovedParent, parent.Name, parent.State)
	}
	return nil
}
