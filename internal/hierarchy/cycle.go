// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package hierarchy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// WouldCreateCycle reports whether attaching nodeID under candidateParentID
// would make the node its own ancestor. The walk follows parent links up
// from the candidate and stops at a root or at the first repeated id.
func (e *Engine) WouldCreateCycle(ctx context.Context, nodeID, candidateParentID uuid.UUID) (bool, error) {
	if nodeID == candidateParentID {
		return true, nil
	}

	visited := make(map[uuid.UUID]struct{}, MaxDepth+1)
	current := candidateParentID
	for {
		if current == nodeID {
			return true, nil
		}
		if _, seen := visited[current]; seen {
			// The stored chain already loops without passing through nodeID.
			slog.Warn("category ancestor chain contains a loop", "category_id", current)
			return false, nil
		}
		visited[current] = struct{}{}

		c, err := e.store.FindByID(ctx, current)
		if err != nil {
			return false, fmt.Errorf("walk ancestors of %s: %w", candidateParentID, err)
		}
		if c == nil || c.ParentID == nil {
			return false, nil
		}
		current = *c.ParentID
	}
}
