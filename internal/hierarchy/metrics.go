// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package hierarchy

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"taxonomy/internal/models"
)

// Propagator refreshes parent-level aggregates after a child set changes.
// It is best-effort: failures are logged and never reach the caller.
type Propagator struct {
	store NodeStore
	now   func() time.Time
}

// NewPropagator returns a Propagator writing through store.
func NewPropagator(store NodeStore) *Propagator {
	return &Propagator{store: store, now: time.Now}
}

// Propagate refreshes the child count and last-activity time of each
// parent. Nil ids (roots have no parent) and duplicates are skipped.
func (p *Propagator) Propagate(ctx context.Context, parentIDs ...*uuid.UUID) {
	done := make(map[uuid.UUID]struct{}, len(parentIDs))
	for _, id := range parentIDs {
		if id == nil {
			continue
		}
		if _, ok := done[*id]; ok {
			continue
		}
		done[*id] = struct{}{}

		if err := p.refresh(ctx, *id); err != nil {
			recordPropagationFailure()
			slog.Warn("category metrics propagation failed",
				"category_id", *id,
				"error", err,
			)
		}
	}
}

func (p *Propagator) refresh(ctx context.Context, id uuid.UUID) error {
	count, err := p.store.CountActiveChildren(ctx, id)
	if err != nil {
		return err
	}
	now := p.now().UTC()
	return p.store.Update(ctx, id, models.CategoryPatch{
		ChildCount:     &count,
		LastActivityAt: &now,
	})
}
