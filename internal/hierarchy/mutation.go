// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package hierarchy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"taxonomy/internal/models"
)

// DeletePolicy decides what happens to the children of a removed category.
type DeletePolicy string

const (
	// DeleteCascade soft-removes every descendant as well.
	DeleteCascade DeletePolicy = "cascade"
	// DeleteReparent attaches each child to the removed category's parent.
	DeleteReparent DeletePolicy = "reparentToGrandparent"
	// DeletePromote turns each child into a root.
	DeletePromote DeletePolicy = "promoteToRoot"
)

// DefaultDeletePolicy is used by callers that do not ask for one.
const DefaultDeletePolicy = DeletePromote

// ParseDeletePolicy validates a policy name.
func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch p := DeletePolicy(s); p {
	case DeleteCascade, DeleteReparent, DeletePromote:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
}

// MoveResult summarizes a re-parenting.
type MoveResult struct {
	CategoryID           uuid.UUID   `json:"category_id"`
	OldParentID          *uuid.UUID  `json:"old_parent_id"`
	NewParentID          *uuid.UUID  `json:"new_parent_id"`
	OldDepth             int         `json:"old_depth"`
	NewDepth             int         `json:"new_depth"`
	UpdatedDescendantIDs []uuid.UUID `json:"updated_descendant_ids"`
}

// RecomputeResult lists the descendants walked by a cascading recompute and
// the categories whose depth or path was actually rewritten.
type RecomputeResult struct {
	RootID  uuid.UUID   `json:"root_id"`
	Visited []uuid.UUID `json:"visited"`
	Changed []uuid.UUID `json:"changed"`
}

// Create places c under c.ParentID, fills in depth and path, and persists it.
func (e *Engine) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	placement, err := e.PrepareHierarchy(ctx, c.ParentID)
	if err != nil {
		return nil, err
	}

	node := *c
	node.Children = nil
	node.DepthLevel = placement.DepthLevel
	node.CategoryPath = e.joinPath(placement.CategoryPath, node.Name)
	if node.State == "" {
		node.State = models.StateDraft
	}

	created, err := e.store.Create(ctx, &node)
	recordMutation("create", err == nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create %q: %w", ErrStoreWriteFailure, node.Name, err)
	}

	e.metrics.Propagate(ctx, c.ParentID)
	e.invalidate(ctx, nil)
	e.record(ctx, models.MutationEvent{CategoryID: created.ID, Action: "create", NewParentID: created.ParentID, Affected: 1})

	slog.Info("category created",
		"category_id", created.ID,
		"parent_id", created.ParentID,
		"depth", created.DepthLevel,
	)
	return created, nil
}

// Move re-parents node under newParentID (nil makes it a root) and rewrites
// the depth and path of every descendant. Validation failures leave the
// store untouched. If the cascade stops part way the returned error is a
// *RecomputeError and the result lists the descendants already written.
func (e *Engine) Move(ctx context.Context, node *models.Category, newParentID *uuid.UUID) (MoveResult, error) {
	result := MoveResult{
		CategoryID:  node.ID,
		OldParentID: node.ParentID,
		NewParentID: newParentID,
		OldDepth:    node.DepthLevel,
	}

	var placement Placement
	if newParentID != nil {
		var err error
		placement, err = e.PrepareHierarchy(ctx, newParentID)
		if err != nil {
			return result, err
		}
		cyclic, err := e.WouldCreateCycle(ctx, node.ID, *newParentID)
		if err != nil {
			return result, err
		}
		if cyclic {
			recordCycleRejected()
			return result, fmt.Errorf("%w: %s under %s", ErrCircularHierarchy, node.ID, *newParentID)
		}
	}

	height, err := e.subtreeHeight(ctx, node.ID)
	if err != nil {
		return result, err
	}
	if placement.DepthLevel+height > MaxDepth {
		return result, fmt.Errorf("%w: subtree of %q would reach level %d (max %d)",
			ErrMaxDepthExceeded, node.Name, placement.DepthLevel+height, MaxDepth)
	}

	moved := *node
	moved.Children = nil
	depth := placement.DepthLevel
	path := e.joinPath(placement.CategoryPath, moved.Name)
	patch := models.CategoryPatch{
		ParentSet:    true,
		ParentID:     newParentID,
		DepthLevel:   &depth,
		CategoryPath: &path,
	}
	if err := e.store.Update(ctx, moved.ID, patch); err != nil {
		return result, writeFailure(moved.ID, err)
	}
	patch.Apply(&moved)
	result.NewDepth = moved.DepthLevel

	rec, cascadeErr := e.cascade(ctx, &moved)
	result.UpdatedDescendantIDs = rec.Changed

	e.metrics.Propagate(ctx, result.OldParentID, newParentID)
	e.invalidate(ctx, append([]uuid.UUID{moved.ID}, rec.Visited...))
	recordMutation("move", cascadeErr == nil)
	e.record(ctx, models.MutationEvent{
		CategoryID:  moved.ID,
		Action:      "move",
		OldParentID: result.OldParentID,
		NewParentID: newParentID,
		Affected:    1 + len(rec.Changed),
	})

	if cascadeErr != nil {
		slog.Error("category move left descendants stale",
			"category_id", moved.ID,
			"updated", len(rec.Changed),
			"error", cascadeErr,
		)
		return result, cascadeErr
	}

	slog.Info("category moved",
		"category_id", moved.ID,
		"old_parent_id", result.OldParentID,
		"new_parent_id", newParentID,
		"old_depth", result.OldDepth,
		"new_depth", result.NewDepth,
		"descendants_updated", len(rec.Changed),
	)
	return result, nil
}

// Recompute re-derives the depth and path of the category with id from its
// current parent, then cascades through its descendants. It is the retry
// entry point after a partially applied move; on a consistent subtree it
// writes nothing.
func (e *Engine) Recompute(ctx context.Context, id uuid.UUID) (RecomputeResult, error) {
	c, err := e.store.FindByID(ctx, id)
	if err != nil {
		return RecomputeResult{RootID: id}, fmt.Errorf("find category %s: %w", id, err)
	}
	if c == nil {
		return RecomputeResult{RootID: id}, fmt.Errorf("%w: %s", ErrNodeNotFoundForRecompute, id)
	}

	depth, path := 0, c.Name
	if c.ParentID != nil {
		parent, err := e.store.FindByID(ctx, *c.ParentID)
		if err != nil {
			return RecomputeResult{RootID: id}, fmt.Errorf("find parent %s: %w", *c.ParentID, err)
		}
		if parent == nil {
			return RecomputeResult{RootID: id}, fmt.Errorf("%w: parent %s of %s", ErrNodeNotFoundForRecompute, *c.ParentID, id)
		}
		depth, path = parent.DepthLevel+1, e.joinPath(parent.CategoryPath, c.Name)
	}

	var selfChanged bool
	if c.DepthLevel != depth || c.CategoryPath != path {
		patch := models.CategoryPatch{DepthLevel: &depth, CategoryPath: &path}
		if err := e.store.Update(ctx, c.ID, patch); err != nil {
			return RecomputeResult{RootID: id}, writeFailure(c.ID, err)
		}
		patch.Apply(c)
		selfChanged = true
	}

	rec, err := e.cascade(ctx, c)
	if selfChanged {
		rec.Changed = append([]uuid.UUID{c.ID}, rec.Changed...)
	}
	if selfChanged || len(rec.Changed) > 0 {
		e.invalidate(ctx, append([]uuid.UUID{c.ID}, rec.Visited...))
		e.record(ctx, models.MutationEvent{CategoryID: c.ID, Action: "recompute", Affected: len(rec.Changed)})
	}
	return rec, err
}

// Delete soft-removes node and restructures its children according to
// policy. It returns the ids of every category it touched, node first.
// Delete does not run CheckDeletable.
func (e *Engine) Delete(ctx context.Context, node *models.Category, policy DeletePolicy) ([]uuid.UUID, error) {
	if _, err := ParseDeletePolicy(string(policy)); err != nil {
		return nil, err
	}

	var (
		affected []uuid.UUID
		err      error
	)
	switch policy {
	case DeleteCascade:
		affected, err = e.deleteCascade(ctx, node)
	default:
		affected, err = e.deleteDetaching(ctx, node, policy)
	}

	e.metrics.Propagate(ctx, node.ParentID)
	e.invalidate(ctx, affected)
	recordDelete(policy, err == nil)
	e.record(ctx, models.MutationEvent{
		CategoryID:  node.ID,
		Action:      "delete:" + string(policy),
		OldParentID: node.ParentID,
		Affected:    len(affected),
	})

	if err != nil {
		if len(affected) > 0 {
			err = &DeleteError{CategoryID: node.ID, Policy: policy, Affected: affected, Err: err}
		}
		return affected, err
	}
	slog.Info("category deleted",
		"category_id", node.ID,
		"policy", string(policy),
		"affected", len(affected),
	)
	return affected, nil
}

// deleteCascade soft-removes all descendants of node, deepest first, and
// then node itself. A failure leaves node and the not yet removed part of
// its subtree live and connected, so the delete can be retried.
func (e *Engine) deleteCascade(ctx context.Context, node *models.Category) ([]uuid.UUID, error) {
	descendants, err := e.descendantIDs(ctx, node.ID)
	if err != nil {
		return nil, err
	}

	affected := make([]uuid.UUID, 1, len(descendants)+1)
	affected[0] = node.ID
	for i := len(descendants) - 1; i >= 0; i-- {
		id := descendants[i]
		if err := ctx.Err(); err != nil {
			return affected, err
		}
		if err := e.store.SoftDelete(ctx, id); err != nil {
			return affected, writeFailure(id, err)
		}
		affected = append(affected, id)
	}

	if err := ctx.Err(); err != nil {
		return affected, err
	}
	if err := e.store.SoftDelete(ctx, node.ID); err != nil {
		return affected, writeFailure(node.ID, err)
	}
	return affected, nil
}

// deleteDetaching moves the direct children of node to their new place and
// then soft-removes node itself.
func (e *Engine) deleteDetaching(ctx context.Context, node *models.Category, policy DeletePolicy) ([]uuid.UUID, error) {
	var target *models.Category
	if policy == DeleteReparent && node.ParentID != nil {
		gp, err := e.store.FindByID(ctx, *node.ParentID)
		if err != nil {
			return nil, fmt.Errorf("find parent %s: %w", *node.ParentID, err)
		}
		if gp == nil {
			slog.Warn("parent of deleted category is gone, promoting children to roots",
				"category_id", node.ID, "parent_id", *node.ParentID)
		}
		target = gp
	}

	children, err := e.store.FindChildren(ctx, node.ID, false)
	if err != nil {
		return nil, fmt.Errorf("find children of %s: %w", node.ID, err)
	}

	affected := []uuid.UUID{node.ID}
	for i := range children {
		child := children[i]
		child.Children = nil

		var (
			parentID *uuid.UUID
			depth    int
			path     = child.Name
		)
		if target != nil {
			id := target.ID
			parentID = &id
			depth = target.DepthLevel + 1
			path = e.joinPath(target.CategoryPath, child.Name)
		}
		patch := models.CategoryPatch{
			ParentSet:    true,
			ParentID:     parentID,
			DepthLevel:   &depth,
			CategoryPath: &path,
		}
		if err := e.store.Update(ctx, child.ID, patch); err != nil {
			return affected, writeFailure(child.ID, err)
		}
		patch.Apply(&child)
		affected = append(affected, child.ID)

		rec, err := e.cascade(ctx, &child)
		affected = append(affected, rec.Visited...)
		if err != nil {
			return affected, err
		}
	}

	if err := e.store.SoftDelete(ctx, node.ID); err != nil {
		return affected, writeFailure(node.ID, err)
	}
	return affected, nil
}

// Restore brings a soft-removed category back. It returns under its former
// parent when that parent is live, may take children and has room for the
// category's subtree within MaxDepth. Otherwise it re-enters as a root. The
// placement is decided before the category is un-deleted and both are
// written in one store call.
func (e *Engine) Restore(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := e.store.FindDeleted(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find deleted category %s: %w", id, err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	parentID, placement, err := e.restorePlacement(ctx, c)
	if err != nil {
		return nil, err
	}
	depth := placement.DepthLevel
	path := e.joinPath(placement.CategoryPath, c.Name)
	restored, err := e.store.Restore(ctx, id, models.CategoryPatch{
		ParentSet:    true,
		ParentID:     parentID,
		DepthLevel:   &depth,
		CategoryPath: &path,
	})
	if err != nil {
		return nil, writeFailure(id, err)
	}
	if restored == nil {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	rec, err := e.cascade(ctx, restored)
	e.metrics.Propagate(ctx, restored.ParentID)
	e.invalidate(ctx, append([]uuid.UUID{restored.ID}, rec.Visited...))
	recordMutation("restore", err == nil)
	e.record(ctx, models.MutationEvent{
		CategoryID:  restored.ID,
		Action:      "restore",
		OldParentID: c.ParentID,
		NewParentID: restored.ParentID,
		Affected:    1 + len(rec.Changed),
	})
	if err != nil {
		return restored, err
	}

	slog.Info("category restored",
		"category_id", restored.ID,
		"parent_id", restored.ParentID,
		"depth", restored.DepthLevel,
	)
	return restored, nil
}

// restorePlacement picks the parent a soft-removed category returns under.
// A nil parent id means it is restored as a root.
func (e *Engine) restorePlacement(ctx context.Context, c *models.Category) (*uuid.UUID, Placement, error) {
	if c.ParentID == nil {
		return nil, Placement{}, nil
	}

	placement, err := e.PrepareHierarchy(ctx, c.ParentID)
	switch {
	case IsValidation(err):
		slog.Warn("former parent cannot take restored category, restoring as root",
			"category_id", c.ID, "parent_id", *c.ParentID, "reason", err)
		return nil, Placement{}, nil
	case err != nil:
		return nil, Placement{}, err
	}

	height, err := e.subtreeHeight(ctx, c.ID)
	if err != nil {
		return nil, Placement{}, err
	}
	if placement.DepthLevel+height > MaxDepth {
		slog.Warn("restored category would exceed max depth under former parent, restoring as root",
			"category_id", c.ID, "parent_id", *c.ParentID, "level", placement.DepthLevel+height)
		return nil, Placement{}, nil
	}
	return c.ParentID, placement, nil
}

// cascade rewrites depth and path below root, whose own fields must already
// hold their new values. It walks depth-first with an explicit stack and
// persists every child before its own children are listed.
func (e *Engine) cascade(ctx context.Context, root *models.Category) (RecomputeResult, error) {
	res := RecomputeResult{RootID: root.ID}
	fail := func(err error) (RecomputeResult, error) {
		recordRecompute(len(res.Changed))
		return res, &RecomputeError{RootID: root.ID, Updated: res.Changed, Err: err}
	}

	seen := map[uuid.UUID]struct{}{root.ID: {}}
	stack := []models.Category{*root}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		parent := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := e.store.FindChildren(ctx, parent.ID, false)
		if err != nil {
			return fail(fmt.Errorf("find children of %s: %w", parent.ID, err))
		}

		for i := range children {
			child := children[i]
			child.Children = nil
			if _, dup := seen[child.ID]; dup {
				slog.Warn("category visited twice during recompute", "category_id", child.ID)
				continue
			}
			seen[child.ID] = struct{}{}
			res.Visited = append(res.Visited, child.ID)

			depth := parent.DepthLevel + 1
			path := e.joinPath(parent.CategoryPath, child.Name)
			if child.DepthLevel != depth || child.CategoryPath != path {
				patch := models.CategoryPatch{DepthLevel: &depth, CategoryPath: &path}
				if err := e.store.Update(ctx, child.ID, patch); err != nil {
					return fail(writeFailure(child.ID, err))
				}
				patch.Apply(&child)
				res.Changed = append(res.Changed, child.ID)
			}
			stack = append(stack, child)
		}
	}

	recordRecompute(len(res.Changed))
	return res, nil
}

// descendantIDs lists every live descendant of id, parents before children.
func (e *Engine) descendantIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	seen := map[uuid.UUID]struct{}{id: {}}
	stack := []uuid.UUID{id}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := e.store.FindChildren(ctx, current, false)
		if err != nil {
			return nil, fmt.Errorf("find children of %s: %w", current, err)
		}
		for _, child := range children {
			if _, dup := seen[child.ID]; dup {
				continue
			}
			seen[child.ID] = struct{}{}
			out = append(out, child.ID)
			stack = append(stack, child.ID)
		}
	}
	return out, nil
}

// subtreeHeight returns how many levels lie below id (0 for a leaf).
func (e *Engine) subtreeHeight(ctx context.Context, id uuid.UUID) (int, error) {
	height := 0
	seen := map[uuid.UUID]struct{}{id: {}}
	level := []uuid.UUID{id}
	for len(level) > 0 {
		var next []uuid.UUID
		for _, current := range level {
			children, err := e.store.FindChildren(ctx, current, false)
			if err != nil {
				return 0, fmt.Errorf("find children of %s: %w", current, err)
			}
			for _, child := range children {
				if _, dup := seen[child.ID]; dup {
					continue
				}
				seen[child.ID] = struct{}{}
				next = append(next, child.ID)
			}
		}
		if len(next) > 0 {
			height++
		}
		level = next
	}
	return height, nil
}
