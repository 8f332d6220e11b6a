// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package hierarchy keeps the category taxonomy structurally consistent.
// It validates placements, rejects cycles, re-parents and soft-removes
// nodes while recomputing the cached depth and materialized path of every
// affected descendant, and builds nested trees and breadcrumbs for display.
//
// The engine assumes a single writer per mutation. Callers must serialize
// Move, Delete, Create and Restore calls that touch overlapping subtrees.
package hierarchy

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"taxonomy/internal/models"
)

const (
	// MaxDepth is the deepest allowed DepthLevel. Roots are level 0.
	MaxDepth = 4

	// DefaultSeparator joins ancestor names in CategoryPath.
	DefaultSeparator = "/"
)

// NodeStore is the persistence contract the engine relies on. FindByID and
// the listing methods never return soft-removed categories; FindByID
// returns nil, nil when the id is unknown. FindDeleted is its counterpart
// for soft-removed categories. Restore un-deletes a category and applies
// patch in one write, returning nil, nil if id is unknown or live.
type NodeStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindChildren(ctx context.Context, parentID uuid.UUID, activeOnly bool) ([]models.Category, error)
	FindRoots(ctx context.Context, activeOnly bool) ([]models.Category, error)
	Update(ctx context.Context, id uuid.UUID, patch models.CategoryPatch) error
	CountActiveChildren(ctx context.Context, parentID uuid.UUID) (int, error)
	Create(ctx context.Context, c *models.Category) (*models.Category, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	FindDeleted(ctx context.Context, id uuid.UUID) (*models.Category, error)
	Restore(ctx context.Context, id uuid.UUID, patch models.CategoryPatch) (*models.Category, error)
}

// BreadcrumbCache stores generated breadcrumbs per (category, language).
type BreadcrumbCache interface {
	Get(ctx context.Context, id uuid.UUID, lang string) ([]models.Breadcrumb, bool)
	Set(ctx context.Context, id uuid.UUID, lang string, crumbs []models.Breadcrumb)
	Invalidate(ctx context.Context, ids ...uuid.UUID)
}

// TreeCache holds rendered trees (menus). Any structural change drops it.
type TreeCache interface {
	InvalidateAll(ctx context.Context)
}

// MutationLog records structural changes for auditing. Recording is best
// effort and must not fail the mutation.
type MutationLog interface {
	Record(ctx context.Context, ev models.MutationEvent)
}

// DeleteGuard decides whether a category may be removed at all.
type DeleteGuard func(ctx context.Context, c *models.Category) error

// Option configures an Engine.
type Option func(*Engine)

// WithBreadcrumbCache sets the cache used by Breadcrumbs.
func WithBreadcrumbCache(c BreadcrumbCache) Option {
	return func(e *Engine) { e.crumbs = c }
}

// WithTreeCache sets a cache that is cleared after every structural change.
func WithTreeCache(c TreeCache) Option {
	return func(e *Engine) { e.trees = c }
}

// WithMutationLog sets where structural changes are recorded.
func WithMutationLog(l MutationLog) Option {
	return func(e *Engine) { e.audit = l }
}

// WithSeparator overrides the CategoryPath separator.
func WithSeparator(sep string) Option {
	return func(e *Engine) {
		if sep != "" {
			e.sep = sep
		}
	}
}

// WithDeleteGuard replaces the default product-count precondition.
func WithDeleteGuard(g DeleteGuard) Option {
	return func(e *Engine) {
		if g != nil {
			e.guard = g
		}
	}
}

// Engine is the hierarchy engine. It is safe for concurrent reads; see the
// package documentation for the writer requirement.
type Engine struct {
	store   NodeStore
	crumbs  BreadcrumbCache
	trees   TreeCache
	audit   MutationLog
	metrics *Propagator
	sep     string
	guard   DeleteGuard
}

// New returns an Engine backed by store. Without a breadcrumb cache option
// breadcrumbs are generated on every call.
func New(store NodeStore, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		sep:   DefaultSeparator,
		guard: productCountGuard,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.metrics = NewPropagator(store)
	return e
}

// DepthOf returns the cached depth of a category.
func (e *Engine) DepthOf(ctx context.Context, id uuid.UUID) (int, error) {
	c, err := e.mustFind(ctx, id)
	if err != nil {
		return 0, err
	}
	return c.DepthLevel, nil
}

// PathOf returns the cached materialized path of a category.
func (e *Engine) PathOf(ctx context.Context, id uuid.UUID) (string, error) {
	c, err := e.mustFind(ctx, id)
	if err != nil {
		return "", err
	}
	return c.CategoryPath, nil
}

// RootsOf lists root categories ordered for display.
func (e *Engine) RootsOf(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	roots, err := e.store.FindRoots(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("find roots: %w", err)
	}
	models.SortSiblings(roots)
	return roots, nil
}

// ChildrenOf lists the direct children of a category ordered for display.
func (e *Engine) ChildrenOf(ctx context.Context, parentID uuid.UUID, activeOnly bool) ([]models.Category, error) {
	children, err := e.store.FindChildren(ctx, parentID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("find children of %s: %w", parentID, err)
	}
	models.SortSiblings(children)
	return children, nil
}

// Get returns a live category or ErrNodeNotFound.
func (e *Engine) Get(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return e.mustFind(ctx, id)
}

// CheckDeletable runs the delete precondition hook. The engine itself never
// calls it from Delete; the calling layer decides whether to enforce it.
func (e *Engine) CheckDeletable(ctx context.Context, c *models.Category) error {
	return e.guard(ctx, c)
}

func productCountGuard(_ context.Context, c *models.Category) error {
	if c.ProductCount > 0 {
		return fmt.Errorf("%w: %d products in %q", ErrNodeHasDependents, c.ProductCount, c.Name)
	}
	return nil
}

func (e *Engine) mustFind(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := e.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find category %s: %w", id, err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return c, nil
}

// joinPath appends name to a parent path. An empty parent path means the
// node is a root and its path is its own name.
func (e *Engine) joinPath(parentPath, name string) string {
	if parentPath == "" {
		return name
	}
	return parentPath + e.sep + name
}

// invalidate drops cached breadcrumbs for ids and every cached tree.
func (e *Engine) invalidate(ctx context.Context, ids []uuid.UUID) {
	if e.crumbs != nil && len(ids) > 0 {
		e.crumbs.Invalidate(ctx, ids...)
	}
	if e.trees != nil {
		e.trees.InvalidateAll(ctx)
	}
	recordInvalidation(len(ids))
}

func (e *Engine) record(ctx context.Context, ev models.MutationEvent) {
	if e.audit != nil {
		e.audit.Record(ctx, ev)
	}
}
