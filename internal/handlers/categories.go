// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers exposes the category hierarchy as a JSON API. Handlers
// are the calling layer of the hierarchy engine: they look categories up,
// pick the delete policy and map engine errors to HTTP status codes.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"taxonomy/internal/hierarchy"
	"taxonomy/internal/models"
	"taxonomy/internal/slug"
)

// CategoryReader provides the bulk reads the engine does not cover.
// Both store.CategoryStore and store.MemoryStore implement it.
type CategoryReader interface {
	List(ctx context.Context) ([]models.Category, error)
	LoadMenu(ctx context.Context, levels int) ([]models.Category, error)
	LoadSubtree(ctx context.Context, id uuid.UUID, levels int) (*models.Category, error)
	NextSortOrder(ctx context.Context, parentID *uuid.UUID) (int, error)
}

// MenuCache stores rendered menus. The hierarchy engine clears it after
// every structural mutation.
type MenuCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte)
}

// MutationHistory lists recorded structural changes.
type MutationHistory interface {
	Recent(ctx context.Context, categoryID *uuid.UUID, limit int) ([]models.MutationEvent, error)
}

// Options tune the category handlers.
type Options struct {
	// MenuLevels is how many levels below the roots the menu shows.
	MenuLevels int
	// TenantID is stamped on created categories.
	TenantID string
	// MenuKey maps a language to a menu cache key.
	MenuKey func(lang string) string
	// History serves the mutation log endpoints. Optional.
	History MutationHistory
}

// Categories groups the category API handlers.
type Categories struct {
	engine *hierarchy.Engine
	reader CategoryReader
	menus  MenuCache
	opts   Options
}

// NewCategories creates the category handler group. menus may be nil.
func NewCategories(eng *hierarchy.Engine, reader CategoryReader, menus MenuCache, opts Options) *Categories {
	if opts.MenuLevels <= 0 {
		opts.MenuLevels = 2
	}
	if opts.MenuKey == nil {
		opts.MenuKey = func(lang string) string { return "menu:" + lang }
	}
	return &Categories{engine: eng, reader: reader, menus: menus, opts: opts}
}

// categoryDetail is the body of GET /api/categories/{id}.
type categoryDetail struct {
	Category    *models.Category    `json:"category"`
	Children    []models.Category   `json:"children"`
	Breadcrumbs []models.Breadcrumb `json:"breadcrumbs"`
}

// List returns every live category nested by the flat-list builder. Hidden
// categories are included since this is the admin view.
func (c *Categories) List(w http.ResponseWriter, r *http.Request) {
	all, err := c.reader.List(r.Context())
	if err != nil {
		writeError(w, r, fmt.Errorf("list categories: %w", err))
		return
	}

	trees := hierarchy.BuildTreeFromFlatList(all)
	if r.URL.Query().Get("format") == "flat" {
		writeJSON(w, http.StatusOK, hierarchy.Flatten(trees))
		return
	}
	writeJSON(w, http.StatusOK, trees)
}

// Menu returns the visible catalog menu, served from the menu cache when
// possible.
func (c *Categories) Menu(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := langParam(r)
	key := c.opts.MenuKey(lang)

	if c.menus != nil {
		if body, ok := c.menus.Get(ctx, key); ok {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.Write(body)
			return
		}
	}

	roots, err := c.reader.LoadMenu(ctx, c.opts.MenuLevels)
	if err != nil {
		writeError(w, r, fmt.Errorf("load menu: %w", err))
		return
	}
	menu := hierarchy.BuildMenu(roots)
	hierarchy.Localize(menu, lang)

	body, err := json.Marshal(menu)
	if err != nil {
		writeError(w, r, fmt.Errorf("encode menu: %w", err))
		return
	}
	if c.menus != nil {
		c.menus.Set(ctx, key, body)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(body)
}

// Roots lists root categories.
func (c *Categories) Roots(w http.ResponseWriter, r *http.Request) {
	activeOnly, err := boolParam(r, "active")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	roots, err := c.engine.RootsOf(r.Context(), activeOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(roots))
}

// Get returns a category with its direct children and breadcrumbs. The two
// lookups are independent reads and run concurrently.
func (c *Categories) Get(w http.ResponseWriter, r *http.Request) {
	node, ok := c.lookup(w, r)
	if !ok {
		return
	}
	lang := langParam(r)

	detail := categoryDetail{Category: node}
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		children, err := c.engine.ChildrenOf(ctx, node.ID, false)
		if err != nil {
			return err
		}
		detail.Children = nonNil(children)
		return nil
	})
	g.Go(func() error {
		detail.Breadcrumbs = c.engine.Breadcrumbs(ctx, node, lang)
		return nil
	})
	if err := g.Wait(); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Children lists the direct children of a category.
func (c *Categories) Children(w http.ResponseWriter, r *http.Request) {
	node, ok := c.lookup(w, r)
	if !ok {
		return
	}
	activeOnly, err := boolParam(r, "active")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	children, err := c.engine.ChildrenOf(r.Context(), node.ID, activeOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(children))
}

// Breadcrumbs returns the root-first navigation path of a category.
func (c *Categories) Breadcrumbs(w http.ResponseWriter, r *http.Request) {
	node, ok := c.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c.engine.Breadcrumbs(r.Context(), node, langParam(r)))
}

// Tree returns the visible subtree below a category.
func (c *Categories) Tree(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	root, err := c.reader.LoadSubtree(r.Context(), id, hierarchy.MaxDepth)
	if err != nil {
		writeError(w, r, fmt.Errorf("load subtree: %w", err))
		return
	}
	if root == nil {
		writeError(w, r, fmt.Errorf("%w: %s", hierarchy.ErrNodeNotFound, id))
		return
	}
	tree := hierarchy.BuildTreeFromEagerLoad(root)
	hierarchy.Localize([]*models.TreeNode{tree}, langParam(r))
	writeJSON(w, http.StatusOK, tree)
}

// Create adds a category under an optional parent.
func (c *Categories) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		writeInvalid(w, err)
		return
	}

	ctx := r.Context()
	cat := &models.Category{
		TenantID:     c.opts.TenantID,
		ParentID:     req.ParentID,
		Name:         strings.TrimSpace(req.Name),
		Translations: req.Translations,
		Slug:         req.Slug,
		Description:  req.Description,
		State:        models.LifecycleState(req.State),
		IsActive:     true,
	}
	if cat.Slug == "" {
		cat.Slug = slug.Generate(cat.Name)
	}
	if req.IsActive != nil {
		cat.IsActive = *req.IsActive
	}
	if req.SortOrder != nil {
		cat.SortOrder = *req.SortOrder
	} else {
		next, err := c.reader.NextSortOrder(ctx, req.ParentID)
		if err != nil {
			writeError(w, r, fmt.Errorf("next sort order: %w", err))
			return
		}
		cat.SortOrder = next
	}

	created, err := c.engine.Create(ctx, cat)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Move re-parents a category.
func (c *Categories) Move(w http.ResponseWriter, r *http.Request) {
	node, ok := c.lookup(w, r)
	if !ok {
		return
	}
	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		writeInvalid(w, err)
		return
	}

	result, err := c.engine.Move(r.Context(), node, req.ParentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Delete soft-removes a category. The policy query parameter decides what
// happens to its children and defaults to promoting them to roots.
func (c *Categories) Delete(w http.ResponseWriter, r *http.Request) {
	node, ok := c.lookup(w, r)
	if !ok {
		return
	}

	policy := hierarchy.DefaultDeletePolicy
	if raw := r.URL.Query().Get("policy"); raw != "" {
		p, err := hierarchy.ParseDeletePolicy(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		policy = p
	}

	ctx := r.Context()
	if err := c.engine.CheckDeletable(ctx, node); err != nil {
		writeError(w, r, err)
		return
	}
	affected, err := c.engine.Delete(ctx, node, policy)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"policy":   policy,
		"affected": affected,
	})
}

// Restore brings back a soft-removed category.
func (c *Categories) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	restored, err := c.engine.Restore(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, restored)
}

// Recompute rewrites the depth and path of a category and its descendants.
// It is the retry path after a move or delete stopped part way.
func (c *Categories) Recompute(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	result, err := c.engine.Recompute(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(result.Changed) > 0 {
		slog.Info("category subtree repaired", "category_id", id, "changed", len(result.Changed))
	}
	writeJSON(w, http.StatusOK, result)
}

// History lists recent structural changes, optionally for one category.
func (c *Categories) History(w http.ResponseWriter, r *http.Request) {
	if c.opts.History == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "mutation history is not enabled"})
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			writeBadRequest(w, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = n
	}

	var categoryID *uuid.UUID
	if chi.URLParam(r, "id") != "" {
		id, err := idParam(r)
		if err != nil {
			writeBadRequest(w, err)
			return
		}
		categoryID = &id
	}

	events, err := c.opts.History.Recent(r.Context(), categoryID, limit)
	if err != nil {
		writeError(w, r, fmt.Errorf("mutation history: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, nonNil(events))
}

// lookup resolves the {id} parameter to a live category, writing the error
// response itself when it cannot.
func (c *Categories) lookup(w http.ResponseWriter, r *http.Request) (*models.Category, bool) {
	id, err := idParam(r)
	if err != nil {
		writeBadRequest(w, err)
		return nil, false
	}
	node, err := c.engine.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return node, true
}

func langParam(r *http.Request) string {
	return strings.ToLower(strings.TrimSpace(r.URL.Query().Get("lang")))
}

func boolParam(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s parameter %q", name, raw)
	}
	return v, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
