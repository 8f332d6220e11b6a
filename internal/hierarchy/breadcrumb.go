// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"taxonomy/internal/models"
	"taxonomy/internal/slug"
)

var errBrokenChain = errors.New("ancestor chain is broken")

// Breadcrumbs returns the root-first path from the top of the tree down to
// node, localized for lang. It never fails: if the ancestor walk breaks,
// the result holds node alone and nothing is cached.
func (e *Engine) Breadcrumbs(ctx context.Context, node *models.Category, lang string) []models.Breadcrumb {
	if e.crumbs != nil {
		if cached, ok := e.crumbs.Get(ctx, node.ID, lang); ok {
			recordBreadcrumbLookup(true)
			return cached
		}
		recordBreadcrumbLookup(false)
	}

	crumbs, err := e.walkBreadcrumbs(ctx, node, lang)
	if err != nil {
		recordBreadcrumbFallback()
		slog.Warn("breadcrumb walk failed, returning category only",
			"category_id", node.ID,
			"lang", lang,
			"error", err,
		)
		return []models.Breadcrumb{breadcrumbFor(node, lang)}
	}

	if e.crumbs != nil {
		e.crumbs.Set(ctx, node.ID, lang, crumbs)
	}
	return crumbs
}

func (e *Engine) walkBreadcrumbs(ctx context.Context, node *models.Category, lang string) ([]models.Breadcrumb, error) {
	chain := []models.Breadcrumb{breadcrumbFor(node, lang)}
	visited := map[uuid.UUID]struct{}{node.ID: {}}

	current := node
	for current.ParentID != nil {
		parentID := *current.ParentID
		if _, loop := visited[parentID]; loop {
			return nil, fmt.Errorf("%w: %s repeats", errBrokenChain, parentID)
		}
		visited[parentID] = struct{}{}

		parent, err := e.store.FindByID(ctx, parentID)
		if err != nil {
			return nil, fmt.Errorf("find ancestor %s: %w", parentID, err)
		}
		if parent == nil {
			return nil, fmt.Errorf("%w: ancestor %s missing", errBrokenChain, parentID)
		}
		chain = append(chain, breadcrumbFor(parent, lang))
		current = parent
	}

	slices.Reverse(chain)
	return chain, nil
}

func breadcrumbFor(c *models.Category, lang string) models.Breadcrumb {
	name := c.DisplayName(lang)
	s := c.Slug
	if s == "" {
		s = slug.Generate(name)
	}
	return models.Breadcrumb{
		ID:         c.ID,
		Name:       name,
		Slug:       s,
		URL:        slug.CategoryURL(lang, s),
		IsActive:   c.IsActive,
		DepthLevel: c.DepthLevel,
	}
}
