// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"

	"github.com/google/uuid"

	"taxonomy/internal/models"
)

// DefaultMenuLevels is how many levels below the roots LoadMenu fetches.
const DefaultMenuLevels = 2

// childrenLoader fetches the live children of several parents in one call.
type childrenLoader func(ctx context.Context, parentIDs []uuid.UUID) ([]models.Category, error)

// eagerLoad attaches up to levels generations of children below top. Each
// generation costs one loader call. Children are attached bottom-up since
// Category.Children holds values, not pointers.
func eagerLoad(ctx context.Context, top []models.Category, levels int, load childrenLoader) ([]models.Category, error) {
	generations := [][]models.Category{top}
	for l := 0; l < levels; l++ {
		prev := generations[len(generations)-1]
		if len(prev) == 0 {
			break
		}
		ids := make([]uuid.UUID, len(prev))
		for i, c := range prev {
			ids[i] = c.ID
		}
		next, err := load(ctx, ids)
		if err != nil {
			return nil, err
		}
		if len(next) == 0 {
			break
		}
		generations = append(generations, next)
	}

	for g := len(generations) - 1; g >= 1; g-- {
		byParent := make(map[uuid.UUID][]models.Category)
		for _, c := range generations[g] {
			if c.ParentID != nil {
				byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
			}
		}
		parents := generations[g-1]
		for i := range parents {
			parents[i].Children = byParent[parents[i].ID]
		}
	}
	return generations[0], nil
}
