// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// memory.go is an in-process category store. Children are never stored on
// a category; they are answered from a parent-id index that is updated in
// the same critical section as the parent field itself.
package store

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"taxonomy/internal/models"
)

// MemoryStore keeps categories in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	nodes    map[uuid.UUID]*models.Category
	children map[uuid.UUID]map[uuid.UUID]struct{} // parent id (uuid.Nil for roots) -> child ids
	now      func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes:    make(map[uuid.UUID]*models.Category),
		children: make(map[uuid.UUID]map[uuid.UUID]struct{}),
		now:      time.Now,
	}
}

// Put stores categories as given, without computing depth or path. It is
// meant for seeding and tests.
func (s *MemoryStore) Put(cats ...models.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cats {
		if old, ok := s.nodes[c.ID]; ok {
			s.unindex(old)
		}
		stored := clone(c)
		stored.Children = nil
		s.nodes[c.ID] = &stored
		s.index(&stored)
	}
}

// FindByID returns a live category, or nil if it is unknown or deleted.
func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.nodes[id]
	if !ok || c.IsDeleted() {
		return nil, nil
	}
	out := clone(*c)
	return &out, nil
}

// FindChildren lists live children of parentID.
func (s *MemoryStore) FindChildren(_ context.Context, parentID uuid.UUID, activeOnly bool) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.childrenOf(parentID, activeOnly), nil
}

// FindRoots lists live categories without a parent.
func (s *MemoryStore) FindRoots(_ context.Context, activeOnly bool) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.childrenOf(uuid.Nil, activeOnly), nil
}

// CountActiveChildren counts live, active children of parentID.
func (s *MemoryStore) CountActiveChildren(_ context.Context, parentID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.childrenOf(parentID, true)), nil
}

// Update applies a partial update to a live category.
func (s *MemoryStore) Update(_ context.Context, id uuid.UUID, patch models.CategoryPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.nodes[id]
	if !ok || c.IsDeleted() {
		return fmt.Errorf("update category %s: %w", id, ErrNotFound)
	}
	if patch.ParentSet {
		s.unindex(c)
	}
	patch.Apply(c)
	if patch.ParentSet {
		s.index(c)
	}
	c.UpdatedAt = s.now().UTC()
	return nil
}

// Create inserts c, assigning an id when it has none.
func (s *MemoryStore) Create(_ context.Context, c *models.Category) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := clone(*c)
	stored.Children = nil
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if _, exists := s.nodes[stored.ID]; exists {
		return nil, fmt.Errorf("create category %s: duplicate id", stored.ID)
	}
	now := s.now().UTC()
	stored.CreatedAt, stored.UpdatedAt = now, now
	s.nodes[stored.ID] = &stored
	s.index(&stored)

	out := clone(stored)
	return &out, nil
}

// SoftDelete marks a live category as deleted.
func (s *MemoryStore) SoftDelete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.nodes[id]
	if !ok || c.IsDeleted() {
		return fmt.Errorf("delete category %s: %w", id, ErrNotFound)
	}
	now := s.now().UTC()
	c.DeletedAt = &now
	c.UpdatedAt = now
	return nil
}

// FindDeleted returns a soft-deleted category, or nil if id is unknown or
// live.
func (s *MemoryStore) FindDeleted(_ context.Context, id uuid.UUID) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.nodes[id]
	if !ok || !c.IsDeleted() {
		return nil, nil
	}
	out := clone(*c)
	return &out, nil
}

// Restore clears the deleted marker and applies patch in the same critical
// section. It returns nil if id is unknown or not deleted.
func (s *MemoryStore) Restore(_ context.Context, id uuid.UUID, patch models.CategoryPatch) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.nodes[id]
	if !ok || !c.IsDeleted() {
		return nil, nil
	}
	if patch.ParentSet {
		s.unindex(c)
	}
	patch.Apply(c)
	if patch.ParentSet {
		s.index(c)
	}
	c.DeletedAt = nil
	c.UpdatedAt = s.now().UTC()
	out := clone(*c)
	return &out, nil
}

// List returns every live category, ordered by depth then display order.
func (s *MemoryStore) List(_ context.Context) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Category, 0, len(s.nodes))
	for _, c := range s.nodes {
		if !c.IsDeleted() {
			out = append(out, clone(*c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DepthLevel != out[j].DepthLevel {
			return out[i].DepthLevel < out[j].DepthLevel
		}
		return models.SiblingLess(&out[i], &out[j])
	})
	return out, nil
}

// LoadSubtree returns the live category id with levels generations of
// children attached, or nil if it does not exist.
func (s *MemoryStore) LoadSubtree(ctx context.Context, id uuid.UUID, levels int) (*models.Category, error) {
	root, err := s.FindByID(ctx, id)
	if err != nil || root == nil {
		return root, err
	}
	top, err := eagerLoad(ctx, []models.Category{*root}, levels, s.childrenOfMany)
	if err != nil {
		return nil, err
	}
	return &top[0], nil
}

// LoadMenu returns all live roots with levels generations of children.
func (s *MemoryStore) LoadMenu(ctx context.Context, levels int) ([]models.Category, error) {
	roots, err := s.FindRoots(ctx, false)
	if err != nil {
		return nil, err
	}
	return eagerLoad(ctx, roots, levels, s.childrenOfMany)
}

// NextSortOrder returns the next sort_order value for a given parent.
func (s *MemoryStore) NextSortOrder(_ context.Context, parentID *uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := uuid.Nil
	if parentID != nil {
		key = *parentID
	}
	next := 0
	for id := range s.children[key] {
		if c := s.nodes[id]; c.SortOrder >= next {
			next = c.SortOrder + 1
		}
	}
	return next, nil
}

func (s *MemoryStore) childrenOfMany(_ context.Context, parentIDs []uuid.UUID) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Category
	for _, id := range parentIDs {
		out = append(out, s.childrenOf(id, false)...)
	}
	return out, nil
}

// childrenOf must be called with s.mu held.
func (s *MemoryStore) childrenOf(parentID uuid.UUID, activeOnly bool) []models.Category {
	ids := s.children[parentID]
	out := make([]models.Category, 0, len(ids))
	for id := range ids {
		c := s.nodes[id]
		if c.IsDeleted() || (activeOnly && !c.IsActive) {
			continue
		}
		out = append(out, clone(*c))
	}
	models.SortSiblings(out)
	return out
}

func (s *MemoryStore) index(c *models.Category) {
	key := parentKey(c)
	set, ok := s.children[key]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		s.children[key] = set
	}
	set[c.ID] = struct{}{}
}

func (s *MemoryStore) unindex(c *models.Category) {
	key := parentKey(c)
	delete(s.children[key], c.ID)
	if len(s.children[key]) == 0 {
		delete(s.children, key)
	}
}

func parentKey(c *models.Category) uuid.UUID {
	if c.ParentID == nil {
		return uuid.Nil
	}
	return *c.ParentID
}

func clone(c models.Category) models.Category {
	if c.ParentID != nil {
		id := *c.ParentID
		c.ParentID = &id
	}
	if c.Translations != nil {
		c.Translations = maps.Clone(c.Translations)
	}
	if c.LastActivityAt != nil {
		t := *c.LastActivityAt
		c.LastActivityAt = &t
	}
	if c.DeletedAt != nil {
		t := *c.DeletedAt
		c.DeletedAt = &t
	}
	return c
}
