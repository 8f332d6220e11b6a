// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"taxonomy/internal/models"
)

// ErrNotFound is returned by writes that target a missing or deleted row.
var ErrNotFound = errors.New("category not found")

// CategoryStore manages categories in PostgreSQL.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, tenant_id, parent_id, name, name_translations, slug, description,
	sort_order, depth_level, category_path, lifecycle_state, is_active,
	product_count, child_count, last_activity_at, deleted_at, created_at, updated_at`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var (
		c            models.Category
		parentID     uuid.NullUUID
		translations []byte
		lastActivity sql.NullTime
		deletedAt    sql.NullTime
	)
	err := scanner.Scan(
		&c.ID, &c.TenantID, &parentID, &c.Name, &translations, &c.Slug, &c.Description,
		&c.SortOrder, &c.DepthLevel, &c.CategoryPath, &c.State, &c.IsActive,
		&c.ProductCount, &c.ChildCount, &lastActivity, &deletedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		id := parentID.UUID
		c.ParentID = &id
	}
	if len(translations) > 0 {
		if err := json.Unmarshal(translations, &c.Translations); err != nil {
			return nil, fmt.Errorf("decode translations of %s: %w", c.ID, err)
		}
	}
	if lastActivity.Valid {
		t := lastActivity.Time
		c.LastActivityAt = &t
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		c.DeletedAt = &t
	}
	return &c, nil
}

func (s *CategoryStore) queryCategories(ctx context.Context, query string, args ...any) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// FindByID retrieves a live category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1 AND deleted_at IS NULL`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// FindChildren lists the live children of parentID in display order.
func (s *CategoryStore) FindChildren(ctx context.Context, parentID uuid.UUID, activeOnly bool) ([]models.Category, error) {
	items, err := s.queryCategories(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE parent_id = $1 AND deleted_at IS NULL AND (is_active OR NOT $2)
		ORDER BY sort_order, name, id`, parentID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("find children: %w", err)
	}
	return items, nil
}

// FindRoots lists live root categories in display order.
func (s *CategoryStore) FindRoots(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	items, err := s.queryCategories(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE parent_id IS NULL AND deleted_at IS NULL AND (is_active OR NOT $1)
		ORDER BY sort_order, name, id`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("find roots: %w", err)
	}
	return items, nil
}

// CountActiveChildren counts live, active children of parentID.
func (s *CategoryStore) CountActiveChildren(ctx context.Context, parentID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM categories
		WHERE parent_id = $1 AND is_active AND deleted_at IS NULL`, parentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active children: %w", err)
	}
	return n, nil
}

// Update applies a partial update to a live category. Only the fields set
// in patch are written.
func (s *CategoryStore) Update(ctx context.Context, id uuid.UUID, patch models.CategoryPatch) error {
	if patch.Empty() {
		return nil
	}

	sets, args := patchSets(patch)
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, `
		UPDATE categories SET `+strings.Join(sets, ", ")+`, updated_at = NOW()
		WHERE id = $`+fmt.Sprint(len(args))+` AND deleted_at IS NULL`, args...)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update category %s: %w", id, ErrNotFound)
	}
	return nil
}

// patchSets renders the assignments for the fields set in patch. Arguments
// are numbered from $1.
func patchSets(patch models.CategoryPatch) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.ParentSet {
		set("parent_id", patch.ParentID)
	}
	if patch.DepthLevel != nil {
		set("depth_level", *patch.DepthLevel)
	}
	if patch.CategoryPath != nil {
		set("category_path", *patch.CategoryPath)
	}
	if patch.ChildCount != nil {
		set("child_count", *patch.ChildCount)
	}
	if patch.LastActivityAt != nil {
		set("last_activity_at", *patch.LastActivityAt)
	}
	return sets, args
}

// Create inserts a new category and returns it.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	id := c.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	translations, err := json.Marshal(c.Translations)
	if err != nil {
		return nil, fmt.Errorf("encode translations: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (id, tenant_id, parent_id, name, name_translations, slug, description,
			sort_order, depth_level, category_path, lifecycle_state, is_active, product_count)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+categoryColumns,
		id, c.TenantID, c.ParentID, c.Name, string(translations), c.Slug, c.Description,
		c.SortOrder, c.DepthLevel, c.CategoryPath, string(c.State), c.IsActive, c.ProductCount,
	)
	result, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return result, nil
}

// SoftDelete marks a live category as deleted. The row is kept so the
// category can be restored.
func (s *CategoryStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE categories SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete category %s: %w", id, ErrNotFound)
	}
	return nil
}

// FindDeleted retrieves a soft-deleted category by ID. Returns nil if the
// category is unknown or live.
func (s *CategoryStore) FindDeleted(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1 AND deleted_at IS NOT NULL`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find deleted category: %w", err)
	}
	return c, nil
}

// Restore clears the deleted marker and applies patch in a single
// statement, then returns the category. Returns nil if the category is
// unknown or not deleted. If the statement fails the row stays deleted.
func (s *CategoryStore) Restore(ctx context.Context, id uuid.UUID, patch models.CategoryPatch) (*models.Category, error) {
	sets, args := patchSets(patch)
	sets = append(sets, "deleted_at = NULL", "updated_at = NOW()")
	args = append(args, id)

	row := s.db.QueryRowContext(ctx, `
		UPDATE categories SET `+strings.Join(sets, ", ")+`
		WHERE id = $`+fmt.Sprint(len(args))+` AND deleted_at IS NOT NULL
		RETURNING `+categoryColumns, args...)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("restore category: %w", err)
	}
	return c, nil
}

// List returns all live categories as a flat list, shallowest first.
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	items, err := s.queryCategories(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE deleted_at IS NULL
		ORDER BY depth_level, sort_order, name, id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return items, nil
}

// LoadSubtree returns the live category id with levels generations of
// children attached, or nil if it does not exist.
func (s *CategoryStore) LoadSubtree(ctx context.Context, id uuid.UUID, levels int) (*models.Category, error) {
	root, err := s.FindByID(ctx, id)
	if err != nil || root == nil {
		return root, err
	}
	top, err := eagerLoad(ctx, []models.Category{*root}, levels, s.childrenOfMany)
	if err != nil {
		return nil, fmt.Errorf("load subtree: %w", err)
	}
	return &top[0], nil
}

// LoadMenu returns every live root with levels generations of children.
func (s *CategoryStore) LoadMenu(ctx context.Context, levels int) ([]models.Category, error) {
	roots, err := s.FindRoots(ctx, false)
	if err != nil {
		return nil, err
	}
	menu, err := eagerLoad(ctx, roots, levels, s.childrenOfMany)
	if err != nil {
		return nil, fmt.Errorf("load menu: %w", err)
	}
	return menu, nil
}

func (s *CategoryStore) childrenOfMany(ctx context.Context, parentIDs []uuid.UUID) ([]models.Category, error) {
	ids := make([]string, len(parentIDs))
	for i, id := range parentIDs {
		ids[i] = id.String()
	}
	return s.queryCategories(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE parent_id = ANY($1::uuid[]) AND deleted_at IS NULL
		ORDER BY sort_order, name, id`, ids)
}

// NextSortOrder returns the next sort_order value for a given parent.
func (s *CategoryStore) NextSortOrder(ctx context.Context, parentID *uuid.UUID) (int, error) {
	var maxOrder sql.NullInt64
	var err error
	if parentID == nil {
		err = s.db.QueryRowContext(ctx,
			`SELECT MAX(sort_order) FROM categories WHERE parent_id IS NULL AND deleted_at IS NULL`).Scan(&maxOrder)
	} else {
		err = s.db.QueryRowContext(ctx,
			`SELECT MAX(sort_order) FROM categories WHERE parent_id = $1 AND deleted_at IS NULL`, *parentID).Scan(&maxOrder)
	}
	if err != nil {
		return 0, err
	}
	if maxOrder.Valid {
		return int(maxOrder.Int64) + 1, nil
	}
	return 0, nil
}
