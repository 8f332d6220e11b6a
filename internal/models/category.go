// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// LifecycleState is the approval state of a category. The vocabulary is
// owned by the approval workflow; the hierarchy engine only reads it.
type LifecycleState string

const (
	StateDraft     LifecycleState = "draft"
	StatePending   LifecycleState = "pending"
	StateApproved  LifecycleState = "approved"
	StateRejected  LifecycleState = "rejected"
	StateSuspended LifecycleState = "suspended"
	StateArchived  LifecycleState = "archived"
)

// Valid reports whether s belongs to the lifecycle vocabulary.
func (s LifecycleState) Valid() bool {
	switch s {
	case StateDraft, StatePending, StateApproved, StateRejected, StateSuspended, StateArchived:
		return true
	}
	return false
}

// Category is a node of the marketplace taxonomy.
//
// DepthLevel and CategoryPath are caches of the ancestor chain. They are
// written on creation and afterwards only by the hierarchy engine.
type Category struct {
	ID           uuid.UUID         `json:"id"`
	TenantID     string            `json:"tenant_id,omitempty"`
	ParentID     *uuid.UUID        `json:"parent_id"`
	Name         string            `json:"name"`
	Translations map[string]string `json:"translations,omitempty"`
	Slug         string            `json:"slug"`
	Description  string            `json:"description"`
	SortOrder    int               `json:"sort_order"`
	DepthLevel   int               `json:"depth_level"`
	CategoryPath string            `json:"category_path"`
	State        LifecycleState    `json:"lifecycle_state"`
	IsActive     bool              `json:"is_active"`

	// Best-effort aggregates maintained by the metrics propagator.
	ProductCount   int        `json:"product_count"`
	ChildCount     int        `json:"child_count"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`

	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Children is populated only by eager-loading store methods. It is a
	// read view and never written back.
	Children []Category `json:"children,omitempty"`
}

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// IsDeleted reports whether the category has been soft-removed.
func (c *Category) IsDeleted() bool {
	return c.DeletedAt != nil
}

// DisplayName returns the localized name for lang, falling back to Name.
func (c *Category) DisplayName(lang string) string {
	if lang != "" {
		if v, ok := c.Translations[lang]; ok && v != "" {
			return v
		}
	}
	return c.Name
}

// Visible reports whether the category may be shown in catalog menus.
func (c *Category) Visible() bool {
	return c.IsActive && c.State == StateApproved && !c.IsDeleted()
}

// SiblingLess is the display order of categories sharing a parent: sort
// order, then name, then id. The PostgreSQL store orders rows the same way.
func SiblingLess(a, b *Category) bool {
	if a.SortOrder != b.SortOrder {
		return a.SortOrder < b.SortOrder
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID.String() < b.ID.String()
}

// SortSiblings sorts cats in place by SiblingLess.
func SortSiblings(cats []Category) {
	sort.SliceStable(cats, func(i, j int) bool { return SiblingLess(&cats[i], &cats[j]) })
}

// CategoryPatch is a partial update of the structural and aggregate fields.
// Nil pointers are left untouched. ParentSet must be true for ParentID to be
// applied, since a nil ParentID is itself a meaningful value (root).
type CategoryPatch struct {
	ParentSet      bool
	ParentID       *uuid.UUID
	DepthLevel     *int
	CategoryPath   *string
	ChildCount     *int
	LastActivityAt *time.Time
}

// Empty reports whether the patch would change nothing.
func (p CategoryPatch) Empty() bool {
	return !p.ParentSet && p.DepthLevel == nil && p.CategoryPath == nil &&
		p.ChildCount == nil && p.LastActivityAt == nil
}

// Apply copies the patched fields onto c.
func (p CategoryPatch) Apply(c *Category) {
	if p.ParentSet {
		if p.ParentID == nil {
			c.ParentID = nil
		} else {
			id := *p.ParentID
			c.ParentID = &id
		}
	}
	if p.DepthLevel != nil {
		c.DepthLevel = *p.DepthLevel
	}
	if p.CategoryPath != nil {
		c.CategoryPath = *p.CategoryPath
	}
	if p.ChildCount != nil {
		c.ChildCount = *p.ChildCount
	}
	if p.LastActivityAt != nil {
		t := *p.LastActivityAt
		c.LastActivityAt = &t
	}
}

// Breadcrumb is one display item of a root-first navigation path.
type Breadcrumb struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	URL        string    `json:"url"`
	IsActive   bool      `json:"is_active"`
	DepthLevel int       `json:"depth_level"`
}

// TreeNode wraps a category in a nested tree built for display.
type TreeNode struct {
	Category
	Children   []*TreeNode `json:"children"`
	IsRoot     bool        `json:"is_root"`
	IsLeaf     bool        `json:"is_leaf"`
	Label      string      `json:"label"`
	Indent     int         `json:"indent"`
	ChildTotal int         `json:"child_total"`
}

// MutationEvent is one audit record of a structural change.
type MutationEvent struct {
	ID          int64      `json:"id"`
	CategoryID  uuid.UUID  `json:"category_id"`
	Action      string     `json:"action"`
	OldParentID *uuid.UUID `json:"old_parent_id,omitempty"`
	NewParentID *uuid.UUID `json:"new_parent_id,omitempty"`
	Affected    int        `json:"affected"`
	RecordedAt  time.Time  `json:"recorded_at"`
}
