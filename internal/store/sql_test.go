// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"taxonomy/internal/models"
)

// These tests pin the SQL the PostgreSQL stores issue without needing a
// running database.

var categoryCols = []string{
	"id", "tenant_id", "parent_id", "name", "name_translations", "slug", "description",
	"sort_order", "depth_level", "category_path", "lifecycle_state", "is_active",
	"product_count", "child_count", "last_activity_at", "deleted_at", "created_at", "updated_at",
}

// arrayConverter lets uuid arrays through the mock driver the way pgx
// accepts them.
type arrayConverter struct{}

func (arrayConverter) ConvertValue(v any) (driver.Value, error) {
	if ids, ok := v.([]string); ok {
		return ids, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func newMockStore(t *testing.T) (*CategoryStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(arrayConverter{}))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
	return NewCategoryStore(db), mock
}

func categoryRow(id uuid.UUID, parent any, name string, depth int, path string) []driver.Value {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	return []driver.Value{
		id.String(), "acme", parent, name, []byte(`{"de":"` + name + `-de"}`), "slug", "",
		0, depth, path, "approved", true,
		2, 1, nil, nil, now, now,
	}
}

func TestCategoryStoreSQLFindByID(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()
	parent := uuid.New()
	query := regexp.QuoteMeta(`FROM categories WHERE id = $1 AND deleted_at IS NULL`)

	mock.ExpectQuery(query).WithArgs(id).
		WillReturnRows(sqlmock.NewRows(categoryCols).AddRow(categoryRow(id, parent.String(), "Phones", 1, "Electronics/Phones")...))

	c, err := s.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if c.ID != id || c.ParentID == nil || *c.ParentID != parent {
		t.Errorf("ids: got %s parent %v", c.ID, c.ParentID)
	}
	if c.Translations["de"] != "Phones-de" {
		t.Errorf("translations: got %v", c.Translations)
	}
	if c.State != models.StateApproved || c.DepthLevel != 1 || c.CategoryPath != "Electronics/Phones" {
		t.Errorf("fields: got %q %d %q", c.State, c.DepthLevel, c.CategoryPath)
	}
	if c.LastActivityAt != nil || c.DeletedAt != nil {
		t.Error("expected nil optional timestamps")
	}

	mock.ExpectQuery(query).WithArgs(id).WillReturnRows(sqlmock.NewRows(categoryCols))
	missing, err := s.FindByID(context.Background(), id)
	if err != nil || missing != nil {
		t.Errorf("missing row: got %v, %v", missing, err)
	}
}

func TestCategoryStoreSQLUpdate(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	id := uuid.New()
	depth, path := 2, "A/B/C"

	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE categories SET parent_id = $1, depth_level = $2, category_path = $3, updated_at = NOW()`)).
		WithArgs(sqlmock.AnyArg(), depth, path, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Update(ctx, id, models.CategoryPatch{ParentSet: true, DepthLevel: &depth, CategoryPath: &path})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	count := 3
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE categories SET child_count = $1, updated_at = NOW()`)).
		WithArgs(count, id).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = s.Update(ctx, id, models.CategoryPatch{ChildCount: &count})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("no rows: got %v, want ErrNotFound", err)
	}

	// An empty patch issues no statement.
	if err := s.Update(ctx, id, models.CategoryPatch{}); err != nil {
		t.Errorf("empty patch: %v", err)
	}
}

func TestCategoryStoreSQLSoftDelete(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()
	stmt := regexp.QuoteMeta(`UPDATE categories SET deleted_at = NOW()`)

	mock.ExpectExec(stmt).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	if err := s.SoftDelete(context.Background(), id); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	mock.ExpectExec(stmt).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := s.SoftDelete(context.Background(), id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}

	dbErr := errors.New("connection reset")
	mock.ExpectExec(stmt).WithArgs(id).WillReturnError(dbErr)
	if err := s.SoftDelete(context.Background(), id); !errors.Is(err, dbErr) {
		t.Errorf("driver error: got %v", err)
	}
}

func TestCategoryStoreSQLRestore(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	id := uuid.New()
	depth, path := 0, "Tools"
	stmt := regexp.QuoteMeta(
		`UPDATE categories SET parent_id = $1, depth_level = $2, category_path = $3, deleted_at = NULL, updated_at = NOW()`)

	mock.ExpectQuery(stmt).WithArgs(sqlmock.AnyArg(), depth, path, id).
		WillReturnRows(sqlmock.NewRows(categoryCols).AddRow(categoryRow(id, nil, "Tools", 0, "Tools")...))
	c, err := s.Restore(ctx, id, models.CategoryPatch{ParentSet: true, DepthLevel: &depth, CategoryPath: &path})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if c == nil || c.ParentID != nil || c.CategoryPath != "Tools" {
		t.Errorf("restored: got %+v", c)
	}

	// A rejected statement (e.g. the depth check) leaves the row deleted
	// and surfaces the driver error.
	checkErr := errors.New(`violates check constraint "categories_depth_level_check"`)
	mock.ExpectQuery(stmt).WithArgs(sqlmock.AnyArg(), depth, path, id).WillReturnError(checkErr)
	if _, err := s.Restore(ctx, id, models.CategoryPatch{ParentSet: true, DepthLevel: &depth, CategoryPath: &path}); !errors.Is(err, checkErr) {
		t.Errorf("driver error: got %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1 AND deleted_at IS NOT NULL`)).WithArgs(id).
		WillReturnRows(sqlmock.NewRows(categoryCols))
	missing, err := s.FindDeleted(ctx, id)
	if err != nil || missing != nil {
		t.Errorf("FindDeleted on live row: got %v, %v", missing, err)
	}
}

func TestCategoryStoreSQLNextSortOrder(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	parent := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE parent_id IS NULL AND deleted_at IS NULL`)).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))
	n, err := s.NextSortOrder(ctx, nil)
	if err != nil || n != 0 {
		t.Errorf("empty level: got %d, %v", n, err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE parent_id = $1 AND deleted_at IS NULL`)).
		WithArgs(parent).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(4))
	n, err = s.NextSortOrder(ctx, &parent)
	if err != nil || n != 5 {
		t.Errorf("with children: got %d, %v", n, err)
	}
}

func TestCategoryStoreSQLLoadSubtree(t *testing.T) {
	s, mock := newMockStore(t)
	root := uuid.New()
	child := uuid.New()
	grandchild := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1 AND deleted_at IS NULL`)).WithArgs(root).
		WillReturnRows(sqlmock.NewRows(categoryCols).AddRow(categoryRow(root, nil, "R", 0, "R")...))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE parent_id = ANY($1::uuid[])`)).
		WillReturnRows(sqlmock.NewRows(categoryCols).AddRow(categoryRow(child, root.String(), "C", 1, "R/C")...))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE parent_id = ANY($1::uuid[])`)).
		WillReturnRows(sqlmock.NewRows(categoryCols).AddRow(categoryRow(grandchild, child.String(), "G", 2, "R/C/G")...))

	tree, err := s.LoadSubtree(context.Background(), root, 2)
	if err != nil {
		t.Fatalf("LoadSubtree: %v", err)
	}
	if len(tree.Children) != 1 || tree.Children[0].ID != child {
		t.Fatalf("children: got %+v", tree.Children)
	}
	if len(tree.Children[0].Children) != 1 || tree.Children[0].Children[0].ID != grandchild {
		t.Errorf("grandchildren: got %+v", tree.Children[0].Children)
	}
}

func TestMutationLogStoreSQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	s := NewMutationLogStore(db)
	ctx := context.Background()
	cat := uuid.New()

	// A failed insert is logged, not returned.
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO category_mutation_log`)).
		WillReturnError(errors.New("disk full"))
	s.Record(ctx, models.MutationEvent{CategoryID: cat, Action: "move"})

	at := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	parent := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM category_mutation_log`)).
		WithArgs(sqlmock.AnyArg(), 10).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "category_id", "action", "old_parent_id", "new_parent_id", "affected", "recorded_at",
		}).
			AddRow(2, cat.String(), "move", parent.String(), nil, 3, at).
			AddRow(1, cat.String(), "create", nil, parent.String(), 1, at))

	events, err := s.Recent(ctx, &cat, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].OldParentID == nil || *events[0].OldParentID != parent || events[0].NewParentID != nil {
		t.Errorf("move parents: got %v -> %v", events[0].OldParentID, events[0].NewParentID)
	}
	if events[1].NewParentID == nil || events[1].Affected != 1 {
		t.Errorf("create event: got %+v", events[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
