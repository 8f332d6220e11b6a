// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package hierarchy

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"taxonomy/internal/models"
	"taxonomy/internal/store"
)

var errInjected = errors.New("injected failure")

// faultyStore wraps a MemoryStore and fails selected calls.
type faultyStore struct {
	*store.MemoryStore

	mu         sync.Mutex
	failUpdate map[uuid.UUID]error
	failCount  error
	failFind   map[uuid.UUID]error
	failDelete map[uuid.UUID]error
	finds      int
}

func newFaultyStore() *faultyStore {
	return &faultyStore{
		MemoryStore: store.NewMemoryStore(),
		failUpdate:  make(map[uuid.UUID]error),
		failFind:    make(map[uuid.UUID]error),
		failDelete:  make(map[uuid.UUID]error),
	}
}

func (f *faultyStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	f.mu.Lock()
	f.finds++
	err := f.failFind[id]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.MemoryStore.FindByID(ctx, id)
}

func (f *faultyStore) Update(ctx context.Context, id uuid.UUID, patch models.CategoryPatch) error {
	f.mu.Lock()
	err := f.failUpdate[id]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.MemoryStore.Update(ctx, id, patch)
}

func (f *faultyStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	err := f.failDelete[id]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.MemoryStore.SoftDelete(ctx, id)
}

func (f *faultyStore) CountActiveChildren(ctx context.Context, parentID uuid.UUID) (int, error) {
	if f.failCount != nil {
		return 0, f.failCount
	}
	return f.MemoryStore.CountActiveChildren(ctx, parentID)
}

func (f *faultyStore) findCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finds
}

// recordingLog collects mutation events.
type recordingLog struct {
	events []models.MutationEvent
}

func (l *recordingLog) Record(_ context.Context, ev models.MutationEvent) {
	l.events = append(l.events, ev)
}

// countingTrees counts menu invalidations.
type countingTrees struct {
	n int
}

func (c *countingTrees) InvalidateAll(context.Context) { c.n++ }

type fixture struct {
	t      *testing.T
	store  *faultyStore
	engine *Engine
	log    *recordingLog
	trees  *countingTrees
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	fs := newFaultyStore()
	log := &recordingLog{}
	trees := &countingTrees{}
	opts = append([]Option{WithMutationLog(log), WithTreeCache(trees)}, opts...)
	return &fixture{t: t, store: fs, engine: New(fs, opts...), log: log, trees: trees}
}

// add stores an approved, active category below parent with a consistent
// depth and path.
func (f *fixture) add(name string, parent *models.Category, mods ...func(*models.Category)) *models.Category {
	f.t.Helper()
	c := models.Category{
		ID:           uuid.New(),
		Name:         name,
		Slug:         name,
		CategoryPath: name,
		State:        models.StateApproved,
		IsActive:     true,
	}
	if parent != nil {
		id := parent.ID
		c.ParentID = &id
		c.DepthLevel = parent.DepthLevel + 1
		c.CategoryPath = parent.CategoryPath + DefaultSeparator + name
	}
	for _, mod := range mods {
		mod(&c)
	}
	f.store.Put(c)
	return &c
}

// get reloads a category, failing the test if it is gone.
func (f *fixture) get(id uuid.UUID) *models.Category {
	f.t.Helper()
	c, err := f.store.MemoryStore.FindByID(context.Background(), id)
	require.NoError(f.t, err)
	require.NotNil(f.t, c, "category %s not found", id)
	return c
}

// chain adds a linear chain of n categories, the first one a root.
func (f *fixture) chain(prefix string, n int) []*models.Category {
	f.t.Helper()
	var out []*models.Category
	var parent *models.Category
	for i := 0; i < n; i++ {
		c := f.add(prefix+string(rune('0'+i)), parent)
		out = append(out, c)
		parent = c
	}
	return out
}

func TestPrepareHierarchy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	levels := f.chain("L", 5)

	inactive := f.add("Inactive", nil, func(c *models.Category) { c.IsActive = false })
	draft := f.add("Draft", nil, func(c *models.Category) { c.State = models.StateDraft })
	archived := f.add("Archived", nil, func(c *models.Category) { c.State = models.StateArchived })
	suspended := f.add("Suspended", nil, func(c *models.Category) { c.State = models.StateSuspended })
	missing := uuid.New()

	p, err := f.engine.PrepareHierarchy(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 0, p.DepthLevel)
	require.Nil(t, p.Parent)

	p, err = f.engine.PrepareHierarchy(ctx, &levels[3].ID)
	require.NoError(t, err)
	require.Equal(t, 4, p.DepthLevel)
	require.Equal(t, "L0/L1/L2/L3", p.CategoryPath)
	require.Equal(t, levels[3].ID, p.Parent.ID)

	tests := []struct {
		name   string
		parent uuid.UUID
		want   error
	}{
		{"missing parent", missing, ErrParentNotFound},
		{"inactive parent", inactive.ID, ErrInactiveParent},
		{"draft parent", draft.ID, ErrUnapprovedParent},
		{"archived parent", archived.ID, ErrUnapprovedParent},
		{"suspended parent", suspended.ID, ErrUnapprovedParent},
		{"parent at max depth", levels[4].ID, ErrMaxDepthExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.PrepareHierarchy(ctx, &tt.parent)
			require.ErrorIs(t, err, tt.want)
			require.True(t, IsValidation(err))
		})
	}
}

func TestPrepareHierarchyStoreError(t *testing.T) {
	f := newFixture(t)
	parent := f.add("P", nil)
	f.store.failFind[parent.ID] = errInjected

	_, err := f.engine.PrepareHierarchy(context.Background(), &parent.ID)
	require.ErrorIs(t, err, errInjected)
	require.False(t, IsValidation(err))
}

func TestWouldCreateCycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.add("A", nil)
	b := f.add("B", a)
	c := f.add("C", b)
	x := f.add("X", nil)

	tests := []struct {
		name         string
		node, parent uuid.UUID
		want         bool
	}{
		{"self", a.ID, a.ID, true},
		{"direct child", a.ID, b.ID, true},
		{"grandchild", a.ID, c.ID, true},
		{"unrelated root", b.ID, x.ID, false},
		{"own ancestor", c.ID, a.ID, false},
		{"unknown parent", a.ID, uuid.New(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.engine.WouldCreateCycle(ctx, tt.node, tt.parent)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestWouldCreateCycleStopsOnStoredLoop(t *testing.T) {
	f := newFixture(t)
	p, q := uuid.New(), uuid.New()
	f.store.Put(
		models.Category{ID: p, ParentID: &q, Name: "P", IsActive: true},
		models.Category{ID: q, ParentID: &p, Name: "Q", IsActive: true},
	)
	outsider := f.add("Outsider", nil)

	got, err := f.engine.WouldCreateCycle(context.Background(), outsider.ID, p)
	require.NoError(t, err)
	require.False(t, got)
}

func TestWouldCreateCycleStoreError(t *testing.T) {
	f := newFixture(t)
	a := f.add("A", nil)
	b := f.add("B", a)
	f.store.failFind[a.ID] = errInjected

	_, err := f.engine.WouldCreateCycle(context.Background(), uuid.New(), b.ID)
	require.ErrorIs(t, err, errInjected)
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.add("Electronics", nil)

	created, err := f.engine.Create(ctx, &models.Category{ParentID: &root.ID, Name: "Phones", IsActive: true})
	require.NoError(t, err)
	require.Equal(t, 1, created.DepthLevel)
	require.Equal(t, "Electronics/Phones", created.CategoryPath)
	require.Equal(t, models.StateDraft, created.State)

	require.Equal(t, 1, f.get(root.ID).ChildCount)
	require.NotNil(t, f.get(root.ID).LastActivityAt)
	require.Equal(t, 1, f.trees.n)
	require.Len(t, f.log.events, 1)
	require.Equal(t, "create", f.log.events[0].Action)

	rootCat, err := f.engine.Create(ctx, &models.Category{Name: "Books", State: models.StateApproved})
	require.NoError(t, err)
	require.Equal(t, 0, rootCat.DepthLevel)
	require.Equal(t, "Books", rootCat.CategoryPath)
	require.Equal(t, models.StateApproved, rootCat.State)
}

func TestCreateRejectsInvalidParent(t *testing.T) {
	f := newFixture(t)
	levels := f.chain("L", 5)

	_, err := f.engine.Create(context.Background(), &models.Category{ParentID: &levels[4].ID, Name: "Too deep"})
	require.ErrorIs(t, err, ErrMaxDepthExceeded)

	kids, _ := f.store.FindChildren(context.Background(), levels[4].ID, false)
	require.Empty(t, kids)
	require.Empty(t, f.log.events)
}

func TestCreateWithSeparator(t *testing.T) {
	f := newFixture(t, WithSeparator(" > "))
	root := f.add("Home", nil)

	created, err := f.engine.Create(context.Background(), &models.Category{
		ParentID: &root.ID,
		Name:     "Kitchen",
		State:    models.StateApproved,
		IsActive: true,
	})
	require.NoError(t, err)
	require.Equal(t, "Home > Kitchen", created.CategoryPath)

	moved := f.add("Oven", nil)
	_, err = f.engine.Move(context.Background(), moved, &created.ID)
	require.NoError(t, err)
	require.Equal(t, "Home > Kitchen > Oven", f.get(moved.ID).CategoryPath)
}

func TestDepthAndPathOf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.add("A", nil)
	b := f.add("B", a)

	depth, err := f.engine.DepthOf(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, 1, depth)

	path, err := f.engine.PathOf(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, "A/B", path)

	_, err = f.engine.DepthOf(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNodeNotFound)
	_, err = f.engine.Get(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNodeNotFound)
}

func TestRootsAndChildrenOf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.add("B", nil, func(c *models.Category) { c.SortOrder = 1 })
	a := f.add("A", nil, func(c *models.Category) { c.SortOrder = 1 })
	f.add("Z", nil, func(c *models.Category) { c.SortOrder = 0; c.IsActive = false })
	f.add("b2", b, func(c *models.Category) { c.SortOrder = 2 })
	f.add("b1", b, func(c *models.Category) { c.SortOrder = 1 })

	roots, err := f.engine.RootsOf(ctx, false)
	require.NoError(t, err)
	require.Equal(t, []string{"Z", "A", "B"}, names(roots))

	active, err := f.engine.RootsOf(ctx, true)
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B"}, names(active))

	kids, err := f.engine.ChildrenOf(ctx, b.ID, false)
	require.NoError(t, err)
	require.Equal(t, []string{"b1", "b2"}, names(kids))

	none, err := f.engine.ChildrenOf(ctx, a.ID, false)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestCheckDeletable(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t)
	busy := f.add("Busy", nil, func(c *models.Category) { c.ProductCount = 3 })
	empty := f.add("Empty", nil)
	require.ErrorIs(t, f.engine.CheckDeletable(ctx, busy), ErrNodeHasDependents)
	require.NoError(t, f.engine.CheckDeletable(ctx, empty))

	locked := errors.New("locked")
	g := newFixture(t, WithDeleteGuard(func(context.Context, *models.Category) error { return locked }))
	require.ErrorIs(t, g.engine.CheckDeletable(ctx, empty), locked)
}

func TestPropagationFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	root := f.add("Root", nil)
	f.store.failCount = errInjected

	created, err := f.engine.Create(context.Background(), &models.Category{ParentID: &root.ID, Name: "Child"})
	require.NoError(t, err)
	require.NotNil(t, created)
	require.Equal(t, 0, f.get(root.ID).ChildCount)
}

func TestPropagatorSkipsNilAndDuplicates(t *testing.T) {
	fs := newFaultyStore()
	p := NewPropagator(fs)
	a := uuid.New()
	b := uuid.New()
	fs.Put(
		models.Category{ID: a, Name: "A", IsActive: true},
		models.Category{ID: b, ParentID: &a, Name: "B", IsActive: true},
	)

	p.Propagate(context.Background(), nil, &a, &a, nil)

	got, _ := fs.MemoryStore.FindByID(context.Background(), a)
	require.Equal(t, 1, got.ChildCount)
	require.NotNil(t, got.LastActivityAt)
}

func names(cats []models.Category) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = c.Name
	}
	return out
}
