package category

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/budingricky/Books-Management-System-BMS/model"
	"github.com/budingricky/Books-Management-System-BMS/service/fault"
)

// memRepo is a map-backed Repo, enough to exercise level derivation and the
// cycle walk. Begin takes a store-wide mutex, so transactions serialize the
// way row locks would.
type memRepo struct {
	mu     sync.Mutex
	byID   map[int64]*model.Category
	items  map[int64]int64 // category id -> item count
	nextID int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		byID:   make(map[int64]*model.Category),
		items:  make(map[int64]int64),
		nextID: 1,
	}
}

func (m *memRepo) Begin(ctx context.Context) (Tx, error) {
	m.mu.Lock()
	return &memTx{m: m}, nil
}

type memTx struct {
	m    *memRepo
	undo []func()
	done bool
}

func (t *memTx) finish() {
	t.done = true
	t.m.mu.Unlock()
}

func (t *memTx) Commit() error {
	t.finish()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return sql.ErrTxDone
	}
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.finish()
	return nil
}

func (t *memTx) GetForUpdate(ctx context.Context, id int64) (*model.Category, error) {
	c, ok := t.m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *c
	cp.Children = nil
	return &cp, nil
}

func (t *memTx) Update(ctx context.Context, c *model.Category) error {
	prev := t.m.byID[c.ID]
	t.undo = append(t.undo, func() { t.m.byID[c.ID] = prev })
	cp := *c
	cp.Children = nil
	t.m.byID[c.ID] = &cp
	return nil
}

func (t *memTx) RecomputeLevels(ctx context.Context, id int64, level int) error {
	c := t.m.byID[id]
	prev := c.Level
	t.undo = append(t.undo, func() { c.Level = prev })
	c.Level = level
	ch, _ := t.m.children(id)
	for _, child := range ch {
		if err := t.RecomputeLevels(ctx, child.ID, level+1); err != nil {
			return err
		}
	}
	return nil
}

func (m *memRepo) Insert(ctx context.Context, c *model.Category) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.byID {
		if e.Code == c.Code {
			return 0, ErrDuplicateCode
		}
	}
	id := m.nextID
	m.nextID++
	cp := *c
	cp.ID = id
	m.byID[id] = &cp
	return id, nil
}

func (m *memRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.byID, id)
	return nil
}

func (m *memRepo) Get(ctx context.Context, id int64) (*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *c
	cp.Children = nil
	return &cp, nil
}

func (m *memRepo) List(ctx context.Context) ([]model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Category
	for id := int64(1); id < m.nextID; id++ {
		if c, ok := m.byID[id]; ok {
			cp := *c
			cp.Children = nil
			out = append(out, cp)
		}
	}
	return out, nil
}

// children assumes mu is already held.
func (m *memRepo) children(id int64) ([]model.Category, error) {
	var out []model.Category
	for cid := int64(1); cid < m.nextID; cid++ {
		c, ok := m.byID[cid]
		if ok && c.ParentID != nil && *c.ParentID == id {
			cp := *c
			cp.Children = nil
			out = append(out, cp)
		}
	}
	return out, nil
}

func (m *memRepo) Children(ctx context.Context, id int64) ([]model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.children(id)
}

func (m *memRepo) CountItems(ctx context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id], nil
}

func (m *memRepo) CountChildren(ctx context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, _ := m.children(id)
	return int64(len(ch)), nil
}

func ptr(v int64) *int64 { return &v }

func TestCreate_Levels(t *testing.T) {
	r := newMemRepo()
	s := New(r)
	ctx := context.Background()

	root, err := s.Create(ctx, Input{Name: "Fiction", Code: "F"})
	require.NoError(t, err)
	require.Equal(t, 1, root.Level)

	child, err := s.Create(ctx, Input{Name: "SciFi", Code: "F.1", ParentID: ptr(root.ID)})
	require.NoError(t, err)
	require.Equal(t, 2, child.Level)

	grand, err := s.Create(ctx, Input{Name: "Cyberpunk", Code: "F.1.1", ParentID: ptr(child.ID)})
	require.NoError(t, err)
	require.Equal(t, 3, grand.Level)
}

func TestCreate_Invalid(t *testing.T) {
	s := New(newMemRepo())
	ctx := context.Background()

	_, err := s.Create(ctx, Input{Code: "X"})
	require.Equal(t, fault.InvalidArgument, fault.KindOf(err))

	_, err = s.Create(ctx, Input{Name: "X"})
	require.Equal(t, fault.InvalidArgument, fault.KindOf(err))

	_, err = s.Create(ctx, Input{Name: "X", Code: "X", ParentID: ptr(99)})
	require.Equal(t, fault.NotFound, fault.KindOf(err))
}

func TestCreate_DuplicateCode(t *testing.T) {
	r := newMemRepo()
	s := New(r)
	ctx := context.Background()

	_, err := s.Create(ctx, Input{Name: "A", Code: "C"})
	require.NoError(t, err)
	_, err = s.Create(ctx, Input{Name: "B", Code: "C"})
	require.Equal(t, fault.Conflict, fault.KindOf(err))
	require.Equal(t, "duplicate_code", fault.ReasonOf(err))
}

func TestUpdate_RejectsCycle(t *testing.T) {
	r := newMemRepo()
	s := New(r)
	ctx := context.Background()

	a, _ := s.Create(ctx, Input{Name: "A", Code: "A"})
	b, _ := s.Create(ctx, Input{Name: "B", Code: "B", ParentID: ptr(a.ID)})
	c, _ := s.Create(ctx, Input{Name: "C", Code: "C", ParentID: ptr(b.ID)})

	// a under c would close the loop a -> b -> c -> a
	_, err := s.Update(ctx, a.ID, Input{Name: "A", Code: "A", ParentID: ptr(c.ID)})
	require.Equal(t, fault.Conflict, fault.KindOf(err))
	require.Equal(t, "category_cycle", fault.ReasonOf(err))

	// self-parent is the trivial cycle
	_, err = s.Update(ctx, a.ID, Input{Name: "A", Code: "A", ParentID: ptr(a.ID)})
	require.Equal(t, fault.Conflict, fault.KindOf(err))
}

// Two opposite reparents must never both commit: whichever transaction runs
// second sees the first one's committed parent chain and fails the cycle
// walk, so the tree stays acyclic.
func TestUpdate_ConcurrentReparentKeepsTreeAcyclic(t *testing.T) {
	r := newMemRepo()
	s := New(r)
	ctx := context.Background()

	a, _ := s.Create(ctx, Input{Name: "A", Code: "A"})
	b, _ := s.Create(ctx, Input{Name: "B", Code: "B"})

	errs := make(chan error, 2)
	go func() {
		_, err := s.Update(ctx, a.ID, Input{Name: "A", Code: "A", ParentID: ptr(b.ID)})
		errs <- err
	}()
	go func() {
		_, err := s.Update(ctx, b.ID, Input{Name: "B", Code: "B", ParentID: ptr(a.ID)})
		errs <- err
	}()

	var oks, conflicts int
	for i := 0; i < 2; i++ {
		err := <-errs
		if err == nil {
			oks++
			continue
		}
		require.Equal(t, fault.Conflict, fault.KindOf(err))
		require.Equal(t, "category_cycle", fault.ReasonOf(err))
		conflicts++
	}
	require.Equal(t, 1, oks, "exactly one reparent may win")
	require.Equal(t, 1, conflicts)

	// the chain from either node must still end at a root
	for _, id := range []int64{a.ID, b.ID} {
		cur := id
		for depth := 0; ; depth++ {
			require.Less(t, depth, maxDepth, "parent chain must terminate")
			c, err := s.Get(ctx, cur)
			require.NoError(t, err)
			if c.ParentID == nil {
				break
			}
			cur = *c.ParentID
		}
	}
}

func TestUpdate_ReparentShiftsSubtree(t *testing.T) {
	r := newMemRepo()
	s := New(r)
	ctx := context.Background()

	a, _ := s.Create(ctx, Input{Name: "A", Code: "A"})
	b, _ := s.Create(ctx, Input{Name: "B", Code: "B", ParentID: ptr(a.ID)})
	c, _ := s.Create(ctx, Input{Name: "C", Code: "C", ParentID: ptr(b.ID)})

	// detach b: b becomes a root, c follows one level up
	got, err := s.Update(ctx, b.ID, Input{Name: "B", Code: "B"})
	require.NoError(t, err)
	require.Equal(t, 1, got.Level)

	cc, err := s.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, 2, cc.Level)
}

func TestDelete_Conflicts(t *testing.T) {
	r := newMemRepo()
	s := New(r)
	ctx := context.Background()

	a, _ := s.Create(ctx, Input{Name: "A", Code: "A"})
	_, _ = s.Create(ctx, Input{Name: "B", Code: "B", ParentID: ptr(a.ID)})

	err := s.Delete(ctx, a.ID)
	require.Equal(t, fault.Conflict, fault.KindOf(err))
	require.Equal(t, "has_children", fault.ReasonOf(err))

	empty, _ := s.Create(ctx, Input{Name: "E", Code: "E"})
	r.items[empty.ID] = 3
	err = s.Delete(ctx, empty.ID)
	require.Equal(t, fault.Conflict, fault.KindOf(err))
	require.Equal(t, "has_items", fault.ReasonOf(err))

	r.items[empty.ID] = 0
	require.NoError(t, s.Delete(ctx, empty.ID))

	err = s.Delete(ctx, 999)
	require.Equal(t, fault.NotFound, fault.KindOf(err))
}

func TestList_Tree(t *testing.T) {
	r := newMemRepo()
	s := New(r)
	ctx := context.Background()

	a, _ := s.Create(ctx, Input{Name: "A", Code: "A"})
	b, _ := s.Create(ctx, Input{Name: "B", Code: "B", ParentID: ptr(a.ID)})
	_, _ = s.Create(ctx, Input{Name: "C", Code: "C", ParentID: ptr(b.ID)})
	_, _ = s.Create(ctx, Input{Name: "D", Code: "D"})

	roots, err := s.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, roots, 2)
	require.Equal(t, "A", roots[0].Name)
	require.Len(t, roots[0].Children, 1)
	require.Len(t, roots[0].Children[0].Children, 1)

	flat, err := s.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, flat, 4)
}
