// Package category manages the classification tree: levels derive from the
// parent chain (roots are level 1) and the chain must stay acyclic.
package category

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/budingricky/Books-Management-System-BMS/model"
	"github.com/budingricky/Books-Management-System-BMS/service/fault"
)

// ErrDuplicateCode is returned by the repository on a unique violation.
var ErrDuplicateCode = errors.New("duplicate code")

// maxDepth bounds parent-chain walks; a longer chain means the data already
// contains a cycle.
const maxDepth = 64

type Repo interface {
	// Begin opens the transaction every Update runs in: the cycle check,
	// the row update, and the subtree level rewrite commit as one unit.
	Begin(ctx context.Context) (Tx, error)

	Insert(ctx context.Context, c *model.Category) (int64, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	Children(ctx context.Context, id int64) ([]model.Category, error)
	CountItems(ctx context.Context, id int64) (int64, error)
	CountChildren(ctx context.Context, id int64) (int64, error)
}

type Tx interface {
	// GetForUpdate locks the row for the rest of the transaction, so two
	// concurrent reparents cannot both pass the cycle walk against the
	// old state.
	GetForUpdate(ctx context.Context, id int64) (*model.Category, error)
	Update(ctx context.Context, c *model.Category) error
	// RecomputeLevels rewrites the levels of id's subtree after a reparent.
	RecomputeLevels(ctx context.Context, id int64, level int) error

	Commit() error
	Rollback() error
}

type Input struct {
	Name     string
	Code     string
	ParentID *int64
}

type Service interface {
	Create(ctx context.Context, in Input) (*model.Category, error)
	Update(ctx context.Context, id int64, in Input) (*model.Category, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*model.Category, error)
	List(ctx context.Context, tree bool) ([]*model.Category, error)
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) validate(in Input) error {
	if strings.TrimSpace(in.Name) == "" {
		return fault.New(fault.InvalidArgument, "empty_name")
	}
	if strings.TrimSpace(in.Code) == "" {
		return fault.New(fault.InvalidArgument, "empty_code")
	}
	return nil
}

// levelFor resolves the level a node gets under the given parent.
func (s *service) levelFor(ctx context.Context, parentID *int64) (int, error) {
	if parentID == nil {
		return 1, nil
	}
	p, err := s.r.Get(ctx, *parentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fault.New(fault.NotFound, "parent_not_found")
		}
		return 0, err
	}
	return p.Level + 1, nil
}

// lockedLevelFor walks up from parentID, locking every row on the chain, and
// returns the level id gets under that parent. Reaching id on the way up is a
// cycle. The locks stay held until commit, so a concurrent reparent of an
// ancestor either waits or deadlocks and aborts; it can never slip a cycle in
// behind the walk.
func (s *service) lockedLevelFor(ctx context.Context, tx Tx, id int64, parentID *int64) (int, error) {
	if parentID == nil {
		return 1, nil
	}
	level := 0
	cur := parentID
	for depth := 0; cur != nil; depth++ {
		if *cur == id || depth > maxDepth {
			return 0, fault.New(fault.Conflict, "category_cycle")
		}
		p, err := tx.GetForUpdate(ctx, *cur)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return 0, fault.New(fault.NotFound, "parent_not_found")
			}
			return 0, err
		}
		if level == 0 {
			level = p.Level + 1
		}
		cur = p.ParentID
	}
	return level, nil
}

func (s *service) Create(ctx context.Context, in Input) (*model.Category, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}
	level, err := s.levelFor(ctx, in.ParentID)
	if err != nil {
		return nil, err
	}
	c := &model.Category{
		Name:     strings.TrimSpace(in.Name),
		Code:     strings.TrimSpace(in.Code),
		ParentID: in.ParentID,
		Level:    level,
	}
	id, err := s.r.Insert(ctx, c)
	if err != nil {
		if errors.Is(err, ErrDuplicateCode) {
			return nil, fault.New(fault.Conflict, "duplicate_code")
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *service) Update(ctx context.Context, id int64, in Input) (_ *model.Category, err error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}

	tx, err := s.r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	cur, err := tx.GetForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.New(fault.NotFound, "category_not_found")
		}
		return nil, err
	}
	level, err := s.lockedLevelFor(ctx, tx, id, in.ParentID)
	if err != nil {
		return nil, err
	}

	cur.Name = strings.TrimSpace(in.Name)
	cur.Code = strings.TrimSpace(in.Code)
	cur.ParentID = in.ParentID
	cur.Level = level
	if err = tx.Update(ctx, cur); err != nil {
		if errors.Is(err, ErrDuplicateCode) {
			return nil, fault.New(fault.Conflict, "duplicate_code")
		}
		return nil, err
	}
	// reparenting shifts the whole subtree's levels
	if err = tx.RecomputeLevels(ctx, id, level); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete fails with Conflict while children or items still reference the
// category.
func (s *service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	children, err := s.r.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return fault.New(fault.Conflict, "has_children")
	}
	items, err := s.r.CountItems(ctx, id)
	if err != nil {
		return err
	}
	if items > 0 {
		return fault.New(fault.Conflict, "has_items")
	}
	if err := s.r.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fault.New(fault.NotFound, "category_not_found")
		}
		return err
	}
	return nil
}

func (s *service) Get(ctx context.Context, id int64) (*model.Category, error) {
	c, err := s.r.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.New(fault.NotFound, "category_not_found")
		}
		return nil, err
	}
	children, err := s.r.Children(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range children {
		c.Children = append(c.Children, &children[i])
	}
	if c.ItemCount, err = s.r.CountItems(ctx, id); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns the categories flat, or assembled into a tree when tree is
// set (roots only, children nested).
func (s *service) List(ctx context.Context, tree bool) ([]*model.Category, error) {
	flat, err := s.r.List(ctx)
	if err != nil {
		return nil, err
	}
	if !tree {
		out := make([]*model.Category, len(flat))
		for i := range flat {
			out[i] = &flat[i]
		}
		return out, nil
	}

	byID := make(map[int64]*model.Category, len(flat))
	for i := range flat {
		byID[flat[i].ID] = &flat[i]
	}
	var roots []*model.Category
	for i := range flat {
		c := &flat[i]
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		if p, ok := byID[*c.ParentID]; ok {
			p.Children = append(p.Children, c)
		} else {
			roots = append(roots, c)
		}
	}
	return roots, nil
}
