// Package catalog handles item CRUD and the item read path. Status and loan
// writes are off limits here; those belong to the lending state machine.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/budingricky/Books-Management-System-BMS/model"
	"github.com/budingricky/Books-Management-System-BMS/service/fault"
)

// ErrDuplicateISBN is returned by the repository on a unique violation.
var ErrDuplicateISBN = errors.New("duplicate isbn")

type ItemFilter struct {
	CategoryID int64
	Status     model.ItemStatus
	Text       string // matches title, author or isbn
	Page       int
	Limit      int
}

type Repo interface {
	Insert(ctx context.Context, it *model.Item) (int64, error)
	Update(ctx context.Context, it *model.Item) error
	// Delete removes the item unless it is BORROWED; it reports
	// sql.ErrNoRows when nothing was deleted.
	Delete(ctx context.Context, id int64) error
	// Get reads the item and its active loan in one statement, so the
	// pair is a single committed snapshot: a BORROWED item always carries
	// its loan.
	Get(ctx context.Context, id int64) (*model.Item, error)
	List(ctx context.Context, f ItemFilter) ([]model.Item, int64, error)
	CategoryExists(ctx context.Context, id int64) (bool, error)
}

type CreateItemInput struct {
	ISBN        string
	Title       string
	Author      string
	Publisher   string
	PublishDate *time.Time
	CategoryID  int64
	Description string
	Location    model.Location
}

type Invalidator interface{ Invalidate() }

type Service interface {
	Create(ctx context.Context, in CreateItemInput) (*model.Item, error)
	Update(ctx context.Context, id int64, in CreateItemInput) (*model.Item, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*model.Item, error)
	List(ctx context.Context, f ItemFilter) ([]model.Item, int64, error)
}

type service struct {
	r   Repo
	inv Invalidator
}

func New(r Repo, inv Invalidator) Service { return &service{r: r, inv: inv} }

func (s *service) invalidate() {
	if s.inv != nil {
		s.inv.Invalidate()
	}
}

func (s *service) validate(ctx context.Context, in CreateItemInput) error {
	if strings.TrimSpace(in.ISBN) == "" {
		return fault.New(fault.InvalidArgument, "empty_isbn")
	}
	if strings.TrimSpace(in.Title) == "" {
		return fault.New(fault.InvalidArgument, "empty_title")
	}
	if in.CategoryID <= 0 {
		return fault.New(fault.InvalidArgument, "missing_category")
	}
	ok, err := s.r.CategoryExists(ctx, in.CategoryID)
	if err != nil {
		return err
	}
	if !ok {
		return fault.New(fault.NotFound, "category_not_found")
	}
	return nil
}

func (s *service) Create(ctx context.Context, in CreateItemInput) (*model.Item, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}
	it := &model.Item{
		ISBN:        strings.TrimSpace(in.ISBN),
		Title:       strings.TrimSpace(in.Title),
		Author:      in.Author,
		Publisher:   in.Publisher,
		PublishDate: in.PublishDate,
		CategoryID:  in.CategoryID,
		Description: in.Description,
		Location:    in.Location,
		Status:      model.ItemAvailable,
	}
	id, err := s.r.Insert(ctx, it)
	if err != nil {
		if errors.Is(err, ErrDuplicateISBN) {
			return nil, fault.New(fault.Conflict, "duplicate_isbn")
		}
		return nil, err
	}
	it.ID = id
	s.invalidate()
	return s.Get(ctx, id)
}

func (s *service) Update(ctx context.Context, id int64, in CreateItemInput) (*model.Item, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}
	cur.ISBN = strings.TrimSpace(in.ISBN)
	cur.Title = strings.TrimSpace(in.Title)
	cur.Author = in.Author
	cur.Publisher = in.Publisher
	cur.PublishDate = in.PublishDate
	cur.CategoryID = in.CategoryID
	cur.Description = in.Description
	cur.Location = in.Location

	if err := s.r.Update(ctx, cur); err != nil {
		if errors.Is(err, ErrDuplicateISBN) {
			return nil, fault.New(fault.Conflict, "duplicate_isbn")
		}
		return nil, err
	}
	s.invalidate()
	return s.Get(ctx, id)
}

// Delete refuses to remove a BORROWED item; the loan must be returned or
// removed first.
func (s *service) Delete(ctx context.Context, id int64) error {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if cur.Status == model.ItemBorrowed {
		return fault.New(fault.Conflict, "item_borrowed")
	}
	if err := s.r.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// raced with a borrow or another delete
			return fault.New(fault.Conflict, "delete_conflict")
		}
		return err
	}
	s.invalidate()
	return nil
}

// Get returns the item with its active loan embedded when BORROWED. The
// repository delivers both from one read, never a mix of two states.
func (s *service) Get(ctx context.Context, id int64) (*model.Item, error) {
	it, err := s.r.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.New(fault.NotFound, "item_not_found")
		}
		return nil, err
	}
	return it, nil
}

func (s *service) List(ctx context.Context, f ItemFilter) ([]model.Item, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	return s.r.List(ctx, f)
}
