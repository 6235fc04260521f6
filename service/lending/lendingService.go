// Package lending is the state machine over items and loans. Every mutation
// runs under a per-item lock and a single transaction, so no reader ever sees
// a BORROWED item without its active loan or the other way around.
package lending

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/budingricky/Books-Management-System-BMS/model"
	"github.com/budingricky/Books-Management-System-BMS/service/fault"
	"github.com/budingricky/Books-Management-System-BMS/util/lock"
)

// Store is the transactional mutation surface of the lending store. Item
// status and loan rows are only ever written through a Tx obtained here.
type Store interface {
	Begin(ctx context.Context) (Tx, error)

	// LoanItemID resolves a loan to its item without locking, so the
	// per-item lock can be taken before the transaction starts.
	LoanItemID(ctx context.Context, loanID int64) (int64, error)
}

type Tx interface {
	ItemStatusForUpdate(ctx context.Context, itemID int64) (model.ItemStatus, error)
	SetItemStatus(ctx context.Context, itemID int64, st model.ItemStatus) error
	InsertLoan(ctx context.Context, l *model.Loan) (int64, error)
	LoanForUpdate(ctx context.Context, loanID int64) (*model.Loan, error)
	MarkReturned(ctx context.Context, loanID int64, at time.Time) error
	DeleteLoan(ctx context.Context, loanID int64) error

	Commit() error
	Rollback() error
}

// Reader is the committed-state read path for loans.
type Reader interface {
	GetLoan(ctx context.Context, loanID int64) (*model.Loan, error)
	ListLoans(ctx context.Context, f ListFilter) ([]model.Loan, int64, error)
	DueSoon(ctx context.Context, from, until time.Time) ([]model.Loan, error)
}

type ListFilter struct {
	Status   model.LoanStatus // "", ACTIVE, RETURNED or OVERDUE
	Borrower string           // substring match
	ItemID   int64            // 0 = any
	Now      time.Time        // reference instant for the OVERDUE filter
	Page     int
	Limit    int
}

// Invalidator is notified after every committed mutation (stats cache).
type Invalidator interface{ Invalidate() }

type BorrowInput struct {
	ItemID   int64
	Borrower string
	Contact  string
	Notes    string
	// DueAt zero means "default loan period from now".
	DueAt time.Time
}

type Service interface {
	Borrow(ctx context.Context, in BorrowInput) (*model.Loan, error)
	Return(ctx context.Context, loanID int64) (*model.Loan, error)
	Remove(ctx context.Context, loanID int64) error
	SetMaintenance(ctx context.Context, itemID int64, unavailable bool) error

	GetLoan(ctx context.Context, loanID int64) (*model.Loan, error)
	ListLoans(ctx context.Context, f ListFilter) ([]model.Loan, int64, error)
	DueSoon(ctx context.Context, withinDays int) ([]model.Loan, error)
}

type service struct {
	store       Store
	reader      Reader
	locks       *lock.Keyed
	inv         Invalidator
	log         *slog.Logger
	defaultLoan time.Duration
	now         func() time.Time
}

type Option func(*service)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithInvalidator registers a cache to purge after committed mutations.
func WithInvalidator(inv Invalidator) Option {
	return func(s *service) { s.inv = inv }
}

func New(store Store, reader Reader, log *slog.Logger, defaultLoanDays int, opts ...Option) Service {
	s := &service{
		store:       store,
		reader:      reader,
		locks:       lock.NewKeyed(),
		log:         log,
		defaultLoan: time.Duration(defaultLoanDays) * 24 * time.Hour,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *service) invalidate() {
	if s.inv != nil {
		s.inv.Invalidate()
	}
}

// Borrow creates an active loan and flips the item to BORROWED as one unit.
// Only one concurrent Borrow on the same item can succeed.
func (s *service) Borrow(ctx context.Context, in BorrowInput) (loan *model.Loan, err error) {
	if in.Borrower == "" {
		return nil, fault.New(fault.InvalidArgument, "empty_borrower")
	}
	now := s.now()
	due := in.DueAt
	if due.IsZero() {
		due = now.Add(s.defaultLoan)
	} else if !due.After(now) {
		return nil, fault.New(fault.InvalidArgument, "due_not_in_future")
	}

	s.locks.Lock(in.ItemID)
	defer s.locks.Unlock(in.ItemID)

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	st, err := tx.ItemStatusForUpdate(ctx, in.ItemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.New(fault.NotFound, "item_not_found")
		}
		return nil, err
	}
	if st != model.ItemAvailable {
		return nil, fault.New(fault.Conflict, "item_not_available")
	}

	loan = &model.Loan{
		ItemID:     in.ItemID,
		Borrower:   in.Borrower,
		Contact:    in.Contact,
		Notes:      in.Notes,
		BorrowedAt: now,
		DueAt:      due,
	}
	if loan.ID, err = tx.InsertLoan(ctx, loan); err != nil {
		return nil, err
	}
	if err = tx.SetItemStatus(ctx, in.ItemID, model.ItemBorrowed); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	s.invalidate()
	return loan, nil
}

// Return closes an active loan and frees the item. A second Return on the
// same loan gets Conflict with reason "already_returned" and changes nothing.
func (s *service) Return(ctx context.Context, loanID int64) (loan *model.Loan, err error) {
	itemID, err := s.store.LoanItemID(ctx, loanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.New(fault.NotFound, "loan_not_found")
		}
		return nil, err
	}

	s.locks.Lock(itemID)
	defer s.locks.Unlock(itemID)

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	loan, err = tx.LoanForUpdate(ctx, loanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.New(fault.NotFound, "loan_not_found")
		}
		return nil, err
	}
	if loan.ReturnedAt != nil {
		return nil, fault.New(fault.Conflict, "already_returned")
	}

	now := s.now()
	if err = tx.MarkReturned(ctx, loanID, now); err != nil {
		return nil, err
	}
	if err = tx.SetItemStatus(ctx, loan.ItemID, model.ItemAvailable); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	loan.ReturnedAt = &now
	s.invalidate()
	return loan, nil
}

// Remove deletes a loan record outright (administrative). Deleting an active
// loan frees the item in the same transaction so the item never stays
// BORROWED with no loan behind it.
func (s *service) Remove(ctx context.Context, loanID int64) (err error) {
	itemID, err := s.store.LoanItemID(ctx, loanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fault.New(fault.NotFound, "loan_not_found")
		}
		return err
	}

	s.locks.Lock(itemID)
	defer s.locks.Unlock(itemID)

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	loan, err := tx.LoanForUpdate(ctx, loanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fault.New(fault.NotFound, "loan_not_found")
		}
		return err
	}
	if err = tx.DeleteLoan(ctx, loanID); err != nil {
		return err
	}
	if loan.ReturnedAt == nil {
		if err = tx.SetItemStatus(ctx, loan.ItemID, model.ItemAvailable); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}

	s.log.Info("loan removed",
		"loan_id", loanID,
		"item_id", loan.ItemID,
		"borrower", loan.Borrower,
		"was_active", loan.ReturnedAt == nil,
	)
	s.invalidate()
	return nil
}

// SetMaintenance moves an item between AVAILABLE and UNAVAILABLE. It never
// touches loans; a BORROWED item must be returned first.
func (s *service) SetMaintenance(ctx context.Context, itemID int64, unavailable bool) (err error) {
	s.locks.Lock(itemID)
	defer s.locks.Unlock(itemID)

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	st, err := tx.ItemStatusForUpdate(ctx, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fault.New(fault.NotFound, "item_not_found")
		}
		return err
	}
	if st == model.ItemBorrowed {
		return fault.New(fault.Conflict, "item_borrowed")
	}

	target := model.ItemAvailable
	if unavailable {
		target = model.ItemUnavailable
	}
	if st == target {
		// idempotent no-op, but commit so the tx ends cleanly
		return tx.Commit()
	}
	if err = tx.SetItemStatus(ctx, itemID, target); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}

	s.invalidate()
	return nil
}

func (s *service) GetLoan(ctx context.Context, loanID int64) (*model.Loan, error) {
	l, err := s.reader.GetLoan(ctx, loanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.New(fault.NotFound, "loan_not_found")
		}
		return nil, err
	}
	return l, nil
}

func (s *service) ListLoans(ctx context.Context, f ListFilter) ([]model.Loan, int64, error) {
	switch f.Status {
	case "", model.LoanActive, model.LoanOverdue, model.LoanReturned:
	default:
		// a typo must not silently read as "no filter"
		return nil, 0, fault.New(fault.InvalidArgument, "unknown_status")
	}
	if f.Now.IsZero() {
		f.Now = s.now()
	}
	return s.reader.ListLoans(ctx, f)
}

func (s *service) DueSoon(ctx context.Context, withinDays int) ([]model.Loan, error) {
	if withinDays <= 0 {
		withinDays = 3
	}
	now := s.now()
	return s.reader.DueSoon(ctx, now, now.Add(time.Duration(withinDays)*24*time.Hour))
}
