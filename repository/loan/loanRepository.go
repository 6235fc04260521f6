// repository/loan/repo.go
package loan

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/budingricky/Books-Management-System-BMS/model"
	"github.com/budingricky/Books-Management-System-BMS/service/lending"
)

var pg = goqu.Dialect("postgres")

type Repo struct {
	db *sql.DB
}

func New(db *sql.DB) *Repo { return &Repo{db: db} }

var _ lending.Store = (*Repo)(nil)
var _ lending.Reader = (*Repo)(nil)

// ----- Store (mutation surface, only the state machine calls this) -----

func (r *Repo) Begin(ctx context.Context) (lending.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx}, nil
}

func (r *Repo) LoanItemID(ctx context.Context, loanID int64) (int64, error) {
	const q = `
		SELECT item_id
		FROM loans
		WHERE id = $1`
	var itemID int64
	err := r.db.QueryRowContext(ctx, q, loanID).Scan(&itemID)
	return itemID, err
}

type Tx struct {
	tx *sql.Tx
}

func (t *Tx) Commit() error   { return t.tx.Commit() }
func (t *Tx) Rollback() error { return t.tx.Rollback() }

func (t *Tx) ItemStatusForUpdate(ctx context.Context, itemID int64) (model.ItemStatus, error) {
	const q = `
		SELECT status
		FROM items
		WHERE id = $1
		FOR UPDATE`
	var st model.ItemStatus
	err := t.tx.QueryRowContext(ctx, q, itemID).Scan(&st)
	return st, err
}

func (t *Tx) SetItemStatus(ctx context.Context, itemID int64, st model.ItemStatus) error {
	const q = `
		UPDATE items
		SET status = $2,
			updated_at = now()
		WHERE id = $1`
	_, err := t.tx.ExecContext(ctx, q, itemID, st)
	return err
}

func (t *Tx) InsertLoan(ctx context.Context, l *model.Loan) (int64, error) {
	const q = `
		INSERT INTO loans (item_id, borrower, contact, notes, borrowed_at, due_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	var id int64
	err := t.tx.QueryRowContext(ctx, q,
		l.ItemID, l.Borrower, l.Contact, l.Notes, l.BorrowedAt, l.DueAt,
	).Scan(&id)
	return id, err
}

func (t *Tx) LoanForUpdate(ctx context.Context, loanID int64) (*model.Loan, error) {
	const q = `
		SELECT id, item_id, borrower, contact, notes, borrowed_at, due_at, returned_at
		FROM loans
		WHERE id = $1
		FOR UPDATE`
	var l model.Loan
	err := t.tx.QueryRowContext(ctx, q, loanID).Scan(
		&l.ID, &l.ItemID, &l.Borrower, &l.Contact, &l.Notes,
		&l.BorrowedAt, &l.DueAt, &l.ReturnedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (t *Tx) MarkReturned(ctx context.Context, loanID int64, at time.Time) error {
	const q = `
		UPDATE loans
		SET returned_at = $2
		WHERE id = $1`
	_, err := t.tx.ExecContext(ctx, q, loanID, at)
	return err
}

func (t *Tx) DeleteLoan(ctx context.Context, loanID int64) error {
	const q = `
		DELETE FROM loans
		WHERE id = $1`
	_, err := t.tx.ExecContext(ctx, q, loanID)
	return err
}

// ----- Reader (committed-state queries) -----

const loanCols = "l.id, l.item_id, i.title, l.borrower, l.contact, l.notes, l.borrowed_at, l.due_at, l.returned_at"

func (r *Repo) GetLoan(ctx context.Context, loanID int64) (*model.Loan, error) {
	const q = `
		SELECT ` + loanCols + `
		FROM loans l
		JOIN items i ON i.id = l.item_id
		WHERE l.id = $1`
	var l model.Loan
	err := r.db.QueryRowContext(ctx, q, loanID).Scan(
		&l.ID, &l.ItemID, &l.ItemTitle, &l.Borrower, &l.Contact, &l.Notes,
		&l.BorrowedAt, &l.DueAt, &l.ReturnedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func loanFilter(f lending.ListFilter) []goqu.Expression {
	var exprs []goqu.Expression
	switch f.Status {
	case model.LoanActive:
		exprs = append(exprs, goqu.I("l.returned_at").IsNull())
	case model.LoanReturned:
		exprs = append(exprs, goqu.I("l.returned_at").IsNotNull())
	case model.LoanOverdue:
		// mirrors model.IsOverdue at the SQL level
		exprs = append(exprs,
			goqu.I("l.returned_at").IsNull(),
			goqu.I("l.due_at").Lt(f.Now),
		)
	}
	if f.Borrower != "" {
		exprs = append(exprs, goqu.I("l.borrower").ILike("%"+f.Borrower+"%"))
	}
	if f.ItemID > 0 {
		exprs = append(exprs, goqu.I("l.item_id").Eq(f.ItemID))
	}
	return exprs
}

func (r *Repo) ListLoans(ctx context.Context, f lending.ListFilter) ([]model.Loan, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	where := loanFilter(f)

	countQ, countArgs, err := pg.From(goqu.T("loans").As("l")).
		Select(goqu.COUNT("*")).
		Where(where...).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, countQ, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	ds := pg.From(goqu.T("loans").As("l")).
		Join(goqu.T("items").As("i"), goqu.On(goqu.I("i.id").Eq(goqu.I("l.item_id")))).
		Select(
			goqu.I("l.id"), goqu.I("l.item_id"), goqu.I("i.title"),
			goqu.I("l.borrower"), goqu.I("l.contact"), goqu.I("l.notes"),
			goqu.I("l.borrowed_at"), goqu.I("l.due_at"), goqu.I("l.returned_at"),
		).
		Where(where...).
		Order(goqu.I("l.borrowed_at").Desc(), goqu.I("l.id").Desc())
	if f.Limit > 0 {
		ds = ds.Limit(uint(f.Limit)).Offset(uint((f.Page - 1) * f.Limit))
	}
	q, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Loan
	for rows.Next() {
		var l model.Loan
		if err := rows.Scan(
			&l.ID, &l.ItemID, &l.ItemTitle, &l.Borrower, &l.Contact, &l.Notes,
			&l.BorrowedAt, &l.DueAt, &l.ReturnedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

func (r *Repo) DueSoon(ctx context.Context, from, until time.Time) ([]model.Loan, error) {
	const q = `
		SELECT ` + loanCols + `
		FROM loans l
		JOIN items i ON i.id = l.item_id
		WHERE l.returned_at IS NULL
		  AND l.due_at >= $1
		  AND l.due_at <= $2
		ORDER BY l.due_at ASC`
	rows, err := r.db.QueryContext(ctx, q, from, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Loan
	for rows.Next() {
		var l model.Loan
		if err := rows.Scan(
			&l.ID, &l.ItemID, &l.ItemTitle, &l.Borrower, &l.Contact, &l.Notes,
			&l.BorrowedAt, &l.DueAt, &l.ReturnedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ActiveDueTimes returns (loanID, dueAt) for every active loan; the stats
// aggregator feeds these through the overdue evaluator.
func (r *Repo) ActiveDueTimes(ctx context.Context) ([]model.Loan, error) {
	const q = `
		SELECT id, item_id, due_at
		FROM loans
		WHERE returned_at IS NULL`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Loan
	for rows.Next() {
		var l model.Loan
		if err := rows.Scan(&l.ID, &l.ItemID, &l.DueAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// CountLoans returns total and returned loan counts.
func (r *Repo) CountLoans(ctx context.Context) (total, returned int64, err error) {
	const q = `
		SELECT COUNT(*),
			   COUNT(returned_at)
		FROM loans`
	err = r.db.QueryRowContext(ctx, q).Scan(&total, &returned)
	return total, returned, err
}

// PopularItems ranks items by lifetime borrow count.
func (r *Repo) PopularItems(ctx context.Context, limit int) ([]model.PopularItem, error) {
	const q = `
		SELECT i.id, i.title, i.isbn, COUNT(l.id)
		FROM loans l
		JOIN items i ON i.id = l.item_id
		GROUP BY i.id, i.title, i.isbn
		ORDER BY COUNT(l.id) DESC, i.id
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PopularItem
	for rows.Next() {
		var p model.PopularItem
		if err := rows.Scan(&p.ItemID, &p.Title, &p.ISBN, &p.Borrows); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// BorrowTrend returns per-day borrow and return counts for days consecutive
// days starting at from. Days with no events come back as zero rows.
func (r *Repo) BorrowTrend(ctx context.Context, from time.Time, days int) ([]model.TrendPoint, error) {
	const q = `
		SELECT g.day,
			   (SELECT COUNT(*) FROM loans
				WHERE borrowed_at >= g.day AND borrowed_at < g.day + interval '1 day'),
			   (SELECT COUNT(*) FROM loans
				WHERE returned_at >= g.day AND returned_at < g.day + interval '1 day')
		FROM generate_series(
			$1::timestamptz,
			$1::timestamptz + ($2 - 1) * interval '1 day',
			interval '1 day'
		) AS g(day)
		ORDER BY g.day`
	rows, err := r.db.QueryContext(ctx, q, from, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TrendPoint
	for rows.Next() {
		var p model.TrendPoint
		if err := rows.Scan(&p.Day, &p.Borrows, &p.Returns); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RecentActivity returns the newest borrow and return events, newest first.
// A returned loan shows up twice, once per event.
func (r *Repo) RecentActivity(ctx context.Context, limit int) ([]model.Activity, error) {
	const q = `
		SELECT e.kind, e.id, e.item_id, e.title, e.borrower, e.at
		FROM (
			SELECT 'borrow' AS kind, l.id, l.item_id, i.title, l.borrower,
				   l.borrowed_at AS at
			FROM loans l
			JOIN items i ON i.id = l.item_id
			UNION ALL
			SELECT 'return', l.id, l.item_id, i.title, l.borrower, l.returned_at
			FROM loans l
			JOIN items i ON i.id = l.item_id
			WHERE l.returned_at IS NOT NULL
		) e
		ORDER BY e.at DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Activity
	for rows.Next() {
		var a model.Activity
		if err := rows.Scan(&a.Kind, &a.LoanID, &a.ItemID, &a.ItemTitle, &a.Borrower, &a.At); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
