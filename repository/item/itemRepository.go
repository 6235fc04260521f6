// repository/item/repo.go
package item

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/budingricky/Books-Management-System-BMS/model"
	"github.com/budingricky/Books-Management-System-BMS/service/catalog"
)

var pg = goqu.Dialect("postgres")

type Repo struct {
	db *sql.DB
}

func New(db *sql.DB) *Repo { return &Repo{db: db} }

var _ catalog.Repo = (*Repo)(nil)

func mapDuplicate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return catalog.ErrDuplicateISBN
	}
	return err
}

func (r *Repo) Insert(ctx context.Context, it *model.Item) (int64, error) {
	const q = `
		INSERT INTO items (
			isbn, title, author, publisher, publish_date, category_id,
			description, room, shelf, row, "column", number, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`
	var id int64
	err := r.db.QueryRowContext(ctx, q,
		it.ISBN, it.Title, it.Author, it.Publisher, it.PublishDate, it.CategoryID,
		it.Description, it.Location.Room, it.Location.Shelf, it.Location.Row,
		it.Location.Column, it.Location.Number, it.Status,
	).Scan(&id)
	if err != nil {
		return 0, mapDuplicate(err)
	}
	return id, nil
}

func (r *Repo) Update(ctx context.Context, it *model.Item) error {
	const q = `
		UPDATE items SET
			isbn = $2, title = $3, author = $4, publisher = $5,
			publish_date = $6, category_id = $7, description = $8,
			room = $9, shelf = $10, row = $11, "column" = $12, number = $13,
			updated_at = now()
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q,
		it.ID, it.ISBN, it.Title, it.Author, it.Publisher,
		it.PublishDate, it.CategoryID, it.Description,
		it.Location.Room, it.Location.Shelf, it.Location.Row,
		it.Location.Column, it.Location.Number,
	)
	return mapDuplicate(err)
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	// Guard: a BORROWED item must keep its row so the active loan stays valid.
	const q = `
		DELETE FROM items
		WHERE id = $1
		  AND status <> 'BORROWED'`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const itemCols = `
	i.id, i.isbn, i.title, i.author, i.publisher, i.publish_date,
	i.category_id, c.name, i.description,
	i.room, i.shelf, i.row, i."column", i.number,
	i.status, i.created_at, i.updated_at`

func scanItem(sc interface{ Scan(...any) error }) (*model.Item, error) {
	var it model.Item
	err := sc.Scan(
		&it.ID, &it.ISBN, &it.Title, &it.Author, &it.Publisher, &it.PublishDate,
		&it.CategoryID, &it.CategoryName, &it.Description,
		&it.Location.Room, &it.Location.Shelf, &it.Location.Row,
		&it.Location.Column, &it.Location.Number,
		&it.Status, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// Get reads the item row and its active loan in one statement. Reading them
// separately would let a Return commit in between and yield a BORROWED item
// with no loan, a state that never existed.
func (r *Repo) Get(ctx context.Context, id int64) (*model.Item, error) {
	const q = `
		SELECT ` + itemCols + `,
			l.id, l.borrower, l.contact, l.notes, l.borrowed_at, l.due_at
		FROM items i
		JOIN categories c ON c.id = i.category_id
		LEFT JOIN loans l ON l.item_id = i.id AND l.returned_at IS NULL
		WHERE i.id = $1`
	var it model.Item
	var (
		loanID     sql.NullInt64
		borrower   sql.NullString
		contact    sql.NullString
		notes      sql.NullString
		borrowedAt sql.NullTime
		dueAt      sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&it.ID, &it.ISBN, &it.Title, &it.Author, &it.Publisher, &it.PublishDate,
		&it.CategoryID, &it.CategoryName, &it.Description,
		&it.Location.Room, &it.Location.Shelf, &it.Location.Row,
		&it.Location.Column, &it.Location.Number,
		&it.Status, &it.CreatedAt, &it.UpdatedAt,
		&loanID, &borrower, &contact, &notes, &borrowedAt, &dueAt,
	)
	if err != nil {
		return nil, err
	}
	if loanID.Valid {
		it.ActiveLoan = &model.Loan{
			ID:         loanID.Int64,
			ItemID:     it.ID,
			Borrower:   borrower.String,
			Contact:    contact.String,
			Notes:      notes.String,
			BorrowedAt: borrowedAt.Time,
			DueAt:      dueAt.Time,
		}
	}
	return &it, nil
}

func (r *Repo) List(ctx context.Context, f catalog.ItemFilter) ([]model.Item, int64, error) {
	var where []goqu.Expression
	if f.CategoryID > 0 {
		where = append(where, goqu.I("i.category_id").Eq(f.CategoryID))
	}
	if f.Status != "" {
		where = append(where, goqu.I("i.status").Eq(string(f.Status)))
	}
	if f.Text != "" {
		p := "%" + f.Text + "%"
		where = append(where, goqu.Or(
			goqu.I("i.title").ILike(p),
			goqu.I("i.author").ILike(p),
			goqu.I("i.isbn").ILike(p),
		))
	}

	countQ, countArgs, err := pg.From(goqu.T("items").As("i")).
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

	ds := pg.From(goqu.T("items").As("i")).
		Join(goqu.T("categories").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("i.category_id")))).
		Select(
			goqu.I("i.id"), goqu.I("i.isbn"), goqu.I("i.title"), goqu.I("i.author"),
			goqu.I("i.publisher"), goqu.I("i.publish_date"),
			goqu.I("i.category_id"), goqu.I("c.name"), goqu.I("i.description"),
			goqu.I("i.room"), goqu.I("i.shelf"), goqu.I("i.row"),
			goqu.I("i.column"), goqu.I("i.number"),
			goqu.I("i.status"), goqu.I("i.created_at"), goqu.I("i.updated_at"),
		).
		Where(where...).
		Order(goqu.I("i.created_at").Desc(), goqu.I("i.id").Desc()).
		Limit(uint(f.Limit)).
		Offset(uint((f.Page - 1) * f.Limit))
	q, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *it)
	}
	return out, total, rows.Err()
}

func (r *Repo) CategoryExists(ctx context.Context, id int64) (bool, error) {
	const q = `
		SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`
	var ok bool
	err := r.db.QueryRowContext(ctx, q, id).Scan(&ok)
	return ok, err
}

// CountByStatus returns item counts per availability status for the stats
// aggregator.
func (r *Repo) CountByStatus(ctx context.Context) (map[model.ItemStatus]int64, error) {
	const q = `
		SELECT status, COUNT(*)
		FROM items
		GROUP BY status`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[model.ItemStatus]int64)
	for rows.Next() {
		var st model.ItemStatus
		var n int64
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		out[st] = n
	}
	return out, rows.Err()
}
