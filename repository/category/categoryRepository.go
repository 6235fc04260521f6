// repository/category/repo.go
package category

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/budingricky/Books-Management-System-BMS/model"
	catsvc "github.com/budingricky/Books-Management-System-BMS/service/category"
)

type Repo struct {
	db *sql.DB
}

func New(db *sql.DB) *Repo { return &Repo{db: db} }

var _ catsvc.Repo = (*Repo)(nil)

func mapDuplicate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return catsvc.ErrDuplicateCode
	}
	return err
}

func (r *Repo) Begin(ctx context.Context) (catsvc.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx}, nil
}

type Tx struct {
	tx *sql.Tx
}

func (t *Tx) Commit() error   { return t.tx.Commit() }
func (t *Tx) Rollback() error { return t.tx.Rollback() }

func (t *Tx) GetForUpdate(ctx context.Context, id int64) (*model.Category, error) {
	const q = `
		SELECT id, name, code, parent_id, level, created_at
		FROM categories
		WHERE id = $1
		FOR UPDATE`
	var c model.Category
	err := t.tx.QueryRowContext(ctx, q, id).Scan(
		&c.ID, &c.Name, &c.Code, &c.ParentID, &c.Level, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (t *Tx) Update(ctx context.Context, c *model.Category) error {
	const q = `
		UPDATE categories
		SET name = $2, code = $3, parent_id = $4, level = $5
		WHERE id = $1`
	_, err := t.tx.ExecContext(ctx, q, c.ID, c.Name, c.Code, c.ParentID, c.Level)
	return mapDuplicate(err)
}

// RecomputeLevels rewrites levels for the whole subtree rooted at id.
func (t *Tx) RecomputeLevels(ctx context.Context, id int64, level int) error {
	const q = `
		WITH RECURSIVE sub AS (
			SELECT id, $2::int AS lvl
			FROM categories
			WHERE id = $1
			UNION ALL
			SELECT c.id, s.lvl + 1
			FROM categories c
			JOIN sub s ON c.parent_id = s.id
		)
		UPDATE categories c
		SET level = sub.lvl
		FROM sub
		WHERE c.id = sub.id`
	_, err := t.tx.ExecContext(ctx, q, id, level)
	return err
}

func (r *Repo) Insert(ctx context.Context, c *model.Category) (int64, error) {
	const q = `
		INSERT INTO categories (name, code, parent_id, level)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	var id int64
	err := r.db.QueryRowContext(ctx, q, c.Name, c.Code, c.ParentID, c.Level).Scan(&id)
	if err != nil {
		return 0, mapDuplicate(err)
	}
	return id, nil
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	const q = `
		DELETE FROM categories
		WHERE id = $1`
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

func (r *Repo) Get(ctx context.Context, id int64) (*model.Category, error) {
	const q = `
		SELECT id, name, code, parent_id, level, created_at
		FROM categories
		WHERE id = $1`
	var c model.Category
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&c.ID, &c.Name, &c.Code, &c.ParentID, &c.Level, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repo) List(ctx context.Context) ([]model.Category, error) {
	const q = `
		SELECT id, name, code, parent_id, level, created_at
		FROM categories
		ORDER BY level, parent_id NULLS FIRST, code`
	return r.queryMany(ctx, q)
}

func (r *Repo) Children(ctx context.Context, id int64) ([]model.Category, error) {
	const q = `
		SELECT id, name, code, parent_id, level, created_at
		FROM categories
		WHERE parent_id = $1
		ORDER BY code`
	return r.queryMany(ctx, q, id)
}

func (r *Repo) queryMany(ctx context.Context, q string, args ...any) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Code, &c.ParentID, &c.Level, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) CountItems(ctx context.Context, id int64) (int64, error) {
	const q = `
		SELECT COUNT(*)
		FROM items
		WHERE category_id = $1`
	var n int64
	err := r.db.QueryRowContext(ctx, q, id).Scan(&n)
	return n, err
}

func (r *Repo) CountChildren(ctx context.Context, id int64) (int64, error) {
	const q = `
		SELECT COUNT(*)
		FROM categories
		WHERE parent_id = $1`
	var n int64
	err := r.db.QueryRowContext(ctx, q, id).Scan(&n)
	return n, err
}

// CountAll is used by the stats aggregator.
func (r *Repo) CountAll(ctx context.Context) (int64, error) {
	const q = `
		SELECT COUNT(*)
		FROM categories`
	var n int64
	err := r.db.QueryRowContext(ctx, q).Scan(&n)
	return n, err
}

// ItemCounts returns the per-category item counts (categories with no items
// included with count 0).
func (r *Repo) ItemCounts(ctx context.Context) ([]model.CategoryStats, error) {
	const q = `
		SELECT c.id, c.name, c.code, COUNT(i.id)
		FROM categories c
		LEFT JOIN items i ON i.category_id = c.id
		GROUP BY c.id, c.name, c.code
		ORDER BY COUNT(i.id) DESC, c.code`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CategoryStats
	for rows.Next() {
		var cs model.CategoryStats
		if err := rows.Scan(&cs.CategoryID, &cs.Name, &cs.Code, &cs.Count); err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}
