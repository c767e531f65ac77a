package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

var ErrNotFound = errors.New("catalog: not found")

// ListFilter narrows List: zero values mean "no constraint".
type ListFilter struct {
	CategoryID  int64
	Query       string
	InStockOnly bool
	Limit       int32
	Offset      int32
}

type Repository interface {
	CreateBook(ctx context.Context, b *Book) (int64, error)
	UpdateBook(ctx context.Context, b *Book) error
	UpdateBookPrice(ctx context.Context, bookID, priceCents int64) error
	DeleteBook(ctx context.Context, bookID int64) error
	GetBook(ctx context.Context, bookID int64) (*Book, error)
	ListBooks(ctx context.Context, f ListFilter) ([]*Book, error)
	CountBooks(ctx context.Context) (int64, error)

	GetOrCreateAuthor(ctx context.Context, name string) (*Author, error)
	ListAuthors(ctx context.Context) ([]*Author, error)
	GetOrCreateCategory(ctx context.Context, name string) (*Category, error)
	ListCategories(ctx context.Context) ([]*Category, error)
	CountCategories(ctx context.Context) (int64, error)
}

type sqliteRepo struct{ db *sql.DB }

func NewSQLiteRepo(db *sql.DB) Repository { return &sqliteRepo{db: db} }

const bookCols = `b.id, b.title, b.author_id, a.name, b.category_id, c.name,
	b.isbn, b.description, b.price_cents, b.stock_quantity, b.cover_url,
	b.created_unix, b.updated_unix`

const bookFrom = ` FROM books b
	JOIN authors a ON a.id = b.author_id
	JOIN categories c ON c.id = b.category_id`

func scanBook(row interface{ Scan(...any) error }) (*Book, error) {
	var b Book
	err := row.Scan(&b.ID, &b.Title, &b.AuthorID, &b.AuthorName,
		&b.CategoryID, &b.CategoryName, &b.ISBN, &b.Description,
		&b.PriceCents, &b.StockQuantity, &b.CoverURL,
		&b.CreatedUnix, &b.UpdatedUnix)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *sqliteRepo) CreateBook(ctx context.Context, b *Book) (int64, error) {
	now := time.Now().Unix()
	b.CreatedUnix, b.UpdatedUnix = now, now
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO books(title, author_id, category_id, isbn, description,
			price_cents, stock_quantity, cover_url, created_unix, updated_unix)
		VALUES(?,?,?,?,?,?,?,?,?,?)`,
		b.Title, b.AuthorID, b.CategoryID, b.ISBN, b.Description,
		b.PriceCents, b.StockQuantity, b.CoverURL, b.CreatedUnix, b.UpdatedUnix)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *sqliteRepo) UpdateBook(ctx context.Context, b *Book) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE books SET title=?, author_id=?, category_id=?, isbn=?,
			description=?, price_cents=?, stock_quantity=?, cover_url=?,
			updated_unix=?
		WHERE id=?`,
		b.Title, b.AuthorID, b.CategoryID, b.ISBN, b.Description,
		b.PriceCents, b.StockQuantity, b.CoverURL, time.Now().Unix(), b.ID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *sqliteRepo) UpdateBookPrice(ctx context.Context, bookID, priceCents int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE books SET price_cents=?, updated_unix=? WHERE id=?`,
		priceCents, time.Now().Unix(), bookID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *sqliteRepo) DeleteBook(ctx context.Context, bookID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id=?`, bookID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *sqliteRepo) GetBook(ctx context.Context, bookID int64) (*Book, error) {
	b, err := scanBook(r.db.QueryRowContext(ctx,
		`SELECT `+bookCols+bookFrom+` WHERE b.id=?`, bookID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

func (r *sqliteRepo) ListBooks(ctx context.Context, f ListFilter) ([]*Book, error) {
	q := `SELECT ` + bookCols + bookFrom + ` WHERE 1=1`
	var args []any
	if f.InStockOnly {
		q += ` AND b.stock_quantity > 0`
	}
	if f.CategoryID != 0 {
		q += ` AND b.category_id=?`
		args = append(args, f.CategoryID)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		qp := "%" + strings.ToLower(s) + "%"
		q += ` AND (lower(b.title) LIKE ? OR lower(a.name) LIKE ? OR lower(b.isbn) LIKE ?)`
		args = append(args, qp, qp, qp)
	}
	q += ` ORDER BY b.created_unix DESC, b.id DESC`
	if f.Limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *sqliteRepo) CountBooks(ctx context.Context) (int64, error) {
	var c int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM books`).Scan(&c)
	return c, err
}

func (r *sqliteRepo) GetOrCreateAuthor(ctx context.Context, name string) (*Author, error) {
	now := time.Now().Unix()
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO authors(name, created_unix) VALUES(?,?)
		ON CONFLICT(name) DO NOTHING`, name, now); err != nil {
		return nil, err
	}
	var a Author
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_unix FROM authors WHERE name=?`, name).
		Scan(&a.ID, &a.Name, &a.CreatedUnix)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *sqliteRepo) ListAuthors(ctx context.Context) ([]*Author, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_unix FROM authors ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Author
	for rows.Next() {
		var a Author
		if err := rows.Scan(&a.ID, &a.Name, &a.CreatedUnix); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (r *sqliteRepo) GetOrCreateCategory(ctx context.Context, name string) (*Category, error) {
	now := time.Now().Unix()
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO categories(name, created_unix) VALUES(?,?)
		ON CONFLICT(name) DO NOTHING`, name, now); err != nil {
		return nil, err
	}
	var c Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_unix FROM categories WHERE name=?`, name).
		Scan(&c.ID, &c.Name, &c.CreatedUnix)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *sqliteRepo) ListCategories(ctx context.Context) ([]*Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_unix FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedUnix); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *sqliteRepo) CountCategories(ctx context.Context) (int64, error) {
	var c int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM categories`).Scan(&c)
	return c, err
}

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
