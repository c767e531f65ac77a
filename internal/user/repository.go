package user

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository { return &Repository{db: db} }

func (r *Repository) Create(ctx context.Context, u *User) (int64, error) {
	u.CreatedUnix = time.Now().Unix()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users(username, email, password_hash, role, phone, address, created_unix)
		VALUES(?,?,?,?,?,?,?)`,
		u.Username, u.Email, u.PasswordHash, u.Role, u.Phone, u.Address, u.CreatedUnix)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const userCols = `id, username, email, password_hash, role, phone, address, created_unix`

func (r *Repository) scan(row *sql.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.Role, &u.Phone, &u.Address, &u.CreatedUnix)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Lookups return (nil, nil) when no row matches; a missing user is a normal
// outcome for uniqueness checks, not an error.
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.scan(r.db.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE id=?`, id))
}

func (r *Repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.scan(r.db.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE username=?`, username))
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.scan(r.db.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE email=?`, email))
}

func (r *Repository) List(ctx context.Context) ([]*User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userCols+` FROM users ORDER BY created_unix DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*User
	for rows.Next() {
		u := &User{}
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
			&u.Role, &u.Phone, &u.Address, &u.CreatedUnix); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Delete removes the user together with their cart and order history in one
// transaction. Line items cascade from carts and orders.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM carts WHERE user_id=?`,
		`DELETE FROM orders WHERE user_id=?`,
		`DELETE FROM users WHERE id=?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var c int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users`).Scan(&c)
	return c, err
}
