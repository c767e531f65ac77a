package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bookhub/bookhub/internal/cart"
)

var ErrNotFound = errors.New("order: not found")

const numberAttempts = 5

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository { return &Repository{db: db} }

// Place turns a cart snapshot into a completed order in one transaction:
// re-check every line against current stock, insert the order and its item
// snapshot, decrement stock, clear the cart. Any stale line fails the whole
// checkout and nothing is applied.
func (r *Repository) Place(ctx context.Context, userID, cartID int64, lines []cart.Item, totalCents int64) (*Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, line := range lines {
		var stock int32
		err := tx.QueryRowContext(ctx,
			`SELECT stock_quantity FROM books WHERE id=?`, line.BookID).Scan(&stock)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, cart.ErrInsufficientStock
		}
		if err != nil {
			return nil, err
		}
		if line.Qty > stock {
			return nil, cart.ErrInsufficientStock
		}
	}

	number, err := uniqueNumber(ctx, tx)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	o := &Order{
		UserID:      userID,
		OrderNumber: number,
		Status:      StatusCompleted,
		TotalCents:  totalCents,
		CreatedUnix: now,
		UpdatedUnix: now,
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO orders(user_id, order_number, status, total_cents, created_unix, updated_unix)
		VALUES(?,?,?,?,?,?)`,
		o.UserID, o.OrderNumber, o.Status, o.TotalCents, o.CreatedUnix, o.UpdatedUnix)
	if err != nil {
		return nil, err
	}
	if o.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}

	itemStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO order_items(order_id, book_id, title, qty, unit_cents)
		VALUES(?,?,?,?,?)`)
	if err != nil {
		return nil, err
	}
	defer itemStmt.Close()

	for _, line := range lines {
		ires, err := itemStmt.ExecContext(ctx,
			o.ID, line.BookID, line.Title, line.Qty, line.UnitCents)
		if err != nil {
			return nil, err
		}
		it := Item{
			OrderID:   o.ID,
			BookID:    line.BookID,
			Title:     line.Title,
			Qty:       line.Qty,
			UnitCents: line.UnitCents,
		}
		if it.ID, err = ires.LastInsertId(); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)

		// The stock guard is belt and braces: the loop above already
		// validated inside this same transaction.
		if _, err := tx.ExecContext(ctx, `
			UPDATE books SET stock_quantity = stock_quantity - ?, updated_unix=?
			WHERE id=? AND stock_quantity >= ?`,
			line.Qty, now, line.BookID, line.Qty); err != nil {
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id=?`, cartID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return o, nil
}

func uniqueNumber(ctx context.Context, tx *sql.Tx) (string, error) {
	for i := 0; i < numberAttempts; i++ {
		n := newOrderNumber()
		var taken int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM orders WHERE order_number=?`, n).Scan(&taken); err != nil {
			return "", err
		}
		if taken == 0 {
			return n, nil
		}
	}
	return "", errors.New("order: could not generate a unique order number")
}

func (r *Repository) Get(ctx context.Context, orderID int64) (*Order, error) {
	o := &Order{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, order_number, status, total_cents, created_unix, updated_unix
		FROM orders WHERE id=?`, orderID).
		Scan(&o.ID, &o.UserID, &o.OrderNumber, &o.Status, &o.TotalCents,
			&o.CreatedUnix, &o.UpdatedUnix)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if o.Items, err = r.listItems(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, order_number, status, total_cents, created_unix, updated_unix
		FROM orders WHERE user_id=? ORDER BY created_unix DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Order
	for rows.Next() {
		o := &Order{}
		if err := rows.Scan(&o.ID, &o.UserID, &o.OrderNumber, &o.Status,
			&o.TotalCents, &o.CreatedUnix, &o.UpdatedUnix); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, o := range out {
		if o.Items, err = r.listItems(ctx, o.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListAll backs the admin order table, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, order_number, status, total_cents, created_unix, updated_unix
		FROM orders ORDER BY created_unix DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Order
	for rows.Next() {
		o := &Order{}
		if err := rows.Scan(&o.ID, &o.UserID, &o.OrderNumber, &o.Status,
			&o.TotalCents, &o.CreatedUnix, &o.UpdatedUnix); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var c int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM orders`).Scan(&c)
	return c, err
}

func (r *Repository) listItems(ctx context.Context, orderID int64) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, book_id, title, qty, unit_cents
		FROM order_items WHERE order_id=? ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.BookID, &it.Title,
			&it.Qty, &it.UnitCents); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
