package cart

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrItemNotFound = errors.New("cart: item not found")

type Repository interface {
	GetOrCreate(ctx context.Context, userID int64) (int64, error)
	Get(ctx context.Context, userID int64) (*Cart, error)
	GetItem(ctx context.Context, userID, itemID int64) (*Item, error)
	FindItem(ctx context.Context, cartID, bookID int64) (*Item, error)
	InsertItem(ctx context.Context, cartID, bookID int64, qty int32) error
	UpdateItemQty(ctx context.Context, itemID int64, qty int32) error
	DeleteItem(ctx context.Context, itemID int64) error
	CountItems(ctx context.Context, userID int64) (int32, error)
}

type sqliteRepo struct{ db *sql.DB }

func NewSQLiteRepo(db *sql.DB) Repository { return &sqliteRepo{db: db} }

func (r *sqliteRepo) GetOrCreate(ctx context.Context, userID int64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var cartID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM carts WHERE user_id=?`, userID).Scan(&cartID)
	if errors.Is(err, sql.ErrNoRows) {
		res, err := tx.ExecContext(ctx, `INSERT INTO carts(user_id) VALUES(?)`, userID)
		if err != nil {
			return 0, err
		}
		if cartID, err = res.LastInsertId(); err != nil {
			return 0, err
		}
	} else if err != nil {
		return 0, err
	}
	return cartID, tx.Commit()
}

const itemCols = `i.id, i.cart_id, i.book_id, b.title, b.price_cents, b.stock_quantity, i.qty, i.added_unix`

func (r *sqliteRepo) Get(ctx context.Context, userID int64) (*Cart, error) {
	cart := &Cart{UserID: userID}
	err := r.db.QueryRowContext(ctx, `SELECT id FROM carts WHERE user_id=?`, userID).Scan(&cart.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return cart, nil // absent row is a valid empty cart
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+itemCols+`
		FROM cart_items i JOIN books b ON b.id = i.book_id
		WHERE i.cart_id=? ORDER BY i.added_unix, i.id`, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.CartID, &it.BookID, &it.Title,
			&it.UnitCents, &it.Stock, &it.Qty, &it.AddedUnix); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, it)
	}
	return cart, rows.Err()
}

func (r *sqliteRepo) GetItem(ctx context.Context, userID, itemID int64) (*Item, error) {
	var it Item
	err := r.db.QueryRowContext(ctx, `
		SELECT `+itemCols+`
		FROM cart_items i
		JOIN books b ON b.id = i.book_id
		JOIN carts c ON c.id = i.cart_id
		WHERE i.id=? AND c.user_id=?`, itemID, userID).
		Scan(&it.ID, &it.CartID, &it.BookID, &it.Title,
			&it.UnitCents, &it.Stock, &it.Qty, &it.AddedUnix)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *sqliteRepo) FindItem(ctx context.Context, cartID, bookID int64) (*Item, error) {
	var it Item
	err := r.db.QueryRowContext(ctx, `
		SELECT `+itemCols+`
		FROM cart_items i JOIN books b ON b.id = i.book_id
		WHERE i.cart_id=? AND i.book_id=?`, cartID, bookID).
		Scan(&it.ID, &it.CartID, &it.BookID, &it.Title,
			&it.UnitCents, &it.Stock, &it.Qty, &it.AddedUnix)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *sqliteRepo) InsertItem(ctx context.Context, cartID, bookID int64, qty int32) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items(cart_id, book_id, qty, added_unix)
		VALUES(?,?,?,?)`, cartID, bookID, qty, time.Now().Unix())
	return err
}

func (r *sqliteRepo) UpdateItemQty(ctx context.Context, itemID int64, qty int32) error {
	_, err := r.db.ExecContext(ctx, `UPDATE cart_items SET qty=? WHERE id=?`, qty, itemID)
	return err
}

func (r *sqliteRepo) DeleteItem(ctx context.Context, itemID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id=?`, itemID)
	return err
}

func (r *sqliteRepo) CountItems(ctx context.Context, userID int64) (int32, error) {
	var c int32
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM cart_items i
		JOIN carts c ON c.id = i.cart_id
		WHERE c.user_id=?`, userID).Scan(&c)
	return c, err
}
