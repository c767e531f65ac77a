package store

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite" // pure-Go driver
)

// Open opens (or creates) the sqlite database at dbPath and applies the
// schema. WAL plus busy_timeout keeps concurrent request handlers from
// tripping over "database is locked".
func Open(dbPath string) (*sql.DB, error) {
	dsn := "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout=5000&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS authors(
  id           INTEGER PRIMARY KEY AUTOINCREMENT,
  name         TEXT NOT NULL UNIQUE,
  created_unix INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS categories(
  id           INTEGER PRIMARY KEY AUTOINCREMENT,
  name         TEXT NOT NULL UNIQUE,
  created_unix INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS books(
  id             INTEGER PRIMARY KEY AUTOINCREMENT,
  title          TEXT NOT NULL,
  author_id      INTEGER NOT NULL REFERENCES authors(id),
  category_id    INTEGER NOT NULL REFERENCES categories(id),
  isbn           TEXT NOT NULL UNIQUE,
  description    TEXT NOT NULL DEFAULT '',
  price_cents    INTEGER NOT NULL,
  stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK(stock_quantity >= 0),
  cover_url      TEXT NOT NULL DEFAULT '',
  created_unix   INTEGER NOT NULL,
  updated_unix   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_books_category ON books(category_id);
CREATE TABLE IF NOT EXISTS users(
  id            INTEGER PRIMARY KEY AUTOINCREMENT,
  username      TEXT NOT NULL UNIQUE,
  email         TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role          TEXT NOT NULL DEFAULT 'customer',
  phone         TEXT NOT NULL DEFAULT '',
  address       TEXT NOT NULL DEFAULT '',
  created_unix  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS carts(
  id      INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL UNIQUE REFERENCES users(id)
);
CREATE TABLE IF NOT EXISTS cart_items(
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  cart_id    INTEGER NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
  book_id    INTEGER NOT NULL REFERENCES books(id),
  qty        INTEGER NOT NULL CHECK(qty > 0),
  added_unix INTEGER NOT NULL,
  UNIQUE(cart_id, book_id)
);
CREATE TABLE IF NOT EXISTS orders(
  id           INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id      INTEGER NOT NULL REFERENCES users(id),
  order_number TEXT NOT NULL UNIQUE,
  status       TEXT NOT NULL,
  total_cents  INTEGER NOT NULL,
  created_unix INTEGER NOT NULL,
  updated_unix INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);
CREATE TABLE IF NOT EXISTS order_items(
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id   INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  book_id    INTEGER NOT NULL,
  title      TEXT NOT NULL,
  qty        INTEGER NOT NULL,
  unit_cents INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_items_order ON order_items(order_id);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}
